package printer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/paularlott/cli"
)

func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:        "delete",
		Usage:       "Delete a manual printer",
		Description: "Remove a manually added printer and its configuration",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Flags: clientFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.GetStringArg("id")

			resp, err := makeRequest(cmd, http.MethodDelete, "/api/printers/"+url.PathEscape(id), nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusNoContent {
				return apiError(resp)
			}

			fmt.Println("Printer deleted")
			return nil
		},
	}
}
