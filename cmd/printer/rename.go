package printer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/paularlott/cli"
)

func RenameCommand() *cli.Command {
	return &cli.Command{
		Name:        "rename",
		Usage:       "Set a printer's display name",
		Description: "Change the name print requests use to address a printer",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
			&cli.StringArg{Name: "name", Required: true},
		},
		Flags: clientFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.GetStringArg("id")
			name := cmd.GetStringArg("name")

			resp, err := makeRequest(cmd, http.MethodPut, "/api/printers/"+url.PathEscape(id)+"/display-name",
				map[string]string{"display_name": name})
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			fmt.Printf("Printer %s renamed to %q\n", id, name)
			return nil
		},
	}
}
