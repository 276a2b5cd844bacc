package printer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/paularlott/cli"
)

func LabelSizeCommand() *cli.Command {
	return &cli.Command{
		Name:        "label-size",
		Usage:       "Set a printer's default label size",
		Description: "Set the label size used when a print request names none",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
			&cli.StringArg{Name: "size", Required: true},
		},
		Flags: clientFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.GetStringArg("id")
			size := cmd.GetStringArg("size")

			resp, err := makeRequest(cmd, http.MethodPut, "/api/printers/"+url.PathEscape(id)+"/label-size",
				map[string]string{"label_size": size})
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			fmt.Printf("Printer %s default label size set to %s\n", id, size)
			return nil
		},
	}
}
