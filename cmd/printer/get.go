package printer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/martinsuchenak/labeld/internal/log"
	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/paularlott/cli"
)

func GetCommand() *cli.Command {
	return &cli.Command{
		Name:        "get",
		Usage:       "Get a printer",
		Description: "Show a printer by its identity",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Flags: clientFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.GetStringArg("id")

			resp, err := makeRequest(cmd, http.MethodGet, "/api/printers/"+url.PathEscape(id), nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			var printer model.PrinterListing
			if err := json.NewDecoder(resp.Body).Decode(&printer); err != nil {
				log.Error("Failed to decode printer response", "error", err, "printer_id", id)
				return err
			}

			printPrinter(&printer)
			return nil
		},
	}
}
