package printer

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/martinsuchenak/labeld/internal/log"
	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/paularlott/cli"
)

func ListCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List printers",
		Description: "List discovered and manually added printers",
		Flags:       clientFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			log.Debug("Listing printers", "server", cmd.GetString("server"))

			resp, err := makeRequest(cmd, http.MethodGet, "/api/printers", nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			var printers []model.PrinterListing
			if err := json.NewDecoder(resp.Body).Decode(&printers); err != nil {
				log.Error("Failed to decode printer list response", "error", err)
				return err
			}

			printPrinters(printers)
			return nil
		},
	}
}
