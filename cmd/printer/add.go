package printer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/martinsuchenak/labeld/internal/log"
	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/paularlott/cli"
)

func AddCommand() *cli.Command {
	return &cli.Command{
		Name:        "add",
		Usage:       "Add a manual printer",
		Description: "Register a printer that is not announced over mDNS",
		Flags: clientFlags(
			&cli.StringFlag{Name: "id", Usage: "Printer identity", Required: true},
			&cli.StringFlag{Name: "address", Usage: "IP address, hostname or endpoint URI (tcp://host:port, file:///dev/usb/lp0)", Required: true},
			&cli.IntFlag{Name: "port", Usage: "Raw print port", DefaultValue: model.DefaultPort},
			&cli.StringFlag{Name: "model", Usage: "Printer model", DefaultValue: model.DefaultManualModel},
			&cli.StringFlag{Name: "display-name", Usage: "Display name (defaults to the identity)"},
			&cli.StringFlag{Name: "label-size", Usage: "Default label size"},
		),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			req := model.ManualPrinterRequest{
				PrinterID:        cmd.GetString("id"),
				Address:          cmd.GetString("address"),
				Port:             cmd.GetInt("port"),
				Model:            cmd.GetString("model"),
				DisplayName:      cmd.GetString("display-name"),
				DefaultLabelSize: cmd.GetString("label-size"),
			}
			log.Debug("Adding printer", "printer_id", req.PrinterID, "server", cmd.GetString("server"))

			resp, err := makeRequest(cmd, http.MethodPost, "/api/printers", req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusCreated {
				return apiError(resp)
			}

			var printer struct {
				model.PrinterListing
				Warning string `json:"warning"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&printer); err != nil {
				log.Error("Failed to decode response", "error", err, "printer_id", req.PrinterID)
				return err
			}

			fmt.Printf("Printer added: %s (%s)\n", printer.DisplayName, printer.ConnectionString)
			if printer.Warning != "" {
				fmt.Printf("Warning: %s\n", printer.Warning)
			}
			return nil
		},
	}
}
