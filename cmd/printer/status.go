package printer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/paularlott/cli"
)

func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:        "status",
		Usage:       "Probe a printer",
		Description: "Check reachability, open ports and SNMP status of a printer",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Flags: clientFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.GetStringArg("id")

			resp, err := makeRequest(cmd, http.MethodGet, "/api/printers/"+url.PathEscape(id)+"/status", nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			var status model.PrinterStatus
			if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
				return err
			}

			fmt.Printf("Printer:   %s (%s)\n", status.PrinterID, status.Address)
			fmt.Printf("Reachable: %t (ping: %t)\n", status.Reachable, status.PingOK)
			if len(status.OpenPorts) > 0 {
				ports := make([]string, len(status.OpenPorts))
				for i, p := range status.OpenPorts {
					ports[i] = fmt.Sprint(p)
				}
				fmt.Printf("Ports:     %s\n", strings.Join(ports, ", "))
			}
			if len(status.Services) > 0 {
				fmt.Printf("Services:  %s\n", strings.Join(status.Services, ", "))
			}
			if status.MACAddress != "" {
				fmt.Printf("MAC:       %s\n", status.MACAddress)
			}
			if status.Description != "" {
				fmt.Printf("SNMP:      %s\n", status.Description)
				fmt.Printf("Device:    %s\n", status.DeviceStatus)
				fmt.Printf("State:     %s\n", status.PrinterState)
			}
			return nil
		},
	}
}
