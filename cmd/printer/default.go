package printer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/paularlott/cli"
)

func DefaultCommand() *cli.Command {
	return &cli.Command{
		Name:        "default",
		Usage:       "Show the default printer",
		Description: "Show the printer used when a print request names none",
		Flags:       clientFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			resp, err := makeRequest(cmd, http.MethodGet, "/api/printers/default", nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			var body struct {
				DisplayName string `json:"display_name"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return err
			}

			fmt.Println(body.DisplayName)
			return nil
		},
	}
}
