package printer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/martinsuchenak/labeld/internal/log"
	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/paularlott/cli"
)

func PrintCommand() *cli.Command {
	return &cli.Command{
		Name:        "print",
		Usage:       "Print an image",
		Description: "Send a PNG, JPEG or GIF image to a printer",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file", Required: true},
		},
		Flags: clientFlags(
			&cli.StringFlag{Name: "printer", Usage: "Printer display name (defaults to the server's default printer)"},
			&cli.StringFlag{Name: "label-size", Usage: "Label size (defaults to the printer's default)"},
			&cli.IntFlag{Name: "threshold", Usage: "Black and white threshold, 0-100", DefaultValue: model.DefaultThreshold},
			&cli.StringFlag{Name: "rotate", Usage: "Rotation (auto, 0, 90, 180, 270)", DefaultValue: model.DefaultRotate},
		),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.GetStringArg("file")
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}

			threshold := cmd.GetInt("threshold")
			req := model.PrintRequest{
				Printer:   cmd.GetString("printer"),
				Image:     base64.StdEncoding.EncodeToString(data),
				LabelSize: cmd.GetString("label-size"),
				Threshold: &threshold,
				Rotate:    model.Rotation(cmd.GetString("rotate")),
			}
			log.Debug("Sending print request", "file", path, "printer", req.Printer, "bytes", len(data))

			resp, err := makeRequest(cmd, http.MethodPost, "/api/print", req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			var result struct {
				Message string          `json:"message"`
				Job     *model.PrintJob `json:"job"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return err
			}

			if result.Job != nil {
				fmt.Printf("%s: %s on %s (%s, %d bytes)\n", result.Message, result.Job.ID, result.Job.DisplayName, result.Job.LabelSize, result.Job.Bytes)
			} else {
				fmt.Println(result.Message)
			}
			return nil
		},
	}
}
