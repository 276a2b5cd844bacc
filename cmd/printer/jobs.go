package printer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/paularlott/cli"
)

func JobsCommand() *cli.Command {
	return &cli.Command{
		Name:        "jobs",
		Usage:       "List print history",
		Description: "List recent print jobs, newest first",
		Flags: clientFlags(
			&cli.StringFlag{Name: "printer", Usage: "Filter by printer identity"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of jobs", DefaultValue: 20},
		),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			query := url.Values{}
			if printer := cmd.GetString("printer"); printer != "" {
				query.Set("printer", printer)
			}
			if limit := cmd.GetInt("limit"); limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}

			path := "/api/jobs"
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			resp, err := makeRequest(cmd, http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			var jobs []model.PrintJob
			if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
				return err
			}

			if len(jobs) == 0 {
				fmt.Println("No print jobs found")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tPRINTER\tLABEL\tSTATUS\tBYTES\tERROR")
			for _, j := range jobs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", j.CreatedAt.Format(time.RFC3339), j.DisplayName, j.LabelSize, j.Status, j.Bytes, j.Error)
			}
			return tw.Flush()
		},
	}
}
