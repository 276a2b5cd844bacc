package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/martinsuchenak/labeld/internal/config"
	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/paularlott/cli"
)

func Commands() []*cli.Command {
	return []*cli.Command{
		ListCommand(),
		GetCommand(),
		AddCommand(),
		RenameCommand(),
		LabelSizeCommand(),
		DeleteCommand(),
		DefaultCommand(),
		PrintCommand(),
		StatusCommand(),
		JobsCommand(),
	}
}

func clientFlags(extra ...cli.Flag) []cli.Flag {
	return append(extra,
		&cli.StringFlag{Name: "server", Usage: "Server URL", EnvVars: []string{"LABELD_SERVER"}, DefaultValue: getDefaultServerURL()},
		&cli.StringFlag{Name: "api-token", Usage: "API authentication token", EnvVars: []string{"LABELD_API_TOKEN"}},
	)
}

func getDefaultServerURL() string {
	return "http://localhost" + config.DefaultListenAddr
}

func createHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func addAuthHeader(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func makeRequest(cmd *cli.Command, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = strings.NewReader(string(data))
	}

	// Printing waits for the transport write, so allow longer than metadata calls
	timeout := 30 * time.Second
	if method == http.MethodPost && path == "/api/print" {
		timeout = 2 * time.Minute
	}

	req, err := http.NewRequest(method, strings.TrimRight(cmd.GetString("server"), "/")+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuthHeader(req, cmd.GetString("api-token"))

	resp, err := createHTTPClient(timeout).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	return resp, nil
}

// apiError turns a non-success response into an error carrying the server's message
func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server error: %s", resp.Status)
}

func printPrinters(printers []model.PrinterListing) {
	if len(printers) == 0 {
		fmt.Println("No printers found")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDISPLAY NAME\tMODEL\tADDRESS\tLABEL\tSTATUS")
	for _, p := range printers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s:%d\t%s\t%s\n", p.PrinterID, p.DisplayName, p.Model, p.Address, p.Port, p.DefaultLabelSize, p.Status)
	}
	tw.Flush()
}

func printPrinter(p *model.PrinterListing) {
	fmt.Printf("ID:           %s\n", p.PrinterID)
	fmt.Printf("Display name: %s\n", p.DisplayName)
	fmt.Printf("Model:        %s\n", p.Model)
	fmt.Printf("Address:      %s\n", p.Address)
	fmt.Printf("Port:         %d\n", p.Port)
	fmt.Printf("Connection:   %s\n", p.ConnectionString)
	fmt.Printf("Label size:   %s\n", p.DefaultLabelSize)
	fmt.Printf("Origin:       %s\n", p.Origin)
	fmt.Printf("Status:       %s\n", p.Status)
	fmt.Printf("Last seen:    %s\n", p.LastSeen.Format(time.RFC3339))
}
