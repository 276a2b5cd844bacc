package mcp

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/martinsuchenak/labeld/internal/log"
	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/paularlott/mcp"
)

const (
	serverName    = "labeld"
	serverVersion = "1.0.0"
)

// Fleet is the printer configuration surface exposed as tools
type Fleet interface {
	ListPrinters() []model.PrinterListing
	Printer(id string) (model.PrinterListing, error)
	SetDisplayName(id, name string) error
	SetDefaultLabelSize(id, size string) error
	AddManualPrinter(req model.ManualPrinterRequest) (model.PrinterListing, error)
	RemovePrinter(id string) error
	DefaultPrinter() (string, bool)
}

// Dispatcher sends print requests
type Dispatcher interface {
	Print(ctx context.Context, req model.PrintRequest) (*model.PrintJob, error)
}

// Server exposes fleet management and printing to MCP clients
type Server struct {
	server     *mcp.Server
	fleet      Fleet
	dispatcher Dispatcher
	authToken  string
}

// NewServer creates an MCP server with every printer tool registered. An
// empty authToken leaves the endpoint open, like the HTTP API.
func NewServer(f Fleet, d Dispatcher, authToken string) *Server {
	s := &Server{
		server:     mcp.NewServer(serverName, serverVersion),
		fleet:      f,
		dispatcher: d,
		authToken:  authToken,
	}
	s.server.SetInstructions("Manage Brother QL label printers on the local network and print PNG, JPEG or GIF images to them. " +
		"Printers are addressed by display name when printing and by printer_id everywhere else.")
	s.registerTools()
	return s
}

// GetHTTPHandler returns the handler mounted at /mcp
func (s *Server) GetHTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken != "" && !s.authorized(r) {
			log.Warn("Rejected unauthenticated MCP request", "remote", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		s.server.HandleRequest(w, r)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || scheme != "Bearer" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) == 1
}

// LogStartup reports the registered tools
func (s *Server) LogStartup() {
	tools := s.server.ListTools()
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	log.Info("MCP tools registered", "count", len(names), "tools", strings.Join(names, ","))
}
