package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/martinsuchenak/labeld/internal/fleet"
	"github.com/martinsuchenak/labeld/internal/log"
	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/martinsuchenak/labeld/internal/printing"
	"github.com/martinsuchenak/labeld/internal/storage"
)

// Fleet is the printer configuration surface the API manages
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

// Prober checks printer reachability
type Prober interface {
	Probe(ctx context.Context, p model.Printer) *model.PrinterStatus
}

// Handler handles HTTP requests
type Handler struct {
	fleet      Fleet
	dispatcher Dispatcher
	prober     Prober
	jobs       storage.JobStorage
	events     *EventHub
}

// NewHandler creates a new API handler
func NewHandler(f Fleet, d Dispatcher) *Handler {
	return &Handler{fleet: f, dispatcher: d}
}

// SetProber enables the printer status endpoint
func (h *Handler) SetProber(p Prober) {
	h.prober = p
}

// SetJobStorage enables the print history endpoint
func (h *Handler) SetJobStorage(s storage.JobStorage) {
	h.jobs = s
}

// SetEventHub enables the websocket event stream
func (h *Handler) SetEventHub(hub *EventHub) {
	h.events = hub
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Printers
	mux.HandleFunc("GET /api/printers", h.listPrinters)
	mux.HandleFunc("POST /api/printers", h.addPrinter)
	mux.HandleFunc("GET /api/printers/default", h.getDefaultPrinter)
	mux.HandleFunc("GET /api/printers/{id}", h.getPrinter)
	mux.HandleFunc("PUT /api/printers/{id}/display-name", h.setDisplayName)
	mux.HandleFunc("PUT /api/printers/{id}/label-size", h.setLabelSize)
	mux.HandleFunc("DELETE /api/printers/{id}", h.deletePrinter)
	mux.HandleFunc("GET /api/printers/{id}/status", h.getPrinterStatus)

	// Printing
	mux.HandleFunc("POST /api/print", h.print)
	mux.HandleFunc("GET /api/jobs", h.listJobs)
	mux.HandleFunc("GET /api/label-sizes", h.listLabelSizes)

	// Events
	mux.HandleFunc("GET /api/events", h.streamEvents)
}

// listPrinters handles GET /api/printers
func (h *Handler) listPrinters(w http.ResponseWriter, r *http.Request) {
	printers := h.fleet.ListPrinters()
	log.Debug("Listed printers", "count", len(printers))
	h.writeJSON(w, http.StatusOK, printers)
}

// getPrinter handles GET /api/printers/{id}
func (h *Handler) getPrinter(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	printer, err := h.fleet.Printer(id)
	if err != nil {
		h.fleetError(w, err, "printer_id", id)
		return
	}
	h.writeJSON(w, http.StatusOK, printer)
}

// addPrinter handles POST /api/printers
func (h *Handler) addPrinter(w http.ResponseWriter, r *http.Request) {
	var req model.ManualPrinterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Invalid add printer request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	log.Debug("Adding manual printer", "printer_id", req.PrinterID, "address", req.Address)

	printer, err := h.fleet.AddManualPrinter(req)
	if err != nil {
		// A name taken by a concurrent request still leaves the printer
		// registered under its previous name
		if errors.Is(err, fleet.ErrDisplayNameInUse) && printer.PrinterID != "" {
			log.Warn("Manual printer added without requested display name", "printer_id", printer.PrinterID, "display_name", printer.DisplayName, "error", err)
			h.writeJSON(w, http.StatusCreated, addPrinterResponse{PrinterListing: printer, Warning: err.Error()})
			return
		}
		h.fleetError(w, err, "printer_id", req.PrinterID)
		return
	}

	log.Info("Manual printer added", "printer_id", printer.PrinterID, "display_name", printer.DisplayName)
	h.writeJSON(w, http.StatusCreated, addPrinterResponse{PrinterListing: printer})
}

type addPrinterResponse struct {
	model.PrinterListing
	Warning string `json:"warning,omitempty"`
}

// setDisplayName handles PUT /api/printers/{id}/display-name
func (h *Handler) setDisplayName(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Warn("Invalid display name request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.fleet.SetDisplayName(id, body.DisplayName); err != nil {
		h.fleetError(w, err, "printer_id", id)
		return
	}

	printer, err := h.fleet.Printer(id)
	if err != nil {
		h.fleetError(w, err, "printer_id", id)
		return
	}
	h.writeJSON(w, http.StatusOK, printer)
}

// setLabelSize handles PUT /api/printers/{id}/label-size
func (h *Handler) setLabelSize(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body struct {
		LabelSize string `json:"label_size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Warn("Invalid label size request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.fleet.SetDefaultLabelSize(id, body.LabelSize); err != nil {
		h.fleetError(w, err, "printer_id", id)
		return
	}

	printer, err := h.fleet.Printer(id)
	if err != nil {
		h.fleetError(w, err, "printer_id", id)
		return
	}
	h.writeJSON(w, http.StatusOK, printer)
}

// deletePrinter handles DELETE /api/printers/{id}
func (h *Handler) deletePrinter(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.fleet.RemovePrinter(id); err != nil {
		h.fleetError(w, err, "printer_id", id)
		return
	}

	log.Info("Printer deleted", "printer_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// getDefaultPrinter handles GET /api/printers/default
func (h *Handler) getDefaultPrinter(w http.ResponseWriter, r *http.Request) {
	name, ok := h.fleet.DefaultPrinter()
	if !ok {
		h.writeError(w, http.StatusNotFound, "no printers available")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"display_name": name})
}

// getPrinterStatus handles GET /api/printers/{id}/status
func (h *Handler) getPrinterStatus(w http.ResponseWriter, r *http.Request) {
	if h.prober == nil {
		h.writeError(w, http.StatusNotImplemented, "status probing not enabled")
		return
	}

	id := r.PathValue("id")
	printer, err := h.fleet.Printer(id)
	if err != nil {
		h.fleetError(w, err, "printer_id", id)
		return
	}

	status := h.prober.Probe(r.Context(), model.Printer{
		ID:      printer.PrinterID,
		Address: printer.Address,
		Port:    printer.Port,
		Model:   printer.Model,
	})
	h.writeJSON(w, http.StatusOK, status)
}

// print handles POST /api/print
func (h *Handler) print(w http.ResponseWriter, r *http.Request) {
	var req model.PrintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Invalid print request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		h.writeError(w, http.StatusBadRequest, "image data is required")
		return
	}

	job, err := h.dispatcher.Print(r.Context(), req)
	if err != nil {
		var printErr *printing.PrintError
		switch {
		case errors.Is(err, printing.ErrInvalidRequest), errors.Is(err, printing.ErrInvalidImage):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, printing.ErrNoPrinters):
			h.writeError(w, http.StatusServiceUnavailable, "no printers available")
		case errors.Is(err, printing.ErrPrinterNotFound):
			h.writeError(w, http.StatusNotFound, "printer not found")
		case errors.As(err, &printErr):
			h.writeError(w, http.StatusBadGateway, printErr.Error())
		default:
			h.internalError(w, err)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Label printed successfully",
		"job":     job,
	})
}

// listJobs handles GET /api/jobs
func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		h.writeError(w, http.StatusNotImplemented, "print history not enabled")
		return
	}

	filter := &model.JobFilter{PrinterID: r.URL.Query().Get("printer")}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	jobs, err := h.jobs.ListJobs(r.Context(), filter)
	if err != nil {
		log.Error("Failed to list print jobs", "error", err)
		h.internalError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, jobs)
}

// listLabelSizes handles GET /api/label-sizes
func (h *Handler) listLabelSizes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, model.LabelSizes)
}

// streamEvents handles GET /api/events
func (h *Handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		h.writeError(w, http.StatusNotImplemented, "event stream not enabled")
		return
	}
	h.events.ServeHTTP(w, r)
}

// fleetError maps fleet store errors to responses
func (h *Handler) fleetError(w http.ResponseWriter, err error, keysAndValues ...any) {
	switch {
	case errors.Is(err, fleet.ErrPrinterNotFound):
		log.Warn("Printer not found", keysAndValues...)
		h.writeError(w, http.StatusNotFound, "printer not found")
	case errors.Is(err, fleet.ErrDisplayNameInUse):
		log.Warn("Display name conflict", append(keysAndValues, "error", err)...)
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, fleet.ErrNotManual):
		log.Warn("Refused to remove discovered printer", keysAndValues...)
		h.writeError(w, http.StatusConflict, "only manually added printers can be removed")
	case errors.Is(err, fleet.ErrInvalidPrinter),
		errors.Is(err, fleet.ErrInvalidDisplayName),
		errors.Is(err, fleet.ErrInvalidLabelSize):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.internalError(w, err)
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// internalError logs the error and writes a generic 500 response
func (h *Handler) internalError(w http.ResponseWriter, err error) {
	log.Error("Internal server error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "Internal Server Error")
}
