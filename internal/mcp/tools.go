package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/martinsuchenak/labeld/internal/fleet"
	"github.com/martinsuchenak/labeld/internal/log"
	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/martinsuchenak/labeld/internal/printing"
	"github.com/paularlott/mcp"
)

func (s *Server) registerTools() {
	s.server.RegisterTool(
		mcp.NewTool("list_printers", "List discovered and manually added printers with their display names and default label sizes"),
		s.handleListPrinters,
	)

	s.server.RegisterTool(
		mcp.NewTool("get_printer", "Get a printer by its identity",
			mcp.String("printer_id", "Printer identity", mcp.Required()),
		),
		s.handleGetPrinter,
	)

	s.server.RegisterTool(
		mcp.NewTool("add_printer", "Register a printer that is not announced over mDNS",
			mcp.String("printer_id", "Printer identity", mcp.Required()),
			mcp.String("address", "IP address, hostname or endpoint URI such as file:///dev/usb/lp0", mcp.Required()),
			mcp.Number("port", "Raw print port (default 9100)"),
			mcp.String("model", "Printer model, e.g. QL-800 (default QL-500)"),
			mcp.String("display_name", "Display name (defaults to the identity)"),
			mcp.String("label_size", "Default label size, e.g. 62"),
		),
		s.handleAddPrinter,
	)

	s.server.RegisterTool(
		mcp.NewTool("set_display_name", "Change the name print requests use to address a printer",
			mcp.String("printer_id", "Printer identity", mcp.Required()),
			mcp.String("display_name", "New display name", mcp.Required()),
		),
		s.handleSetDisplayName,
	)

	s.server.RegisterTool(
		mcp.NewTool("set_label_size", "Set the label size used when a print request names none",
			mcp.String("printer_id", "Printer identity", mcp.Required()),
			mcp.String("label_size", "Label size, e.g. 62 or 29x90", mcp.Required()),
		),
		s.handleSetLabelSize,
	)

	s.server.RegisterTool(
		mcp.NewTool("delete_printer", "Remove a manually added printer and its configuration",
			mcp.String("printer_id", "Printer identity", mcp.Required()),
		),
		s.handleDeletePrinter,
	)

	s.server.RegisterTool(
		mcp.NewTool("get_default_printer", "Get the display name used when a print request names no printer"),
		s.handleGetDefaultPrinter,
	)

	s.server.RegisterTool(
		mcp.NewTool("list_label_sizes", "List the label size tokens QL printers understand"),
		s.handleListLabelSizes,
	)

	s.server.RegisterTool(
		mcp.NewTool("print_label", "Print a base64 encoded PNG, JPEG or GIF image",
			mcp.String("image", "Base64 image data, optionally as a data URL", mcp.Required()),
			mcp.String("printer", "Printer display name (defaults to the default printer)"),
			mcp.String("label_size", "Label size (defaults to the printer's default)"),
			mcp.Number("threshold", "Black and white threshold, 0-100 (default 70)"),
			mcp.String("rotate", "Rotation: auto, 0, 90, 180 or 270 (default auto)"),
		),
		s.handlePrintLabel,
	)
}

func (s *Server) handleListPrinters(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	return mcp.NewToolResponseJSON(s.fleet.ListPrinters()), nil
}

func (s *Server) handleGetPrinter(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := requiredString(req, "printer_id")
	if err != nil {
		return nil, err
	}

	printer, err := s.fleet.Printer(id)
	if err != nil {
		return nil, toolError(err)
	}
	return mcp.NewToolResponseJSON(printer), nil
}

func (s *Server) handleAddPrinter(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := requiredString(req, "printer_id")
	if err != nil {
		return nil, err
	}
	address, err := requiredString(req, "address")
	if err != nil {
		return nil, err
	}

	printer, err := s.fleet.AddManualPrinter(model.ManualPrinterRequest{
		PrinterID:        id,
		Address:          address,
		Port:             req.IntOr("port", 0),
		Model:            req.StringOr("model", ""),
		DisplayName:      req.StringOr("display_name", ""),
		DefaultLabelSize: req.StringOr("label_size", ""),
	})
	if err != nil {
		if errors.Is(err, fleet.ErrDisplayNameInUse) && printer.PrinterID != "" {
			// The printer exists; only the requested name was refused
			return mcp.NewToolResponseMulti(
				mcp.NewToolResponseText(fmt.Sprintf("Printer added as %q: %v", printer.DisplayName, err)),
				mcp.NewToolResponseJSON(printer),
			), nil
		}
		return nil, toolError(err)
	}

	log.Info("Printer added via MCP", "printer_id", printer.PrinterID)
	return mcp.NewToolResponseJSON(printer), nil
}

func (s *Server) handleSetDisplayName(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := requiredString(req, "printer_id")
	if err != nil {
		return nil, err
	}
	name, err := requiredString(req, "display_name")
	if err != nil {
		return nil, err
	}

	if err := s.fleet.SetDisplayName(id, name); err != nil {
		return nil, toolError(err)
	}
	return mcp.NewToolResponseText(fmt.Sprintf("Printer %s renamed to %q", id, name)), nil
}

func (s *Server) handleSetLabelSize(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := requiredString(req, "printer_id")
	if err != nil {
		return nil, err
	}
	size, err := requiredString(req, "label_size")
	if err != nil {
		return nil, err
	}

	if err := s.fleet.SetDefaultLabelSize(id, size); err != nil {
		return nil, toolError(err)
	}
	return mcp.NewToolResponseText(fmt.Sprintf("Printer %s default label size set to %s", id, size)), nil
}

func (s *Server) handleDeletePrinter(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := requiredString(req, "printer_id")
	if err != nil {
		return nil, err
	}

	if err := s.fleet.RemovePrinter(id); err != nil {
		return nil, toolError(err)
	}
	log.Info("Printer deleted via MCP", "printer_id", id)
	return mcp.NewToolResponseText(fmt.Sprintf("Printer %s deleted", id)), nil
}

func (s *Server) handleGetDefaultPrinter(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	name, ok := s.fleet.DefaultPrinter()
	if !ok {
		return nil, toolError(printing.ErrNoPrinters)
	}
	return mcp.NewToolResponseText(name), nil
}

func (s *Server) handleListLabelSizes(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	return mcp.NewToolResponseJSON(model.LabelSizes), nil
}

func (s *Server) handlePrintLabel(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	image, err := requiredString(req, "image")
	if err != nil {
		return nil, err
	}

	printReq := model.PrintRequest{
		Printer:   req.StringOr("printer", ""),
		Image:     image,
		LabelSize: req.StringOr("label_size", ""),
		Rotate:    model.Rotation(req.StringOr("rotate", "")),
	}
	if threshold, err := req.Int("threshold"); err == nil {
		printReq.Threshold = &threshold
	}

	job, err := s.dispatcher.Print(ctx, printReq)
	if err != nil {
		return nil, toolError(err)
	}
	return mcp.NewToolResponseMulti(
		mcp.NewToolResponseText(fmt.Sprintf("Label printed on %s", job.DisplayName)),
		mcp.NewToolResponseJSON(job),
	), nil
}

func requiredString(req *mcp.ToolRequest, name string) (string, error) {
	value, err := req.String(name)
	if err != nil || value == "" {
		return "", mcp.NewToolErrorInvalidParams(name + " is required")
	}
	return value, nil
}

// toolError maps fleet and print errors to MCP errors. Caller mistakes become
// invalid params; print failures keep their cause for the client.
func toolError(err error) error {
	var printErr *printing.PrintError
	switch {
	case errors.Is(err, fleet.ErrPrinterNotFound),
		errors.Is(err, fleet.ErrDisplayNameInUse),
		errors.Is(err, fleet.ErrNotManual),
		errors.Is(err, fleet.ErrInvalidPrinter),
		errors.Is(err, fleet.ErrInvalidDisplayName),
		errors.Is(err, fleet.ErrInvalidLabelSize),
		errors.Is(err, printing.ErrNoPrinters),
		errors.Is(err, printing.ErrPrinterNotFound),
		errors.Is(err, printing.ErrInvalidImage),
		errors.Is(err, printing.ErrInvalidRequest):
		return mcp.NewToolErrorInvalidParams(err.Error())
	case errors.As(err, &printErr):
		return mcp.NewToolErrorInternal(printErr.Error())
	default:
		log.Error("MCP tool failed", "error", err)
		return mcp.NewToolErrorInternal("internal error")
	}
}
