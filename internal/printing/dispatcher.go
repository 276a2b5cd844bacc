package printing

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuchenak/labeld/internal/log"
	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/martinsuchenak/labeld/internal/session"
)

var (
	ErrNoPrinters      = errors.New("no printers available")
	ErrPrinterNotFound = errors.New("printer not found")
	ErrInvalidImage    = errors.New("invalid image data")
	ErrInvalidRequest  = errors.New("invalid print request")
)

// PrintError is a failure from the rendering or transport boundary
type PrintError struct {
	Stage string
	Err   error
}

func (e *PrintError) Error() string {
	return fmt.Sprintf("print failed during %s: %v", e.Stage, e.Err)
}

func (e *PrintError) Unwrap() error {
	return e.Err
}

// Sessions resolves display names to printer handles
type Sessions interface {
	DefaultPrinter() (string, bool)
	Session(displayName string) (*session.Handle, error)
	LabelSize(id string) string
}

// Renderer turns an image into a printer command stream
type Renderer interface {
	Render(ctx context.Context, printerModel string, img image.Image, opts Options) ([]byte, error)
}

// Transport opens a write stream to a printer endpoint
type Transport interface {
	Open(ctx context.Context, endpoint string) (io.WriteCloser, error)
}

// Recorder stores finished jobs
type Recorder interface {
	RecordJob(ctx context.Context, job *model.PrintJob) error
}

// Notifier receives job events
type Notifier interface {
	Notify(event model.Event)
}

// Options are passed through to the renderer unmodified
type Options struct {
	LabelSize string
	Threshold int
	Rotate    string
	Red       bool
}

// Dispatcher resolves a print request to a printer and sends it
type Dispatcher struct {
	sessions  Sessions
	renderer  Renderer
	transport Transport
	recorder  Recorder
	notifier  Notifier
	now       func() time.Time
}

func NewDispatcher(sessions Sessions, renderer Renderer, transport Transport) *Dispatcher {
	if renderer == nil {
		renderer = UnconfiguredRenderer{}
	}
	if transport == nil {
		transport = &SchemeTransport{}
	}
	return &Dispatcher{
		sessions:  sessions,
		renderer:  renderer,
		transport: transport,
		now:       time.Now,
	}
}

// SetRecorder enables job history. Must be called before the first Print.
func (d *Dispatcher) SetRecorder(r Recorder) {
	d.recorder = r
}

// SetNotifier enables job events. Must be called before the first Print.
func (d *Dispatcher) SetNotifier(n Notifier) {
	d.notifier = n
}

// Print sends one label. The returned job is nil when the request failed
// before a printer was resolved.
func (d *Dispatcher) Print(ctx context.Context, req model.PrintRequest) (*model.PrintJob, error) {
	threshold := model.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("threshold %d outside 0..100: %w", threshold, ErrInvalidRequest)
	}
	rotate := strings.TrimSpace(string(req.Rotate))
	if rotate == "" {
		rotate = model.DefaultRotate
	}
	if !validRotation(rotate) {
		return nil, fmt.Errorf("rotate %q must be auto, 0, 90, 180 or 270: %w", rotate, ErrInvalidRequest)
	}

	name := strings.TrimSpace(req.Printer)
	if name == "" {
		var ok bool
		name, ok = d.sessions.DefaultPrinter()
		if !ok {
			return nil, ErrNoPrinters
		}
	}

	handle, err := d.sessions.Session(name)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", name, ErrPrinterNotFound)
		}
		return nil, err
	}

	labelSize := strings.TrimSpace(req.LabelSize)
	if labelSize == "" {
		labelSize = d.sessions.LabelSize(handle.PrinterID)
	}

	job := &model.PrintJob{
		ID:          uuid.Must(uuid.NewV7()).String(),
		PrinterID:   handle.PrinterID,
		DisplayName: handle.DisplayName,
		Model:       handle.Model,
		Endpoint:    handle.Endpoint(),
		LabelSize:   labelSize,
		Threshold:   threshold,
		Rotate:      rotate,
		CreatedAt:   d.now().UTC(),
	}

	start := d.now()
	n, err := d.send(ctx, handle, req.Image, Options{
		LabelSize: labelSize,
		Threshold: threshold,
		Rotate:    rotate,
		Red:       strings.Contains(labelSize, "red"),
	})
	job.Bytes = n
	job.DurationMS = d.now().Sub(start).Milliseconds()
	if err != nil {
		job.Status = model.JobFailed
		job.Error = err.Error()
		log.Error("Print failed", "printer", handle.DisplayName, "endpoint", job.Endpoint, "error", err)
	} else {
		job.Status = model.JobCompleted
		log.Info("Label printed", "printer", handle.DisplayName, "label_size", labelSize, "threshold", threshold, "rotate", rotate, "bytes", n)
	}

	d.finish(ctx, job)
	return job, err
}

func (d *Dispatcher) send(ctx context.Context, handle *session.Handle, encoded string, opts Options) (int, error) {
	img, _, err := DecodeImage(encoded)
	if err != nil {
		return 0, err
	}

	data, err := d.renderer.Render(ctx, handle.Model, img, opts)
	if err != nil {
		return 0, &PrintError{Stage: "render", Err: err}
	}

	w, err := d.transport.Open(ctx, handle.Endpoint())
	if err != nil {
		return 0, &PrintError{Stage: "connect", Err: err}
	}
	n, err := w.Write(data)
	if err != nil {
		w.Close()
		return n, &PrintError{Stage: "write", Err: err}
	}
	if err := w.Close(); err != nil {
		return n, &PrintError{Stage: "write", Err: err}
	}
	return n, nil
}

func (d *Dispatcher) finish(ctx context.Context, job *model.PrintJob) {
	if d.recorder != nil {
		// The print already happened; a cancelled request must not lose its record
		if err := d.recorder.RecordJob(context.WithoutCancel(ctx), job); err != nil {
			log.Error("Failed to record print job", "job_id", job.ID, "error", err)
		}
	}
	if d.notifier != nil {
		d.notifier.Notify(model.Event{Type: model.EventJobFinished, Payload: job})
	}
}

func validRotation(rotate string) bool {
	if rotate == "auto" {
		return true
	}
	deg, err := strconv.Atoi(rotate)
	if err != nil {
		return false
	}
	return deg == 0 || deg == 90 || deg == 180 || deg == 270
}
