package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// PrintRequest is a request to print an image. Threshold is a pointer so an
// explicit 0 is distinguishable from an absent value.
type PrintRequest struct {
	Printer   string   `json:"printer,omitempty"`
	Image     string   `json:"image"`
	LabelSize string   `json:"label_size,omitempty"`
	Threshold *int     `json:"threshold,omitempty"`
	Rotate    Rotation `json:"rotate,omitempty"`
}

// Rotation is "auto" or a quarter-turn angle. It accepts both JSON strings and
// numbers since clients send either.
type Rotation string

func (r *Rotation) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*r = Rotation(strconv.Itoa(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = Rotation(s)
	return nil
}

const (
	DefaultThreshold = 70
	DefaultRotate    = "auto"
)

// JobStatus is the outcome of a dispatched print
type JobStatus string

const (
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// PrintJob records one dispatched print
type PrintJob struct {
	ID          string    `json:"id"`
	PrinterID   string    `json:"printer_id"`
	DisplayName string    `json:"display_name"`
	Model       string    `json:"model"`
	Endpoint    string    `json:"endpoint"`
	LabelSize   string    `json:"label_size"`
	Threshold   int       `json:"threshold"`
	Rotate      string    `json:"rotate"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	Bytes       int       `json:"bytes"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// JobFilter holds filter criteria for listing print jobs
type JobFilter struct {
	PrinterID string
	Limit     int
}
