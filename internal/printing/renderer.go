package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ErrRendererNotConfigured is returned when no render command has been set
var ErrRendererNotConfigured = errors.New("no label renderer configured")

// UnconfiguredRenderer fails every render
type UnconfiguredRenderer struct{}

func (UnconfiguredRenderer) Render(ctx context.Context, printerModel string, img image.Image, opts Options) ([]byte, error) {
	return nil, ErrRendererNotConfigured
}

// ExecRenderer converts an image into a printer command stream by running an
// external program. Arguments may contain the placeholders {model}, {label},
// {threshold}, {rotate}, {red} and {image}; {image} is replaced by the path of
// a temporary PNG. The program's stdout is the command stream.
type ExecRenderer struct {
	Command []string
	TempDir string
}

// NewExecRenderer splits command on whitespace and writes temporary images
// under tempDir, or the OS default when empty. An empty command yields an
// UnconfiguredRenderer.
func NewExecRenderer(command, tempDir string) Renderer {
	args := strings.Fields(command)
	if len(args) == 0 {
		return UnconfiguredRenderer{}
	}
	return &ExecRenderer{Command: args, TempDir: tempDir}
}

func (r *ExecRenderer) Render(ctx context.Context, printerModel string, img image.Image, opts Options) ([]byte, error) {
	if len(r.Command) == 0 {
		return nil, ErrRendererNotConfigured
	}

	tmp, err := os.CreateTemp(r.TempDir, "label-*.png")
	if err != nil {
		return nil, fmt.Errorf("creating image file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("writing image file: %w", err)
	}

	replacer := strings.NewReplacer(
		"{model}", printerModel,
		"{label}", opts.LabelSize,
		"{threshold}", strconv.Itoa(opts.Threshold),
		"{rotate}", opts.Rotate,
		"{red}", strconv.FormatBool(opts.Red),
		"{image}", tmp.Name(),
	)
	args := make([]string, len(r.Command))
	for i, arg := range r.Command {
		args[i] = replacer.Replace(arg)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("%s: %w", args[0], err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s produced no output", args[0])
	}
	return stdout.Bytes(), nil
}
