package printing

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecRendererEmptyCommand(t *testing.T) {
	r := NewExecRenderer("   ", "")
	_, err := r.Render(context.Background(), "QL-800", image.NewGray(image.Rect(0, 0, 1, 1)), Options{})
	assert.ErrorIs(t, err, ErrRendererNotConfigured)
}

func TestExecRendererExpandsPlaceholders(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	r := NewExecRenderer("echo {model} {label} {threshold} {rotate} {red}", "")

	out, err := r.Render(context.Background(), "QL-800", image.NewGray(image.Rect(0, 0, 1, 1)), Options{
		LabelSize: "62red",
		Threshold: 70,
		Rotate:    "auto",
		Red:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "QL-800 62red 70 auto true\n", string(out))
}

func TestExecRendererPassesImage(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	r := &ExecRenderer{Command: []string{"cat", "{image}"}, TempDir: t.TempDir()}

	src := image.NewGray(image.Rect(0, 0, 3, 2))
	out, err := r.Render(context.Background(), "QL-800", src, Options{})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), img.Bounds())
}

func TestExecRendererUsesTempDir(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	dir := t.TempDir()
	r := NewExecRenderer("echo {image}", dir)

	out, err := r.Render(context.Background(), "QL-800", image.NewGray(image.Rect(0, 0, 1, 1)), Options{})
	require.NoError(t, err)
	path := strings.TrimSpace(string(out))
	assert.Equal(t, dir, filepath.Dir(path))
	assert.NoFileExists(t, path)
}

func TestExecRendererFailures(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	_, err := NewExecRenderer("false", "").Render(context.Background(), "QL-800", image.NewGray(image.Rect(0, 0, 1, 1)), Options{})
	assert.Error(t, err)

	_, err = NewExecRenderer("true", "").Render(context.Background(), "QL-800", image.NewGray(image.Rect(0, 0, 1, 1)), Options{})
	assert.ErrorContains(t, err, "no output")
}
