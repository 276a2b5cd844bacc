package printing

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImage(t *testing.T) {
	encoded := testImage(t)

	img, format, err := DecodeImage(encoded)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())

	_, format, err = DecodeImage("data:image/png;base64," + encoded)
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, _, err = DecodeImage(strings.TrimRight(encoded, "="))
	assert.NoError(t, err)
}

func TestDecodeImageJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil))

	_, format, err := DecodeImage(base64.StdEncoding.EncodeToString(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestDecodeImageErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"empty data url", "data:image/png;base64,"},
		{"not base64", "%%%"},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("hello"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeImage(tt.input)
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
}
