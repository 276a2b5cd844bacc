package printing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// DecodeImage decodes a base64 image, optionally wrapped in a data URL
func DecodeImage(encoded string) (image.Image, string, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if _, payload, ok := strings.Cut(encoded, ","); ok {
			encoded = payload
		}
	}
	if encoded == "" {
		return nil, "", fmt.Errorf("empty image data: %w", ErrInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Some clients strip the padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, "", fmt.Errorf("decoding base64: %v: %w", err, ErrInvalidImage)
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %v: %w", err, ErrInvalidImage)
	}
	return img, format, nil
}
