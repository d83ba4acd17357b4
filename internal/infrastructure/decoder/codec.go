package decoder

import (
	"bytes"
	"fmt"
	"image"

	// Register the raster formats mobile clients send.
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/gen2brain/heic"

	"github.com/barcodelens/backend/internal/domain"
)

// Codec decodes transport frame bytes into a raster image using the formats
// registered with the image package (JPEG, PNG, HEIC). Decode failure is a
// frame-local condition, never fatal to a session.
type Codec struct{}

// DecodeImage decodes one frame's bytes.
func (Codec) DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty frame", domain.ErrImageDecode)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}
	return img, nil
}
