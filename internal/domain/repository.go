package domain

import (
	"context"
	"image"
)

// Decoder locates and decodes barcodes within a raster image. An image with
// no barcodes yields an empty slice, not an error.
type Decoder interface {
	Decode(img image.Image) ([]DecodedCode, error)
}

// FrameCodec turns transport frame bytes into a raster image.
type FrameCodec interface {
	DecodeImage(data []byte) (image.Image, error)
}

// HistoryStore persists summaries of finished scan sessions.
type HistoryStore interface {
	SaveSummary(ctx context.Context, summary SessionSummary) error
	Recent(ctx context.Context, limit int) ([]SessionSummary, error)
	Close() error
}
