package decoder

import (
	"fmt"
	"image"
	"log"
	"math"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/multi"
	"github.com/makiuchi-d/gozxing/oned"

	"github.com/barcodelens/backend/internal/domain"
)

// multiReader is the slice of the zxing multi-barcode API this adapter uses.
type multiReader interface {
	DecodeMultiple(image *gozxing.BinaryBitmap, hints map[gozxing.DecodeHintType]interface{}) ([]*gozxing.Result, error)
}

// ZXingDecoder decodes UPC/EAN barcodes from raster images using the zxing
// multi-format UPC/EAN reader. A frame with no barcodes yields an empty
// result, never an error.
type ZXingDecoder struct {
	reader multiReader
	hints  map[gozxing.DecodeHintType]interface{}
	debug  bool
}

// NewZXingDecoder creates a decoder with TryHarder enabled; camera frames
// from phones are often blurry or rotated.
func NewZXingDecoder(debug bool) *ZXingDecoder {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	return &ZXingDecoder{
		reader: multi.NewGenericMultipleBarcodeReader(oned.NewMultiFormatUPCEANReader(hints)),
		hints:  hints,
		debug:  debug,
	}
}

// Decode finds every barcode in the image.
func (d *ZXingDecoder) Decode(img image.Image) ([]domain.DecodedCode, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("prepare bitmap: %w", err)
	}

	results, err := d.reader.DecodeMultiple(bmp, d.hints)
	if err != nil {
		// zxing reports "nothing found" as an error; treat it as an empty frame.
		if d.debug {
			log.Printf("[DECODE] No barcodes in frame: %v", err)
		}
		return nil, nil
	}

	out := make([]domain.DecodedCode, 0, len(results))
	for _, res := range results {
		out = append(out, domain.DecodedCode{
			Code:      res.GetText(),
			Symbology: res.GetBarcodeFormat().String(),
			Region:    boundingRect(res.GetResultPoints()),
		})
	}
	return out, nil
}

// boundingRect folds the decoder's result points into an axis-aligned box.
func boundingRect(points []gozxing.ResultPoint) domain.Rect {
	if len(points) == 0 {
		return domain.Rect{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.GetX())
		minY = math.Min(minY, p.GetY())
		maxX = math.Max(maxX, p.GetX())
		maxY = math.Max(maxY, p.GetY())
	}

	return domain.Rect{
		X:      int(minX),
		Y:      int(minY),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}
}
