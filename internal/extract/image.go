package extract

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/qr"
)

// extractImage decodes raster bytes and returns the first QR payload.
// Non-QR symbologies are ignored.
func (e *Extractor) extractImage(data []byte) (string, bool, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", false, common.KindError(common.ErrUnreadableImage, "decode raster", err)
	}

	symbols, err := e.decoder.Decode(img)
	if err != nil {
		return "", false, common.KindError(common.ErrUnreadableImage, "scan "+format+" image", err)
	}

	payload, ok := qr.FirstQR(symbols)
	return payload, ok, nil
}
