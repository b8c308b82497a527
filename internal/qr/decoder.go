package qr

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Symbology names a barcode family.
type Symbology string

const (
	SymbologyQR      Symbology = "QRCODE"
	SymbologyCode128 Symbology = "CODE128"
)

// Symbol is one decoded barcode.
type Symbol struct {
	Symbology Symbology
	Payload   string
}

// Decoder detects barcodes in an image. An image without any symbol yields an empty slice, not an error.
type Decoder interface {
	Decode(img image.Image) ([]Symbol, error)
}

// ZXingDecoder runs the gozxing QR and Code 128 readers over an image.
type ZXingDecoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewZXingDecoder(tryHarder bool) *ZXingDecoder {
	hints := map[gozxing.DecodeHintType]interface{}{}
	if tryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	return &ZXingDecoder{hints: hints}
}

func (d *ZXingDecoder) Decode(img image.Image) ([]Symbol, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarize image: %w", err)
	}

	var out []Symbol
	// Reader errors are NotFound/Checksum/Format exceptions: nothing readable of that kind.
	if res, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints); err == nil {
		out = append(out, Symbol{Symbology: mapFormat(res.GetBarcodeFormat()), Payload: res.GetText()})
	}
	if res, err := oned.NewCode128Reader().Decode(bmp, d.hints); err == nil {
		out = append(out, Symbol{Symbology: mapFormat(res.GetBarcodeFormat()), Payload: res.GetText()})
	}
	return out, nil
}

func mapFormat(f gozxing.BarcodeFormat) Symbology {
	switch f {
	case gozxing.BarcodeFormat_QR_CODE:
		return SymbologyQR
	case gozxing.BarcodeFormat_CODE_128:
		return SymbologyCode128
	default:
		return Symbology(f.String())
	}
}

// FirstQR returns the payload of the first QR symbol, ignoring other symbologies.
func FirstQR(symbols []Symbol) (string, bool) {
	for _, s := range symbols {
		if s.Symbology == SymbologyQR {
			return s.Payload, true
		}
	}
	return "", false
}
