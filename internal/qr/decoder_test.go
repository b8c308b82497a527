package qr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/qr"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/testutil"
)

func TestZXingDecoder_DecodesQR(t *testing.T) {
	img := testutil.QRImage(t, "ID_CARD,12345,2024-01-01,2024-12-31")

	symbols, err := qr.NewZXingDecoder(true).Decode(img)
	require.NoError(t, err)

	payload, ok := qr.FirstQR(symbols)
	require.True(t, ok)
	assert.Equal(t, "ID_CARD,12345,2024-01-01,2024-12-31", payload)
}

func TestZXingDecoder_BlankImageHasNoSymbols(t *testing.T) {
	symbols, err := qr.NewZXingDecoder(false).Decode(testutil.BlankImage(120, 80))
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestFirstQR_IgnoresOtherSymbologies(t *testing.T) {
	symbols := []qr.Symbol{
		{Symbology: qr.SymbologyCode128, Payload: "BARCODE"},
		{Symbology: qr.SymbologyQR, Payload: "first"},
		{Symbology: qr.SymbologyQR, Payload: "second"},
	}
	payload, ok := qr.FirstQR(symbols)
	assert.True(t, ok)
	assert.Equal(t, "first", payload)

	_, ok = qr.FirstQR(symbols[:1])
	assert.False(t, ok)
}
