package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/qrdoc-tracker/constants"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/qr"
)

type Config struct {
	TryHarder bool // slower, more thorough QR search
}

// Extractor finds the QR payload embedded in a PDF or raster image.
type Extractor struct {
	cfg     Config
	decoder qr.Decoder
	pages   PageImageSource
	logger  *slog.Logger
}

// NewExtractor wires the gozxing decoder and pdfcpu page source.
func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	return NewExtractorWith(cfg, qr.NewZXingDecoder(cfg.TryHarder), NewPDFCPUSource(), logger)
}

// NewExtractorWith lets callers substitute the decode primitive or the PDF image source.
func NewExtractorWith(cfg Config, decoder qr.Decoder, pages PageImageSource, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, decoder: decoder, pages: pages, logger: logger}
}

// Extract picks a strategy based on the file name suffix and returns the raw QR text.
// found is false when nothing decodable was located, including for unsupported types,
// whose data is never read.
func (e *Extractor) Extract(ctx context.Context, name string, data []byte) (payload string, found bool, err error) {
	start := time.Now()
	log := common.LoggerFrom(ctx, e.logger)

	switch constants.FormatForName(name) {
	case constants.PDF:
		payload, found, err = e.extractPDF(ctx, data)
	case constants.IMAGE:
		payload, found, err = e.extractImage(data)
	default:
		log.Debug("unsupported extension, skipping extraction", "name", name)
		return "", false, nil
	}

	log.Debug("qr extraction finished",
		"found", found,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err,
	)
	return payload, found, err
}
