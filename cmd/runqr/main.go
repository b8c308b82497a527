package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/extract"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/payload"
)

func main() {
	cfg := common.LoadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runqr <file.pdf|file.png|file.jpg>")
		os.Exit(2)
	}
	path := os.Args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	name := filepath.Base(path)
	ctx = common.WithFileName(ctx, name)
	x := extract.NewExtractor(extract.Config{TryHarder: true}, logger)

	start := time.Now()
	raw, found, err := x.Extract(ctx, name, data)
	dur := time.Since(start)
	if err != nil {
		logger.Error("qr extraction failed", "file", name, "code", common.Code(err), "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}
	if !found {
		logger.Warn("no QR code found", "file", name, "duration_ms", dur.Milliseconds())
		os.Exit(3)
	}

	rec, err := payload.Parse(raw)
	if err != nil {
		logger.Error("qr payload rejected", "file", name, "payload", raw, "code", common.Code(err), "error", err)
		os.Exit(1)
	}

	logger.Info("qr extraction OK",
		"file", name,
		"document_type", rec.DocumentType,
		"person_identifier", rec.PersonIdentifier,
		"start_validity", rec.StartValidity.Format("2006-01-02"),
		"end_validity", rec.EndValidity.Format("2006-01-02"),
		"duration_ms", dur.Milliseconds(),
	)
}
