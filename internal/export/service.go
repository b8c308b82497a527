package export

import (
	"context"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/entity"
)

const SheetName = "Processed Files"

var Headers = []string{
	"File Name",
	"Document Type",
	"Person Identifier",
	"Start Validity",
	"End Validity",
	"Processed",
	"Processed At",
}

// EntryLister is satisfied by every repository.Ledger.
type EntryLister interface {
	List(ctx context.Context) ([]entity.LedgerEntry, error)
}

// Service renders the ledger as an XLSX workbook.
type Service struct {
	ledger EntryLister
	logger *slog.Logger
}

func NewService(ledger EntryLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: ledger, logger: logger}
}

// ExportLedgerXLSX returns one row per ledger entry, ordered by file name.
func (s *Service) ExportLedgerXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	entries, err := s.ledger.List(ctx)
	if err != nil {
		return nil, common.WrapError(err, "list ledger")
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("close workbook", "error", err)
		}
	}()

	// rename the default sheet rather than leave an empty "Sheet1"
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, common.WrapError(err, "rename sheet")
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for i, e := range entries {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}

		write(1, e.FileName)
		if e.Record != nil {
			write(2, e.Record.DocumentType)
			write(3, e.Record.PersonIdentifier)
			write(4, e.Record.StartValidity.Format(entity.DateLayout))
			write(5, e.Record.EndValidity.Format(entity.DateLayout))
		}
		write(6, yesNo(e.Processed))
		if e.ProcessedAt != nil {
			write(7, e.ProcessedAt.UTC().Format(time.RFC3339))
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 40) // file name
	_ = f.SetColWidth(SheetName, "B", "C", 22)
	_ = f.SetColWidth(SheetName, "D", "E", 14) // dates
	_ = f.SetColWidth(SheetName, "F", "F", 10)
	_ = f.SetColWidth(SheetName, "G", "G", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, common.WrapError(err, "xlsx write")
	}

	s.logger.Info("ledger exported",
		"rows", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
