package entity

import "time"

// DateLayout is the wire and storage layout of validity dates.
const DateLayout = "2006-01-02"

// ValidityRecord is the typed content of a document's QR payload.
type ValidityRecord struct {
	DocumentType     string    `json:"document_type"`
	PersonIdentifier string    `json:"person_identifier"`
	StartValidity    time.Time `json:"start_validity"`
	EndValidity      time.Time `json:"end_validity"`
}

// LedgerEntry is one row of processed_files.
type LedgerEntry struct {
	FileName    string          `json:"file_name"`
	Processed   bool            `json:"processed"`
	Record      *ValidityRecord `json:"record,omitempty"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}
