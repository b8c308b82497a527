// Package payload parses the comma-separated QR payload carried by validity documents:
//
//	document_type,person_identifier,YYYY-MM-DD,YYYY-MM-DD
package payload

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/entity"
)

// FieldCount is the exact number of comma-separated fields in a payload.
const FieldCount = 4

// Parse turns decoded QR text into a ValidityRecord.
// Fields are taken verbatim; neither identifier format nor date ordering is checked.
func Parse(raw string) (entity.ValidityRecord, error) {
	fields := strings.Split(raw, ",")
	if len(fields) != FieldCount {
		return entity.ValidityRecord{}, common.KindErrorf(common.ErrMalformedPayload,
			"expected %d comma-separated fields, got %d", FieldCount, len(fields))
	}

	start, err := parseDate("start_validity", fields[2])
	if err != nil {
		return entity.ValidityRecord{}, err
	}
	end, err := parseDate("end_validity", fields[3])
	if err != nil {
		return entity.ValidityRecord{}, err
	}

	return entity.ValidityRecord{
		DocumentType:     fields[0],
		PersonIdentifier: fields[1],
		StartValidity:    start,
		EndValidity:      end,
	}, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(entity.DateLayout, value)
	if err != nil {
		return time.Time{}, common.KindError(common.ErrInvalidDate, field+" "+quote(value)+" is not YYYY-MM-DD", err)
	}
	return t, nil
}

// quote truncates to max runes so the message stays valid UTF-8.
func quote(s string) string {
	const max = 32
	if utf8.RuneCountInString(s) > max {
		s = string([]rune(s)[:max]) + "..."
	}
	return `"` + s + `"`
}
