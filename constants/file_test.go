package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForName(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"a.pdf", PDF},
		{"A.PDF", PDF},
		{"scan.Jpeg", IMAGE},
		{"scan.jpg", IMAGE},
		{"photo.PNG", IMAGE},
		{"notes.txt", Unsupported},
		{"archive.pdf.zip", Unsupported},
		{"noext", Unsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatForName(tt.name))
		})
	}
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, "png", NormalizeExt(".PNG"))
	assert.Equal(t, "pdf", NormalizeExt("pdf"))
}
