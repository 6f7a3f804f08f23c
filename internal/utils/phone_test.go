package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		country string
		want    string
	}{
		{"local zambian number", "0961234567", "ZM", "260961234567"},
		{"already international", "260961234567", "ZM", "260961234567"},
		{"plus prefix stripped", "+260 96 123 4567", "ZM", "260961234567"},
		{"ghana local", "0241234567", "GH", "233241234567"},
		{"unknown country passes digits", "0961234567", "XX", "0961234567"},
		{"lowercase country code", "0961234567", "zm", "260961234567"},
		{"empty phone", "", "ZM", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.phone, tt.country))
		})
	}
}
