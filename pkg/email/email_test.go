package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"maria.lopez@hospital.org", "Maria Lopez"},
		{"dr_james_okafor@hospital.org", "Dr Okafor"},
		{"pharmacy@hospital.org", "Pharmacy"},
		{"@hospital.org", "User"},
		{"", "User"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveName(tt.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "x@y.com", Normalize("  X@Y.com "))
}
