package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Höchstens", "hochstens"},
		{"Gehaltsvorstellung", "gehaltsvorstellung"},
		{"  MIXED Case ", "  mixed case "},
		{"Ungültig", "ungultig"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), tt.in)
	}
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseSpace("  a \n\t b   c "))
	assert.Equal(t, "", CollapseSpace(" \n "))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Bitte gib mindestens 30 an.", "MINDESTENS"))
	assert.True(t, ContainsFold("Eingabe ungültig", "ungultig"))
	assert.False(t, ContainsFold("please answer", "required", ""))
}
