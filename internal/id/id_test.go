package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunID(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	assert.NotEqual(t, a, b)

	got, err := ParseRunID(a)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestShort(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0190f3a2-7b1c-7d4e-9a55-1f2e3d4c5b6a", "0190f3a2"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Short(tt.in))
	}
}

func TestParseRunID_Invalid(t *testing.T) {
	_, err := ParseRunID("not-a-uuid")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run ID")
}
