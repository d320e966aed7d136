package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyAccountIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantOK   bool
		wantKind AccountKind
		wantID   string
		wantType string
	}{
		{
			name:     "regular uuid stays regular despite separators",
			input:    "3f2a9c1e-7b44-4d1a-9f0e-2f6a1b8c9d0e",
			wantOK:   true,
			wantKind: KindRegular,
			wantID:   "3f2a9c1e-7b44-4d1a-9f0e-2f6a1b8c9d0e",
		},
		{
			name:     "derived checking identifier",
			input:    "basic_checking-abc123",
			wantOK:   true,
			wantKind: KindDerived,
			wantID:   "abc123",
			wantType: "basic_checking",
		},
		{
			name:     "derived identifier with uuid application id",
			input:    "premium_checking-9a6f21c4-55cc-4b2c-a2fe-0d9c8e7f6a5b",
			wantOK:   true,
			wantKind: KindDerived,
			wantID:   "9a6f21c4-55cc-4b2c-a2fe-0d9c8e7f6a5b",
			wantType: "premium_checking",
		},
		{
			name:     "derived savings identifier",
			input:    "premium_savings-00f0",
			wantOK:   true,
			wantKind: KindDerived,
			wantID:   "00f0",
			wantType: "premium_savings",
		},
		{
			name:     "unknown prefix falls back to regular",
			input:    "gold_checking-abc123",
			wantOK:   true,
			wantKind: KindRegular,
			wantID:   "gold_checking-abc123",
		},
		{
			name:   "no-account sentinel is not classifiable",
			input:  "N/A",
			wantOK: false,
		},
		{
			name:   "empty identifier is not classifiable",
			input:  "",
			wantOK: false,
		},
		{
			name:   "whitespace identifier is not classifiable",
			input:  "   ",
			wantOK: false,
		},
		{
			name:   "type prefix with empty id is not derived",
			input:  "basic_checking-",
			wantOK: true,
			// trailing separator with nothing after it reads as a regular id
			wantKind: KindRegular,
			wantID:   "basic_checking-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := ClassifyAccountIdentifier(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantKind, ref.Kind)
			assert.Equal(t, tt.wantID, ref.ID)
			assert.Equal(t, tt.wantType, ref.ApplicationType)
		})
	}
}

// Re-splitting a derived identifier on the first separator must reproduce
// the application id exactly, even when the id itself contains separators.
func TestDerivedIdentifierRoundTrip(t *testing.T) {
	ids := []string{
		"abc123",
		"9a6f21c4-55cc-4b2c-a2fe-0d9c8e7f6a5b",
		"a-b-c-d-e-f",
		"-leading",
	}

	for _, appType := range ApplicationTypes {
		for _, appID := range ids {
			ident := DerivedIdentifier(appType, appID)
			ref, ok := ClassifyAccountIdentifier(ident)
			assert.True(t, ok, "identifier %q", ident)
			assert.Equal(t, KindDerived, ref.Kind, "identifier %q", ident)
			assert.Equal(t, appType, ref.ApplicationType, "identifier %q", ident)
			assert.Equal(t, appID, ref.ID, "identifier %q", ident)
		}
	}
}

func TestDerivedAccountNumber(t *testing.T) {
	tests := []struct {
		appType string
		appID   string
		want    string
	}{
		{"premium_checking", "9a6f21c4-55cc-4b2c-a2fe-0d9c8e7f6a5b", "PRE-9A6F21C4"},
		{"basic_checking", "abc123", "BAS-ABC123"},
		{"student_checking", "ff", "STU-FF"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DerivedAccountNumber(tt.appType, tt.appID))
	}
}
