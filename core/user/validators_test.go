package user

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/examplan/core"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		pwd      string
		attrs    []string
		wantText string
	}{
		{"ok", "s3cure-passw0rd", []string{"admin"}, ""},
		{"too short", "short1", nil, pwdMinLenText},
		{"whitespace", "pass word1", nil, pwdNoSpaceText},
		{"all numeric", "12345678", nil, pwdNotAllNumText},
		{"similar to username", "admin2025", []string{"admin2025x"}, pwdAttrSimText},
		{"similar case-insensitive", "AdMiN2025", []string{"admin2025"}, pwdAttrSimText},
		{"empty attr ignored", "s3cure-passw0rd", []string{""}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.pwd, tt.attrs...)
			if tt.wantText == "" {
				assert.NoError(t, err)
				return
			}
			vErr, ok := err.(*core.ValidationError)
			if assert.True(t, ok, "expected a *core.ValidationError, got %T", err) {
				if assert.Len(t, vErr.Fields, 1) {
					assert.Equal(t, "password", vErr.Fields[0].Field)
					assert.Equal(t, tt.wantText, vErr.Fields[0].Error)
				}
			}
		})
	}
}
