package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/examplan/core"
)

// password policy (account provisioning; see apps/solverstub)
var (
	pwdMinLen     = 8
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceText   = "password must not contain whitespace"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimText = "password cannot be similar to user attributes"
)

// ValidatePassword enforces the account password policy. usrAttrs are the user's
// known attributes (username etc.) the password must not resemble.
func ValidatePassword(pwd string, usrAttrs ...string) error {
	reportErr := func(text string) error {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: text})
	}

	if len(pwd) < pwdMinLen {
		return reportErr(pwdMinLenText)
	}

	var digitCount int
	for _, r := range pwd {
		if unicode.IsSpace(r) {
			return reportErr(pwdNoSpaceText)
		}
		if unicode.IsDigit(r) {
			digitCount++
		}
	}
	if digitCount == len(pwd) {
		return reportErr(pwdNotAllNumText)
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	for _, attr := range usrAttrs {
		if getRatio(strings.ToLower(pwd), strings.ToLower(attr)) >= pwdMaxSim {
			return reportErr(pwdAttrSimText)
		}
	}
	return nil
}
