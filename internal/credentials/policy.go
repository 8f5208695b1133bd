package credentials

import (
	"fmt"
	"strings"
	"unicode"
)

// defaultDenyList holds codes too common or too guessable to ever accept,
// compared case-insensitively.
var defaultDenyList = []string{
	"admin", "admin123", "admin1234", "administrator",
	"password", "password1", "password123", "passw0rd",
	"changeme", "letmein", "welcome1", "qwerty123",
	"12345678", "123456789", "portfolio",
}

// Policy decides whether a candidate admin code is acceptable. Production
// installs run a stricter policy than development ones.
type Policy struct {
	MinLength      int
	RequireClasses bool // upper, lower, digit and symbol must all appear
	DenyList       []string
}

func ProductionPolicy() Policy {
	return Policy{
		MinLength:      12,
		RequireClasses: true,
		DenyList:       defaultDenyList,
	}
}

func DevelopmentPolicy() Policy {
	return Policy{
		MinLength: 8,
		DenyList:  defaultDenyList,
	}
}

func (p Policy) Validate(code string) error {
	var reasons []string
	if len(code) < p.MinLength {
		reasons = append(reasons, fmt.Sprintf("must be at least %d characters", p.MinLength))
	}
	if p.RequireClasses {
		var hasUpper, hasLower, hasDigit, hasSymbol bool
		for _, r := range code {
			switch {
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsDigit(r):
				hasDigit = true
			default:
				hasSymbol = true
			}
		}
		if !hasUpper {
			reasons = append(reasons, "must contain an uppercase letter")
		}
		if !hasLower {
			reasons = append(reasons, "must contain a lowercase letter")
		}
		if !hasDigit {
			reasons = append(reasons, "must contain a digit")
		}
		if !hasSymbol {
			reasons = append(reasons, "must contain a symbol")
		}
	}
	lowered := strings.ToLower(code)
	for _, denied := range p.DenyList {
		if lowered == denied {
			reasons = append(reasons, "is a commonly used value")
			break
		}
	}
	if len(reasons) > 0 {
		return &PolicyViolationError{Reasons: reasons}
	}
	return nil
}
