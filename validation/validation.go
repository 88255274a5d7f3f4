// Package validation collects field-level form validation helpers.
// Validators append to a Violations map keyed by field name; an empty map
// means the input passed.
package validation

import (
	"regexp"
	"strings"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// First returns an arbitrary-but-stable violation for single-message forms:
// the first field in the given order that has a violation.
func (v Violations) First(order ...string) (field, reason string, ok bool) {
	for _, f := range order {
		if r, found := v[f]; found {
			return f, r, true
		}
	}
	for f, r := range v {
		return f, r, true
	}
	return "", "", false
}

// emailPattern mirrors the registration check: local@domain.tld with word
// characters, dots and dashes on both sides.
var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MinLen(field, value string, n int, v Violations) {
	if len(value) < n {
		v[field] = "too_short"
	}
}

func Matching(field, value, confirm string, v Violations) {
	if value != confirm {
		v[field] = "mismatch"
	}
}

func Email(field, value string, v Violations) {
	if !emailPattern.MatchString(value) {
		v[field] = "invalid_email"
	}
}
