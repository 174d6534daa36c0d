package validation

import (
	"net/mail"
	"strconv"
	"strings"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MinLen(field, value string, minLen int, v Violations) {
	if len(strings.TrimSpace(value)) < minLen {
		v[field] = "too_short"
	}
}

func Email(field, value string, v Violations) {
	if _, err := mail.ParseAddress(strings.TrimSpace(value)); err != nil {
		v[field] = "invalid_email"
	}
}

func Equal(field, value, other string, v Violations) {
	if value != other {
		v[field] = "mismatch"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

func RangeInt(field string, val, minVal, maxVal int, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

// PositiveID parses a decimal form value into a non-zero record id.
func PositiveID(field, value string, v Violations) uint {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil || n == 0 {
		v[field] = "required"
		return 0
	}
	return uint(n)
}
