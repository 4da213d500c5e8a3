// Package phone canonicalizes recipient phone numbers to E.164 digits.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "IN"

// ErrNormalization marks a number that could not be canonicalized. The raw
// value is still returned so callers can attempt delivery anyway.
var ErrNormalization = errors.New("phone number normalization failed")

// Normalizer binds a default region for numbers written without a country code.
type Normalizer struct {
	Region string
}

// NewNormalizer returns a Normalizer for region, falling back to DefaultRegion.
func NewNormalizer(region string) Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	return Normalizer{Region: region}
}

// Normalize canonicalizes raw using the normalizer's region.
func (n Normalizer) Normalize(raw string) (string, error) {
	return Normalize(raw, n.Region)
}

// maxNationalDigits is the longest national significant number we expect
// without a country code. Longer all-digit input is read as international.
const maxNationalDigits = 10

// Normalize returns raw in E.164 form without the leading '+'. Already
// canonical input comes back unchanged.
//
// An all-digit value longer than maxNationalDigits is first tried as
// "+"+raw, so "18005551234" stays a US number even when defaultRegion is IN
// (where 1800 is also a toll-free prefix). Anything else is parsed against
// defaultRegion, and shorter all-digit values get the "+"+raw reading as a
// last resort. On failure raw is returned as-is together with an
// ErrNormalization error.
func Normalize(raw, defaultRegion string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw, fmt.Errorf("%w: empty number", ErrNormalization)
	}
	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}
	digits := isDigits(trimmed)
	international := digits && len(trimmed) > maxNationalDigits
	if international {
		if canonical, ok := parseValid("+"+trimmed, ""); ok {
			return canonical, nil
		}
	}
	if canonical, ok := parseValid(trimmed, strings.ToUpper(defaultRegion)); ok {
		return canonical, nil
	}
	if digits && !international {
		if canonical, ok := parseValid("+"+trimmed, ""); ok {
			return canonical, nil
		}
	}
	return raw, fmt.Errorf("%w: %q is not a valid number for region %s", ErrNormalization, raw, defaultRegion)
}

func parseValid(raw, region string) (string, bool) {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return strings.TrimPrefix(phonenumbers.Format(num, phonenumbers.E164), "+"), true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
