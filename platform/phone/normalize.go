// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers shared without a country prefix.
const DefaultRegion = "RU"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	return NormalizeE164In(input, DefaultRegion)
}

// NormalizeE164In is NormalizeE164 with an explicit fallback region.
func NormalizeE164In(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(withPlus(trimmed, region), region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// withPlus restores the leading "+" that messaging clients drop from shared
// contacts ("79991234567"). National numbers starting with 8 are left alone.
func withPlus(value, region string) string {
	if strings.HasPrefix(value, "+") {
		return value
	}
	code := phonenumbers.GetCountryCodeForRegion(region)
	if code == 0 {
		return value
	}
	digits := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits == 11 && strings.HasPrefix(value, strconv.Itoa(code)) {
		return "+" + value
	}
	return value
}
