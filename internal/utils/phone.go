package utils

import (
	"strings"
)

// Dial prefixes for the mobile money markets we operate in.
var dialPrefixes = map[string]string{
	"ZM": "260",
	"GH": "233",
	"KE": "254",
	"UG": "256",
	"TZ": "255",
	"NG": "234",
}

// NormalizePhone converts a locally formatted MSISDN into international
// digits-only form ("0961234567", "ZM" -> "260961234567"). Numbers already
// carrying the country prefix pass through unchanged. Unknown country codes
// return the digits as-is.
func NormalizePhone(phone, country string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	prefix, ok := dialPrefixes[strings.ToUpper(country)]
	if !ok || digits == "" {
		return digits
	}
	if strings.HasPrefix(digits, prefix) {
		return digits
	}
	return prefix + strings.TrimPrefix(digits, "0")
}
