package gate

import (
	"strconv"
	"unicode/utf16"
)

// Checksum computes the credential checksum persisted under vault_pin_hash:
// hash = hash*31 + c over UTF-16 code units, wrapping as a signed 32-bit
// integer, rendered in decimal. It is not a cryptographic hash.
func Checksum(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return strconv.FormatInt(int64(h), 10)
}

// ValidPIN reports whether s is exactly 4 ASCII decimal digits
func ValidPIN(s string) bool {
	if len(s) != PINLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
