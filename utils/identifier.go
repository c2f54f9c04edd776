// utils/identifier.go
package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"tote-sponsor-system/models"
)

var (
	ErrInvalidPhone   = errors.New("invalid phone format, must be 10 digits")
	ErrInvalidAadhaar = errors.New("invalid aadhaar format, must be 12 digits")
	ErrUnknownKind    = errors.New("identifierType must be phone or aadhaar")
)

// NormalizeIdentifier folds full-width and compatibility digits to ASCII,
// strips separators and returns the canonical digit string for the kind.
// Phone numbers may carry a +91 / 91 / 0 prefix.
func NormalizeIdentifier(kind models.IdentifierKind, raw string) (string, error) {
	folded := width.Fold.String(norm.NFKC.String(raw))

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == '-' || r == '(' || r == ')' || r == '.' || unicode.IsSpace(r):
			// separators
		default:
			return "", invalidFor(kind)
		}
	}
	digits := b.String()

	switch kind {
	case models.IdentifierPhone:
		switch {
		case len(digits) == 12 && strings.HasPrefix(digits, "91"):
			digits = digits[2:]
		case len(digits) == 11 && strings.HasPrefix(digits, "0"):
			digits = digits[1:]
		}
		if len(digits) != 10 {
			return "", ErrInvalidPhone
		}
		return digits, nil
	case models.IdentifierAadhaar:
		if len(digits) != 12 {
			return "", ErrInvalidAadhaar
		}
		return digits, nil
	default:
		return "", ErrUnknownKind
	}
}

func invalidFor(kind models.IdentifierKind) error {
	switch kind {
	case models.IdentifierPhone:
		return ErrInvalidPhone
	case models.IdentifierAadhaar:
		return ErrInvalidAadhaar
	}
	return ErrUnknownKind
}

// HashIdentifier returns a keyed, deterministic hash of a normalized
// identifier. The kind is part of the MAC input so a phone number and an
// aadhaar number with the same digits never collide.
func HashIdentifier(secret []byte, kind models.IdentifierKind, normalized string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(kind))
	mac.Write([]byte{0})
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}

// MaskIdentifier keeps the last four digits for display and logs.
func MaskIdentifier(normalized string) string {
	if len(normalized) <= 4 {
		return strings.Repeat("*", len(normalized))
	}
	return strings.Repeat("*", len(normalized)-4) + normalized[len(normalized)-4:]
}
