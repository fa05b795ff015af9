package utils

import "strings"

const maskChar = "*"

// ValidCardNumberLuhn reports whether the card number is 13-19 digits
// and satisfies the Luhn mod-10 checksum.
func ValidCardNumberLuhn(cardNumber string) bool {
	if len(cardNumber) < 13 || len(cardNumber) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(cardNumber) - 1; i >= 0; i-- {
		c := cardNumber[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}

	return sum%10 == 0
}

// MaskCardNumber replaces all but the trailing four characters with
// the mask character, preserving the original length.
func MaskCardNumber(cardNumber string) string {
	if len(cardNumber) <= 4 {
		return cardNumber
	}
	return strings.Repeat(maskChar, len(cardNumber)-4) + cardNumber[len(cardNumber)-4:]
}
