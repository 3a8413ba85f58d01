// Package validate holds the stateless input checks for draft fields: IBAN
// structure and checksum, email syntax, and expense line parsing. Nothing in
// here touches the network or the store.
package validate

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/declabot/internal/model"
)

// ErrLineFormat is returned when an expense line's amount segment is not a
// parseable number.
var ErrLineFormat = errors.New("line must end in a valid amount")

var emailRe = regexp.MustCompile(`^([A-Za-z0-9]+[._-])*[A-Za-z0-9]+@[A-Za-z0-9-]+(\.[A-Za-z]{2,})+$`)

// Email reports whether s is a syntactically valid email address. The whole
// string must match; a single-letter TLD or a missing/extra @ fails.
func Email(s string) bool {
	return emailRe.MatchString(s)
}

// ibanLengths maps country codes to their fixed IBAN length.
var ibanLengths = map[string]int{
	"AD": 24, "AE": 23, "AL": 28, "AT": 20, "AZ": 28, "BA": 20, "BE": 16,
	"BG": 22, "BH": 22, "BR": 29, "CH": 21, "CR": 22, "CY": 28, "CZ": 24,
	"DE": 22, "DK": 18, "DO": 28, "EE": 20, "ES": 24, "FI": 18, "FO": 18,
	"FR": 27, "GB": 22, "GE": 22, "GI": 23, "GL": 18, "GR": 27, "GT": 28,
	"HR": 21, "HU": 28, "IE": 22, "IL": 23, "IS": 26, "IT": 27, "JO": 30,
	"KW": 30, "KZ": 20, "LB": 28, "LI": 21, "LT": 20, "LU": 20, "LV": 21,
	"MC": 27, "MD": 24, "ME": 22, "MK": 19, "MR": 27, "MT": 31, "MU": 30,
	"NL": 18, "NO": 15, "PK": 24, "PL": 28, "PS": 29, "PT": 25, "QA": 29,
	"RO": 24, "RS": 22, "SA": 24, "SE": 24, "SI": 19, "SK": 24, "SM": 27,
	"TN": 24, "TR": 26, "XK": 20,
}

// IBAN reports whether s passes structural and mod-97 checksum validation.
// Spaces are ignored and letters are case-insensitive, matching how banks
// print account numbers.
func IBAN(s string) bool {
	s = strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	if len(s) < 5 {
		return false
	}
	want, ok := ibanLengths[s[:2]]
	if !ok || len(s) != want {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	// Move the country code and check digits to the end, substitute letters
	// with their numeric values (A=10 .. Z=35), and take the result mod 97.
	rearranged := s[4:] + s[:4]
	rem := 0
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			v := int(r-'A') + 10
			rem = (rem*100 + v) % 97
		} else {
			rem = (rem*10 + int(r-'0')) % 97
		}
	}
	return rem == 1
}

// ParseLineItem parses an expense line of the form "<description>;<amount>".
// The first segment is the description and the last the amount, so stray
// semicolons in between are ignored. A decimal comma is accepted and the
// amount is rounded to two decimals.
func ParseLineItem(text string) (model.LineItem, error) {
	parts := strings.Split(text, ";")
	message := strings.TrimSpace(parts[0])
	raw := strings.TrimSpace(parts[len(parts)-1])
	raw = strings.ReplaceAll(raw, ",", ".")

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return model.LineItem{}, ErrLineFormat
	}
	return model.LineItem{Message: message, Amount: amount.Round(2)}, nil
}
