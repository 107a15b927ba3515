// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identifier classifies and normalizes the free-form string a user types
into the sign-in box.

A Rentwise account can be reached by email, phone number or username. The
classification is purely syntactic and never touches storage:

  - Email: contains both "@" and ".".
  - Phone: after stripping spaces, "-", "(", ")", "." and a leading "+", only
    digits remain and there are between 9 and 15 of them.
  - Username: anything else.
*/
package identifier

import (
	"strings"
	"unicode"
)

// Kind is the syntactic class of an identifier.
type Kind string

const (
	KindEmail    Kind = "email"
	KindPhone    Kind = "phone"
	KindUsername Kind = "username"
)

// Phone numbers are accepted between these digit counts (E.164 caps at 15).
const (
	minPhoneDigits = 9
	maxPhoneDigits = 15
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindEmail, KindPhone, KindUsername:
		return true
	}
	return false
}

// Verifiable reports whether codes can be delivered to identifiers of kind k.
func (k Kind) Verifiable() bool {
	return k == KindEmail || k == KindPhone
}

// Classify returns the [Kind] of raw.
func Classify(raw string) Kind {
	raw = strings.TrimSpace(raw)

	if strings.Contains(raw, "@") && strings.Contains(raw, ".") {
		return KindEmail
	}

	digits := stripPhone(raw)
	if len(digits) >= minPhoneDigits && len(digits) <= maxPhoneDigits && allDigits(digits) {
		return KindPhone
	}

	return KindUsername
}

// Normalize returns the canonical stored form of raw for kind.
//
// Emails and usernames are lower-cased; phones keep only their digits.
func Normalize(kind Kind, raw string) string {
	raw = strings.TrimSpace(raw)

	switch kind {
	case KindEmail, KindUsername:
		return strings.ToLower(raw)
	case KindPhone:
		return stripPhone(raw)
	}
	return raw
}

// Parse classifies and normalizes raw in one step.
func Parse(raw string) (Kind, string) {
	kind := Classify(raw)
	return kind, Normalize(kind, raw)
}

func stripPhone(raw string) string {
	raw = strings.TrimPrefix(raw, "+")
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, raw)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
