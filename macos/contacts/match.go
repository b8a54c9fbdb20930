package contacts

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizePhone strips everything except digits and a leading plus sign.
// A plus is kept only when it precedes every digit, so "(+1) 555-0100"
// becomes "+15550100".
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneMatches reports whether the normalized stored number num matches the
// normalized search number. It accepts an exact match, a missing "+" or "+1"
// prefix on either side, and substring overlap in either direction.
//
// Overlap makes short numbers match loosely; callers get the first contact
// that satisfies any rule.
func PhoneMatches(num, search string) bool {
	return num == search ||
		num == "+"+search ||
		num == "+1"+search ||
		"+1"+num == search ||
		strings.Contains(search, num) ||
		strings.Contains(num, search)
}

// foldName lower-cases s for case-insensitive substring matching. Names are
// composed first so decomposed accents from the Contacts store compare equal
// to typed input.
func foldName(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(s)))
}

func nameContains(name, foldedQuery string) bool {
	return strings.Contains(foldName(name), foldedQuery)
}
