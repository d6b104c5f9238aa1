package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s, strips accents and joins the remaining alphanumeric runs
// with hyphens: "Mesa Ratona Nogal Ñandú" -> "mesa-ratona-nogal-nandu".
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	out := nonAlnum.ReplaceAllString(strings.ToLower(plain), "-")
	return strings.Trim(out, "-")
}
