// Package textnorm turns scripture text into canonical word tokens.
//
// The same rules run when the index is built and when a query term is
// normalized, so a token produced here is the only form the index ever
// stores or looks up:
//
//  1. Unicode compatibility decomposition, combining marks removed
//     ("naïve" -> "naive", ligatures expanded). Letters with no
//     decomposition are spelled out ("Cæsar" -> "Caesar", "ß" -> "ss").
//  2. Typographic apostrophes become ASCII '.
//  3. ASCII lowercase.
//  4. Any byte other than a-z and ' separates words. Digits (verse and
//     chapter numerals), hyphens, dashes and all other punctuation are
//     separators.
//  5. Leading and trailing apostrophes are trimmed from each word; inner
//     apostrophes ("lord's", "o'er") are kept.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"ʼ", "'",
)

// letters maps letters that NFKD leaves intact to their ASCII spelling.
var letters = strings.NewReplacer(
	"æ", "ae", "Æ", "Ae",
	"œ", "oe", "Œ", "Oe",
	"ß", "ss", "ẞ", "Ss",
	"ø", "o", "Ø", "O",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "Th",
	"ł", "l", "Ł", "L",
	"ı", "i",
)

// Fold applies steps 1 and 2. ASCII input is returned as is.
func Fold(s string) string {
	if isASCII(s) {
		return s
	}
	s = apostrophes.Replace(s)
	s = letters.Replace(s)
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Tokenize returns the ordered word tokens of raw.
func Tokenize(raw string) []string {
	s := Fold(raw)
	tokens := make([]string, 0, len(s)/5+1)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		if tok := strings.Trim(b.String(), "'"); tok != "" {
			tokens = append(tokens, tok)
		}
		b.Reset()
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c == '\'':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// Normalize returns the tokens of term joined by single spaces. It is
// idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(term string) string {
	return strings.Join(Tokenize(term), " ")
}

// IsToken reports whether s is already a single canonical token.
func IsToken(s string) bool {
	if s == "" || s[0] == '\'' || s[len(s)-1] == '\'' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && c != '\'' {
			return false
		}
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
