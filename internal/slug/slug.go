// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-safe slug generation from arbitrary strings
// and suffix-based collision resolution against an existing slug set.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches every run of characters outside [a-z0-9].
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

	// stripMarks decomposes accented letters and drops the combining marks,
	// so "café" becomes "cafe".
	stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// transliterations covers letters that do not decompose into ASCII.
// Cyrillic follows the Ukrainian national romanization; wordInitial and
// the зг rule in Generate complete it.
var transliterations = map[rune]string{
	'ß': "ss", 'æ': "ae", 'œ': "oe", 'ø': "o", 'đ': "d", 'ł': "l", 'þ': "th",
	'а': "a", 'б': "b", 'в': "v", 'г': "h", 'ґ': "g", 'д': "d", 'е': "e",
	'є': "ie", 'ж': "zh", 'з': "z", 'и': "y", 'і': "i", 'ї': "i", 'й': "i",
	'к': "k", 'л': "l", 'м': "m", 'н': "n", 'о': "o", 'п': "p", 'р': "r",
	'с': "s", 'т': "t", 'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "shch", 'ь': "", 'ю': "iu", 'я': "ia",
	'ё': "e", 'ы': "y", 'э': "e", 'ъ': "",
}

// wordInitial overrides transliterations at the start of a word.
var wordInitial = map[rune]string{
	'є': "ye", 'ї': "yi", 'й': "y", 'ю': "yu", 'я': "ya",
}

// inWord reports whether r continues a word. Apostrophes do, so the я in
// "м'я" is not word-initial.
func inWord(r rune) bool {
	return unicode.IsLetter(r) || r == '\'' || r == '’' || r == 'ʼ'
}

// Generate converts a string into a URL-safe slug.
// Example: "Hello World! 2026" → "hello-world-2026"
func Generate(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		t, ok := transliterations[r]
		if w, initial := wordInitial[r]; initial && !inWord(prev) {
			t = w
		}
		if r == 'г' && prev == 'з' {
			t = "gh"
		}
		prev = r
		if ok {
			b.WriteString(t)
			continue
		}
		b.WriteRune(r)
	}

	out, _, err := transform.String(stripMarks, b.String())
	if err != nil {
		out = b.String()
	}

	// Compatibility decomposition can reintroduce capitals (№ → No).
	out = nonAlphanumeric.ReplaceAllString(strings.ToLower(out), "-")
	return strings.Trim(out, "-")
}

// ExistsFunc reports whether a slug is already owned by another record.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Unique returns candidate unchanged when it is free. Otherwise it appends
// -1, -2, ... to the full candidate until exists reports false. A candidate
// that already ends in a number is not parsed: "news-1" collides into
// "news-1-1".
func Unique(ctx context.Context, candidate string, exists ExistsFunc) (string, error) {
	current := candidate
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		taken, err := exists(ctx, current)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", current, err)
		}
		if !taken {
			return current, nil
		}

		current = fmt.Sprintf("%s-%d", candidate, n)
	}
}
