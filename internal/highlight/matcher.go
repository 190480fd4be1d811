package highlight

import (
	"unicode"
	"unicode/utf8"
)

// Match is one accepted occurrence of a key, as byte offsets into the segment text
type Match struct {
	Key   string
	Start int
	End   int
}

// Run is one piece of a rewritten segment. Key is empty for plain text.
type Run struct {
	Text string
	Key  string
}

// Annotated reports whether the run is a marked occurrence
func (r Run) Annotated() bool {
	return r.Key != ""
}

// FindMatches scans text key by key, in the order given, with one cursor
// shared across keys. Each key is searched case-insensitively from the cursor;
// a candidate must sit on word boundaries at both ends. An accepted match moves
// the cursor to its end, so a later key never matches before an earlier key's
// last match. A rejected candidate resumes the search one rune after its start.
//
// The returned matches are in increasing offset order and never overlap.
func FindMatches(text string, keys []string) []Match {
	var matches []Match
	cursor := 0

	for _, key := range keys {
		if key == "" {
			continue
		}

		pos := cursor
		for pos <= len(text) {
			start, end, ok := indexFold(text, key, pos)
			if !ok {
				break
			}

			if !onWordBoundaries(text, start, end) {
				_, w := utf8.DecodeRuneInString(text[start:])
				pos = start + w
				continue
			}

			matches = append(matches, Match{Key: key, Start: start, End: end})
			cursor = end
			pos = end
		}
	}

	return matches
}

// Rewrite splits text into plain and annotated runs. Every match is preceded by
// the plain run since the previous match (possibly empty); trailing text after
// the last match is emitted only when non-empty. With no matches it returns nil.
// Concatenating the returned runs' Text yields text exactly.
func Rewrite(text string, keys []string) []Run {
	return runsFor(text, FindMatches(text, keys))
}

func runsFor(text string, matches []Match) []Run {
	if len(matches) == 0 {
		return nil
	}

	runs := make([]Run, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		runs = append(runs, Run{Text: text[last:m.Start]})
		runs = append(runs, Run{Text: text[m.Start:m.End], Key: m.Key})
		last = m.End
	}
	if last < len(text) {
		runs = append(runs, Run{Text: text[last:]})
	}
	return runs
}

// indexFold finds key in text at or after byte offset from, comparing runes
// under Unicode simple case folding. end is the byte offset in text just past
// the occurrence, which may differ from start+len(key).
func indexFold(text, key string, from int) (start, end int, ok bool) {
	for i := from; i < len(text); {
		if n, matched := hasPrefixFold(text[i:], key); matched {
			return i, i + n, true
		}
		_, w := utf8.DecodeRuneInString(text[i:])
		i += w
	}
	return 0, 0, false
}

func hasPrefixFold(s, prefix string) (int, bool) {
	n := 0
	for _, pr := range prefix {
		if n >= len(s) {
			return 0, false
		}
		sr, w := utf8.DecodeRuneInString(s[n:])
		if !equalFoldRune(sr, pr) {
			return 0, false
		}
		n += w
	}
	return n, true
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// onWordBoundaries checks the runes just outside text[start:end]
func onWordBoundaries(text string, start, end int) bool {
	if start > 0 {
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(before) {
			return false
		}
	}
	if end < len(text) {
		after, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(after) {
			return false
		}
	}
	return true
}

// isWordRune reports letters, digits and underscore
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
