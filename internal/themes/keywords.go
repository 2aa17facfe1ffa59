// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package themes

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NameSeparator joins the keywords of a suggested theme name.
const NameSeparator = " + "

const nameKeywords = 3

// wordPattern splits text into Unicode words. Go's \b only knows ASCII, so
// matching keywords directly would cut "zürich" down to "rich".
var (
	wordPattern    = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)
	keywordPattern = regexp.MustCompile(`^[a-z]{4,}$`)
)

// Keywords returns up to n of the most frequent lowercase words of four or
// more letters across texts. Words containing anything but a-z are skipped
// whole. Ties keep the order words were first seen.
func Keywords(texts []string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, text := range texts {
		for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
			if !keywordPattern.MatchString(w) {
				continue
			}
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// SuggestName builds a provisional theme name from the top keywords of a
// cluster, e.g. "Density + Urban + Obesity". It returns "" when no text has
// a qualifying word.
func SuggestName(texts []string) string {
	words := Keywords(texts, nameKeywords)
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(words, NameSeparator))
}
