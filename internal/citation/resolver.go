// Package citation rewrites raw inline citation markers in generated text
// into human-readable "(Author, Year)" form and extracts the distinct
// references actually cited in a finished answer. Both operations are
// pure given a bibliography store and never fail: malformed or unknown
// markers degrade to unresolved, because the calling context is chat
// output where total failure is worse than a partially-resolved citation.
package citation

import (
	"fmt"
	"regexp"
	"strings"

	"thesis-rag/internal/bib"
)

var (
	// markerRE matches a raw citation marker: a bracketed block opened
	// with "@", e.g. "[@tarone2006]" or "[@a; b, @c]".
	markerRE = regexp.MustCompile(`\[@([^\]]+)\]`)
	// keySepRE separates keys inside a marker.
	keySepRE = regexp.MustCompile(`[;,\s]+`)
	// authorYearRE matches a rewritten citation "(AuthorBlock, Year)"
	// where Year is four digits or the "n.d." sentinel.
	authorYearRE = regexp.MustCompile(`\(([^,()]+),\s*([0-9]{4}|n\.d\.)\)`)
)

// Strategy names a used-source resolution rule. The two observed
// grammars have different failure modes and are never merged: author
// substring matching can over-match common surnames, so the author-year
// grammar is the default.
type Strategy string

const (
	// StrategyAuthorYear resolves "(Author, Year)" citations against
	// first-author last name and exact year.
	StrategyAuthorYear Strategy = "author-year"
	// StrategyAuthorMention resolves by bare author-name substring plus
	// year presence anywhere in the text.
	StrategyAuthorMention Strategy = "author-mention"
)

// Resolver resolves citations against a bibliography store.
type Resolver struct {
	store    *bib.Store
	strategy Strategy
}

// NewResolver creates a resolver using the default author-year strategy.
func NewResolver(store *bib.Store) *Resolver {
	return NewResolverWithStrategy(store, StrategyAuthorYear)
}

// NewResolverWithStrategy creates a resolver with an explicit used-source
// resolution strategy.
func NewResolverWithStrategy(store *bib.Store, strategy Strategy) *Resolver {
	return &Resolver{store: store, strategy: strategy}
}

// Rewrite replaces every raw citation marker with "(Author, Year)" units.
// Keys inside a marker may be separated by comma, semicolon or
// whitespace, each optionally prefixed with "@". An unresolved key
// contributes nothing; a marker whose every key is unresolved is left
// unmodified so the rewrite is information-preserving on failure.
func (r *Resolver) Rewrite(text string) string {
	return markerRE.ReplaceAllStringFunc(text, func(marker string) string {
		inside := markerRE.FindStringSubmatch(marker)[1]

		var units []string
		for _, part := range keySepRE.Split(inside, -1) {
			key := strings.TrimSpace(strings.TrimPrefix(part, "@"))
			if key == "" {
				continue
			}
			entry, ok := r.store.Entry(key)
			if !ok {
				continue
			}
			units = append(units, fmt.Sprintf("(%s, %s)", inTextAuthor(entry.Authors), entry.Year))
		}

		if len(units) == 0 {
			return marker
		}
		return strings.Join(units, " ")
	})
}

// UsedSources returns the formatted reference for every distinct
// bibliography entry cited in the finished text, in first-seen order.
func (r *Resolver) UsedSources(text string) []string {
	var keys []string
	switch r.strategy {
	case StrategyAuthorMention:
		keys = r.keysByAuthorMention(text)
	default:
		keys = r.keysByAuthorYear(text)
	}

	sources := make([]string, 0, len(keys))
	for _, key := range keys {
		sources = append(sources, r.store.Format(key))
	}
	return sources
}

// keysByAuthorYear scans for "(AuthorBlock, Year)" citations and matches
// each against first-author last name (case-insensitive) and exact year.
// The "n.d." year matches only entries whose year is literally "n.d.".
func (r *Resolver) keysByAuthorYear(text string) []string {
	seen := make(map[string]bool)
	var keys []string

	for _, m := range authorYearRE.FindAllStringSubmatch(text, -1) {
		author := firstAuthorOf(m[1])
		year := strings.TrimSpace(m[2])

		for _, entry := range r.store.Entries() {
			if len(entry.Authors) == 0 {
				continue
			}
			if strings.ToLower(entry.Authors[0]) != author || entry.Year != year {
				continue
			}
			if !seen[entry.Key] {
				seen[entry.Key] = true
				keys = append(keys, entry.Key)
			}
		}
	}
	return keys
}

// keysByAuthorMention includes every entry whose first author's last name
// appears as a substring of the text together with the entry's year.
// Over-matching on common surnames is inherent to this grammar.
func (r *Resolver) keysByAuthorMention(text string) []string {
	lower := strings.ToLower(text)

	var keys []string
	for _, entry := range r.store.Entries() {
		if len(entry.Authors) == 0 {
			continue
		}
		if strings.Contains(lower, strings.ToLower(entry.Authors[0])) && strings.Contains(lower, entry.Year) {
			keys = append(keys, entry.Key)
		}
	}
	return keys
}

// ExtractKeys returns the distinct citation keys found in raw markers, in
// first-seen order.
func ExtractKeys(text string) []string {
	seen := make(map[string]bool)
	var keys []string

	for _, block := range markerRE.FindAllStringSubmatch(text, -1) {
		for _, part := range keySepRE.Split(block[1], -1) {
			key := strings.TrimSpace(strings.TrimPrefix(part, "@"))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

// firstAuthorOf extracts the first surname from a citation author block,
// dropping any "and ..." or "et al." tail, lower-cased for matching.
func firstAuthorOf(block string) string {
	block = strings.Split(block, " and ")[0]
	block = strings.Split(block, "et al.")[0]
	return strings.ToLower(strings.TrimSpace(block))
}

// inTextAuthor renders an author list for in-text citation form.
func inTextAuthor(authors []string) string {
	switch len(authors) {
	case 0:
		return "Unknown"
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " and " + authors[1]
	default:
		return authors[0] + " et al."
	}
}
