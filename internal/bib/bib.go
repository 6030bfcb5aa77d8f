// Package bib parses a BibTeX bibliography and renders entries in a plain
// citation style. The store is immutable after loading and safe for
// concurrent readers.
package bib

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nickng/bibtex"
)

// ErrMalformed is returned (wrapped) when the bibliography file cannot be
// parsed. Parse failure is fatal at startup; there is no partial load.
var ErrMalformed = errors.New("malformed bibliography")

// YearUnknown is the sentinel year for entries without a year field.
// It matches only itself, never arbitrary years.
const YearUnknown = "n.d."

// Entry is a single parsed bibliography entry.
type Entry struct {
	Key     string
	Authors []string // author last names, in order
	Year    string
	Title   string
	Fields  map[string]string
}

// FirstAuthor returns the first author's last name, or "Unknown" when the
// entry has no author field.
func (e *Entry) FirstAuthor() string {
	if len(e.Authors) == 0 {
		return "Unknown"
	}
	return e.Authors[0]
}

// Store holds parsed bibliography entries keyed by citation key.
type Store struct {
	entries []*Entry
	byKey   map[string]*Entry
}

// Load parses the bibliography file at path.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bibliography %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	store, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bibliography %s: %w", path, err)
	}
	return store, nil
}

// Parse parses BibTeX from a reader.
func Parse(r io.Reader) (*Store, error) {
	bt, err := bibtex.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	store := &Store{byKey: make(map[string]*Entry, len(bt.Entries))}
	for _, raw := range bt.Entries {
		entry := &Entry{
			Key:    raw.CiteName,
			Year:   YearUnknown,
			Fields: make(map[string]string, len(raw.Fields)),
		}
		for name, value := range raw.Fields {
			entry.Fields[name] = strings.TrimSpace(value.String())
		}
		if year := entry.Fields["year"]; year != "" {
			entry.Year = year
		}
		entry.Title = entry.Fields["title"]
		entry.Authors = parseAuthors(entry.Fields["author"])

		// Exact key equality only; a duplicate key keeps the first entry.
		if _, ok := store.byKey[entry.Key]; ok {
			continue
		}
		store.entries = append(store.entries, entry)
		store.byKey[entry.Key] = entry
	}
	return store, nil
}

// Entry returns the entry for key, or nil and false when the key is absent.
func (s *Store) Entry(key string) (*Entry, bool) {
	e, ok := s.byKey[key]
	return e, ok
}

// Entries returns all entries in bibliography file order.
func (s *Store) Entries() []*Entry {
	return s.entries
}

// Keys returns all citation keys in bibliography file order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Format renders the entry for key in plain citation style:
// "Author(s). Title. Venue, Year." Missing pieces are omitted. An absent
// key yields a sentinel string rather than an error so downstream text
// assembly never fails on a dangling reference.
func (s *Store) Format(key string) string {
	e, ok := s.byKey[key]
	if !ok {
		return fmt.Sprintf("[Reference not found for key: %s]", key)
	}

	var b strings.Builder
	if author := formatAuthorList(e.Authors); author != "" {
		b.WriteString(author)
		b.WriteString(". ")
	}
	if e.Title != "" {
		b.WriteString(e.Title)
		b.WriteString(". ")
	}
	if venue := e.venue(); venue != "" {
		b.WriteString(venue)
		b.WriteString(", ")
	}
	b.WriteString(e.Year)
	b.WriteString(".")
	return b.String()
}

// FormatAll renders every entry in bibliography file order.
func (s *Store) FormatAll() []string {
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, s.Format(e.Key))
	}
	return out
}

// venue picks the most specific publication venue field available.
func (e *Entry) venue() string {
	for _, field := range []string{"publisher", "journal", "booktitle", "school", "institution"} {
		if v := e.Fields[field]; v != "" {
			return v
		}
	}
	return ""
}

// parseAuthors splits a BibTeX author field into last names. Both
// "Last, First" and "First Last" name forms are handled; authors are
// separated by " and ".
func parseAuthors(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}

	var names []string
	for _, name := range strings.Split(field, " and ") {
		name = strings.Trim(strings.TrimSpace(name), "{}")
		if name == "" {
			continue
		}
		names = append(names, lastName(name))
	}
	return names
}

// lastName extracts the last name from a single author name.
func lastName(name string) string {
	if comma := strings.Index(name, ","); comma >= 0 {
		return strings.TrimSpace(name[:comma])
	}
	parts := strings.Fields(name)
	return parts[len(parts)-1]
}

// formatAuthorList joins author last names for the plain citation style.
func formatAuthorList(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " and " + authors[1]
	default:
		return strings.Join(authors[:len(authors)-1], ", ") + " and " + authors[len(authors)-1]
	}
}
