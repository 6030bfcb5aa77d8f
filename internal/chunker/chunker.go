// Package chunker splits clean markdown text into header-scoped sections
// and then into bounded-size overlapping chunks prepared for embedding.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MaxHeaderDepth is the deepest heading level that opens a new section.
// Headings below this depth stay inside their parent section's content.
const MaxHeaderDepth = 4

const (
	headerLinePrefix = "Headers: "
	headerPathSep    = " > "
)

// frontMatterRE captures the title page between the opening front-matter
// fence and the Abstract heading.
var frontMatterRE = regexp.MustCompile(`(?s)---\s*(.*?)\s*## Abstract`)

// Section is a contiguous span of source text with its header lineage,
// ordered outermost to innermost. The lineage may be empty for content
// before the first heading.
type Section struct {
	HeaderPath []string
	Content    string
}

// Chunk is a bounded-length fragment of exactly one Section. Text is the
// embeddable form: the section's header line written twice (to bias
// embedding weight toward structural context), a blank line, then Body.
// Offset is the rune offset of Body within the section content.
type Chunk struct {
	Text       string
	Body       string
	HeaderPath string
	Offset     int
	Index      int
}

// Chunker is a pure two-stage splitter: markdown heading structure first,
// bounded recursive character splitting second.
type Chunker struct {
	md      goldmark.Markdown
	size    int
	overlap int
}

// New creates a Chunker with the given chunk size and overlap, both
// measured in runes.
func New(size, overlap int) *Chunker {
	return &Chunker{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
		size:    size,
		overlap: overlap,
	}
}

// Chunk runs both stages over the source text.
func (c *Chunker) Chunk(source string) []Chunk {
	var chunks []Chunk
	for _, sec := range c.SplitSections(source) {
		chunks = append(chunks, c.SplitSection(sec)...)
	}
	return chunks
}

// headingMark locates one heading in the source text.
type headingMark struct {
	level     int
	title     string
	lineStart int // byte offset of the heading line
	bodyStart int // byte offset of the first content byte after the heading
}

// SplitSections splits source text into sections delimited by markdown
// headings of up to MaxHeaderDepth levels. Content before the first
// heading becomes an implicit leading section with an empty header path.
// Tables, lists and code blocks inside a section are preserved verbatim.
func (c *Chunker) SplitSections(source string) []Section {
	src := []byte(source)
	doc := c.md.Parser().Parse(text.NewReader(src))

	var marks []headingMark
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if heading.Level > MaxHeaderDepth {
			return ast.WalkSkipChildren, nil
		}
		lines := heading.Lines()
		if lines.Len() == 0 {
			return ast.WalkSkipChildren, nil
		}

		// Walk back from the heading text to the start of its line so the
		// "#" markers are excluded from the preceding section's content.
		lineStart := lines.At(0).Start
		for lineStart > 0 && src[lineStart-1] != '\n' {
			lineStart--
		}

		// Content begins after the newline terminating the heading line.
		bodyStart := lines.At(lines.Len() - 1).Stop
		for bodyStart < len(src) && src[bodyStart] != '\n' {
			bodyStart++
		}
		if bodyStart < len(src) {
			bodyStart++
		}

		marks = append(marks, headingMark{
			level:     heading.Level,
			title:     headingText(heading, src),
			lineStart: lineStart,
			bodyStart: bodyStart,
		})
		return ast.WalkSkipChildren, nil
	})

	if len(marks) == 0 {
		return []Section{{Content: strings.TrimSpace(source)}}
	}

	var sections []Section
	if lead := strings.TrimSpace(source[:marks[0].lineStart]); lead != "" {
		sections = append(sections, Section{Content: lead})
	}

	// Active heading at each level; popped when a heading of the same or
	// a shallower level opens.
	type stackEntry struct {
		level int
		title string
	}
	var stack []stackEntry

	for i, mark := range marks {
		for len(stack) > 0 && stack[len(stack)-1].level >= mark.level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, stackEntry{level: mark.level, title: mark.title})

		end := len(source)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		content := ""
		if mark.bodyStart < end {
			content = strings.TrimSpace(source[mark.bodyStart:end])
		}

		path := make([]string, len(stack))
		for j, s := range stack {
			path[j] = s.title
		}
		sections = append(sections, Section{HeaderPath: path, Content: content})
	}
	return sections
}

// SplitSection splits one section into chunks of at most the configured
// size, preferring paragraph, then sentence, then word boundaries before
// a hard character cut. Consecutive chunks share the configured overlap.
// An empty section yields no chunks; a section that fits yields one chunk
// with no overlap applied.
func (c *Chunker) SplitSection(sec Section) []Chunk {
	content := strings.TrimSpace(sec.Content)
	if content == "" {
		return nil
	}

	header := HeaderLine(sec.HeaderPath)
	prefix := ""
	if header != "" {
		prefix = header + "\n" + header + "\n\n"
	}

	runes := []rune(content)
	if len(runes) <= c.size {
		return []Chunk{{
			Text:       prefix + content,
			Body:       content,
			HeaderPath: header,
		}}
	}

	var chunks []Chunk
	start := 0
	index := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			body := string(runes[start:])
			chunks = append(chunks, Chunk{
				Text:       prefix + body,
				Body:       body,
				HeaderPath: header,
				Offset:     start,
				Index:      index,
			})
			break
		}

		cut := snapCut(runes, start, end)
		body := string(runes[start:cut])
		chunks = append(chunks, Chunk{
			Text:       prefix + body,
			Body:       body,
			HeaderPath: header,
			Offset:     start,
			Index:      index,
		})
		index++

		next := cut - c.overlap
		if next <= start {
			// Overlap would stall the scan; advance without it.
			next = cut
		}
		start = next
	}
	return chunks
}

// snapCut picks the split point for the window runes[start:end], preferring
// a paragraph break, then a line break, then a sentence end, then a word
// boundary, falling back to a hard cut at end.
func snapCut(runes []rune, start, end int) int {
	window := string(runes[start:end])

	for _, boundary := range []string{"\n\n", "\n", ". ", " "} {
		if at := strings.LastIndex(window, boundary); at > 0 {
			return start + utf8.RuneCountInString(window[:at+len(boundary)])
		}
	}
	return end
}

// HeaderLine renders a header lineage as a single metadata line, e.g.
// "Headers: A > B > C". An empty lineage renders as an empty string.
func HeaderLine(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return headerLinePrefix + strings.Join(path, headerPathSep)
}

// ExtractFrontMatter pulls the thesis title page (everything between the
// opening front-matter fence and the Abstract heading) into a dedicated
// section so it stays retrievable despite carrying no headings of its own.
func ExtractFrontMatter(source string) (Section, bool) {
	m := frontMatterRE.FindStringSubmatch(source)
	if m == nil {
		return Section{}, false
	}
	return Section{
		HeaderPath: []string{"Front Matter", "Title Page"},
		Content:    "This is the title page and metadata of the thesis.\n" + m[1],
	}, true
}

// headingText extracts the plain text of a heading node.
func headingText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
