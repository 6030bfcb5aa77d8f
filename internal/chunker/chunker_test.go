package chunker

import (
	"strings"
	"testing"
)

func TestSplitSections_HeaderLineage(t *testing.T) {
	source := "Intro before any heading.\n\n" +
		"# Chapter One\n\nChapter body.\n\n" +
		"## Methods\n\nMethods body.\n\n" +
		"### Sampling\n\nSampling body.\n\n" +
		"#### Details\n\nDeep body.\n\n" +
		"## Results\n\nResults body.\n\n" +
		"# Chapter Two\n\nSecond chapter body.\n"

	chk := New(2000, 200)
	sections := chk.SplitSections(source)

	want := []struct {
		path    string
		content string
	}{
		{"", "Intro before any heading."},
		{"Chapter One", "Chapter body."},
		{"Chapter One > Methods", "Methods body."},
		{"Chapter One > Methods > Sampling", "Sampling body."},
		{"Chapter One > Methods > Sampling > Details", "Deep body."},
		{"Chapter One > Results", "Results body."},
		{"Chapter Two", "Second chapter body."},
	}

	if len(sections) != len(want) {
		t.Fatalf("SplitSections() = %d sections, want %d: %+v", len(sections), len(want), sections)
	}
	for i, w := range want {
		gotPath := strings.Join(sections[i].HeaderPath, " > ")
		if gotPath != w.path {
			t.Errorf("section %d path = %q, want %q", i, gotPath, w.path)
		}
		if sections[i].Content != w.content {
			t.Errorf("section %d content = %q, want %q", i, sections[i].Content, w.content)
		}
	}
}

func TestSplitSections_SiblingHeadingResetsDeeperLevels(t *testing.T) {
	source := "# A\n\n## B\n\nunder b\n\n## C\n\nunder c\n"

	chk := New(2000, 200)
	sections := chk.SplitSections(source)

	var paths []string
	for _, s := range sections {
		paths = append(paths, strings.Join(s.HeaderPath, " > "))
	}
	wantPaths := []string{"A", "A > B", "A > C"}
	if len(paths) != len(wantPaths) {
		t.Fatalf("paths = %v, want %v", paths, wantPaths)
	}
	for i := range wantPaths {
		if paths[i] != wantPaths[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], wantPaths[i])
		}
	}
}

func TestSplitSections_NoHeadings(t *testing.T) {
	chk := New(2000, 200)
	sections := chk.SplitSections("Just plain prose with no structure.")
	if len(sections) != 1 {
		t.Fatalf("SplitSections() = %d sections, want 1", len(sections))
	}
	if len(sections[0].HeaderPath) != 0 {
		t.Errorf("HeaderPath = %v, want empty", sections[0].HeaderPath)
	}
}

func TestSplitSections_PreservesTables(t *testing.T) {
	source := "# Data\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"
	chk := New(2000, 200)
	sections := chk.SplitSections(source)
	if len(sections) != 1 {
		t.Fatalf("SplitSections() = %d sections, want 1", len(sections))
	}
	if !strings.Contains(sections[0].Content, "| a | b |") {
		t.Errorf("table row lost from section content: %q", sections[0].Content)
	}
}

func TestSplitSection_FitsInOneChunk(t *testing.T) {
	sec := Section{
		HeaderPath: []string{"Chapter One", "Methods"},
		Content:    "A short section body.",
	}

	chk := New(2000, 200)
	chunks := chk.SplitSection(sec)
	if len(chunks) != 1 {
		t.Fatalf("SplitSection() = %d chunks, want 1", len(chunks))
	}

	header := "Headers: Chapter One > Methods"
	wantText := header + "\n" + header + "\n\n" + "A short section body."
	if chunks[0].Text != wantText {
		t.Errorf("chunk text = %q, want %q", chunks[0].Text, wantText)
	}
	if chunks[0].Offset != 0 || chunks[0].Index != 0 {
		t.Errorf("chunk offset/index = %d/%d, want 0/0", chunks[0].Offset, chunks[0].Index)
	}
}

func TestSplitSection_EmptyYieldsNoChunks(t *testing.T) {
	chk := New(2000, 200)
	if got := chk.SplitSection(Section{HeaderPath: []string{"A"}, Content: "  \n "}); len(got) != 0 {
		t.Errorf("SplitSection(empty) = %d chunks, want 0", len(got))
	}
}

func TestSplitSection_OverlapIsCharacterIdentical(t *testing.T) {
	const size, overlap = 100, 20
	sec := Section{
		HeaderPath: []string{"Long"},
		Content:    strings.TrimSpace(strings.Repeat("alpha beta gamma delta ", 40)),
	}

	chk := New(size, overlap)
	chunks := chk.SplitSection(sec)
	if len(chunks) < 2 {
		t.Fatalf("SplitSection() = %d chunks, want several", len(chunks))
	}

	for i := 0; i < len(chunks)-1; i++ {
		cur := []rune(chunks[i].Body)
		next := []rune(chunks[i+1].Body)
		if len(cur) > size || len(next) > size {
			t.Fatalf("chunk exceeds size limit: %d and %d runes", len(cur), len(next))
		}
		tail := string(cur[len(cur)-overlap:])
		head := string(next[:overlap])
		if tail != head {
			t.Errorf("chunks %d/%d overlap mismatch: %q vs %q", i, i+1, tail, head)
		}
	}

	// Offsets must advance front-to-back within the section.
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Offset <= chunks[i-1].Offset {
			t.Errorf("chunk %d offset %d not after previous %d", i, chunks[i].Offset, chunks[i-1].Offset)
		}
		if chunks[i].Index != chunks[i-1].Index+1 {
			t.Errorf("chunk %d index %d not sequential", i, chunks[i].Index)
		}
	}
}

func TestSplitSection_PrefersParagraphBoundary(t *testing.T) {
	first := strings.TrimSpace(strings.Repeat("one two three ", 5))
	second := strings.TrimSpace(strings.Repeat("four five six ", 5))
	sec := Section{Content: first + "\n\n" + second}

	chk := New(80, 0)
	chunks := chk.SplitSection(sec)
	if len(chunks) < 2 {
		t.Fatalf("SplitSection() = %d chunks, want at least 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Body, "\n\n") {
		t.Errorf("first chunk did not cut at paragraph boundary: %q", chunks[0].Body)
	}
}

func TestChunk_EndToEnd(t *testing.T) {
	source := "# Analysis\n\n" + strings.TrimSpace(strings.Repeat("finding detail ", 30)) + "\n"

	chk := New(120, 30)
	chunks := chk.Chunk(source)
	if len(chunks) < 2 {
		t.Fatalf("Chunk() = %d chunks, want several", len(chunks))
	}
	for i, c := range chunks {
		if !strings.HasPrefix(c.Text, "Headers: Analysis\nHeaders: Analysis\n\n") {
			t.Errorf("chunk %d missing doubled header lead-in: %q", i, c.Text)
		}
	}
}

func TestHeaderLine(t *testing.T) {
	if got := HeaderLine(nil); got != "" {
		t.Errorf("HeaderLine(nil) = %q, want empty", got)
	}
	if got := HeaderLine([]string{"A", "B"}); got != "Headers: A > B" {
		t.Errorf("HeaderLine() = %q", got)
	}
}

func TestExtractFrontMatter(t *testing.T) {
	source := "---\ntitle: Thesis Title\nauthor: Someone\n---\n\n## Abstract\n\nAbstract body.\n"

	sec, ok := ExtractFrontMatter(source)
	if !ok {
		t.Fatal("ExtractFrontMatter() found nothing")
	}
	if !strings.Contains(sec.Content, "title: Thesis Title") {
		t.Errorf("front matter content = %q", sec.Content)
	}
	if got := strings.Join(sec.HeaderPath, " > "); got != "Front Matter > Title Page" {
		t.Errorf("front matter path = %q", got)
	}

	if _, ok := ExtractFrontMatter("# No front matter here\n"); ok {
		t.Error("ExtractFrontMatter() matched text without front matter")
	}
}
