// Package document converts between LSP positions and byte offsets and
// applies text changes to document contents.
package document

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LineIndex maps byte offsets of a text to LSP positions and back.
// LSP counts characters in UTF-16 code units.
type LineIndex struct {
	text   string
	starts []int
}

// NewLineIndex indexes the line starts of text.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}

	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return &LineIndex{text: text, starts: starts}
}

// LineCount returns the number of lines, counting a trailing empty line.
func (li *LineIndex) LineCount() int {
	return len(li.starts)
}

// line returns the text of line n without its terminator.
func (li *LineIndex) line(n int) string {
	end := len(li.text)
	if n+1 < len(li.starts) {
		end = li.starts[n+1] - 1
	}

	return li.text[li.starts[n]:end]
}

// Offset converts a line/character position to a byte offset.
func (li *LineIndex) Offset(line, character int) (int, error) {
	if line < 0 || line >= len(li.starts) {
		return 0, fmt.Errorf("line %d out of range (0-%d)", line, len(li.starts)-1)
	}

	b, err := utf16CharOffsetToByteOffset(li.line(line), character)
	if err != nil {
		return 0, err
	}

	return li.starts[line] + b, nil
}

// Position converts a byte offset to a line/character position.
func (li *LineIndex) Position(offset int) (line, character int, err error) {
	if offset < 0 || offset > len(li.text) {
		return 0, 0, fmt.Errorf("offset %d out of range (0-%d)", offset, len(li.text))
	}

	line = sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1

	text := li.line(line)

	within := offset - li.starts[line]
	if within > len(text) {
		within = len(text)
	}

	character, err = byteOffsetToUTF16Offset(text, within)

	return line, character, err
}

// Range converts a byte range to an LSP range.
func (li *LineIndex) Range(start, end int) (protocol.Range, error) {
	sl, sc, err := li.Position(start)
	if err != nil {
		return protocol.Range{}, err
	}

	el, ec, err := li.Position(end)
	if err != nil {
		return protocol.Range{}, err
	}

	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(sl), Character: protocol.UInteger(sc)},
		End:   protocol.Position{Line: protocol.UInteger(el), Character: protocol.UInteger(ec)},
	}, nil
}

// ApplyContentChange applies a TextDocumentContentChangeEvent to the given text
// and returns the updated text. A change without a range replaces everything.
func ApplyContentChange(text string, change protocol.TextDocumentContentChangeEvent) (string, error) {
	if change.Range == nil {
		return change.Text, nil
	}

	li := NewLineIndex(text)

	start, err := li.Offset(int(change.Range.Start.Line), int(change.Range.Start.Character))
	if err != nil {
		return "", fmt.Errorf("invalid start position: %w", err)
	}

	end, err := li.Offset(int(change.Range.End.Line), int(change.Range.End.Character))
	if err != nil {
		return "", fmt.Errorf("invalid end position: %w", err)
	}

	if start > end {
		return "", fmt.Errorf("start offset %d after end offset %d", start, end)
	}

	return text[:start] + change.Text + text[end:], nil
}

// Edit replaces the byte range [Start, End) with NewText.
type Edit struct {
	Start   int
	End     int
	NewText string
}

// ApplyEdits applies non-overlapping edits given in any order.
func ApplyEdits(text string, edits []Edit) (string, error) {
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder

	pos := 0

	for _, e := range sorted {
		if e.Start < pos || e.End < e.Start || e.End > len(text) {
			return "", fmt.Errorf("edit [%d,%d) overlaps or exceeds the text", e.Start, e.End)
		}

		b.WriteString(text[pos:e.Start])
		b.WriteString(e.NewText)
		pos = e.End
	}

	b.WriteString(text[pos:])

	return b.String(), nil
}

// PositionToOffset converts a line/character position to a byte offset in the text.
func PositionToOffset(text string, line, character int) (int, error) {
	return NewLineIndex(text).Offset(line, character)
}

// OffsetToPosition converts a byte offset to a line/character position.
func OffsetToPosition(text string, offset int) (line, character int, err error) {
	return NewLineIndex(text).Position(offset)
}

// utf16CharOffsetToByteOffset converts a UTF-16 character offset within a
// line to a UTF-8 byte offset. The end of the line is a valid offset.
func utf16CharOffsetToByteOffset(line string, utf16Offset int) (int, error) {
	if utf16Offset < 0 {
		return 0, fmt.Errorf("negative UTF-16 offset %d", utf16Offset)
	}

	units := 0

	for i, r := range line {
		if units >= utf16Offset {
			return i, nil
		}

		units += utf16Len(r)
	}

	if units >= utf16Offset {
		return len(line), nil
	}

	return 0, fmt.Errorf("UTF-16 offset %d exceeds line length %d", utf16Offset, units)
}

// byteOffsetToUTF16Offset converts a UTF-8 byte offset within a line
// to a UTF-16 code unit offset.
func byteOffsetToUTF16Offset(line string, byteOffset int) (int, error) {
	if byteOffset < 0 || byteOffset > len(line) {
		return 0, fmt.Errorf("byte offset %d out of range (0-%d)", byteOffset, len(line))
	}

	units := 0

	for i, r := range line {
		if i >= byteOffset {
			break
		}

		units += utf16Len(r)
	}

	return units, nil
}

func utf16Len(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}

	return 1
}
