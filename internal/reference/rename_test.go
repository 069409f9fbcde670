package reference

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-xdt99-lsp/internal/dialect"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// apply applies edits that arrive last offset first.
func apply(src string, edits []Edit) string {
	for _, e := range edits {
		src = src[:e.Start] + e.NewText + src[e.End:]
	}

	return src
}

func TestRename_AcrossFiles(t *testing.T) {
	srcA := "MAIN   BL   @SUB\n       REF  SUB\n       B    @sub\n"
	srcB := "SUB    RT\n       DEF  SUB\n"
	a := asm("file:///a.a99", srcA)
	b := asm("file:///b.a99", srcB)
	e := engine(a, b)

	c := NewCollector()
	require.NoError(t, e.Rename(usage(t, a, "SUB", 0), "PRINT", c))

	assert.Equal(t, []string{"file:///a.a99", "file:///b.a99"}, c.URIs())
	assert.Equal(t, "MAIN   BL   @PRINT\n       REF  PRINT\n       B    @PRINT\n", apply(srcA, c.Edits()["file:///a.a99"]))
	assert.Equal(t, "PRINT    RT\n       DEF  PRINT\n", apply(srcB, c.Edits()["file:///b.a99"]))
}

func TestRename_EditsDescendingPerFile(t *testing.T) {
	f := asm("file:///a.a99", "X      B    @X\n       B    @X\n")
	c := NewCollector()

	require.NoError(t, engine(f).RenameDefinition(symbols.Definitions(f)[0], "Y", c))

	edits := c.Edits()["file:///a.a99"]
	require.Len(t, edits, 3)

	for i := 1; i < len(edits); i++ {
		assert.Greater(t, edits[i-1].Start, edits[i].Start)
	}
}

func TestRename_LocalLabelRejected(t *testing.T) {
	f := asm("file:///a.a99", "!      DEC  R1\n       JNE  -!\n")
	e := engine(f)
	c := NewCollector()

	assert.ErrorIs(t, e.Rename(usage(t, f, "!", 0), "LOOP", c), ErrLocalLabel)
	assert.ErrorIs(t, e.RenameDefinition(symbols.Definitions(f)[0], "LOOP", c), ErrLocalLabel)
	assert.Empty(t, c.Edits())
}

func TestRename_InvalidName(t *testing.T) {
	f := asm("file:///a.a99", "LOOP   JMP  LOOP\n")
	c := NewCollector()

	err := engine(f).Rename(usage(t, f, "LOOP", 0), "R3", c)
	require.ErrorIs(t, err, ErrInvalidName)
	assert.ErrorIs(t, err, dialect.ErrInvalidName)
	assert.Empty(t, c.Edits())

	err = engine(f).Rename(usage(t, f, "LOOP", 0), "!LOOP", c)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestRename_Unresolved(t *testing.T) {
	f := asm("file:///a.a99", "       JMP  NOWHERE\n")

	err := engine(f).Rename(usage(t, f, "NOWHERE", 0), "THERE", NewCollector())
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestRename_BasicStringVariable(t *testing.T) {
	src := "10 A$=\"X\" :: PRINT A$\n20 PRINT A\n"
	f := dialect.Xbas99().File("file:///p.b99", src, nil)
	e := engine(f)

	c := NewCollector()
	assert.ErrorIs(t, e.Rename(usage(t, f, "A$", 0), "NAME", c), ErrInvalidName)

	require.NoError(t, e.Rename(usage(t, f, "A$", 0), "NAME$", c))
	assert.Equal(t, "10 NAME$=\"X\" :: PRINT NAME$\n20 PRINT A\n", apply(src, c.Edits()["file:///p.b99"]))
}

func TestRename_BasicLineNumber(t *testing.T) {
	src := "10 GOTO 20\n20 GOSUB 10 :: GOTO 20\n"
	f := dialect.Xbas99().File("file:///p.b99", src, nil)
	e := engine(f)

	c := NewCollector()
	require.NoError(t, e.Rename(usage(t, f, "20", 0), "300", c))
	assert.Equal(t, "10 GOTO 300\n300 GOSUB 10 :: GOTO 300\n", apply(src, c.Edits()["file:///p.b99"]))

	assert.ErrorIs(t, e.Rename(usage(t, f, "20", 0), "40000", NewCollector()), ErrInvalidName)
}

type failingRewriter struct{ calls int }

var errReadOnly = errors.New("read-only")

func (w *failingRewriter) Replace(string, int, int, string) error {
	w.calls++
	return errReadOnly
}

func TestRename_RewriterError(t *testing.T) {
	f := asm("file:///a.a99", "X      B    @X\n")
	w := &failingRewriter{}

	err := engine(f).RenameDefinition(symbols.Definitions(f)[0], "Y", w)
	require.ErrorIs(t, err, errReadOnly)
	assert.Equal(t, 1, w.calls)
}
