package workspace

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-xdt99-lsp/internal/dialect"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// countingParser parses with the built-in dialects and counts the calls.
type countingParser struct {
	registry *dialect.Registry
	calls    atomic.Int32
}

func newCountingParser() *countingParser {
	return &countingParser{registry: dialect.NewRegistry()}
}

func (p *countingParser) parse(uri, text string) *symbols.SourceFile {
	p.calls.Add(1)

	d := p.registry.ForPath(uri)
	if d == nil {
		return nil
	}

	return d.File(uri, text, nil)
}

func TestStore_PutSkipsUnchangedContent(t *testing.T) {
	p := newCountingParser()
	s := NewStore()

	file, parsed := s.Put("file:///src/main.a99", "START  B    @START\n", p.parse)
	require.NotNil(t, file)
	assert.True(t, parsed)

	again, parsed := s.Put("file:///src/main.a99", "START  B    @START\n", p.parse)
	assert.False(t, parsed)
	assert.Same(t, file, again)
	assert.EqualValues(t, 1, p.calls.Load())

	changed, parsed := s.Put("file:///src/main.a99", "BEGIN  B    @BEGIN\n", p.parse)
	assert.True(t, parsed)
	assert.NotSame(t, file, changed)
	assert.EqualValues(t, 2, p.calls.Load())

	e, ok := s.Get("file:///src/main.a99")
	require.True(t, ok)
	assert.Equal(t, "BEGIN  B    @BEGIN\n", e.Text)
}

func TestStore_PutAtKeepsLaterContent(t *testing.T) {
	const uri = "file:///src/main.a99"

	tests := []struct {
		name  string
		write func(s *Store, p *countingParser)
	}{
		{
			name: "stale content arrives after newer",
			write: func(s *Store, p *countingParser) {
				stale := s.Ticket()
				s.Put(uri, "NEW    RT\n", p.parse)

				_, parsed := s.PutAt(uri, "OLD    RT\n", stale, p.parse)
				assert.False(t, parsed)
			},
		},
		{
			name: "newer content stored while stale content parses",
			write: func(s *Store, p *countingParser) {
				slow := func(uri, text string) *symbols.SourceFile {
					s.Put(uri, "NEW    RT\n", p.parse)
					return p.parse(uri, text)
				}

				_, parsed := s.PutAt(uri, "OLD    RT\n", s.Ticket(), slow)
				assert.False(t, parsed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newCountingParser()
			s := NewStore()

			tt.write(s, p)

			e, ok := s.Get(uri)
			require.True(t, ok)
			assert.Equal(t, "NEW    RT\n", e.Text)
			defs := symbols.Definitions(e.File)
			require.Len(t, defs, 1)
			assert.Equal(t, "NEW", defs[0].Name, "parse result matches the stored text")
		})
	}
}

func TestStore_PutAtLaterTicketWins(t *testing.T) {
	p := newCountingParser()
	s := NewStore()

	first := s.Ticket()
	second := s.Ticket()

	s.PutAt("file:///src/main.a99", "LATE   RT\n", second, p.parse)
	s.PutAt("file:///src/main.a99", "EARLY  RT\n", first, p.parse)

	e, ok := s.Get("file:///src/main.a99")
	require.True(t, ok)
	assert.Equal(t, "LATE   RT\n", e.Text)
	assert.Equal(t, second, e.Ticket)
}

func TestStore_PutDropsUnparsableFiles(t *testing.T) {
	p := newCountingParser()
	s := NewStore()

	s.Put("file:///src/notes.txt", "hello", p.parse)
	assert.Equal(t, 0, s.Len())
}

func TestStore_FilesByFamily(t *testing.T) {
	p := newCountingParser()
	s := NewStore()

	s.Put("file:///src/b.asm", "B      DATA 0\n", p.parse)
	s.Put("file:///src/a.a99r", "A:     DATA 0\n", p.parse)
	s.Put("file:///src/game.b99", "10 END\n", p.parse)
	s.Put("file:///src/menu.gpl", "MENU   BACK 4\n", p.parse)

	var uris []string
	for _, f := range s.Files(dialect.FamilyXas99) {
		uris = append(uris, f.URI)
	}

	assert.Equal(t, []string{"file:///src/a.a99r", "file:///src/b.asm"}, uris)
	assert.Len(t, s.Files(dialect.FamilyXbas99), 1)
	assert.Len(t, s.Files(dialect.FamilyXga99), 1)
	assert.Equal(t, []string{
		"file:///src/a.a99r", "file:///src/b.asm", "file:///src/game.b99", "file:///src/menu.gpl",
	}, s.URIs())
}

func TestStore_RemoveFolder(t *testing.T) {
	p := newCountingParser()
	s := NewStore()

	s.Put("file:///one/a.a99", "A      DATA 0\n", p.parse)
	s.Put("file:///one/sub/b.a99", "B      DATA 0\n", p.parse)
	s.Put("file:///one2/c.a99", "C      DATA 0\n", p.parse)

	assert.Equal(t, 2, s.RemoveFolder("file:///one/"))
	assert.Equal(t, []string{"file:///one2/c.a99"}, s.URIs())

	s.Remove("file:///one2/c.a99")
	assert.Equal(t, 0, s.Len())
}

func TestStore_Reparse(t *testing.T) {
	p := newCountingParser()
	s := NewStore()

	first, _ := s.Put("file:///src/a.a99", "A      DATA 0\n", p.parse)

	s.Reparse(p.parse)

	e, ok := s.Get("file:///src/a.a99")
	require.True(t, ok)
	assert.NotSame(t, first, e.File)
	assert.EqualValues(t, 2, p.calls.Load())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	p := newCountingParser()
	s := NewStore()

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			uri := "file:///src/f" + string(rune('a'+i)) + ".a99"
			s.Put(uri, "L      DATA 0\n", p.parse)
			s.Files(dialect.FamilyXas99)
		}()
	}

	wg.Wait()

	assert.Equal(t, 8, s.Len())
}
