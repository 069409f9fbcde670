package symbols

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/CWBudde/go-xdt99-lsp/internal/syntax"
)

const (
	tagLabelDef syntax.Tag = syntax.TagDialect + iota
	tagLabelRef
	tagLocalDef
	tagLocalRef
	tagAliasDef
	tagAliasRef
	tagMacroDef
	tagMacroRef
	tagLineDef
	tagLineRef
	tagVarDef
	tagVarRef
	tagMinus
)

var testTags = map[syntax.Tag]struct {
	role Role
	kind Kind
}{
	tagLabelDef: {RoleDefinition, KindLabel},
	tagLabelRef: {RoleUsage, KindLabel},
	tagLocalDef: {RoleDefinition, KindLocalLabel},
	tagLocalRef: {RoleUsage, KindLocalLabel},
	tagAliasDef: {RoleDefinition, KindRegisterAlias},
	tagAliasRef: {RoleUsage, KindRegisterAlias},
	tagMacroDef: {RoleDefinition, KindMacro},
	tagMacroRef: {RoleUsage, KindMacro},
	tagLineDef:  {RoleDefinition, KindBasicLineNumber},
	tagLineRef:  {RoleUsage, KindBasicLineNumber},
	tagVarDef:   {RoleDefinition, KindBasicNumericVar},
	tagVarRef:   {RoleUsage, KindBasicNumericVar},
}

// testLanguage is a minimal dialect over the tags above.
type testLanguage struct{}

func (testLanguage) Name() string             { return "test" }
func (testLanguage) Family() string           { return "test" }
func (testLanguage) Matches(path string) bool { return strings.HasSuffix(path, ".t") }
func (testLanguage) LocalPrefix() byte        { return '!' }

func (testLanguage) Classify(tree *syntax.Tree, id syntax.NodeID) (Role, Kind) {
	if c, ok := testTags[tree.Tag(id)]; ok {
		return c.role, c.kind
	}

	return RoleNone, KindNone
}

func (testLanguage) Reach(kind Kind) Reach {
	if kind.IsBasic() {
		return ReachFile
	}

	return ReachProject
}

func (testLanguage) ValidName(kind Kind, name string) error {
	if name == "" || strings.ContainsAny(name, " ,") {
		return errors.New("invalid name")
	}

	return nil
}

// node places text with a tag at an offset of a synthetic source.
type node struct {
	tag    syntax.Tag
	offset int
	text   string
	flags  syntax.Flags
}

// newFile builds a file whose source is size bytes of blanks with the nodes'
// texts written in. A newline in a node text splits lines.
func newFile(t *testing.T, uri string, size int, nodes ...node) *SourceFile {
	t.Helper()

	src := []byte(strings.Repeat(" ", size))
	for _, n := range nodes {
		if n.offset+len(n.text) > size {
			t.Fatalf("node %q at %d exceeds source size %d", n.text, n.offset, size)
		}

		copy(src[n.offset:], n.text)
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].offset < nodes[j].offset })

	b := syntax.NewBuilder(string(src))
	lineStart := 0
	next := 0

	for i := 0; i <= len(src); i++ {
		if i < len(src) && src[i] != '\n' {
			continue
		}

		b.Open(syntax.TagLine, lineStart)

		for next < len(nodes) && nodes[next].offset < i {
			n := nodes[next]
			if n.tag != 0 {
				b.Leaf(n.tag, n.offset, n.offset+len(n.text), n.flags)
			}
			next++
		}

		b.Close(i)
		lineStart = i + 1
	}

	return &SourceFile{URI: uri, Tree: b.Finish(), Language: testLanguage{}}
}

func offsets(defs []Definition) []int {
	result := make([]int, 0, len(defs))
	for _, d := range defs {
		result = append(result, d.Offset)
	}

	return result
}
