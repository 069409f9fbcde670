package dialect

import "github.com/CWBudde/go-xdt99-lsp/internal/syntax"

// Highlight classes, named after the LSP semantic token types they map to.
const (
	HighlightFunction  = "function"
	HighlightParameter = "parameter"
	HighlightVariable  = "variable"
	HighlightMacro     = "macro"
	HighlightKeyword   = "keyword"
	HighlightNumber    = "number"
	HighlightString    = "string"
	HighlightComment   = "comment"
	HighlightOperator  = "operator"
)

// Highlight is one classified leaf of a tree.
type Highlight struct {
	Start, End  int
	Class       string
	Declaration bool
}

type highlightClass struct {
	class       string
	declaration bool
}

var highlightClasses = map[syntax.Tag]highlightClass{
	syntax.TagComment: {HighlightComment, false},

	TagLabelDef:  {HighlightFunction, true},
	TagLabelRef:  {HighlightFunction, false},
	TagLocalDef:  {HighlightFunction, true},
	TagLocalRef:  {HighlightFunction, false},
	TagAliasDef:  {HighlightParameter, true},
	TagAliasRef:  {HighlightParameter, false},
	TagRegister:  {HighlightParameter, false},
	TagMacroDef:  {HighlightMacro, true},
	TagMacroRef:  {HighlightMacro, false},
	TagMnemonic:  {HighlightKeyword, false},
	TagNumber:    {HighlightNumber, false},
	TagString:    {HighlightString, false},
	TagOperator:  {HighlightOperator, false},
	TagWord:      {HighlightFunction, false},
	TagKeyword:   {HighlightKeyword, false},
	TagNumVarDef: {HighlightVariable, true},
	TagNumVarRef: {HighlightVariable, false},
	TagStrVarDef: {HighlightVariable, true},
	TagStrVarRef: {HighlightVariable, false},

	TagNumFuncDef:    {HighlightFunction, true},
	TagNumFuncRef:    {HighlightFunction, false},
	TagStrFuncDef:    {HighlightFunction, true},
	TagStrFuncRef:    {HighlightFunction, false},
	TagLineNumberDef: {HighlightNumber, true},
	TagLineNumberRef: {HighlightNumber, false},
}

// Highlights returns the classified leaves of a tree in document order.
// Empty leaves and unclassified tags are skipped.
func Highlights(tree *syntax.Tree) []Highlight {
	if tree == nil {
		return nil
	}

	var result []Highlight

	tree.Walk(tree.Root(), func(id syntax.NodeID) bool {
		if tree.FirstChild(id) != syntax.NoNode {
			return true
		}

		hc, ok := highlightClasses[tree.Tag(id)]
		if !ok {
			return true
		}

		start, end := tree.Span(id)
		if end > start {
			result = append(result, Highlight{Start: start, End: end, Class: hc.class, Declaration: hc.declaration})
		}

		return true
	})

	return result
}
