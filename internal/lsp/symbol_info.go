package lsp

import (
	"path"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// symbolKind maps a symbol kind to the LSP symbol kind shown in outlines.
func symbolKind(k symbols.Kind) protocol.SymbolKind {
	switch k {
	case symbols.KindLabel, symbols.KindLocalLabel:
		return protocol.SymbolKindFunction
	case symbols.KindRegisterAlias:
		return protocol.SymbolKindVariable
	case symbols.KindMacro:
		return protocol.SymbolKindMethod
	case symbols.KindBasicLineNumber:
		return protocol.SymbolKindNumber
	case symbols.KindBasicNumericVar:
		return protocol.SymbolKindVariable
	case symbols.KindBasicStringVar:
		return protocol.SymbolKindString
	case symbols.KindBasicNumericFunc, symbols.KindBasicStringFunc:
		return protocol.SymbolKindFunction
	}

	return protocol.SymbolKindKey
}

// completionKind maps a symbol kind to the LSP completion item kind.
func completionKind(k symbols.Kind) protocol.CompletionItemKind {
	switch k {
	case symbols.KindLabel, symbols.KindLocalLabel:
		return protocol.CompletionItemKindReference
	case symbols.KindRegisterAlias, symbols.KindBasicNumericVar, symbols.KindBasicStringVar:
		return protocol.CompletionItemKindVariable
	case symbols.KindMacro:
		return protocol.CompletionItemKindSnippet
	case symbols.KindBasicLineNumber:
		return protocol.CompletionItemKindConstant
	case symbols.KindBasicNumericFunc, symbols.KindBasicStringFunc:
		return protocol.CompletionItemKindFunction
	}

	return protocol.CompletionItemKindText
}

// describe returns a one-line description like "label in main.a99".
func describe(d symbols.Definition) string {
	s := d.Kind.String()
	if d.External {
		s = "external " + s
	}

	if uri := d.URI(); uri != "" {
		s += " in " + path.Base(uri)
	}

	return s
}

// definitionLine returns the source line holding a definition, trimmed.
func definitionLine(d symbols.Definition) string {
	if d.File == nil || d.File.Tree == nil {
		return ""
	}

	src := d.File.Tree.Source()

	start := d.Offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}

	end := d.End
	for end < len(src) && src[end] != '\n' && src[end] != '\r' {
		end++
	}

	return src[start:end]
}
