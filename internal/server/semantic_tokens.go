package server

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/dialect"
	"github.com/CWBudde/go-xdt99-lsp/internal/document"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// SemanticToken represents a raw semantic token with position and classification.
type SemanticToken struct {
	Line      uint32 // 0-based line number
	StartChar uint32 // 0-based start character (UTF-16)
	Length    uint32 // Token length (UTF-16)
	TokenType uint32 // Index into legend.TokenTypes
	Modifiers uint32 // Bit flags for modifiers
}

// SemanticTokensLegend defines the token types and modifiers used by the server.
// The legend must remain consistent across all requests to ensure proper highlighting.
type SemanticTokensLegend struct {
	TokenTypes     []string
	TokenModifiers []string
}

// Token modifiers.
const (
	TokenModifierDeclaration = "declaration"
)

// NewSemanticTokensLegend creates the legend for the xdt99 highlight classes.
func NewSemanticTokensLegend() *SemanticTokensLegend {
	return &SemanticTokensLegend{
		TokenTypes: []string{
			dialect.HighlightFunction,
			dialect.HighlightParameter,
			dialect.HighlightVariable,
			dialect.HighlightMacro,
			dialect.HighlightKeyword,
			dialect.HighlightNumber,
			dialect.HighlightString,
			dialect.HighlightComment,
			dialect.HighlightOperator,
		},
		TokenModifiers: []string{
			TokenModifierDeclaration,
		},
	}
}

// ToProtocolLegend converts the legend to the LSP protocol format.
func (l *SemanticTokensLegend) ToProtocolLegend() protocol.SemanticTokensLegend {
	return protocol.SemanticTokensLegend{
		TokenTypes:     l.TokenTypes,
		TokenModifiers: l.TokenModifiers,
	}
}

// GetTokenTypeIndex returns the index of a token type in the legend.
// Returns -1 if the token type is not found.
func (l *SemanticTokensLegend) GetTokenTypeIndex(tokenType string) int {
	for i, t := range l.TokenTypes {
		if t == tokenType {
			return i
		}
	}

	return -1
}

// GetModifierMask returns the bit mask for the given modifiers.
func (l *SemanticTokensLegend) GetModifierMask(modifiers ...string) uint32 {
	var mask uint32

	for _, modifier := range modifiers {
		for i, m := range l.TokenModifiers {
			if m == modifier {
				mask |= 1 << uint32(i)
				break
			}
		}
	}

	return mask
}

// CollectSemanticTokens classifies the leaves of a parsed file.
func (l *SemanticTokensLegend) CollectSemanticTokens(file *symbols.SourceFile, lines *document.LineIndex) []SemanticToken {
	if file == nil || file.Tree == nil {
		return nil
	}

	var tokens []SemanticToken

	for _, h := range dialect.Highlights(file.Tree) {
		typ := l.GetTokenTypeIndex(h.Class)
		if typ < 0 {
			continue
		}

		r, err := lines.Range(h.Start, h.End)
		if err != nil || r.Start.Line != r.End.Line {
			continue
		}

		var mods uint32
		if h.Declaration {
			mods = l.GetModifierMask(TokenModifierDeclaration)
		}

		tokens = append(tokens, SemanticToken{
			Line:      r.Start.Line,
			StartChar: r.Start.Character,
			Length:    r.End.Character - r.Start.Character,
			TokenType: uint32(typ),
			Modifiers: mods,
		})
	}

	return tokens
}

// EncodeSemanticTokens encodes tokens in the relative LSP format. Tokens must
// be in document order.
func EncodeSemanticTokens(tokens []SemanticToken) []protocol.UInteger {
	data := make([]protocol.UInteger, 0, len(tokens)*5)

	var prevLine, prevChar uint32

	for _, t := range tokens {
		deltaLine := t.Line - prevLine

		deltaChar := t.StartChar
		if deltaLine == 0 {
			deltaChar = t.StartChar - prevChar
		}

		data = append(data, deltaLine, deltaChar, t.Length, t.TokenType, t.Modifiers)

		prevLine, prevChar = t.Line, t.StartChar
	}

	return data
}
