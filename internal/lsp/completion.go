package lsp

import (
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/dialect"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// completionKinds lists the kinds offered by name in each language family.
var completionKinds = map[string][]symbols.Kind{
	dialect.FamilyXas99: {symbols.KindLabel, symbols.KindRegisterAlias, symbols.KindMacro},
	dialect.FamilyXga99: {symbols.KindLabel, symbols.KindMacro},
	dialect.FamilyXbas99: {
		symbols.KindBasicNumericVar, symbols.KindBasicStringVar,
		symbols.KindBasicNumericFunc, symbols.KindBasicStringFunc, symbols.KindLabel,
	},
}

func isNameChar(c byte, basic bool) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
		return true
	case basic:
		return c == '@' || c == '$'
	}

	return false
}

// completionPrefix returns the partial name before offset and the kinds it
// may complete to.
func completionPrefix(file *symbols.SourceFile, text string, offset int) (string, []symbols.Kind) {
	family := file.Language.Family()
	basic := family == dialect.FamilyXbas99

	start := offset
	for start > 0 && isNameChar(text[start-1], basic) {
		start--
	}

	// Local label usages repeat the prefix to count labels; definitions
	// carry it once.
	if lp := file.Language.LocalPrefix(); lp != 0 && start > 0 && text[start-1] == lp {
		return string(lp) + text[start:offset], []symbols.Kind{symbols.KindLocalLabel}
	}

	prefix := text[start:offset]

	if basic && prefix != "" && isDigits(prefix) {
		return prefix, []symbols.Kind{symbols.KindBasicLineNumber}
	}

	return prefix, completionKinds[family]
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// Completion handles the textDocument/completion request. It offers the
// definitions whose names start with the partial name at the cursor.
func Completion(context *glsp.Context, params *protocol.CompletionParams) (any, error) {
	srv := getServer("Completion")
	if srv == nil {
		return nil, nil
	}

	uri := params.TextDocument.URI

	logger().Debugf("Completion request at %s line %d, character %d",
		uri, params.Position.Line, params.Position.Character)

	cache := newLineCache(srv)

	file, offset, ok := locate(srv, cache, uri, params.Position)
	if !ok || file.Tree == nil || file.Language == nil {
		return &protocol.CompletionList{Items: []protocol.CompletionItem{}}, nil
	}

	prefix, kinds := completionPrefix(file, file.Tree.Source(), offset)
	ix := srv.Index()

	seen := make(map[string]bool)
	items := []protocol.CompletionItem{}

	for _, kind := range kinds {
		for _, d := range ix.FindDefinitions(symbols.ScopeFor(kind, file), kind, prefix, true) {
			// Skip the name being typed.
			if d.URI() == uri && d.Offset <= offset && offset <= d.End {
				continue
			}

			key := kind.String() + "\x00" + symbols.Normalize(d.Name)
			if seen[key] {
				continue
			}

			seen[key] = true

			itemKind := completionKind(kind)
			detail := describe(d)

			items = append(items, protocol.CompletionItem{
				Label:  d.Name,
				Kind:   &itemKind,
				Detail: &detail,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Label < items[j].Label })

	logger().Debugf("Offering %d completions for %q", len(items), prefix)

	return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}
