// Package symbols implements the symbol table shared by every xdt99 dialect:
// definition and usage extraction, project-wide lookups, positional
// resolution of local labels and the symbol diagnostics built on top of them.
//
// Nothing here is cached. Every query walks the syntax trees the Project
// hands out, so results always reflect the trees the host currently holds.
package symbols

import "strings"

// Kind is the namespace a symbol lives in.
type Kind int

const (
	KindNone Kind = iota
	KindLabel
	KindLocalLabel
	KindRegisterAlias
	KindMacro
	KindBasicLineNumber
	KindBasicNumericVar
	KindBasicStringVar
	KindBasicNumericFunc
	KindBasicStringFunc
)

var kindNames = map[Kind]string{
	KindNone:             "none",
	KindLabel:            "label",
	KindLocalLabel:       "local label",
	KindRegisterAlias:    "register alias",
	KindMacro:            "macro",
	KindBasicLineNumber:  "line number",
	KindBasicNumericVar:  "numeric variable",
	KindBasicStringVar:   "string variable",
	KindBasicNumericFunc: "numeric function",
	KindBasicStringFunc:  "string function",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unknown"
}

// IsBasic reports whether the kind belongs to the BASIC dialects.
func (k Kind) IsBasic() bool {
	return k >= KindBasicLineNumber && k <= KindBasicStringFunc
}

// IsVariable reports whether the kind is a BASIC variable kind.
func (k Kind) IsVariable() bool {
	return k == KindBasicNumericVar || k == KindBasicStringVar
}

// AllKinds lists every symbol kind except KindNone.
func AllKinds() []Kind {
	return []Kind{
		KindLabel, KindLocalLabel, KindRegisterAlias, KindMacro,
		KindBasicLineNumber, KindBasicNumericVar, KindBasicStringVar,
		KindBasicNumericFunc, KindBasicStringFunc,
	}
}

// Role tells whether a syntax node defines or uses a symbol.
type Role int

const (
	RoleNone Role = iota
	RoleDefinition
	RoleUsage
)

// Reach is how far a kind's lookups extend.
type Reach int

const (
	// ReachProject searches every file of the language family.
	ReachProject Reach = iota
	// ReachFile searches only the file the query starts from.
	ReachFile
)

// Normalize returns the comparison form of a symbol name.
// All xdt99 languages compare names case-insensitively.
func Normalize(name string) string {
	return strings.ToUpper(name)
}
