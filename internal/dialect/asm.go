package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
	"github.com/CWBudde/go-xdt99-lsp/internal/syntax"
)

// asmOptions selects the assembly variant.
type asmOptions struct {
	// relaxed allows indented labels terminated by a colon and blanks inside operands.
	relaxed bool
	// registers enables TMS9900 workspace registers and REQU aliases.
	registers bool
	// gpl enables GPL addressing prefixes (V@, G@).
	gpl bool
}

// Xas99 is the TMS9900 assembly language.
func Xas99() *Dialect {
	return newAsmDialect("xas99", []string{"xas99"}, []string{".a99", ".asm"}, asmOptions{registers: true})
}

// Xas99R is xas99 with relaxed syntax.
func Xas99R() *Dialect {
	return newAsmDialect("xas99r", []string{"xas99r"}, []string{".a99r", ".asmr"}, asmOptions{registers: true, relaxed: true})
}

// Xga99 is the GPL assembly language.
func Xga99() *Dialect {
	return newAsmDialect("xga99", []string{"xga99"}, []string{".g99", ".gpl"}, asmOptions{gpl: true})
}

// Xga99R is xga99 with relaxed syntax.
func Xga99R() *Dialect {
	return newAsmDialect("xga99r", []string{"xga99r"}, []string{".g99r", ".gplr"}, asmOptions{gpl: true, relaxed: true})
}

func newAsmDialect(name string, ids, exts []string, opts asmOptions) *Dialect {
	family := FamilyXas99
	if opts.gpl {
		family = FamilyXga99
	}

	return &Dialect{
		name:        name,
		family:      family,
		languageIDs: ids,
		extensions:  exts,
		localPrefix: '!',
		reach:       symbols.ReachProject,
		tags:        asmTags,
		validName: func(kind symbols.Kind, name string) error {
			return validAsmName(opts, kind, name)
		},
		parse: func(src string, ctx *ParseContext) *syntax.Tree {
			return parseAsm(src, ctx, opts)
		},
	}
}

var asmTags = map[syntax.Tag]classification{
	TagLabelDef: {symbols.RoleDefinition, symbols.KindLabel},
	TagLabelRef: {symbols.RoleUsage, symbols.KindLabel},
	TagLocalDef: {symbols.RoleDefinition, symbols.KindLocalLabel},
	TagLocalRef: {symbols.RoleUsage, symbols.KindLocalLabel},
	TagAliasDef: {symbols.RoleDefinition, symbols.KindRegisterAlias},
	TagAliasRef: {symbols.RoleUsage, symbols.KindRegisterAlias},
	TagMacroDef: {symbols.RoleDefinition, symbols.KindMacro},
	TagMacroRef: {symbols.RoleUsage, symbols.KindMacro},
}

var asmNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validAsmName(opts asmOptions, kind symbols.Kind, name string) error {
	if !asmNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q is not a valid %s name", ErrInvalidName, name, kind)
	}

	if opts.registers && isRegisterName(name) {
		return fmt.Errorf("%w: %q is a register name", ErrInvalidName, name)
	}

	return nil
}

// Directives starting with a dot; any other dotted mnemonic is a macro call.
var asmDotDirectives = map[string]bool{
	".DEFM": true, ".ENDM": true, ".IFDEF": true, ".IFNDEF": true,
	".IFEQ": true, ".IFNE": true, ".IFGT": true, ".IFGE": true,
	".ELSE": true, ".ENDIF": true, ".ERROR": true,
}

// Mnemonics without operands; in strict syntax whatever follows is a comment.
var asmNoOperands = map[string]bool{
	"RT": true, "NOP": true, "RTWP": true, "IDLE": true, "RSET": true,
	"CKON": true, "CKOF": true, "LREX": true,
	"RTN": true, "RTNC": true, "RTGR": true, "SCAN": true, "EXIT": true, "FEND": true,
	"UNL": true, "LIST": true, "PAGE": true,
	".ENDM": true, ".ELSE": true, ".ENDIF": true,
}

// TMS9900 operand forms, one letter per operand: g general address,
// r workspace register, e expression. Unlisted mnemonics take expressions.
var asmOperandModes = map[string]string{
	"A": "gg", "AB": "gg", "C": "gg", "CB": "gg", "S": "gg", "SB": "gg",
	"SOC": "gg", "SOCB": "gg", "SZC": "gg", "SZCB": "gg", "MOV": "gg", "MOVB": "gg",
	"COC": "gr", "CZC": "gr", "XOR": "gr", "MPY": "gr", "DIV": "gr",
	"XOP": "ge", "LDCR": "ge", "STCR": "ge",
	"B": "g", "BL": "g", "BLWP": "g", "CLR": "g", "SETO": "g", "INV": "g",
	"NEG": "g", "ABS": "g", "SWPB": "g", "INC": "g", "INCT": "g",
	"DEC": "g", "DECT": "g", "X": "g",
	"LI": "re", "AI": "re", "ANDI": "re", "ORI": "re", "CI": "re",
	"SLA": "re", "SRA": "re", "SRC": "re", "SRL": "re",
	"STWP": "r", "STST": "r",
	"REQU": "r",
}

func isRegisterName(name string) bool {
	if len(name) < 2 || len(name) > 3 || name[0] != 'R' && name[0] != 'r' {
		return false
	}

	n := 0
	for i := 1; i < len(name); i++ {
		if !isDigit(name[i]) {
			return false
		}

		n = n*10 + int(name[i]-'0')
	}

	return n <= 15
}

func isAsmIdentStart(c byte) bool {
	return isLetter(c) || c == '_'
}

func isAsmIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}

// asmFields are the fields of one source line.
type asmFields struct {
	label    span
	mnemonic span
	operands span
	comment  span
}

type asmParser struct {
	src  string
	opts asmOptions
	ctx  *ParseContext
	b    *syntax.Builder
}

func parseAsm(src string, ctx *ParseContext, opts asmOptions) *syntax.Tree {
	p := &asmParser{src: src, opts: opts, ctx: ctx, b: syntax.NewBuilder(src)}

	lines := splitLines(src)
	fields := make([]asmFields, len(lines))

	// Aliases may be used before their REQU line.
	for i, ln := range lines {
		fields[i] = p.fields(ln)

		f := fields[i]
		if opts.registers && !f.label.empty() && !f.mnemonic.empty() &&
			strings.EqualFold(src[f.mnemonic.start:f.mnemonic.end], "REQU") {
			if label := src[f.label.start:f.label.end]; !symbols.IsLocalLabel(label, '!') {
				ctx.AddAlias(label)
			}
		}
	}

	for i, ln := range lines {
		p.emitLine(ln, fields[i])
	}

	return p.b.Finish()
}

// fields splits a line into label, mnemonic, operand and comment fields.
func (p *asmParser) fields(ln span) asmFields {
	src := p.src
	f := asmFields{label: none, mnemonic: none, operands: none, comment: none}

	if ln.empty() {
		return f
	}

	if src[ln.start] == '*' {
		f.comment = ln
		return f
	}

	i := ln.start

	if p.opts.relaxed {
		i = skipBlanks(src, i, ln.end)
		j := p.wordEnd(i, ln.end)

		if j > i && src[j-1] == ':' {
			f.label = span{i, j - 1}
			i = j
		}
	} else if !isBlank(src[i]) && src[i] != ';' {
		j := i
		for j < ln.end && !isBlank(src[j]) && src[j] != ':' && src[j] != ';' {
			j++
		}

		f.label = span{i, j}
		i = j

		if i < ln.end && src[i] == ':' {
			i++
		}
	}

	i = skipBlanks(src, i, ln.end)
	if i >= ln.end {
		return f
	}

	if src[i] == ';' {
		f.comment = span{i, ln.end}
		return f
	}

	j := p.wordEnd(i, ln.end)
	f.mnemonic = span{i, j}
	mnemonic := strings.ToUpper(src[i:j])

	i = skipBlanks(src, j, ln.end)
	if i >= ln.end {
		return f
	}

	if src[i] == ';' || !p.opts.relaxed && asmNoOperands[mnemonic] {
		f.comment = span{i, ln.end}
		return f
	}

	j = i
	for j < ln.end {
		c := src[j]
		if c == '\'' || c == '"' {
			j = scanQuoted(src, j, ln.end)
			continue
		}

		if c == ';' || !p.opts.relaxed && isBlank(c) {
			break
		}

		j++
	}

	f.operands = trimBlanks(src, span{i, j})

	if k := skipBlanks(src, j, ln.end); k < ln.end {
		f.comment = span{k, ln.end}
	}

	return f
}

func (p *asmParser) wordEnd(i, end int) int {
	for i < end && !isBlank(p.src[i]) && p.src[i] != ';' {
		i++
	}

	return i
}

func (p *asmParser) emitLine(ln span, f asmFields) {
	src := p.src
	b := p.b

	b.Open(syntax.TagLine, ln.start)

	mnemonic := ""
	if !f.mnemonic.empty() {
		mnemonic = strings.ToUpper(src[f.mnemonic.start:f.mnemonic.end])
	}

	if !f.label.empty() {
		tag := TagLabelDef

		switch {
		case symbols.IsLocalLabel(src[f.label.start:f.label.end], '!'):
			tag = TagLocalDef
		case p.opts.registers && mnemonic == "REQU":
			tag = TagAliasDef
		}

		b.Leaf(tag, f.label.start, f.label.end, 0)
	}

	if !f.mnemonic.empty() {
		if len(mnemonic) > 1 && mnemonic[0] == '.' && !asmDotDirectives[mnemonic] {
			b.Leaf(TagOperator, f.mnemonic.start, f.mnemonic.start+1, 0)
			b.Leaf(TagMacroRef, f.mnemonic.start+1, f.mnemonic.end, 0)
		} else {
			b.Leaf(TagMnemonic, f.mnemonic.start, f.mnemonic.end, 0)
		}
	}

	if !f.operands.empty() {
		p.emitOperands(f.operands, mnemonic)
	}

	if !f.comment.empty() {
		b.Leaf(syntax.TagComment, f.comment.start, f.comment.end, 0)
	}

	b.Close(ln.end)
}

// splitOperands splits an operand field at top-level commas.
func (p *asmParser) splitOperands(s span) []span {
	var parts []span

	depth := 0
	start := s.start

	for i := s.start; i < s.end; {
		c := p.src[i]

		switch c {
		case '\'', '"':
			i = scanQuoted(p.src, i, s.end)
			continue
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, trimBlanks(p.src, span{start, i}))
				start = i + 1
			}
		}

		i++
	}

	return append(parts, trimBlanks(p.src, span{start, s.end}))
}

func (p *asmParser) emitOperands(s span, mnemonic string) {
	b := p.b
	b.Open(TagOperands, s.start)
	defer b.Close(s.end)

	parts := p.splitOperands(s)

	switch mnemonic {
	case ".DEFM":
		name := parts[0]
		end := name.start
		for end < name.end && isAsmIdentChar(p.src[end]) {
			end++
		}

		if end > name.start {
			b.Leaf(TagMacroDef, name.start, end, 0)
		}

		return

	case ".IFDEF", ".IFNDEF":
		for _, part := range parts {
			if !part.empty() {
				b.Leaf(TagWord, part.start, part.end, 0)
			}
		}

		return

	case "REF", "DEF":
		tag, flags := TagLabelRef, syntax.Flags(0)
		if mnemonic == "REF" {
			tag, flags = TagLabelDef, syntax.FlagExternal
		}

		for _, part := range parts {
			if !part.empty() {
				b.Leaf(tag, part.start, part.end, flags)
			}
		}

		return
	}

	modes := asmOperandModes[mnemonic]
	for k, part := range parts {
		mode := byte('e')
		if p.opts.registers && k < len(modes) {
			mode = modes[k]
		}

		p.emitOperand(part, mode)
	}
}

// token classes for operand scanning
const (
	prevStart = iota
	prevOperator
	prevOpenParen
	prevStar
	prevValue
)

// emitOperand scans one operand. Identifiers in register positions resolve to
// register aliases when the context knows the name.
func (p *asmParser) emitOperand(s span, mode byte) {
	if s.empty() {
		return
	}

	src := p.src
	b := p.b

	b.Open(TagOperand, s.start)
	defer b.Close(s.end)

	prev := prevStart
	unaryMinus := false

	for i := s.start; i < s.end; {
		c := src[i]
		negate := unaryMinus
		unaryMinus = false

		switch {
		case isBlank(c):
			i++
			unaryMinus = negate

			continue

		case c == '\'' || c == '"':
			j := scanQuoted(src, i, s.end)
			b.Leaf(TagString, i, j, 0)
			i, prev = j, prevValue

		case c == '!':
			j := i
			for j < s.end && src[j] == '!' {
				j++
			}

			for j < s.end && isAsmIdentChar(src[j]) {
				j++
			}

			var flags syntax.Flags
			if negate {
				flags = syntax.FlagNegative
			}

			b.Leaf(TagLocalRef, i, j, flags)
			i, prev = j, prevValue

		case isDigit(c) || (c == '>' && i+1 < s.end && isHexDigit(src[i+1])) ||
			(c == ':' && i+1 < s.end && (src[i+1] == '0' || src[i+1] == '1')):
			j := i + 1
			for j < s.end && (isHexDigit(src[j]) || src[j] == '_') {
				j++
			}

			b.Leaf(TagNumber, i, j, 0)
			i, prev = j, prevValue

		case isAsmIdentStart(c):
			j := i
			for j < s.end && isAsmIdentChar(src[j]) {
				j++
			}

			word := src[i:j]

			if p.opts.gpl && j < s.end && src[j] == '@' && (strings.EqualFold(word, "V") || strings.EqualFold(word, "G")) {
				b.Leaf(TagOperator, i, j+1, 0)
				i, prev = j+1, prevOperator

				continue
			}

			b.Leaf(p.identTag(word, mode, prev, j, s.end), i, j, 0)
			i, prev = j, prevValue

		default:
			b.Leaf(TagOperator, i, i+1, 0)

			switch c {
			case '-':
				unaryMinus = prev != prevValue
				prev = prevOperator
			case '(':
				prev = prevOpenParen
			case ')', '$':
				prev = prevValue
			case '*':
				if prev == prevStart {
					prev = prevStar
				} else {
					prev = prevOperator
				}
			default:
				prev = prevOperator
			}

			i++
		}
	}
}

func (p *asmParser) identTag(word string, mode byte, prev, next, end int) syntax.Tag {
	if p.opts.registers && mode != 'e' && p.inRegisterPosition(prev, next, end) && p.ctx.IsAlias(word) {
		return TagAliasRef
	}

	if p.opts.registers && isRegisterName(word) {
		return TagRegister
	}

	return TagLabelRef
}

// inRegisterPosition reports whether an identifier ending at next stands
// where the addressing mode expects a workspace register: Rn, *Rn, *Rn+ or
// the index of @addr(Rn).
func (p *asmParser) inRegisterPosition(prev, next, end int) bool {
	switch prev {
	case prevStart:
		return next == end
	case prevStar:
		return next == end || p.src[next] == '+'
	case prevOpenParen:
		return next < end && p.src[next] == ')'
	}

	return false
}
