package dialect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
	"github.com/CWBudde/go-xdt99-lsp/internal/syntax"
)

// Xbas99 is TI Extended BASIC with line numbers.
func Xbas99() *Dialect {
	return newBasicDialect("xbas99", []string{"xbas99"}, []string{".b99", ".bas"}, false)
}

// Xbas99L is TI Extended BASIC with labels instead of line numbers.
func Xbas99L() *Dialect {
	return newBasicDialect("xbas99l", []string{"xbas99l"}, []string{".b99l", ".basl"}, true)
}

func newBasicDialect(name string, ids, exts []string, labels bool) *Dialect {
	return &Dialect{
		name:        name,
		family:      FamilyXbas99,
		languageIDs: ids,
		extensions:  exts,
		reach:       symbols.ReachFile,
		tags:        basicTags,
		validName:   validBasicName,
		parse: func(src string, ctx *ParseContext) *syntax.Tree {
			return parseBasic(src, ctx, labels)
		},
	}
}

var basicTags = map[syntax.Tag]classification{
	TagLineNumberDef: {symbols.RoleDefinition, symbols.KindBasicLineNumber},
	TagLineNumberRef: {symbols.RoleUsage, symbols.KindBasicLineNumber},
	TagLabelDef:      {symbols.RoleDefinition, symbols.KindLabel},
	TagLabelRef:      {symbols.RoleUsage, symbols.KindLabel},
	TagNumVarDef:     {symbols.RoleDefinition, symbols.KindBasicNumericVar},
	TagNumVarRef:     {symbols.RoleUsage, symbols.KindBasicNumericVar},
	TagStrVarDef:     {symbols.RoleDefinition, symbols.KindBasicStringVar},
	TagStrVarRef:     {symbols.RoleUsage, symbols.KindBasicStringVar},
	TagNumFuncDef:    {symbols.RoleDefinition, symbols.KindBasicNumericFunc},
	TagNumFuncRef:    {symbols.RoleUsage, symbols.KindBasicNumericFunc},
	TagStrFuncDef:    {symbols.RoleDefinition, symbols.KindBasicStringFunc},
	TagStrFuncRef:    {symbols.RoleUsage, symbols.KindBasicStringFunc},
}

const maxBasicLineNumber = 32767

var (
	basicVarPattern   = regexp.MustCompile(`^[A-Za-z@_][A-Za-z0-9@_]{0,14}\$?$`)
	basicLabelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func validBasicName(kind symbols.Kind, name string) error {
	switch kind {
	case symbols.KindBasicLineNumber:
		n, err := strconv.Atoi(name)
		if err != nil || n < 1 || n > maxBasicLineNumber {
			return fmt.Errorf("%w: line numbers range from 1 to %d", ErrInvalidName, maxBasicLineNumber)
		}

		return nil

	case symbols.KindLabel:
		if !basicLabelPattern.MatchString(name) {
			return fmt.Errorf("%w: %q is not a valid label", ErrInvalidName, name)
		}

	default:
		if !basicVarPattern.MatchString(name) {
			return fmt.Errorf("%w: %q is not a valid %s name", ErrInvalidName, name, kind)
		}

		str := strings.HasSuffix(name, "$")
		switch kind {
		case symbols.KindBasicStringVar, symbols.KindBasicStringFunc:
			if !str {
				return fmt.Errorf("%w: %s names end in $", ErrInvalidName, kind)
			}
		default:
			if str {
				return fmt.Errorf("%w: %s names must not end in $", ErrInvalidName, kind)
			}
		}
	}

	if basicKeywords[strings.ToUpper(name)] {
		return fmt.Errorf("%w: %q is a reserved word", ErrInvalidName, name)
	}

	return nil
}

var basicKeywords = toSet(
	"ABS", "ACCEPT", "ALL", "AND", "APPEND", "ASC", "AT", "ATN", "BASE", "BEEP",
	"BREAK", "BYE", "CALL", "CHR$", "CLOSE", "CON", "CONTINUE", "COS", "DATA",
	"DEF", "DELETE", "DIGIT", "DIM", "DISPLAY", "EDIT", "ELSE", "END", "EOF",
	"ERASE", "ERROR", "EXP", "FIXED", "FOR", "GO", "GOSUB", "GOTO", "IF",
	"IMAGE", "INPUT", "INT", "INTERNAL", "LEN", "LET", "LINPUT", "LIST", "LOG",
	"MAX", "MERGE", "MIN", "NEXT", "NOT", "NUM", "NUMBER", "NUMERIC", "OLD",
	"ON", "OPEN", "OPTION", "OR", "OUTPUT", "PERMANENT", "PI", "POS", "PRINT",
	"RANDOMIZE", "READ", "REC", "RELATIVE", "REM", "RES", "RESEQUENCE",
	"RESTORE", "RETURN", "RND", "RPT$", "RUN", "SAVE", "SEG$", "SEQUENTIAL",
	"SGN", "SIN", "SIZE", "SQR", "STEP", "STOP", "STR$", "SUB", "SUBEND",
	"SUBEXIT", "TAB", "TAN", "THEN", "TO", "TRACE", "UALPHA", "UNBREAK",
	"UNTRACE", "UPDATE", "USING", "VAL", "VALIDATE", "VARIABLE", "WARNING", "XOR",
)

// Keywords followed by a list of line numbers or labels.
var basicTargetKeywords = toSet(
	"GOTO", "GOSUB", "RESTORE", "RETURN", "RUN", "BREAK", "UNBREAK", "ERROR", "USING",
)

// Subprograms that assign to their plain variable arguments.
var basicOutputCalls = toSet(
	"KEY", "JOYST", "GCHAR", "POSITION", "DISTANCE", "COINC", "CHARPAT",
	"PEEK", "PEEKV", "VERSION", "ERR", "SPGET",
)

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}

	return set
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokOperator
	tokRaw
)

type token struct {
	kind       tokenKind
	start, end int
}

// basicLine is one scanned source line.
type basicLine struct {
	ln         span
	head       span
	colon      int
	statements [][]token
	comment    span
}

type basicParser struct {
	src    string
	labels bool
	ctx    *ParseContext
	b      *syntax.Builder
}

func parseBasic(src string, ctx *ParseContext, labels bool) *syntax.Tree {
	p := &basicParser{src: src, labels: labels, ctx: ctx, b: syntax.NewBuilder(src)}

	spans := splitLines(src)
	lines := make([]basicLine, len(spans))

	// Function names must be known before their first use is classified.
	for i, ln := range spans {
		lines[i] = p.scanLine(ln)

		for _, stmt := range lines[i].statements {
			if len(stmt) > 1 && p.keyword(stmt[0]) == "DEF" && stmt[1].kind == tokIdent && p.keyword(stmt[1]) == "" {
				ctx.AddFunction(p.text(stmt[1]))
			}
		}
	}

	for _, line := range lines {
		p.emitLine(line)
	}

	return p.b.Finish()
}

func (p *basicParser) text(t token) string {
	return p.src[t.start:t.end]
}

// keyword returns the upper-case keyword a token spells, or "".
func (p *basicParser) keyword(t token) string {
	if t.kind != tokIdent {
		return ""
	}

	if w := strings.ToUpper(p.text(t)); basicKeywords[w] {
		return w
	}

	return ""
}

func (p *basicParser) isOperator(t token, op string) bool {
	return t.kind == tokOperator && p.text(t) == op
}

func isBasicIdentStart(c byte) bool {
	return isLetter(c) || c == '@' || c == '_'
}

func isBasicIdentChar(c byte) bool {
	return isBasicIdentStart(c) || isDigit(c)
}

func (p *basicParser) scanIdent(i, end int) int {
	for i < end && isBasicIdentChar(p.src[i]) {
		i++
	}

	if i < end && p.src[i] == '$' {
		i++
	}

	return i
}

func (p *basicParser) scanNumber(i, end int) int {
	src := p.src
	for i < end && (isDigit(src[i]) || src[i] == '.') {
		i++
	}

	if i+1 < end && (src[i] == 'E' || src[i] == 'e') {
		j := i + 1
		if src[j] == '+' || src[j] == '-' {
			j++
		}

		if j < end && isDigit(src[j]) {
			for j < end && isDigit(src[j]) {
				j++
			}

			i = j
		}
	}

	return i
}

func (p *basicParser) scanLine(ln span) basicLine {
	src := p.src
	line := basicLine{ln: ln, head: none, colon: -1, comment: none}

	i := skipBlanks(src, ln.start, ln.end)

	if p.labels {
		if i < ln.end && isBasicIdentStart(src[i]) {
			j := p.scanIdent(i, ln.end)
			k := skipBlanks(src, j, ln.end)

			if k < ln.end && src[k] == ':' && (k+1 == ln.end || src[k+1] != ':') &&
				!basicKeywords[strings.ToUpper(src[i:j])] {
				line.head = span{i, j}
				line.colon = k
				i = k + 1
			}
		}
	} else {
		j := i
		for j < ln.end && isDigit(src[j]) {
			j++
		}

		if j > i {
			line.head = span{i, j}
			i = j
		}
	}

	var cur []token

	flush := func() {
		if len(cur) > 0 {
			line.statements = append(line.statements, cur)
			cur = nil
		}
	}

	for {
		i = skipBlanks(src, i, ln.end)
		if i >= ln.end {
			break
		}

		c := src[i]

		switch {
		case c == '!':
			line.comment = span{i, ln.end}
			i = ln.end

		case c == ':' && i+1 < ln.end && src[i+1] == ':':
			flush()
			i += 2

		case c == '"':
			j := scanQuoted(src, i, ln.end)
			cur = append(cur, token{tokString, i, j})
			i = j

		case isDigit(c) || c == '.' && i+1 < ln.end && isDigit(src[i+1]):
			j := p.scanNumber(i, ln.end)
			cur = append(cur, token{tokNumber, i, j})
			i = j

		case isBasicIdentStart(c):
			j := p.scanIdent(i, ln.end)
			word := strings.ToUpper(src[i:j])

			if len(cur) == 0 && word == "REM" {
				line.comment = span{i, ln.end}
				i = ln.end

				break
			}

			cur = append(cur, token{tokIdent, i, j})
			i = j

			if len(cur) == 1 && (word == "DATA" || word == "IMAGE") {
				if k := skipBlanks(src, i, ln.end); k < ln.end {
					cur = append(cur, token{tokRaw, k, ln.end})
				}

				i = ln.end
			}

		default:
			cur = append(cur, token{tokOperator, i, i + 1})
			i++
		}
	}

	flush()

	return line
}

func (p *basicParser) leaf(tag syntax.Tag, t token) {
	p.b.Leaf(tag, t.start, t.end, 0)
}

func (p *basicParser) emitLine(line basicLine) {
	b := p.b
	b.Open(syntax.TagLine, line.ln.start)

	if !line.head.empty() {
		tag := TagLineNumberDef
		if p.labels {
			tag = TagLabelDef
		}

		b.Leaf(tag, line.head.start, line.head.end, 0)

		if line.colon >= 0 {
			b.Leaf(TagOperator, line.colon, line.colon+1, 0)
		}
	}

	for _, stmt := range line.statements {
		p.emitStatement(stmt)
	}

	if !line.comment.empty() {
		b.Leaf(syntax.TagComment, line.comment.start, line.comment.end, 0)
	}

	b.Close(line.ln.end)
}

func (p *basicParser) emitStatement(toks []token) {
	if len(toks) == 0 {
		return
	}

	p.b.Open(TagStatement, toks[0].start)
	defer p.b.Close(toks[len(toks)-1].end)

	kw := p.keyword(toks[0])
	rest := toks[1:]

	switch kw {
	case "":
		if toks[0].kind == tokIdent {
			p.assignment(toks)
			return
		}

		p.expression(toks)

	case "LET":
		p.leaf(TagKeyword, toks[0])
		p.assignment(rest)

	case "FOR":
		p.leaf(TagKeyword, toks[0])

		if len(rest) > 0 && rest[0].kind == tokIdent && p.keyword(rest[0]) == "" {
			p.variable(rest[0], true)
			rest = rest[1:]
		}

		p.expression(rest)

	case "INPUT", "LINPUT", "ACCEPT", "READ":
		p.leaf(TagKeyword, toks[0])
		p.inputList(rest)

	case "DIM":
		p.leaf(TagKeyword, toks[0])
		p.writeList(rest)

	case "DEF":
		p.leaf(TagKeyword, toks[0])
		p.function(rest)

	case "SUB":
		p.leaf(TagKeyword, toks[0])

		if len(rest) > 0 {
			p.leaf(TagWord, rest[0])

			for _, t := range rest[1:] {
				if t.kind == tokIdent && p.keyword(t) == "" {
					p.variable(t, true)
				} else {
					p.token(t)
				}
			}
		}

	case "CALL":
		p.leaf(TagKeyword, toks[0])
		p.call(rest)

	case "DATA", "IMAGE":
		p.leaf(TagKeyword, toks[0])

		for _, t := range rest {
			p.leaf(TagWord, t)
		}

	default:
		p.expression(toks)
	}
}

// variable emits a variable occurrence; a trailing $ makes it a string.
func (p *basicParser) variable(t token, def bool) {
	str := strings.HasSuffix(p.text(t), "$")

	switch {
	case def && str:
		p.leaf(TagStrVarDef, t)
	case def:
		p.leaf(TagNumVarDef, t)
	case str:
		p.leaf(TagStrVarRef, t)
	default:
		p.leaf(TagNumVarRef, t)
	}
}

// token emits a token in read position.
func (p *basicParser) token(t token) {
	switch t.kind {
	case tokIdent:
		switch {
		case p.keyword(t) != "":
			p.leaf(TagKeyword, t)
		case p.ctx.IsFunction(p.text(t)):
			if strings.HasSuffix(p.text(t), "$") {
				p.leaf(TagStrFuncRef, t)
			} else {
				p.leaf(TagNumFuncRef, t)
			}
		default:
			p.variable(t, false)
		}
	case tokNumber:
		p.leaf(TagNumber, t)
	case tokString:
		p.leaf(TagString, t)
	case tokRaw:
		p.leaf(TagWord, t)
	default:
		p.leaf(TagOperator, t)
	}
}

func (p *basicParser) expression(toks []token) {
	for i := 0; i < len(toks); {
		t := toks[i]
		kw := p.keyword(t)

		switch {
		case kw == "GO" && i+1 < len(toks) && (p.keyword(toks[i+1]) == "TO" || p.keyword(toks[i+1]) == "SUB"):
			p.leaf(TagKeyword, t)
			p.leaf(TagKeyword, toks[i+1])
			i = p.targets(toks, i+2)

		case basicTargetKeywords[kw]:
			p.leaf(TagKeyword, t)
			i = p.targets(toks, i+1)

		case kw == "THEN" || kw == "ELSE":
			p.leaf(TagKeyword, t)
			i = p.branch(toks, i+1)

		default:
			p.token(t)
			i++
		}
	}
}

// targets emits a comma separated list of jump targets starting at i and
// returns the index after it.
func (p *basicParser) targets(toks []token, i int) int {
	for i < len(toks) {
		t := toks[i]

		switch {
		case !p.labels && t.kind == tokNumber:
			p.leaf(TagLineNumberRef, t)
		case p.labels && t.kind == tokIdent && p.keyword(t) == "":
			p.leaf(TagLabelRef, t)
		default:
			return i
		}

		i++

		if i >= len(toks) || !p.isOperator(toks[i], ",") {
			return i
		}

		p.leaf(TagOperator, toks[i])
		i++
	}

	return i
}

// branch handles the clause after THEN or ELSE: a jump target or a statement.
func (p *basicParser) branch(toks []token, i int) int {
	if i >= len(toks) {
		return i
	}

	t := toks[i]
	if !p.labels && t.kind == tokNumber {
		return p.targets(toks, i)
	}

	if p.labels && t.kind == tokIdent && p.keyword(t) == "" &&
		(i+1 == len(toks) || p.keyword(toks[i+1]) == "ELSE") {
		return p.targets(toks, i)
	}

	j, depth := i, 0
	for ; j < len(toks); j++ {
		switch {
		case p.isOperator(toks[j], "("):
			depth++
		case p.isOperator(toks[j], ")"):
			depth--
		}

		if depth == 0 && p.keyword(toks[j]) == "ELSE" {
			break
		}
	}

	p.emitStatement(toks[i:j])

	return j
}

// assignment handles [LET] a[,b...] = expr.
func (p *basicParser) assignment(toks []token) {
	eq, depth := len(toks), 0
	for j, t := range toks {
		switch {
		case p.isOperator(t, "("):
			depth++
		case p.isOperator(t, ")"):
			depth--
		case depth == 0 && p.isOperator(t, "="):
			eq = j
		}

		if eq < len(toks) {
			break
		}
	}

	p.writeList(toks[:eq])
	p.expression(toks[eq:])
}

// writeList emits top-level names as definitions and everything else
// (subscripts included) as reads.
func (p *basicParser) writeList(toks []token) {
	depth := 0

	for _, t := range toks {
		switch {
		case p.isOperator(t, "("):
			depth++
		case p.isOperator(t, ")"):
			depth--
		}

		if depth == 0 && t.kind == tokIdent && p.keyword(t) == "" {
			p.variable(t, true)
			continue
		}

		p.token(t)
	}
}

// inputList handles the arguments of INPUT, LINPUT, ACCEPT and READ: what
// follows the last top-level colon is written, what precedes it is read.
func (p *basicParser) inputList(toks []token) {
	colon, depth := -1, 0
	for j, t := range toks {
		switch {
		case p.isOperator(t, "("):
			depth++
		case p.isOperator(t, ")"):
			depth--
		case depth == 0 && p.isOperator(t, ":"):
			colon = j
		}
	}

	if colon >= 0 {
		p.expression(toks[:colon])
		p.token(toks[colon])
	}

	p.writeList(toks[colon+1:])
}

// function handles DEF name[(param)] = expr.
func (p *basicParser) function(toks []token) {
	if len(toks) == 0 {
		return
	}

	i := 0

	if t := toks[0]; t.kind == tokIdent && p.keyword(t) == "" {
		if strings.HasSuffix(p.text(t), "$") {
			p.leaf(TagStrFuncDef, t)
		} else {
			p.leaf(TagNumFuncDef, t)
		}

		i++
	}

	if i < len(toks) && p.isOperator(toks[i], "(") {
		for ; i < len(toks); i++ {
			t := toks[i]
			if t.kind == tokIdent && p.keyword(t) == "" {
				p.variable(t, true)
				continue
			}

			p.token(t)

			if p.isOperator(t, ")") {
				i++
				break
			}
		}
	}

	p.expression(toks[i:])
}

// call handles CALL name(args). Plain variables passed to subprograms that
// return values are definitions.
func (p *basicParser) call(toks []token) {
	if len(toks) == 0 {
		return
	}

	name := toks[0]
	p.leaf(TagWord, name)

	rest := toks[1:]
	if !basicOutputCalls[strings.ToUpper(p.text(name))] {
		p.expression(rest)
		return
	}

	var arg []token

	flush := func() {
		if len(arg) == 1 && arg[0].kind == tokIdent && p.keyword(arg[0]) == "" {
			p.variable(arg[0], true)
		} else {
			p.expression(arg)
		}

		arg = nil
	}

	depth := 0

	for _, t := range rest {
		switch {
		case p.isOperator(t, "("):
			depth++
			if depth == 1 {
				p.token(t)
				continue
			}
		case p.isOperator(t, ")"):
			depth--
			if depth == 0 {
				flush()
				p.token(t)

				continue
			}
		case depth == 1 && p.isOperator(t, ","):
			flush()
			p.token(t)

			continue
		}

		if depth >= 1 {
			arg = append(arg, t)
		} else {
			p.token(t)
		}
	}

	if len(arg) > 0 {
		flush()
	}
}
