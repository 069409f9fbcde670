package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

const basicProgram = "10 INPUT \"NAME\":N$\n" +
	"20 FOR I=1 TO 10 :: PRINT N$;I :: NEXT I\n" +
	"30 IF I>5 THEN 50 ELSE 10\n" +
	"40 DEF SQ(X)=X*X\n" +
	"50 CALL KEY(0,K,S) :: A(3)=SQ(K)\n" +
	"60 GOSUB 100 ! no such line\n" +
	"70 REM GOTO 999\n"

func TestXbas99_Occurrences(t *testing.T) {
	f := Xbas99().File("file:///p.b99", basicProgram, nil)

	assert.Equal(t, []string{
		"line number 10",
		"string variable N$",
		"line number 20",
		"numeric variable I",
		"line number 30",
		"line number 40",
		"numeric function SQ",
		"numeric variable X",
		"line number 50",
		"numeric variable K",
		"numeric variable S",
		"numeric variable A",
		"line number 60",
		"line number 70",
	}, describeDefinitions(symbols.Definitions(f)))

	assert.Equal(t, []string{
		"string variable N$",
		"numeric variable I",
		"numeric variable I",
		"numeric variable I",
		"line number 50",
		"line number 10",
		"numeric variable X",
		"numeric variable X",
		"numeric function SQ",
		"numeric variable K",
		"line number 100",
	}, describeUsages(symbols.Usages(f)))
}

func TestXbas99_Diagnostics(t *testing.T) {
	f := Xbas99().File("file:///p.b99", basicProgram, nil)
	ix := symbols.NewIndex(symbols.Files{f})

	var targets, unassigned []string
	for _, d := range ix.Check(f) {
		switch d.Code {
		case symbols.CodeUndefinedSymbol:
			targets = append(targets, d.Name)
		case symbols.CodeUnassignedVariable:
			unassigned = append(unassigned, d.Name)
		}
	}

	assert.Equal(t, []string{"100"}, targets)
	assert.Empty(t, unassigned)
}

func TestXbas99_UnassignedVariable(t *testing.T) {
	f := Xbas99().File("file:///u.b99", "10 PRINT TOTAL\n20 T=TOTAL+1\n", nil)
	ix := symbols.NewIndex(symbols.Files{f})

	var names []string
	for _, d := range ix.Check(f) {
		if d.Code == symbols.CodeUnassignedVariable {
			names = append(names, d.Name)
		}
	}

	assert.Equal(t, []string{"TOTAL", "TOTAL"}, names)
}

func TestXbas99_StatementForms(t *testing.T) {
	src := "10 LET A$,B$=\"X\"\n" +
		"20 DIM M(5,N)\n" +
		"30 READ P,Q$ :: DATA 1,FOO\n" +
		"40 ON E GOTO 10,20,30\n" +
		"50 IF A$=B$ THEN C=1 ELSE GO SUB 20\n" +
		"60 SUB FOO(Z,Y$)\n" +
		"70 ON ERROR 40 :: ACCEPT AT(R,C) SIZE(2):W\n" +
		"80 CALL HCHAR(R,C,42) :: CALL GCHAR(R,C,G)\n" +
		"90 DISPLAY AT(1,1):STR$(G)&SEG$(A$,1,2)\n"
	f := Xbas99().File("file:///s.b99", src, nil)

	var defs, usages []string
	for _, d := range symbols.Definitions(f) {
		if d.Kind != symbols.KindBasicLineNumber {
			defs = append(defs, d.Name)
		}
	}

	for _, u := range symbols.Usages(f) {
		usages = append(usages, u.Name)
	}

	assert.Equal(t, []string{"A$", "B$", "M", "P", "Q$", "C", "Z", "Y$", "W", "R", "C", "G"}, defs)
	assert.Equal(t, []string{
		"N",
		"E", "10", "20", "30",
		"A$", "B$", "20",
		"40", "R", "C",
		"R", "C",
		"G", "A$",
	}, usages)
}

func TestXbas99L_Labels(t *testing.T) {
	src := "START: INPUT N\n" +
		"  IF N<0 THEN DONE ELSE LOOP\n" +
		"LOOP: PRINT N :: GOTO START\n" +
		"DONE: END\n" +
		"  GOSUB NOWHERE\n"
	f := Xbas99L().File("file:///l.b99l", src, nil)
	ix := symbols.NewIndex(symbols.Files{f})

	assert.Equal(t, []string{"label START", "numeric variable N", "label LOOP", "label DONE"},
		describeDefinitions(symbols.Definitions(f)))
	assert.Equal(t, []string{
		"numeric variable N", "label DONE", "label LOOP",
		"numeric variable N", "label START",
		"label NOWHERE",
	}, describeUsages(symbols.Usages(f)))

	var undefined []string
	for _, d := range ix.Check(f) {
		if d.Code == symbols.CodeUndefinedSymbol {
			undefined = append(undefined, d.Name)
		}
	}

	assert.Equal(t, []string{"NOWHERE"}, undefined)
}

func TestXbas99_FileScope(t *testing.T) {
	a := Xbas99().File("file:///a.b99", "10 X=1\n", nil)
	b := Xbas99().File("file:///b.b99", "10 PRINT X :: GOTO 10\n", nil)
	ix := symbols.NewIndex(symbols.Files{a, b})

	usages := symbols.Usages(b)
	require.Len(t, usages, 2)

	for _, u := range usages {
		defs := ix.FindDefinitions(symbols.ScopeFor(u.Kind, b), u.Kind, u.Name, false)
		for _, d := range defs {
			assert.Equal(t, "file:///b.b99", d.URI(), u.Name)
		}
	}

	assert.Empty(t, ix.FindDefinitions(symbols.ScopeFor(symbols.KindBasicNumericVar, b), symbols.KindBasicNumericVar, "X", false))
}

func TestBasic_ValidName(t *testing.T) {
	d := Xbas99()

	assert.NoError(t, d.ValidName(symbols.KindBasicLineNumber, "32767"))
	assert.ErrorIs(t, d.ValidName(symbols.KindBasicLineNumber, "0"), ErrInvalidName)
	assert.ErrorIs(t, d.ValidName(symbols.KindBasicLineNumber, "32768"), ErrInvalidName)
	assert.NoError(t, d.ValidName(symbols.KindBasicStringVar, "NAME$"))
	assert.ErrorIs(t, d.ValidName(symbols.KindBasicStringVar, "NAME"), ErrInvalidName)
	assert.ErrorIs(t, d.ValidName(symbols.KindBasicNumericVar, "NAME$"), ErrInvalidName)
	assert.NoError(t, d.ValidName(symbols.KindBasicNumericVar, "ABCDEFGHIJKLMNO"))
	assert.ErrorIs(t, d.ValidName(symbols.KindBasicNumericVar, "ABCDEFGHIJKLMNOP"), ErrInvalidName)
	assert.ErrorIs(t, d.ValidName(symbols.KindBasicNumericVar, "PRINT"), ErrInvalidName)
	assert.ErrorIs(t, d.ValidName(symbols.KindBasicStringFunc, "SEG$"), ErrInvalidName)
	assert.NoError(t, Xbas99L().ValidName(symbols.KindLabel, "MAIN_LOOP"))
}
