package decl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceTable_ResolvesPlainLocations(t *testing.T) {
	st := NewSourceTable()
	f := st.AddFile("src/a.cc", false)
	loc := st.Loc(f, 12)

	assert.True(t, st.IsValid(loc))
	assert.Equal(t, "src/a.cc", st.BufferName(loc))
	assert.Equal(t, 12, st.LineNumber(loc))
	assert.Equal(t, loc, st.ExpansionLoc(loc))
	assert.False(t, st.IsInSystemHeader(loc))
}

func TestSourceTable_InvalidLocation(t *testing.T) {
	st := NewSourceTable()
	assert.False(t, st.IsValid(0))
	assert.False(t, st.IsValid(42))
	assert.Equal(t, "", st.BufferName(0))
	assert.Equal(t, 0, st.LineNumber(0))
}

func TestSourceTable_MacroChainCollapsesToOutermostInvocation(t *testing.T) {
	st := NewSourceTable()
	hdr := st.AddFile("macros.h", false)
	main := st.AddFile("main.cc", false)

	outer := st.Loc(main, 30)
	inner := st.MacroLoc(st.Loc(hdr, 5), outer)
	spelled := st.MacroLoc(st.Loc(hdr, 2), inner)

	exp := st.ExpansionLoc(spelled)
	assert.Equal(t, outer, exp)
	assert.Equal(t, "main.cc", st.BufferName(exp))
	assert.Equal(t, 30, st.LineNumber(exp))
}

func TestSourceTable_SystemHeaderFollowsExpansionSite(t *testing.T) {
	st := NewSourceTable()
	user := st.AddFile("util.h", false)
	sys := st.AddFile("/usr/include/stdio.h", true)

	inSys := st.MacroLoc(st.Loc(user, 3), st.Loc(sys, 100))
	inUser := st.MacroLoc(st.Loc(sys, 7), st.Loc(user, 9))

	assert.True(t, st.IsInSystemHeader(inSys))
	assert.False(t, st.IsInSystemHeader(inUser))
}

func TestKind_Capabilities(t *testing.T) {
	assert.True(t, KindFunction.IsFunction())
	assert.True(t, KindObjCMethod.IsFunction())
	assert.False(t, KindFunctionTemplate.IsFunction())

	assert.True(t, KindNamespace.IsContainer())
	assert.True(t, KindEnum.IsContainer())
	assert.False(t, KindVar.IsContainer())

	assert.True(t, KindCXXRecord.IsTag())
	assert.False(t, KindClassTemplate.IsTag())

	d := &Decl{Kind: KindVar, Children: []*Decl{{Kind: KindVar, Name: "x"}}}
	assert.Nil(t, d.DeclChildren(), "non-containers expose no children")
	assert.Equal(t, "namespace", KindNamespace.String())
}
