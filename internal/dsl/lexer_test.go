package dsl

import "testing"

func TestLexer_TokenizesIdentsKeywordsSymbols(t *testing.T) {
	toks, err := newLexer(`p(x as int) | where x > 0;`).tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []struct {
		kind tokenKind
		text string
	}{
		{tokIdent, "p"}, {tokSymbol, "("}, {tokIdent, "x"}, {tokKeyword, "as"},
		{tokKeyword, "int"}, {tokSymbol, ")"}, {tokSymbol, "|"}, {tokKeyword, "where"},
		{tokIdent, "x"}, {tokSymbol, ">"}, {tokInt, "0"}, {tokSymbol, ";"}, {tokEOF, ""},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].kind != w.kind || toks[i].text != w.text {
			t.Errorf("token %d = {%v %q}, want {%v %q}", i, toks[i].kind, toks[i].text, w.kind, w.text)
		}
	}
}

func TestLexer_StringLiteralWithEscapes(t *testing.T) {
	toks, err := newLexer(`"a\"b"`).tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if toks[0].kind != tokString || toks[0].text != `a"b` {
		t.Errorf("token = %+v", toks[0])
	}
}

func TestLexer_FloatLiteral(t *testing.T) {
	toks, err := newLexer(`3.14`).tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if toks[0].kind != tokFloat || toks[0].text != "3.14" {
		t.Errorf("token = %+v", toks[0])
	}
}

func TestLexer_MultiCharSymbols(t *testing.T) {
	toks, err := newLexer(`>= <= == != |`).tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []string{">=", "<=", "==", "!=", "|"}
	for i, w := range want {
		if toks[i].text != w {
			t.Errorf("token %d = %q, want %q", i, toks[i].text, w)
		}
	}
}

func TestLexer_UnterminatedStringIsError(t *testing.T) {
	_, err := newLexer(`"unterminated`).tokenize()
	if err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
}
