package token_test

import (
	"testing"

	"github.com/forthen-lang/forthen/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(toks []token.Token) []string {
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.Text
	}
	return out
}

func Test_All(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		want []string
	}{
		{"empty", "", []string{}},
		{"words", "dup swap drop", []string{"dup", "swap", "drop"}},
		{"string", `"hello world" echo`, []string{`"hello world"`, "echo"}},
		{"parens", "( a b -- c )", []string{"(", "a", "b", "--", "c", ")"}},
		{"unterminated string runs to end", `"oops`, []string{`"oops`}},
		{"adjacent paren and word", "(a--b)", []string{"(", "a--b", ")"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, texts(token.All(tc.src)))
		})
	}
}

func Test_Tokenizer_Rest(t *testing.T) {
	tz := token.New("dup swap drop")
	tok, ok := tz.Next()
	require.True(t, ok)
	require.Equal(t, "dup", tok.Text)
	require.Equal(t, "swap drop", tz.Rest())
}

func Test_Kinds(t *testing.T) {
	toks := token.All(`( "x" )`)
	require.Len(t, toks, 3)
	assert.Equal(t, token.Paren, toks[0].Kind)
	assert.Equal(t, token.String, toks[1].Kind)
	assert.Equal(t, token.Paren, toks[2].Kind)
}
