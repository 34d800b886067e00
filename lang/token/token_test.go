package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		if tok.String() == "" {
			t.Errorf("missing string representation of token %d", tok)
		}
	}
}

func TestLookupKw(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		expect := tok >= AND && tok < maxToken
		val := LookupKw(tok.String())
		if expect {
			require.Equal(t, tok, val)
		} else {
			require.Equal(t, IDENT, val)
		}
	}
}

func TestGoStringQuotesPunctuation(t *testing.T) {
	require.Equal(t, "'+'", PLUS.GoString())
	require.Equal(t, "identifier", IDENT.GoString())
}

func TestIsIncDec(t *testing.T) {
	require.True(t, PLUSPLUS.IsIncDec())
	require.True(t, MINUSMINUS.IsIncDec())
	require.False(t, PLUS.IsIncDec())
}

func TestLiteral(t *testing.T) {
	val := Value{Raw: "abc"}
	require.Equal(t, "abc", IDENT.Literal(val))
	require.Equal(t, "abc", STRING.Literal(val))
	require.Equal(t, "", PLUS.Literal(val))
	require.Equal(t, "", ILLEGAL.Literal(val))
}
