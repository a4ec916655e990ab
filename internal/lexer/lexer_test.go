package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fuuzen/yam-go/internal/token"
)

func TestAllBasicTokens(t *testing.T) {
	toks, err := All(`var int x = 42; // trailing comment
/* block
comment */
x = x + 1;`)
	require.NoError(t, err)

	var kinds []token.Kind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	require.Equal(t, []token.Kind{
		token.KW_VAR, token.KW_INT, token.IDENT, token.ASSIGN, token.INT, token.SEMI,
		token.IDENT, token.ASSIGN, token.IDENT, token.PLUS, token.INT, token.SEMI,
		token.EOF,
	}, kinds)
}

func TestTwoCharOperators(t *testing.T) {
	toks, err := All("a == b != c <= d >= e && f || !g")
	require.NoError(t, err)

	var kinds []token.Kind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	require.Equal(t, []token.Kind{
		token.IDENT, token.EQ, token.IDENT, token.NEQ, token.IDENT, token.LE, token.IDENT,
		token.GE, token.IDENT, token.AND, token.IDENT, token.OR, token.NOT, token.IDENT,
		token.EOF,
	}, kinds)
}

func TestIntLiteral(t *testing.T) {
	toks, err := All("12345")
	require.NoError(t, err)
	require.Equal(t, token.INT, toks[0].Kind)
	require.Equal(t, int32(12345), toks[0].Int)
}

func TestKeywordLookup(t *testing.T) {
	toks, err := All("Note Measure Phrase Track score len SetTempo SetTimeSignature SetChannelInstrument SetChannelTrack notAKeyword")
	require.NoError(t, err)
	require.Equal(t, []token.Kind{
		token.KW_NOTE, token.KW_MEASURE, token.KW_PHRASE, token.KW_TRACK, token.KW_SCORE,
		token.KW_LEN, token.KW_SET_TEMPO, token.KW_SET_TIME_SIG, token.KW_SET_CHANNEL_INSTRUMENT,
		token.KW_SET_CHANNEL_TRACK, token.IDENT, token.EOF,
	}, func() []token.Kind {
		var ks []token.Kind
		for _, tk := range toks {
			ks = append(ks, tk.Kind)
		}
		return ks
	}())
}

func TestMeasureUnitPunctuation(t *testing.T) {
	toks, err := All("< > . ,")
	require.NoError(t, err)
	require.Equal(t, token.LT, toks[0].Kind)
	require.Equal(t, token.GT, toks[1].Kind)
	require.Equal(t, token.DOT, toks[2].Kind)
	require.Equal(t, token.COMMA, toks[3].Kind)
}

func TestUnexpectedCharacterErrors(t *testing.T) {
	_, err := All("@")
	require.Error(t, err)
}

func TestLineTracking(t *testing.T) {
	toks, err := All("a\nb\nc")
	require.NoError(t, err)
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[1].Line)
	require.Equal(t, 3, toks[2].Line)
}
