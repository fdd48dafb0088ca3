package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleText() string {
	paras := []string{
		"This Simple Agreement for Future Equity is issued by Acme Inc. to the Investor.",
		"Valuation Cap. There is no valuation cap; the conversion price is uncapped. Discount rate is 20%.",
		"Pro rata rights. The Investor may participate in the next Equity Financing up to its pro rata share.",
		"Dissolution. If there is a Dissolution Event before conversion, the Investor is paid out first!",
		"Miscellaneous. Any provision may be amended with the written consent of the Company and the Investor?",
	}
	return strings.Repeat(strings.Join(paras, "\n\n")+"\n\n", 6)
}

func TestSplitIsLossless(t *testing.T) {
	text := sampleText()
	for _, max := range []int{50, 120, 333, 1000, len(text) + 1} {
		chunks := Split(text, max)
		require.NotEmpty(t, chunks)
		assert.Equal(t, text, Join(chunks), "max=%d", max)
	}
}

func TestSplitRespectsBound(t *testing.T) {
	text := sampleText()
	chunks := Split(text, 200)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 200)
	}
}

func TestSplitOffsetsAndIndexes(t *testing.T) {
	text := sampleText()
	chunks := Split(text, 300)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, c.Text, text[c.Offset:c.Offset+len(c.Text)])
	}
}

func TestSplitPrefersParagraphBreaks(t *testing.T) {
	text := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60)
	chunks := Split(text, 100)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 60)+"\n\n", chunks[0].Text)
	assert.Equal(t, strings.Repeat("b", 60), chunks[1].Text)
}

func TestSplitPrefersSentenceOverWord(t *testing.T) {
	text := "Alpha beta gamma delta. Epsilon zeta eta theta iota kappa"
	chunks := Split(text, 40)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "Alpha beta gamma delta. ", chunks[0].Text)
}

func TestSplitIgnoresEarlyBoundaries(t *testing.T) {
	// The only paragraph break sits in the first tenth of the window, so a word
	// boundary near the end wins instead of producing a tiny chunk.
	text := "ab\n\n" + strings.Repeat("word ", 40)
	chunks := Split(text, 100)
	require.NotEmpty(t, chunks)
	assert.Greater(t, utf8.RuneCountInString(chunks[0].Text), 50)
	assert.Equal(t, text, Join(chunks))
}

func TestSplitHardCutWithoutWhitespace(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := Split(text, 100)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Text, 100)
	assert.Len(t, chunks[2].Text, 50)
}

func TestSplitMultibyteRunes(t *testing.T) {
	text := strings.Repeat("é", 150)
	chunks := Split(text, 100)
	require.Len(t, chunks, 2)
	assert.True(t, utf8.ValidString(chunks[0].Text))
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[0].Text))
	assert.Equal(t, text, Join(chunks))
}

func TestSplitEdgeCases(t *testing.T) {
	assert.Nil(t, Split("", 100))

	one := Split("short", 0)
	require.Len(t, one, 1)
	assert.Equal(t, "short", one[0].Text)
}
