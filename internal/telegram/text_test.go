package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/set-night/relaybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessage_Short(t *testing.T) {
	assert.Equal(t, []string{"hello"}, SplitMessage("hello", 10))
}

func TestSplitMessage_PrefersNewlines(t *testing.T) {
	text := strings.Repeat("a", 8) + "\n" + strings.Repeat("b", 8)
	parts := SplitMessage(text, 10)
	require.Len(t, parts, 2)
	assert.Equal(t, strings.Repeat("a", 8)+"\n", parts[0])
	assert.Equal(t, strings.Repeat("b", 8), parts[1])
}

func TestSplitMessage_MultibyteRunes(t *testing.T) {
	text := strings.Repeat("🎉", 25)
	parts := SplitMessage(text, 10)
	require.Len(t, parts, 3)
	for _, p := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 10)
	}
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	got := Truncate("abcdefgh", 5)
	assert.Equal(t, 5, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestKeyboard(t *testing.T) {
	kb := Keyboard([][]domain.Button{
		{{Text: "1 hour", Data: "dur_1h"}, {Text: "1 day", Data: "dur_1d"}},
		{{Text: "Back", Data: "lottery_list"}},
	})
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, "dur_1d", kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "Back", kb.InlineKeyboard[1][0].Text)
}
