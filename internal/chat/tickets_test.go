package chat_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdelKhale2/Link-chatbot/internal/chat"
)

func TestTicketStore_BookCancelList(t *testing.T) {
	store, err := chat.OpenTicketStore(filepath.Join(t.TempDir(), "tickets.json"))
	require.NoError(t, err)

	ticket, err := store.Book("الأربعاء", "8 مساءً")
	require.NoError(t, err)
	assert.Len(t, ticket.TicketID, 8)

	other, err := store.Book("الجمعة", "20:00")
	require.NoError(t, err)
	assert.NotEqual(t, ticket.TicketID, other.TicketID)

	assert.Len(t, store.List(), 2)

	ok, err := store.Cancel(ticket.TicketID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Cancel("missing1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Len(t, store.List(), 1)
}

func TestTicketStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.json")

	store, err := chat.OpenTicketStore(path)
	require.NoError(t, err)

	ticket, err := store.Book("الخميس", "21:00")
	require.NoError(t, err)

	reopened, err := chat.OpenTicketStore(path)
	require.NoError(t, err)

	all := reopened.List()
	require.Len(t, all, 1)
	assert.Equal(t, ticket.TicketID, all[0].TicketID)
	assert.Equal(t, "الخميس", all[0].Day)
}

func TestBuildPrompt(t *testing.T) {
	prompt := chat.BuildPrompt("من فاز؟", "فاز الأهلي")

	assert.Contains(t, prompt, "فاز الأهلي")
	assert.Contains(t, prompt, "السؤال: من فاز؟")
	assert.True(t, strings.HasSuffix(prompt, "الإجابة المختصرة:"))
}

func TestTruncateAnswer(t *testing.T) {
	short := "إجابة قصيرة"
	assert.Equal(t, short, chat.TruncateAnswer(short))

	long := strings.Repeat("كلمة ", 100)
	truncated := chat.TruncateAnswer(long)

	assert.Less(t, len([]rune(truncated)), len([]rune(long)))
	assert.True(t, strings.HasSuffix(truncated, "…"))
}
