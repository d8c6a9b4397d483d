package chat_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdelKhale2/Link-chatbot/internal/chat"
	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
)

var handlerNow = time.Date(2025, 8, 14, 12, 0, 0, 0, time.UTC)

type stubRAG struct {
	results []domain.SearchResult
	queries []string
}

func (s *stubRAG) Search(_ context.Context, query string, _ int) []domain.SearchResult {
	s.queries = append(s.queries, query)
	return s.results
}

type stubFixtures struct {
	answer string
	ok     bool
}

func (s *stubFixtures) Answer(string, time.Time) (string, bool) {
	return s.answer, s.ok
}

type stubGenerator struct {
	answer  string
	err     error
	gotCtx  string
	gotCall bool
}

func (s *stubGenerator) Generate(_ context.Context, _, contextText string) (string, error) {
	s.gotCall = true
	s.gotCtx = contextText

	return s.answer, s.err
}

type handlerDeps struct {
	rag      *stubRAG
	fixtures *stubFixtures
	gen      *stubGenerator
	tickets  *chat.TicketStore
}

func newHandler(t *testing.T) (*chat.Handler, *handlerDeps) {
	t.Helper()

	tickets, err := chat.OpenTicketStore(filepath.Join(t.TempDir(), "tickets.json"))
	require.NoError(t, err)

	deps := &handlerDeps{
		rag:      &stubRAG{},
		fixtures: &stubFixtures{},
		gen:      &stubGenerator{answer: "إجابة مولدة"},
		tickets:  tickets,
	}

	h := chat.NewHandler(
		chat.NewSessionMemory(),
		tickets,
		deps.rag,
		deps.fixtures,
		deps.gen,
		logger.NewNoop(),
		func() time.Time { return handlerNow },
	)

	return h, deps
}

func TestRespond_AssignsSessionID(t *testing.T) {
	h, _ := newHandler(t)

	reply := h.Respond(context.Background(), "", "مرحبا")
	assert.NotEmpty(t, reply.SessionID)
	assert.Equal(t, string(chat.IntentGreet), reply.Intent)
}

func TestRespond_BookingFlowAcrossTurns(t *testing.T) {
	h, deps := newHandler(t)

	// Turn 1: ask to book with no details.
	reply := h.Respond(context.Background(), "s1", "اريد حجز")
	assert.Equal(t, string(chat.IntentBookingAsk), reply.Intent)
	assert.Empty(t, reply.Action)

	// Turn 2: day only, still incomplete.
	reply = h.Respond(context.Background(), "s1", "يوم الاربعاء")
	assert.Empty(t, reply.Action)

	// Turn 3: time arrives, booking completes.
	reply = h.Respond(context.Background(), "s1", "الساعة 8 مساء")
	assert.Equal(t, "booked", reply.Action)
	assert.Contains(t, reply.Response, "تم الحجز")

	all := deps.tickets.List()
	require.Len(t, all, 1)
	assert.Equal(t, "الأربعاء", all[0].Day)
	assert.Equal(t, "8 مساءً", all[0].Time)
}

func TestRespond_BookingInOneTurn(t *testing.T) {
	h, deps := newHandler(t)

	reply := h.Respond(context.Background(), "s1", "احجز الجمعة الساعة 9 مساء")
	assert.Equal(t, "booked", reply.Action)
	assert.Len(t, deps.tickets.List(), 1)
}

func TestRespond_CancelFlow(t *testing.T) {
	h, deps := newHandler(t)

	ticket, err := deps.tickets.Book("الجمعة", "20:00")
	require.NoError(t, err)

	reply := h.Respond(context.Background(), "s1", "الغاء الحجز")
	assert.Equal(t, string(chat.IntentCancelAsk), reply.Intent)

	reply = h.Respond(context.Background(), "s1", ticket.TicketID)
	assert.Equal(t, "cancelled", reply.Action)
	assert.Empty(t, deps.tickets.List())
}

func TestRespond_CancelUnknownTicket(t *testing.T) {
	h, _ := newHandler(t)

	reply := h.Respond(context.Background(), "s1", "الغي التذكرة deadbeef")
	assert.Empty(t, reply.Action)
	assert.Contains(t, reply.Response, "لم يتم العثور")
}

func TestRespond_FixturesIntentUsesLookup(t *testing.T) {
	h, deps := newHandler(t)
	deps.fixtures.answer = "مباريات يوم 2025-08-14:\n- 20:00: الأهلي vs الزمالك"
	deps.fixtures.ok = true

	reply := h.Respond(context.Background(), "s1", "ما مباريات اليوم؟")
	assert.Equal(t, string(chat.IntentFixtures), reply.Intent)
	assert.Contains(t, reply.Response, "الأهلي")
	assert.Empty(t, deps.rag.queries)
}

func TestRespond_GeneralQueryPrefersLookupOverRAG(t *testing.T) {
	h, deps := newHandler(t)
	deps.fixtures.answer = "مباريات يوم 2025-08-20:"
	deps.fixtures.ok = true

	reply := h.Respond(context.Background(), "s1", "ايه الاخبار بتاريخ 2025-08-20")
	assert.Contains(t, reply.Response, "2025-08-20")
	assert.Empty(t, deps.rag.queries)
}

func TestRespond_GeneralQueryFallsBackToRAG(t *testing.T) {
	h, deps := newHandler(t)
	deps.rag.results = []domain.SearchResult{
		{Text: "فاز الأهلي بالدوري", Score: 0.9},
		{Text: "خبر آخر", Score: 0.5},
	}

	reply := h.Respond(context.Background(), "s1", "من فاز بالدوري؟")
	assert.Equal(t, "إجابة مولدة", reply.Response)
	require.True(t, deps.gen.gotCall)
	assert.Contains(t, deps.gen.gotCtx, "فاز الأهلي بالدوري")
}

func TestRespond_NoContextDeclinesWithoutGeneration(t *testing.T) {
	h, deps := newHandler(t)

	reply := h.Respond(context.Background(), "s1", "من فاز بالدوري؟")
	assert.Contains(t, reply.Response, "عذرًا")
	assert.False(t, deps.gen.gotCall)
}

func TestRespond_GenerationErrorDeclines(t *testing.T) {
	h, deps := newHandler(t)
	deps.rag.results = []domain.SearchResult{{Text: "سياق"}}
	deps.gen.err = errors.New("model down")

	reply := h.Respond(context.Background(), "s1", "من فاز بالدوري؟")
	assert.Contains(t, reply.Response, "عذرًا")
}
