package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
)

// maxContextRunes bounds the retrieved context passed to generation.
const maxContextRunes = 1500

// ragTopK is the number of chunks retrieved per question.
const ragTopK = 5

const (
	msgAskSlots      = "ما هو اليوم والوقت الذي تريد الحجز فيه؟ (مثال: الأربعاء الساعة ٨ مساءً)"
	msgClarifySlots  = "يرجى تحديد اليوم والوقت بشكل أوضح."
	msgAskTicketID   = "ما هو معرف التذكرة التي تريد إلغاؤها؟"
	msgGreeting      = "وعليكم السلام، كيف أساعدك في الحجز أو معرفة مواعيد المباريات؟"
	msgHelp          = "أستطيع حجز أو إلغاء تذاكر، وعرض مباريات أي يوم. اكتب: حجز، أو: ما مباريات اليوم."
	msgNoAnswer      = "عذرًا، لم أجد معلومات متعلقة بسؤالك."
	msgInternalError = "حدث خطأ أثناء معالجة طلبك. يرجى المحاولة لاحقًا."
)

// expectation keys for multi-turn flows.
const (
	expectBooking = "booking"
	expectCancel  = "cancel"
)

// RAGSearcher retrieves context chunks for a free-text question.
type RAGSearcher interface {
	Search(ctx context.Context, query string, topK int) []domain.SearchResult
}

// FixtureAnswerer answers date queries over the match corpus.
type FixtureAnswerer interface {
	Answer(query string, now time.Time) (string, bool)
}

// Reply is the structured outcome of one chat turn.
type Reply struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	Intent    string `json:"intent"`
	Action    string `json:"action,omitempty"`
}

// Handler routes user messages across booking, cancellation, fixture lookup,
// and retrieval-grounded generation.
type Handler struct {
	memory    *SessionMemory
	tickets   *TicketStore
	rag       RAGSearcher
	fixtures  FixtureAnswerer
	generator Generator
	log       logger.Interface
	now       func() time.Time
}

// NewHandler creates a chat handler. now is injectable for tests; pass nil
// for wall-clock time.
func NewHandler(
	memory *SessionMemory,
	tickets *TicketStore,
	rag RAGSearcher,
	fixtures FixtureAnswerer,
	generator Generator,
	log logger.Interface,
	now func() time.Time,
) *Handler {
	if now == nil {
		now = time.Now
	}

	return &Handler{
		memory:    memory,
		tickets:   tickets,
		rag:       rag,
		fixtures:  fixtures,
		generator: generator,
		log:       log,
		now:       now,
	}
}

// Respond handles one user message and returns the bot reply. A missing
// session ID starts a new session.
func (h *Handler) Respond(ctx context.Context, sessionID, text string) Reply {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	text = strings.TrimSpace(text)
	h.memory.AppendUser(sessionID, text)

	intent, details := DetectIntent(text)
	h.log.Info("Chat turn", "session_id", sessionID, "intent", string(intent))

	var response, action string

	switch {
	case intent == IntentBookingAsk:
		response, action = h.handleBookingAsk(sessionID)

	case intent == IntentBookingFill:
		response, action = h.handleBookingFill(sessionID, text)

	case intent == IntentCancelAsk:
		h.memory.SetExpectation(sessionID, expectCancel)
		response = msgAskTicketID

	case intent == IntentCancelFill:
		ticketID := details["ticket_id"]
		if ticketID == "" {
			ticketID = lastField(text)
		}

		response, action = h.handleCancel(sessionID, ticketID)

	case h.memory.ExpectationIs(sessionID, expectBooking):
		response, action = h.handleBookingFill(sessionID, text)

	case h.memory.ExpectationIs(sessionID, expectCancel):
		response, action = h.handleCancel(sessionID, strings.TrimSpace(text))

	case intent == IntentGreet:
		response = msgGreeting

	case intent == IntentHelp:
		response = msgHelp

	case intent == IntentFixtures:
		response, _ = h.fixtures.Answer(text, h.now())

	default:
		response = h.answerGeneral(ctx, text)
	}

	h.memory.AppendBot(sessionID, response)

	return Reply{
		SessionID: sessionID,
		Response:  response,
		Intent:    string(intent),
		Action:    action,
	}
}

// handleBookingAsk books immediately when both slots are already known,
// otherwise asks for them.
func (h *Handler) handleBookingAsk(sessionID string) (response, action string) {
	slots := h.memory.Slots(sessionID)
	if slots.Day == "" || slots.Time == "" {
		h.memory.SetExpectation(sessionID, expectBooking)
		return msgAskSlots, ""
	}

	return h.book(sessionID, slots)
}

// handleBookingFill merges newly extracted slots and books once both are
// present.
func (h *Handler) handleBookingFill(sessionID, text string) (response, action string) {
	merged := h.memory.UpdateSlots(sessionID, ExtractBookingSlots(text))

	if merged.Day == "" || merged.Time == "" {
		h.memory.SetExpectation(sessionID, expectBooking)
		return msgClarifySlots, ""
	}

	return h.book(sessionID, merged)
}

func (h *Handler) book(sessionID string, slots Slots) (response, action string) {
	ticket, err := h.tickets.Book(slots.Day, slots.Time)
	if err != nil {
		h.log.Error("Booking failed", "session_id", sessionID, "error", err)
		return msgInternalError, ""
	}

	h.memory.ClearSession(sessionID)

	return "تم الحجز ✅\nمعرف التذكرة: " + ticket.TicketID, "booked"
}

func (h *Handler) handleCancel(sessionID, ticketID string) (response, action string) {
	ok, err := h.tickets.Cancel(ticketID)
	if err != nil {
		h.log.Error("Cancellation failed", "session_id", sessionID, "error", err)
		return msgInternalError, ""
	}

	if !ok {
		return "لم يتم العثور على تذكرة بالمعرف " + ticketID + ".", ""
	}

	h.memory.ClearSession(sessionID)

	return "تم إلغاء التذكرة ✅ (ID: " + ticketID + ")", "cancelled"
}

// answerGeneral tries the fixture lookup first, then falls back to
// retrieval-grounded generation. Without retrieved context the handler
// declines instead of generating ungrounded text.
func (h *Handler) answerGeneral(ctx context.Context, text string) string {
	if answer, ok := h.fixtures.Answer(text, h.now()); ok {
		return answer
	}

	docs := h.rag.Search(ctx, text, ragTopK)
	if len(docs) == 0 {
		return msgNoAnswer
	}

	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		texts = append(texts, d.Text)
	}

	contextText := truncateRunes(strings.Join(texts, "\n\n"), maxContextRunes)

	answer, err := h.generator.Generate(ctx, text, contextText)
	if err != nil {
		h.log.Error("Generation failed", "error", err)
		return msgNoAnswer
	}

	return answer
}

// lastField returns the last whitespace-separated token of s.
func lastField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}

	return fields[len(fields)-1]
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}
