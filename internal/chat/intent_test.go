package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/3bdelKhale2/Link-chatbot/internal/chat"
)

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want chat.Intent
	}{
		{"greeting", "السلام عليكم", chat.IntentGreet},
		{"greeting latin", "hello", chat.IntentGreet},
		{"help", "مساعدة", chat.IntentHelp},
		{"fixtures today", "ما مباريات اليوم؟", chat.IntentFixtures},
		{"fixtures dialect", "ايه ماتشات النهارده", chat.IntentFixtures},
		{"fixtures explicit date", "مباريات 2025-12-26", chat.IntentFixtures},
		{"booking without details", "اريد حجز", chat.IntentBookingAsk},
		{"booking with day", "احجز الاربعاء الساعة 8", chat.IntentBookingFill},
		{"cancel without id", "الغاء الحجز", chat.IntentCancelAsk},
		{"cancel with id", "الغي التذكرة abc123xyz", chat.IntentCancelFill},
		{"general", "من فاز بالدوري المصري؟", chat.IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := chat.DetectIntent(tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectIntent_CancelCarriesTicketID(t *testing.T) {
	intent, details := chat.DetectIntent("الغاء التذكرة id: a1b2c3d4")
	assert.Equal(t, chat.IntentCancelFill, intent)
	assert.Equal(t, "a1b2c3d4", details["ticket_id"])
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "اهلا", chat.NormalizeText(" أهلا "))
	assert.Equal(t, "892", chat.NormalizeText("٨٩٢"))
	assert.Equal(t, "علي", chat.NormalizeText("على"))
}

func TestExtractBookingSlots(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantDay  string
		wantTime string
	}{
		{"day and evening time", "احجز الاربعاء الساعة 8 مساء", "الأربعاء", "8 مساءً"},
		{"arabic indic digits", "احجز الجمعة الساعة ٩ صباحا", "الجمعة", "9 صباحًا"},
		{"bare time", "الساعة 10:30", "", "10:30"},
		{"day only", "يوم الخميس", "الخميس", ""},
		{"nothing", "كلام عام", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := chat.ExtractBookingSlots(tt.text)
			assert.Equal(t, tt.wantDay, slots.Day)
			assert.Equal(t, tt.wantTime, slots.Time)
		})
	}
}
