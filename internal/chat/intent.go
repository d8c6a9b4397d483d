// Package chat implements the conversational layer: rule-based Arabic intent
// detection, slot filling for ticket booking, per-session memory, and the
// routing between fixture lookup, retrieval, and generation.
package chat

import (
	"regexp"
	"strings"
)

// Intent identifies the high-level action a user message asks for.
type Intent string

const (
	IntentGreet       Intent = "smalltalk.greet"
	IntentHelp        Intent = "smalltalk.help"
	IntentFixtures    Intent = "fixtures.query"
	IntentBookingAsk  Intent = "booking.ask"
	IntentBookingFill Intent = "booking.fill"
	IntentCancelAsk   Intent = "cancel.ask"
	IntentCancelFill  Intent = "cancel.fill"
	IntentGeneral     Intent = "general.query"
)

// Slots carries extracted booking details.
type Slots struct {
	Day  string
	Time string
}

// arabicDigitFold maps Eastern Arabic numerals to ASCII.
var arabicDigitFold = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// hamzaFold collapses hamza-carrying alef forms and final yaa variants so
// dialectal spellings compare equal.
var hamzaFold = strings.NewReplacer(
	"أ", "ا", "إ", "ا", "آ", "ا",
	"ى", "ي",
)

var (
	greetWords   = []string{"السلام عليكم", "سلام", "مرحبا", "اهلا", "هاي", "هلا", "hi", "hello"}
	helpWords    = []string{"مساعدة", "كيف اساعد", "كيف تساعد", "كيف", "ازاي", "help"}
	matchWords   = []string{"ماتش", "متش", "متشات", "ماتشات", "مباريات", "مباراه", "مباراة", "fixtures"}
	dayRefWords  = []string{"اليوم", "النهارده", "النهاردة", "انهارده", "بكرة", "بكره", "غدا", "امس", "البارح", "البارحة"}
	bookWords    = []string{"احجز", "حجز", "اريد حجز", "احجزلي", "عايز احجز", "book"}
	cancelWords  = []string{"الغاء", "الغي", "الغى", "cancel"}
	weekdayNames = []string{"الاثنين", "الثلاثاء", "الاربعاء", "الخميس", "الجمعة", "السبت", "الاحد", "اربعاء", "لاربعاء"}
)

var (
	timeHintPattern = regexp.MustCompile(`(الساعة|ساعه|pm|am|\d{1,2})`)
	ticketIDPattern = regexp.MustCompile(`(?i)(?:id[:\s\-]*|معرف[:\s\-]*|#)?([A-Za-z0-9\-]{6,})`)
	datePattern     = regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{4}[-/]\d{1,2}[-/]\d{1,2}`)
	slotTimePattern = regexp.MustCompile(`(\d{1,2}(?::\d{2})?)`)
)

// NormalizeText lowercases, trims, folds hamza forms, and converts Eastern
// Arabic digits. The taa marbuta is kept so day names like الجمعة survive.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = hamzaFold.Replace(s)

	return arabicDigitFold.Replace(s)
}

// DetectIntent classifies a user message. For cancel messages carrying a
// ticket identifier, the identifier is returned in details.
func DetectIntent(text string) (Intent, map[string]string) {
	t := NormalizeText(text)

	if containsAny(t, greetWords) {
		return IntentGreet, nil
	}

	if containsAny(t, helpWords) {
		return IntentHelp, nil
	}

	if containsAny(t, matchWords) && (containsAny(t, dayRefWords) || datePattern.MatchString(t)) {
		return IntentFixtures, nil
	}

	// Cancel is checked before booking: cancellation messages like
	// "الغاء الحجز" also contain a booking keyword.
	if containsAny(t, cancelWords) {
		if m := ticketIDPattern.FindStringSubmatch(text); m != nil {
			return IntentCancelFill, map[string]string{"ticket_id": m[1]}
		}

		return IntentCancelAsk, nil
	}

	if containsAny(t, bookWords) {
		if timeHintPattern.MatchString(t) || containsAny(t, weekdayNames) {
			return IntentBookingFill, nil
		}

		return IntentBookingAsk, nil
	}

	return IntentGeneral, nil
}

// canonicalDays maps normalized weekday spellings to display forms.
var canonicalDays = []struct {
	key   string
	label string
}{
	{"الاحد", "الأحد"},
	{"الاثنين", "الاثنين"},
	{"الثلاثاء", "الثلاثاء"},
	{"الاربعاء", "الأربعاء"},
	{"الخميس", "الخميس"},
	{"الجمعة", "الجمعة"},
	{"السبت", "السبت"},
}

// ExtractBookingSlots pulls a weekday and a clock time out of a booking
// message. Either slot may come back empty; the caller asks for what is
// missing.
func ExtractBookingSlots(text string) Slots {
	nt := NormalizeText(text)

	var slots Slots

	for _, day := range canonicalDays {
		bare := strings.TrimPrefix(day.key, "ال")
		if strings.Contains(nt, day.key) || strings.Contains(nt, bare) || strings.Contains(nt, "ل"+day.key) {
			slots.Day = day.label
			break
		}
	}

	if m := slotTimePattern.FindStringSubmatch(nt); m != nil {
		switch {
		case strings.Contains(nt, "مساء") || strings.Contains(nt, "pm") || strings.Contains(nt, " م"):
			slots.Time = m[1] + " مساءً"
		case strings.Contains(nt, "صباح") || strings.Contains(nt, "am") || strings.Contains(nt, " ص"):
			slots.Time = m[1] + " صباحًا"
		default:
			slots.Time = m[1]
		}
	}

	return slots
}

// containsAny reports whether any needle occurs in s.
func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}

	return false
}
