package matches

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/jsonl"
)

// fallbackLimit caps how many matches a nearest-date fallback answer lists.
const fallbackLimit = 10

// User-facing answers are Arabic, matching the corpus language.
const (
	msgNoDate       = "لم أتعرف على تاريخ في رسالتك. اكتب مثلا: مباريات اليوم، أو مباريات 2025-08-14."
	msgEmptyDataset = "لا توجد بيانات مباريات متاحة حاليا."
)

// relativeDays maps relative Arabic date words, including dialect variants,
// to day offsets from "now".
var relativeDays = map[string]int{
	"اليوم":    0,
	"النهارده": 0,
	"النهاردة": 0,
	"غدا":      1,
	"غداً":     1,
	"غدًا":     1,
	"بكرة":     1,
	"بكره":     1,
	"أمس":      -1,
	"امس":      -1,
	"البارح":   -1,
	"البارحة":  -1,
	"مبارح":    -1,
}

var (
	isoDatePattern     = regexp.MustCompile(`\b(\d{4})[-/](\d{1,2})[-/](\d{1,2})\b`)
	numericDatePattern = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{4})\b`)
)

// arabicIndicDigits maps Eastern Arabic numerals to ASCII so date patterns
// match either script.
var arabicIndicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// Lookup answers "matches on date X" queries over an extracted fixture set.
type Lookup struct {
	byDate map[string][]domain.MatchRecord
	dates  []string
}

// NewLookup indexes records by date. Records with an empty date are not
// reachable by date query and are ignored here.
func NewLookup(records []domain.MatchRecord) *Lookup {
	byDate := make(map[string][]domain.MatchRecord)

	for _, rec := range records {
		if rec.Date == "" {
			continue
		}

		byDate[rec.Date] = append(byDate[rec.Date], rec)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}

	sort.Strings(dates)

	return &Lookup{byDate: byDate, dates: dates}
}

// LoadLookup reads a match JSONL file and indexes it.
func LoadLookup(path string) (*Lookup, error) {
	records, _, err := jsonl.ReadFile[domain.MatchRecord](path)
	if err != nil {
		return nil, fmt.Errorf("matches: %w", err)
	}

	return NewLookup(records), nil
}

// Len returns the number of dates with at least one match.
func (l *Lookup) Len() int { return len(l.dates) }

// Answer resolves a date from free text and formats the matches on it. The
// second return is false when no date pattern was recognized, letting the
// caller fall back to another answer path.
func (l *Lookup) Answer(query string, now time.Time) (string, bool) {
	date, ok := ResolveDate(query, now)
	if !ok {
		return msgNoDate, false
	}

	if len(l.dates) == 0 {
		return msgEmptyDataset, true
	}

	if day, exact := l.byDate[date]; exact {
		return formatDay(date, day, 0), true
	}

	nearest, found := l.nearestDate(date)
	if !found {
		return msgEmptyDataset, true
	}

	header := fmt.Sprintf("لا توجد مباريات بتاريخ %s. أقرب يوم به مباريات هو %s:\n", date, nearest)

	return header + formatLines(l.byDate[nearest], fallbackLimit), true
}

// MatchesOn returns the matches on an exact ISO date, sorted by time.
func (l *Lookup) MatchesOn(date string) []domain.MatchRecord {
	day := append([]domain.MatchRecord(nil), l.byDate[date]...)
	sortByTime(day)

	return day
}

// nearestDate finds the closest future date with matches, then the closest
// past one.
func (l *Lookup) nearestDate(date string) (string, bool) {
	// ISO dates compare correctly as strings.
	for _, d := range l.dates {
		if d > date {
			return d, true
		}
	}

	for i := len(l.dates) - 1; i >= 0; i-- {
		if l.dates[i] < date {
			return l.dates[i], true
		}
	}

	return "", false
}

// ResolveDate extracts an ISO date from free text. Relative words resolve
// against now; numeric forms accept YYYY-MM-DD and D/M/Y or M/D/Y. When both
// leading components of a numeric date are 12 or less the form is ambiguous
// and month-first wins; a first component above 12 forces day-first.
func ResolveDate(query string, now time.Time) (string, bool) {
	query = arabicIndicDigits.Replace(query)

	// Token-level comparison: substring matching would false-positive on
	// words like "الخامسة" containing "امس".
	for _, token := range strings.Fields(query) {
		token = strings.Trim(token, "؟!.,:؛")
		if offset, known := relativeDays[token]; known {
			return now.AddDate(0, 0, offset).Format("2006-01-02"), true
		}
	}

	if m := isoDatePattern.FindStringSubmatch(query); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])

		return formatISO(year, month, day)
	}

	if m := numericDatePattern.FindStringSubmatch(query); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])

		month, day := first, second
		if first > 12 {
			month, day = second, first
		}

		return formatISO(year, month, day)
	}

	return "", false
}

// formatISO validates the components by round-tripping through time.Date.
func formatISO(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) {
		return "", false
	}

	return t.Format("2006-01-02"), true
}

// formatDay renders one day's matches as a user-facing Arabic answer.
func formatDay(date string, day []domain.MatchRecord, limit int) string {
	header := fmt.Sprintf("مباريات يوم %s:\n", date)
	return header + formatLines(day, limit)
}

// formatLines renders matches sorted by kickoff time, one per line.
func formatLines(day []domain.MatchRecord, limit int) string {
	sorted := append([]domain.MatchRecord(nil), day...)
	sortByTime(sorted)

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	lines := make([]string, 0, len(sorted))
	for _, m := range sorted {
		line := fmt.Sprintf("- %s: %s vs %s", m.Time, m.Home, m.Away)
		if m.Competition != "" {
			line += fmt.Sprintf(" (%s)", m.Competition)
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// sortByTime orders matches ascending by their HH:MM string.
func sortByTime(day []domain.MatchRecord) {
	sort.Slice(day, func(i, j int) bool {
		if day[i].Time != day[j].Time {
			return day[i].Time < day[j].Time
		}

		return day[i].Title < day[j].Title
	})
}
