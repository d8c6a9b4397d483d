// Package matches parses structured fixture records out of crawled match
// articles and answers date queries over them.
package matches

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/jsonl"
	"github.com/3bdelKhale2/Link-chatbot/internal/preparer"
)

// arabicMonths maps Arabic month names, including common hamza-less
// spellings, to month numbers.
var arabicMonths = map[string]int{
	"يناير": 1, "فبراير": 2, "مارس": 3,
	"أبريل": 4, "ابريل": 4,
	"مايو": 5, "يونيو": 6, "يوليو": 7,
	"أغسطس": 8, "اغسطس": 8,
	"سبتمبر": 9, "أكتوبر": 10, "اكتوبر": 10,
	"نوفمبر": 11, "ديسمبر": 12,
}

var (
	arabicDatePattern = regexp.MustCompile(
		`(\d{1,2})\s+(يناير|فبراير|مارس|أبريل|ابريل|مايو|يونيو|يوليو|أغسطس|اغسطس|سبتمبر|أكتوبر|اكتوبر|نوفمبر|ديسمبر)\s+(\d{4})`)
	matchTitlePattern = regexp.MustCompile(`^\s*مباراة\s+(.+?)\s+و\s+(.+)$`)
	timeTokenPattern  = regexp.MustCompile(`(\d{1,2}:\d{2})`)
	timeExactPattern  = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	trailingDetails   = regexp.MustCompile(`\s*التفاصيل\s*$`)
)

// competitionLabels maps known URL slugs to display names. Unknown slugs fall
// back to hyphen-to-space.
var competitionLabels = map[string]string{
	"egyptian-league": "الدوري المصري",
	"qatar-league":    "دوري نجوم قطر",
	"fiba-afrobasket": "بطولة الأفرو باسكت",
	"handball-":       "كرة اليد",
	"uael-league":     "الدوري الإماراتي",
}

// matchSentinel sorts records without a parsable date after everything else.
var matchSentinel = time.Date(9999, 12, 31, 23, 59, 0, 0, time.UTC)

// Extract filters page records to match articles and parses one fixture per
// unique URL. Records missing team names or a time token are dropped; a
// missing date is kept as an empty string. Output is sorted ascending by
// (datetime, title), dateless records last.
func Extract(records []domain.PageRecord) []domain.MatchRecord {
	seen := make(map[string]struct{})

	var rows []domain.MatchRecord

	for _, rec := range records {
		if rec.URL == "" {
			continue
		}

		if _, dup := seen[rec.URL]; dup {
			continue
		}

		title := preparer.NormalizeWhitespace(rec.Title)
		if !strings.HasPrefix(title, "مباراة") {
			continue
		}

		home, away, ok := parseTeams(title)
		if !ok {
			continue
		}

		timeToken := extractTime(rec)
		if timeToken == "" {
			continue
		}

		rows = append(rows, domain.MatchRecord{
			Date:        ParseArabicDate(rec.Text),
			Time:        timeToken,
			Home:        home,
			Away:        away,
			Competition: CompetitionFromURL(rec.URL),
			Title:       title,
			URL:         rec.URL,
		})
		seen[rec.URL] = struct{}{}
	}

	sortMatches(rows)

	return rows
}

// ExtractFiles reads page records from the given JSONL corpora and extracts
// fixtures across all of them, deduplicating by URL globally.
func ExtractFiles(paths ...string) ([]domain.MatchRecord, error) {
	var all []domain.PageRecord

	for _, path := range paths {
		records, _, err := jsonl.ReadFile[domain.PageRecord](path)
		if err != nil {
			return nil, fmt.Errorf("matches: %w", err)
		}

		all = append(all, records...)
	}

	return Extract(all), nil
}

// parseTeams pulls home and away out of a "مباراة {home} و {away}" title.
func parseTeams(title string) (home, away string, ok bool) {
	m := matchTitlePattern.FindStringSubmatch(title)
	if m == nil {
		return "", "", false
	}

	return cleanTeam(m[1]), cleanTeam(m[2]), true
}

// cleanTeam normalizes a team name and strips a trailing "التفاصيل" link
// fragment carried over from listing markup.
func cleanTeam(name string) string {
	name = preparer.NormalizeWhitespace(name)
	return trailingDetails.ReplaceAllString(name, "")
}

// extractTime prefers a published field that is exactly HH:MM, then the first
// time token found in the body text.
func extractTime(rec domain.PageRecord) string {
	pub := preparer.NormalizeWhitespace(rec.PublishedRaw)
	if timeExactPattern.MatchString(pub) {
		return pub
	}

	return timeTokenPattern.FindString(rec.Text)
}

// ParseArabicDate scans text for a "D <month> YYYY" Arabic date and returns
// it as YYYY-MM-DD, or empty if none is found.
func ParseArabicDate(text string) string {
	m := arabicDatePattern.FindStringSubmatch(preparer.NormalizeWhitespace(text))
	if m == nil {
		return ""
	}

	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])
	month := arabicMonths[m[2]]

	if day < 1 || day > 31 {
		return ""
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// CompetitionFromURL takes the first path segment of the article URL and maps
// it to a display label.
func CompetitionFromURL(rawURL string) string {
	rest := rawURL
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 || parts[1] == "" {
		return ""
	}

	slug := parts[1]
	if label, known := competitionLabels[slug]; known {
		return label
	}

	return strings.ReplaceAll(slug, "-", " ")
}

// sortMatches orders rows ascending by parsed datetime then title. Records
// whose date or time fails to parse sort with the far-future sentinel.
func sortMatches(rows []domain.MatchRecord) {
	key := func(r domain.MatchRecord) time.Time {
		date := r.Date
		if date == "" {
			date = "9999-12-31"
		}

		dt, err := time.Parse("2006-01-02 15:04", date+" "+r.Time)
		if err != nil {
			return matchSentinel
		}

		return dt
	}

	sort.Slice(rows, func(i, j int) bool {
		ki, kj := key(rows[i]), key(rows[j])
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}

		return rows[i].Title < rows[j].Title
	})
}

// WriteCSV writes rows as a flat CSV with a fixed header.
func WriteCSV(w io.Writer, rows []domain.MatchRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"date", "time", "home", "away", "competition", "title", "url"}); err != nil {
		return fmt.Errorf("matches: write csv header: %w", err)
	}

	for _, r := range rows {
		record := []string{r.Date, r.Time, r.Home, r.Away, r.Competition, r.Title, r.URL}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("matches: write csv row: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("matches: flush csv: %w", err)
	}

	return nil
}

// WriteJSONL writes rows as JSON-Lines.
func WriteJSONL(w io.Writer, rows []domain.MatchRecord) error {
	jw := jsonl.NewWriter(w)

	for _, r := range rows {
		if err := jw.Write(r); err != nil {
			return fmt.Errorf("matches: %w", err)
		}
	}

	if err := jw.Flush(); err != nil {
		return fmt.Errorf("matches: %w", err)
	}

	return nil
}
