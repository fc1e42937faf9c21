package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// JST is the fixed UTC+9 zone event dates are normalised to.
var JST = time.FixedZone("JST", 9*60*60)

const (
	minCompanyRunes = 2
	maxCompanyRunes = 30
	maxSlugRunes    = 60
	maxSummaryRunes = 120

	matchedConfidence = 0.9
	unknownConfidence = 0.5
)

// space matches what a Unicode-aware \s does: ASCII whitespace plus the
// Unicode separators, among them U+00A0 left behind by &nbsp; and U+3000.
const space = `[\s\p{Z}\x{85}]`

var (
	// A run of CJK ideographs, ASCII alphanumerics, middle dot or long vowel
	// mark directly followed by a legal-entity suffix, an opening parenthesis
	// or whitespace.
	reCompany = regexp.MustCompile(`([\x{4e00}-\x{9faf}A-Za-z0-9・ー]+)(?:株式会社|（株）|\(|（|` + space + `)`)

	reHeadcount = regexp.MustCompile(`(\d{2,6})` + space + `*人`)

	reSlugStrip = regexp.MustCompile(`[^0-9A-Za-z\-\x{3040}-\x{30ff}\x{4e00}-\x{9faf}]`)

	listedMarkers = []string{"/ir/", "/investor", "tdnet", "irbank"}
)

// ResolveDate picks the first available timestamp among published, updated
// and now, converted to JST. fallback is true when now was used.
func ResolveDate(published, updated *time.Time, now time.Time) (t time.Time, fallback bool) {
	for _, ts := range []*time.Time{published, updated} {
		if ts != nil && !ts.IsZero() {
			return ts.In(JST), false
		}
	}
	return now.In(JST), true
}

// Company guesses the company name from a headline, falling back to the link's
// domain. fallback is true when the domain was used.
func Company(title, link string) (name string, fallback bool) {
	if m := reCompany.FindStringSubmatch(title); m != nil {
		n := utf8.RuneCountInString(m[1])
		if n >= minCompanyRunes && n <= maxCompanyRunes {
			return m[1], false
		}
	}
	return strings.TrimPrefix(Domain(link), "www."), true
}

// Domain returns the host (with port, if any) of link, or "" when link does
// not parse.
func Domain(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return u.Host
}

// Headcount finds a Japanese counter-suffixed head count ("300人", "１２０人").
// It returns the count and its confidence; (0, 0.5) means unknown.
func Headcount(text string) (int, float64) {
	norm := width.Fold.String(text)
	m := reHeadcount.FindStringSubmatch(norm)
	if m == nil {
		return 0, unknownConfidence
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, unknownConfidence
	}
	return n, matchedConfidence
}

// Slug turns free text into an identifier-safe token of at most 60 runes.
func Slug(text string) string {
	s := strings.Join(strings.Fields(text), "-")
	s = reSlugStrip.ReplaceAllString(s, "")
	s = truncateRunes(s, maxSlugRunes)
	if s == "" {
		return "item"
	}
	return s
}

// ListedFlag reports whether link looks like an investor-relations or
// timely-disclosure page.
func ListedFlag(link string) bool {
	l := strings.ToLower(link)
	for _, marker := range listedMarkers {
		if strings.Contains(l, marker) {
			return true
		}
	}
	return false
}

// EventID builds the human-readable record key.
func EventID(date, company string, headcount int) string {
	count := "n"
	if headcount > 0 {
		count = strconv.Itoa(headcount)
	}
	return date + "-" + Slug(company) + "-" + count
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
