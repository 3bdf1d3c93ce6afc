package leads

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Extractor turns a transcript into a LeadState. Implementations must be pure.
type Extractor interface {
	Extract(transcript []Turn) LeadState
}

// Patterns is the locale-specific vocabulary used by PatternExtractor.
type Patterns struct {
	Email *regexp.Regexp
	Phone *regexp.Regexp
	Date  *regexp.Regexp
	// DateValid rejects Date matches that are not calendar dates, such as
	// prices. Nil accepts every match.
	DateValid func(string) bool
	Time      *regexp.Regexp
	// NameIntro captures the name in phrases like "mein Name ist ..." in group 1.
	NameIntro *regexp.Regexp

	// NameMaxLen bounds the short-utterance name heuristic, in runes.
	NameMaxLen    int
	NameStopWords []string

	InterestKeywords []string
	MeetingKeywords  []string
	PurchaseKeywords []string
}

var (
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`(?:\+|\b)(?:\d{1,3}[- ]?)?\(?\d{3,4}\)?[- ]?\d{3,4}[- ]?\d{3,5}\b`)

	germanDateRE = regexp.MustCompile(`(?i)\b\d{1,2}[./-]\d{1,2}(?:[./-]\d{2,4})?\b|\b\d{1,2}\.?\s(?:januar|februar|märz|april|mai|juni|juli|august|september|oktober|november|dezember|jan|feb|mär|apr|jun|jul|aug|sep|okt|nov|dez)`)
	germanTimeRE = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\b|\b\d{1,2}\s?uhr\b`)

	nameWord           = `\p{Lu}[\p{L}\p{M}'-]*`
	germanNameIntroRE  = regexp.MustCompile(`(?i:mein name ist|ich hei(?:ß|ss)e)\s+(` + nameWord + `(?:\s+` + nameWord + `)?)`)
	numericDatePartsRE = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})`)
	nameTokenTrimChars = ".,!;:"
)

// GermanPatterns is the default vocabulary. Behavior on non-German input is undefined.
func GermanPatterns() Patterns {
	return Patterns{
		Email:      emailRE,
		Phone:      phoneRE,
		Date:       germanDateRE,
		DateValid:  plausibleGermanDate,
		Time:       germanTimeRE,
		NameIntro:  germanNameIntroRE,
		NameMaxLen: 30,
		NameStopWords: []string{
			"was", "wie", "wo", "wann", "warum", "ja", "nein", "hallo", "hi", "hey", "termin",
			"ok", "okay", "danke", "gerne", "bitte", "guten", "moin", "servus",
		},
		InterestKeywords: []string{
			"produkt", "preis", "kosten", "demo", "funktionen", "features", "integration",
			"sicherheit", "support", "technologie", "implementation",
		},
		MeetingKeywords:  []string{"termin", "meeting", "demo", "besprechung", "rückruf"},
		PurchaseKeywords: []string{"kaufen", "preis", "kosten", "kostet", "angebot", "bestellen"},
	}
}

// PatternExtractor implements Extractor with regular expressions and keyword lists.
type PatternExtractor struct {
	p Patterns
}

var _ Extractor = (*PatternExtractor)(nil)

// NewExtractor builds an extractor from the given vocabulary.
func NewExtractor(p Patterns) *PatternExtractor {
	if p.NameMaxLen <= 0 {
		p.NameMaxLen = 30
	}
	return &PatternExtractor{p: p}
}

var defaultExtractor = NewExtractor(GermanPatterns())

// Extract runs the default German extractor.
func Extract(transcript []Turn) LeadState {
	return defaultExtractor.Extract(transcript)
}

// Extract scans user turns in order. Contact and schedule fields keep their
// first match; stage and score accumulate turn by turn.
func (e *PatternExtractor) Extract(transcript []Turn) LeadState {
	state := NewLeadState()
	for _, turn := range transcript {
		if !turn.IsUser() {
			continue
		}
		e.scanTurn(&state, turn.Content)
	}
	return state
}

func (e *PatternExtractor) scanTurn(state *LeadState, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	lower := strings.ToLower(content)

	email := firstMatch(e.p.Email, content)
	phone := firstMatch(e.p.Phone, content)
	if state.Email == "" && email != "" {
		state.Email = strings.ToLower(email)
	}
	if state.Phone == "" && phone != "" {
		state.Phone = phone
	}
	if state.PreferredDate == "" {
		state.PreferredDate = firstValidMatch(e.p.Date, content, e.p.DateValid)
	}
	if state.PreferredTime == "" {
		state.PreferredTime = firstMatch(e.p.Time, content)
	}
	if state.Name == "" {
		state.Name = e.guessName(content, lower, email != "" || phone != "")
	}

	for _, keyword := range e.p.InterestKeywords {
		if strings.Contains(lower, keyword) {
			state.addInterest(keyword)
		}
	}

	if containsAny(lower, e.p.MeetingKeywords) {
		state.Stage = state.Stage.Advance(StageScheduling)
		state.bumpScore(20)
	}
	if containsAny(lower, e.p.PurchaseKeywords) {
		state.Stage = state.Stage.Advance(StageQualifying)
		state.bumpScore(15)
	}
	if state.HasContact() {
		state.Stage = state.Stage.Advance(StageCollectingInfo)
		state.bumpScore(30)
	}
	if state.CanBook() {
		state.Stage = StageReadyToBook
		state.LeadScore = MaxLeadScore
	}
}

// guessName prefers an explicit introduction, then falls back to treating a
// short, question-free utterance as the visitor's name.
func (e *PatternExtractor) guessName(content, lower string, hasContact bool) string {
	if e.p.NameIntro != nil {
		if m := e.p.NameIntro.FindStringSubmatch(content); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}

	if hasContact || utf8.RuneCountInString(content) >= e.p.NameMaxLen {
		return ""
	}
	if strings.Contains(content, "?") || strings.IndexFunc(content, unicode.IsDigit) >= 0 {
		return ""
	}
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return ""
	}
	first := strings.Trim(strings.ToLower(fields[0]), nameTokenTrimChars)
	for _, stop := range e.p.NameStopWords {
		if first == stop {
			return ""
		}
	}
	if strings.HasPrefix(lower, "termin") {
		return ""
	}
	if len(fields) > 2 {
		fields = fields[:2]
	}
	return strings.Join(fields, " ")
}

func firstMatch(re *regexp.Regexp, text string) string {
	if re == nil {
		return ""
	}
	return strings.TrimSpace(re.FindString(text))
}

func firstValidMatch(re *regexp.Regexp, text string, valid func(string) bool) string {
	if re == nil {
		return ""
	}
	for _, m := range re.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		if valid == nil || valid(m) {
			return m
		}
	}
	return ""
}

// plausibleGermanDate accepts month-name dates and numeric dates whose day and
// month are in range, so "49.99" or "2.0" are not taken for dates.
func plausibleGermanDate(token string) bool {
	m := numericDatePartsRE.FindStringSubmatch(token)
	if m == nil {
		return true
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return day >= 1 && day <= 31 && month >= 1 && month <= 12
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
