package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"EarnScan/internal/domain/models"
)

// pattern is one extraction attempt for a field. The first capture group is the value.
type pattern struct {
	name string
	re   *regexp.Regexp
}

// cascade tries its patterns in order; the first match wins.
type cascade []pattern

func (c cascade) find(text string) (value, matchedBy string, ok bool) {
	for _, p := range c {
		if m := p.re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), p.name, true
		}
	}
	return "", "", false
}

const recPhrases = `(STRONGLY\s+CONSIDER|NEUTRAL|STAY\s+AWAY)`

var sentimentCascade = cascade{
	{"bold-heading", regexp.MustCompile(`(?i)\*\*\s*SENTIMENT\s+SCORE\s*:?\s*\*\*\s*:?\s*\**\s*(\d+)`)},
	{"plain-heading", regexp.MustCompile(`(?im)^[\s#>*-]*SENTIMENT\s+SCORE\s*:\s*(\d+)`)},
	{"loose-label", regexp.MustCompile(`(?i)sentiment[^:\n]*:\s*\**\s*(\d+)`)},
	{"loosest", regexp.MustCompile(`(?i)sentiment\D*?(\d+)`)},
}

var recommendationCascade = cascade{
	{"bold-heading", regexp.MustCompile(`(?i)\*\*\s*RECOMMENDATION\s*:?\s*\*\*\s*:?\s*\**\s*` + recPhrases)},
	{"plain-heading", regexp.MustCompile(`(?im)^[\s#>*-]*RECOMMENDATION\s*:\s*\**\s*` + recPhrases)},
	{"bare-phrase", regexp.MustCompile(`(?i)\b` + recPhrases + `\b`)},
}

// section headings for optional free text, in priority order per field.
var (
	reasoningHeadings  = headingCascade(`REASONING`, `RATIONALE`)
	volatilityHeadings = headingCascade(`VOLATILITY\s+ASSESSMENT`, `VOLATILITY\s+ANALYSIS`)
	riskHeadings       = headingCascade(`RISK\s+FACTORS`, `KEY\s+RISKS`)
	sizingHeadings     = headingCascade(`POSITION\s+SIZING`)
)

// nextHeading ends a free-text section: a bold ALL-CAPS heading.
var nextHeading = regexp.MustCompile(`\*\*[A-Z][A-Z0-9 &/()'-]*:?\*\*`)

var (
	strategyItem = regexp.MustCompile(`^\s*\d+[.)]\s*\*\*(.+?)\*\*\s*(.*)$`)
	numberedItem = regexp.MustCompile(`^\s*\d+[.)]\s`)
	boldHeading  = regexp.MustCompile(`^\s*\*\*[A-Z][A-Z0-9 &/()'-]*:?\*\*`)
)

func headingCascade(names ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(names))
	for i, n := range names {
		out[i] = regexp.MustCompile(`(?i)\*\*\s*` + n + `\s*:?\s*\*\*\s*:?`)
	}
	return out
}

// Parser turns one subject's free-form reply into an Analysis. It never
// fails: a field it cannot find keeps its default.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser { return &Parser{} }

// Parse extracts every field independently from text.
func (p *Parser) Parse(text, symbol string) models.Analysis {
	return models.Analysis{
		Symbol:               symbol,
		SentimentScore:       parseSentiment(text),
		Recommendation:       parseRecommendation(text),
		Strategies:           parseStrategies(text),
		Reasoning:            parseSection(text, reasoningHeadings),
		VolatilityAssessment: parseSection(text, volatilityHeadings),
		RiskFactors:          parseSection(text, riskHeadings),
		PositionSizing:       parseSection(text, sizingHeadings),
		RawAnalysis:          text,
	}
}

func parseSentiment(text string) *int {
	v, _, ok := sentimentCascade.find(text)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func parseRecommendation(text string) models.Recommendation {
	v, _, ok := recommendationCascade.find(text)
	if !ok {
		return models.RecommendNeutral
	}
	return models.Recommendation(strings.Join(strings.Fields(strings.ToUpper(v)), " "))
}

// parseStrategies collects numbered items with a bold name. Details run until
// the next numbered item, a bold heading or a blank line.
func parseStrategies(text string) []models.Strategy {
	var (
		out     []models.Strategy
		current *models.Strategy
		details []string
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Details = strings.TrimSpace(strings.Join(details, " "))
		out = append(out, *current)
		current, details = nil, nil
	}

	for _, line := range strings.Split(text, "\n") {
		if m := strategyItem.FindStringSubmatch(line); m != nil {
			flush()
			name := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[1]), ":"))
			current = &models.Strategy{Name: name}
			if d := trimSeparator(m[2]); d != "" {
				details = append(details, d)
			}
			continue
		}
		if current == nil {
			continue
		}
		if strings.TrimSpace(line) == "" || numberedItem.MatchString(line) || boldHeading.MatchString(line) {
			flush()
			continue
		}
		details = append(details, strings.TrimSpace(line))
	}
	flush()
	return out
}

func trimSeparator(s string) string {
	s = strings.TrimSpace(s)
	for _, sep := range []string{"-", "–", "—", ":"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, sep))
	}
	return s
}

// parseSection returns the text after the first matching heading up to the
// next bold ALL-CAPS heading or the end of text.
func parseSection(text string, headings []*regexp.Regexp) string {
	for _, h := range headings {
		loc := h.FindStringIndex(text)
		if loc == nil {
			continue
		}
		rest := text[loc[1]:]
		if end := nextHeading.FindStringIndex(rest); end != nil {
			rest = rest[:end[0]]
		}
		return strings.TrimSpace(rest)
	}
	return ""
}
