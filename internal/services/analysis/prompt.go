package analysis

import (
	"fmt"
	"strings"
	"text/template"

	"EarnScan/internal/domain/models"
	"EarnScan/internal/services/features"
	"EarnScan/pkg/util"
)

const subjectBlock = `STOCK: {{.Symbol}}
EARNINGS DATE: {{.Date}} ({{.Days}} days away{{if .Session}}, {{.Session}}{{end}})
CURRENT PRICE: {{.Price}}
EXPECTED MOVE: {{.ExpectedMove}}
IMPLIED VOLATILITY: {{.IV}}
HISTORICAL VOLATILITY: {{.HV}}
RSI (14): {{.RSI}}
QUALITY SCORE: {{.Quality}}/100`

const responseFormat = `**SENTIMENT SCORE:** <integer 1-10, 10 = most attractive setup>
**RECOMMENDATION:** <one of: STRONGLY CONSIDER | NEUTRAL | STAY AWAY>
**REASONING:** <2-4 sentences on why>
**STRATEGIES:**
1. **<Strategy Name>** - POP: <probability of profit>%, Risk: $<max loss per contract>, Entry: <when to enter>
2. **<Strategy Name>** - POP: <probability of profit>%, Risk: $<max loss per contract>, Entry: <when to enter>
**KEY RISKS:** <the main ways this trade loses money>`

var singleTmpl = template.Must(template.New("single").Parse(`You are an options strategist reviewing an upcoming earnings event.

MARKET CONTEXT: {{.Market}}

` + subjectBlock + `

Assess whether this event is worth trading with options. Reply using exactly this format and nothing else:

` + responseFormat + `
`))

var batchTmpl = template.Must(template.New("batch").Parse(`You are an options strategist reviewing {{len .Subjects}} upcoming earnings events.

MARKET CONTEXT: {{.Market}}
{{range .Subjects}}
` + subjectBlock + `
{{end}}
Assess each stock independently. For every stock, start its answer with a line containing only
=== SYMBOL === (for example "=== {{(index .Subjects 0).Symbol}} ==="), then reply using exactly this format:

` + responseFormat + `

Answer for all of: {{.SymbolList}}. Keep the same order and do not skip any stock.
`))

type subjectView struct {
	Symbol       string
	Date         string
	Days         int
	Session      string
	Price        string
	ExpectedMove string
	IV           string
	HV           string
	RSI          string
	Quality      int
}

type singleView struct {
	Market string
	subjectView
}

type batchView struct {
	Market     string
	Subjects   []subjectView
	SymbolList string
}

// PromptBuilder renders opportunities into model prompts. Output depends only
// on its inputs.
type PromptBuilder struct{}

// NewPromptBuilder creates a PromptBuilder.
func NewPromptBuilder() *PromptBuilder { return &PromptBuilder{} }

// Single renders the prompt for one opportunity.
func (b *PromptBuilder) Single(o models.Opportunity, mc models.MarketContext) (string, error) {
	var sb strings.Builder
	if err := singleTmpl.Execute(&sb, singleView{Market: describeMarket(mc), subjectView: view(o)}); err != nil {
		return "", fmt.Errorf("render single prompt %s: %w", o.Symbol, err)
	}
	return sb.String(), nil
}

// Batch renders one prompt covering every opportunity, each answer delimited
// by an "=== SYMBOL ===" line.
func (b *PromptBuilder) Batch(opps []models.Opportunity, mc models.MarketContext) (string, error) {
	if len(opps) == 0 {
		return "", fmt.Errorf("render batch prompt: no opportunities")
	}

	v := batchView{Market: describeMarket(mc), Subjects: make([]subjectView, len(opps))}
	syms := make([]string, len(opps))
	for i, o := range opps {
		v.Subjects[i] = view(o)
		syms[i] = o.Symbol
	}
	v.SymbolList = strings.Join(syms, ", ")

	var sb strings.Builder
	if err := batchTmpl.Execute(&sb, v); err != nil {
		return "", fmt.Errorf("render batch prompt: %w", err)
	}
	return sb.String(), nil
}

func view(o models.Opportunity) subjectView {
	v := subjectView{
		Symbol:       o.Symbol,
		Date:         util.FormatDate(o.Date),
		Days:         o.DaysToEarnings,
		Session:      describeSession(o.Hour),
		Price:        "n/a",
		ExpectedMove: "n/a",
		IV:           "n/a",
		HV:           "n/a",
		RSI:          "n/a",
		Quality:      o.QualityScore,
	}

	vol := o.Volatility
	if vol == nil {
		return v
	}
	if vol.CurrentPrice > 0 {
		v.Price = fmt.Sprintf("$%.2f", vol.CurrentPrice)
		move := features.ExpectedMove(vol, o.DaysToEarnings)
		v.ExpectedMove = fmt.Sprintf("±%.1f%% (±$%.2f)", features.ExpectedMovePct(vol, o.DaysToEarnings), move)
	}
	v.IV = fmt.Sprintf("%.1f%%", vol.ImpliedVolatility)
	if vol.HistoricalVolatility > 0 {
		v.HV = fmt.Sprintf("%.1f%% (IV/HV %.2f)", vol.HistoricalVolatility, features.IVHVRatio(vol))
	}
	if vol.RSI != nil {
		v.RSI = fmt.Sprintf("%.1f", *vol.RSI)
	}
	return v
}

func describeSession(s models.Session) string {
	switch s {
	case models.SessionAfterClose:
		return "after market close"
	case models.SessionBeforeOpen:
		return "before market open"
	default:
		return ""
	}
}

func describeMarket(mc models.MarketContext) string {
	if mc.VIX == nil {
		return mc.Regime.Description()
	}
	return fmt.Sprintf("%s, VIX %.2f", mc.Regime.Description(), *mc.VIX)
}
