package renderer

import (
	"fmt"
	"math"
	"strings"

	"truthguard/internal/analysis"
)

// Verdict is the band a credibility score falls into.
type Verdict struct {
	Label string
	Icon  string
}

// VerdictFor maps a 0-100 credibility score to a band.
func VerdictFor(score float64) Verdict {
	switch {
	case score < 40:
		return Verdict{Label: "Low credibility", Icon: "🔴"}
	case score < 70:
		return Verdict{Label: "Questionable", Icon: "🟡"}
	default:
		return Verdict{Label: "Credible", Icon: "🟢"}
	}
}

// ScoreBar draws score as ten cells.
func ScoreBar(score float64) string {
	filled := int(math.Round(clamp(score, 0, 100) / 10))
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

func RenderReport(input string, res *analysis.AnalysisResult) string {
	var sb strings.Builder

	sb.WriteString("# Analysis Report\n\n")
	if input != "" {
		sb.WriteString(fmt.Sprintf("> %s\n\n", oneLine(input, 200)))
	}
	if res == nil {
		sb.WriteString("_The service returned no result._\n")
		return sb.String()
	}

	score := clamp(res.CredibilityScore, 0, 100)
	v := VerdictFor(score)
	sb.WriteString(fmt.Sprintf("**Credibility: %s/100 %s %s**\n\n", formatNumber(score), v.Icon, v.Label))
	sb.WriteString(fmt.Sprintf("`%s`\n\n", ScoreBar(score)))
	if res.Type != "" {
		sb.WriteString(fmt.Sprintf("**Category:** %s\n\n", res.Type))
	}

	if strings.TrimSpace(res.Analysis) != "" {
		sb.WriteString("## Analysis\n\n")
		sb.WriteString(strings.TrimSpace(res.Analysis))
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Flags\n\n")
	if !res.Flags.Any() {
		sb.WriteString("- No flags raised ✅\n")
	}
	for _, f := range raisedFlags(res.Flags) {
		sb.WriteString(fmt.Sprintf("- ⚠️ %s\n", f))
	}
	sb.WriteString("\n")

	d := res.Details
	if d.Sentiment != "" || d.Confidence != 0 || len(d.KeyTerms) > 0 {
		sb.WriteString("## Details\n\n")
		if d.Sentiment != "" {
			sb.WriteString(fmt.Sprintf("- Sentiment: %s\n", d.Sentiment))
		}
		if d.Confidence != 0 {
			sb.WriteString(fmt.Sprintf("- Confidence: %s\n", formatConfidence(d.Confidence)))
		}
		if len(d.KeyTerms) > 0 {
			sb.WriteString(fmt.Sprintf("- Key terms: `%s`\n", strings.Join(d.KeyTerms, "`, `")))
		}
		sb.WriteString("\n")
	}

	if len(res.Sources) > 0 {
		sb.WriteString("## Sources\n\n")
		for _, src := range res.Sources {
			sb.WriteString(fmt.Sprintf("- %s\n", src))
		}
	}

	return sb.String()
}

// RenderError renders a failed analysis.
func RenderError(input string, msg string) string {
	var sb strings.Builder
	sb.WriteString("# Analysis Failed\n\n")
	if input != "" {
		sb.WriteString(fmt.Sprintf("> %s\n\n", oneLine(input, 200)))
	}
	sb.WriteString(fmt.Sprintf("❌ %s\n", msg))
	return sb.String()
}

func raisedFlags(f analysis.Flags) []string {
	var out []string
	if f.PotentialMisinformation {
		out = append(out, "Potential misinformation")
	}
	if f.NeedsFactChecking {
		out = append(out, "Needs fact-checking")
	}
	if f.BiasDetected {
		out = append(out, "Bias detected")
	}
	if f.ManipulatedContent {
		out = append(out, "Manipulated content")
	}
	return out
}

// formatConfidence accepts both 0-1 fractions and 0-100 percentages.
func formatConfidence(c float64) string {
	if c <= 1 {
		c *= 100
	}
	return formatNumber(clamp(c, 0, 100)) + "%"
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%d", int(f))
	}
	return fmt.Sprintf("%.1f", f)
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > max {
		return string(r[:max]) + "…"
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
