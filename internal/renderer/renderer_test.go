package renderer

import (
	"strings"
	"testing"

	"truthguard/internal/analysis"
)

func TestVerdictFor(t *testing.T) {
	tests := []struct {
		score float64
		label string
	}{
		{0, "Low credibility"},
		{39.9, "Low credibility"},
		{40, "Questionable"},
		{69, "Questionable"},
		{70, "Credible"},
		{100, "Credible"},
	}
	for _, tc := range tests {
		if got := VerdictFor(tc.score).Label; got != tc.label {
			t.Errorf("VerdictFor(%v) = %q, want %q", tc.score, got, tc.label)
		}
	}
}

func TestScoreBarClamps(t *testing.T) {
	if got := ScoreBar(150); got != strings.Repeat("█", 10) {
		t.Fatalf("expected full bar, got %q", got)
	}
	if got := ScoreBar(-5); got != strings.Repeat("░", 10) {
		t.Fatalf("expected empty bar, got %q", got)
	}
	if got := ScoreBar(72); got != strings.Repeat("█", 7)+strings.Repeat("░", 3) {
		t.Fatalf("unexpected bar %q", got)
	}
}

func TestRenderReport(t *testing.T) {
	res := &analysis.AnalysisResult{
		Type:             "news",
		CredibilityScore: 35,
		Analysis:         "Numbers do not match the official count.",
		Flags:            analysis.Flags{PotentialMisinformation: true, BiasDetected: true},
		Sources:          []string{"https://example.org/count"},
		Details:          analysis.Details{Sentiment: "negative", Confidence: 0.85, KeyTerms: []string{"turnout", "fraud"}},
	}
	out := RenderReport("Turnout   was\n98%", res)

	for _, want := range []string{
		"> Turnout was 98%",
		"Credibility: 35/100 🔴 Low credibility",
		"**Category:** news",
		"Numbers do not match",
		"Potential misinformation",
		"Bias detected",
		"Confidence: 85%",
		"`turnout`, `fraud`",
		"- https://example.org/count",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Manipulated content") {
		t.Error("unraised flag should not be listed")
	}
}

func TestRenderReportWithoutFlagsOrResult(t *testing.T) {
	out := RenderReport("", &analysis.AnalysisResult{CredibilityScore: 90})
	if !strings.Contains(out, "No flags raised") {
		t.Fatalf("expected no-flags line:\n%s", out)
	}
	if strings.Contains(out, "## Details") || strings.Contains(out, "## Sources") {
		t.Fatalf("empty sections should be omitted:\n%s", out)
	}

	empty := RenderReport("x", nil)
	if !strings.Contains(empty, "no result") {
		t.Fatalf("expected no-result notice:\n%s", empty)
	}
}

func TestRenderError(t *testing.T) {
	out := RenderError("https://x", "HTTP 500: server exploded")
	if !strings.Contains(out, "Analysis Failed") || !strings.Contains(out, "HTTP 500: server exploded") {
		t.Fatalf("unexpected error report:\n%s", out)
	}
}
