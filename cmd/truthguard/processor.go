package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/sirupsen/logrus"

	"truthguard/internal/analysis"
	"truthguard/internal/config"
	"truthguard/internal/renderer"
	"truthguard/internal/slack"
)

// Submission is one payload named on the command line.
type Submission struct {
	Kind  analysis.Kind
	Value string
}

// Processor runs a single submission end to end and prints the report.
type Processor struct {
	Config  *config.Config
	Session *analysis.Session
	Out     io.Writer
	Log     *logrus.Entry

	Raw   bool
	JSON  bool
	Share bool

	// Slack overrides the client built from Config, mainly for tests.
	Slack *slack.Client
}

// Run submits sub and reports whether the analysis produced a result.
func (p *Processor) Run(ctx context.Context, sub Submission) bool {
	st, err := p.submit(ctx, sub)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	markdown := reportMarkdown(sub.Value, st)
	if err := p.print(st, markdown); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		return false
	}

	if p.Share && st.Result != nil {
		if err := p.slackClient().SendMarkdown(ctx, markdown); err != nil {
			p.Log.WithError(err).Warn("slack share failed")
			fmt.Fprintf(os.Stderr, "Error sharing to Slack: %v\n", err)
		} else {
			p.Log.Info("report shared to Slack")
		}
	}
	return st.Error == ""
}

func (p *Processor) submit(ctx context.Context, sub Submission) (analysis.State, error) {
	p.Log.WithFields(logrus.Fields{"kind": sub.Kind, "input": sub.Value}).Debug("submitting")

	switch sub.Kind {
	case analysis.KindText:
		return p.Session.SubmitText(ctx, sub.Value), nil
	case analysis.KindURL:
		return p.Session.SubmitURL(ctx, sub.Value), nil
	case analysis.KindImage, analysis.KindVideo:
		f, err := os.Open(sub.Value)
		if err != nil {
			return analysis.State{}, fmt.Errorf("open %s: %w", sub.Value, err)
		}
		defer f.Close()
		name := filepath.Base(sub.Value)
		if sub.Kind == analysis.KindImage {
			return p.Session.SubmitImage(ctx, name, f), nil
		}
		return p.Session.SubmitVideo(ctx, name, f), nil
	}
	return analysis.State{}, fmt.Errorf("unknown submission kind %q", sub.Kind)
}

func (p *Processor) print(st analysis.State, markdown string) error {
	switch {
	case p.JSON:
		return writeJSON(p.Out, st)
	case p.Raw:
		_, err := io.WriteString(p.Out, markdown)
		return err
	default:
		_, err := io.WriteString(p.Out, renderTerminal(markdown))
		return err
	}
}

func (p *Processor) slackClient() *slack.Client {
	if p.Slack != nil {
		return p.Slack
	}
	return slack.NewClient(p.Config.Slack, nil)
}

func reportMarkdown(input string, st analysis.State) string {
	if st.Error != "" {
		return renderer.RenderError(input, st.Error)
	}
	return renderer.RenderReport(input, st.Result)
}

// writeJSON prints the result, or an {"error": ...} object for failures.
func writeJSON(w io.Writer, st analysis.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if st.Error != "" {
		return enc.Encode(map[string]string{"error": st.Error})
	}
	return enc.Encode(map[string]any{"result": st.Result})
}

func renderTerminal(markdown string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimLeft(out, "\n")
}
