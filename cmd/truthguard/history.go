package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"truthguard/internal/analysis"
	"truthguard/internal/storage"
)

func runHistory(opts options, w io.Writer) error {
	switch {
	case opts.clearHistory:
		if err := storage.ClearHistory(); err != nil {
			return err
		}
		fmt.Fprintln(w, "History cleared.")
	case opts.deleteID != "":
		rec, err := storage.LoadAnalysis(opts.deleteID)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("no analysis with id %s", opts.deleteID)
		}
		if err := storage.DeleteAnalysis(opts.deleteID); err != nil {
			return err
		}
		fmt.Fprintf(w, "Deleted %s\n", opts.deleteID)
	case opts.show != "":
		rec, err := storage.LoadAnalysis(opts.show)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("no analysis with id %s", opts.show)
		}
		return showRecord(w, rec, opts)
	default:
		recs, err := storage.ListAnalyses(opts.history)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Fprintln(w, "No analyses recorded yet.")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tWHEN\tKIND\tSCORE\tINPUT")
		for _, r := range recs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Kind, score(r), clip(r.Input, 48))
		}
		return tw.Flush()
	}
	return nil
}

func showRecord(w io.Writer, rec *storage.Record, opts options) error {
	st := analysis.State{Result: rec.Result, Error: rec.Error}
	if opts.json {
		return writeJSON(w, st)
	}
	markdown := reportMarkdown(rec.Input, st)
	if opts.raw {
		_, err := io.WriteString(w, markdown)
		return err
	}
	_, err := io.WriteString(w, renderTerminal(markdown))
	return err
}

func score(r storage.Record) string {
	switch {
	case r.Error != "":
		return "error"
	case r.Result == nil:
		return "-"
	}
	return fmt.Sprintf("%.0f", r.Result.CredibilityScore)
}

func clip(s string, n int) string {
	runes := []rune(strings.Join(strings.Fields(s), " "))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n-1]) + "…"
}
