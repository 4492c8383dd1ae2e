package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"truthguard/internal/analysis"
	"truthguard/internal/config"
	"truthguard/internal/logging"
	"truthguard/internal/storage"
	"truthguard/internal/tui"
)

type options struct {
	text  string
	url   string
	image string
	video string

	raw   bool
	json  bool
	share bool

	history      int
	show         string
	deleteID     string
	clearHistory bool

	tui     bool
	install bool
	debug   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.text, "text", "", "Analyze a piece of text")
	flag.StringVar(&opts.url, "url", "", "Analyze the page at a URL")
	flag.StringVar(&opts.image, "image", "", "Analyze an image file")
	flag.StringVar(&opts.video, "video", "", "Analyze a video file (not supported yet)")
	flag.BoolVar(&opts.raw, "raw", false, "Print the report as plain markdown")
	flag.BoolVar(&opts.json, "json", false, "Print the raw result as JSON")
	flag.BoolVar(&opts.share, "share", false, "Post the report to Slack after a successful analysis")
	flag.IntVar(&opts.history, "history", 0, "List the last N analyses")
	flag.StringVar(&opts.show, "show", "", "Show a stored analysis by id")
	flag.StringVar(&opts.deleteID, "delete", "", "Delete a stored analysis by id")
	flag.BoolVar(&opts.clearHistory, "clear-history", false, "Delete all stored analyses")
	flag.BoolVar(&opts.tui, "tui", false, "Start the interactive terminal UI")
	flag.BoolVar(&opts.install, "install", false, "Write a starter config to ~/.truthguard")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if opts.install {
		if err := runInstall(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}

	sub, hasSubmission := opts.submission()
	interactive := opts.tui || (!hasSubmission && !opts.historyCommand())

	// 2. Logging; the UI owns the terminal so logs go to a file or nowhere
	log, closer, err := logging.Setup(cfg.Log, interactive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	storage.SetPath(cfg.History.DBPath)

	if opts.historyCommand() {
		if err := runHistory(opts, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fail(closer)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Session wired to the analysis service and history
	session := newSession(cfg, log)

	if interactive {
		title := fmt.Sprintf("truthguard • %s", cfg.API.BaseURL)
		if err := tui.Run(ctx, session, title); err != nil {
			fmt.Fprintf(os.Stderr, "Error running UI: %v\n", err)
			fail(closer)
		}
		return
	}

	p := &Processor{
		Config:  cfg,
		Session: session,
		Out:     os.Stdout,
		Log:     log.WithField("component", "cli"),
		Raw:     opts.raw,
		JSON:    opts.json,
		Share:   opts.share,
	}
	if ok := p.Run(ctx, sub); !ok {
		stop()
		fail(closer)
	}
}

func newSession(cfg *config.Config, log *logrus.Logger) *analysis.Session {
	client := analysis.NewClient(analysis.ClientOptions{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logrus.NewEntry(log),
	})

	sessionOpts := []analysis.Option{analysis.WithLogger(logrus.NewEntry(log))}
	if cfg.History.Enabled {
		histLog := log.WithField("component", "history")
		sessionOpts = append(sessionOpts, analysis.WithCompletionHook(func(o analysis.Outcome) {
			id, err := storage.SaveAnalysis(storage.RecordFromOutcome(o))
			if err != nil {
				histLog.WithError(err).Warn("failed to save analysis")
				return
			}
			histLog.WithField("id", id).Debug("analysis saved")
		}))
	}
	return analysis.NewSession(client, sessionOpts...)
}

func (o options) submission() (Submission, bool) {
	switch {
	case o.text != "":
		return Submission{Kind: analysis.KindText, Value: o.text}, true
	case o.url != "":
		return Submission{Kind: analysis.KindURL, Value: o.url}, true
	case o.image != "":
		return Submission{Kind: analysis.KindImage, Value: o.image}, true
	case o.video != "":
		return Submission{Kind: analysis.KindVideo, Value: o.video}, true
	}
	return Submission{}, false
}

func (o options) historyCommand() bool {
	return o.history > 0 || o.show != "" || o.deleteID != "" || o.clearHistory
}

var exit = os.Exit

// fail closes the log sink before exiting, since os.Exit skips deferred calls.
func fail(closer io.Closer) {
	_ = closer.Close()
	exit(1)
}
