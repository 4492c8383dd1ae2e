package analysis

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// User-facing messages stored in State.Error.
const (
	MsgInvalidResponse  = "Server returned invalid response. Please try again."
	MsgEmptyResponse    = "Empty response from server"
	MsgVideoUnsupported = "Video analysis is not yet implemented"
	MsgFailed           = "Analysis failed"
)

// State is a snapshot of a Session. Result and Error are never both set.
type State struct {
	Analyzing bool
	Result    *AnalysisResult
	Error     string
	// RequestID identifies the request that last wrote this state.
	RequestID uint64
}

// Outcome is handed to the completion hook once per request that committed.
type Outcome struct {
	RequestID uint64
	Kind      Kind
	Input     string
	Result    *AnalysisResult
	Err       string
}

type Option func(*Session)

// WithCompletionHook registers fn to run after a request commits its outcome.
// Superseded and cancelled requests never reach it.
func WithCompletionHook(fn func(Outcome)) Option {
	return func(s *Session) { s.onComplete = fn }
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log.WithField("component", "session")
		}
	}
}

// Session tracks the analyzing/result/error state of submissions for a UI.
//
// Every submission gets a new request id and cancels the one before it. Only
// the request whose id is current may commit, so a slow superseded call can
// never overwrite the state of a newer one.
type Session struct {
	analyzer Analyzer
	log      *logrus.Entry

	mu        sync.Mutex
	state     State
	seq       uint64
	current   uint64
	cancel    context.CancelFunc
	observers map[int]func(State)
	nextObs   int

	// ticket numbers notifications in commit order; it is guarded by mu.
	// delivered is the last ticket handed to observers, guarded by notifyMu.
	ticket     uint64
	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	delivered  uint64
	onComplete func(Outcome)
}

func NewSession(analyzer Analyzer, opts ...Option) *Session {
	l := logrus.New()
	l.SetOutput(io.Discard)
	s := &Session{
		analyzer:  analyzer,
		log:       logrus.NewEntry(l),
		observers: make(map[int]func(State)),
	}
	s.notifyCond = sync.NewCond(&s.notifyMu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to receive a snapshot after every state change.
// Snapshots arrive in commit order. fn may read State but must not call
// Session methods that change state.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Session) SubmitText(ctx context.Context, text string) State {
	return s.run(ctx, KindText, text, func(ctx context.Context) (*AnalysisResult, error) {
		return s.analyzer.AnalyzeText(ctx, text)
	})
}

func (s *Session) SubmitURL(ctx context.Context, url string) State {
	return s.run(ctx, KindURL, url, func(ctx context.Context) (*AnalysisResult, error) {
		return s.analyzer.AnalyzeURL(ctx, url)
	})
}

func (s *Session) SubmitImage(ctx context.Context, name string, r io.Reader) State {
	return s.run(ctx, KindImage, name, func(ctx context.Context) (*AnalysisResult, error) {
		return s.analyzer.AnalyzeImage(ctx, name, r)
	})
}

// SubmitVideo never touches the network: video analysis is not supported
// yet, so it supersedes any pending request and reports that.
func (s *Session) SubmitVideo(ctx context.Context, name string, r io.Reader) State {
	s.mu.Lock()
	s.stopLocked()
	s.seq++
	id := s.seq
	s.current = 0
	s.state = State{Error: MsgVideoUnsupported, RequestID: id}
	snap := s.unlockAndNotify()

	s.complete(Outcome{RequestID: id, Kind: KindVideo, Input: name, Err: MsgVideoUnsupported})
	return snap
}

// Reset clears result and error. A running request keeps running.
func (s *Session) Reset() {
	s.mu.Lock()
	s.state.Result = nil
	s.state.Error = ""
	s.unlockAndNotify()
}

// Cancel aborts the in-flight request, if any, and clears the analyzing flag.
// The aborted request's outcome is discarded.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.current == 0 {
		s.mu.Unlock()
		return
	}
	s.log.WithField("request_id", s.current).Debug("cancelling request")
	s.stopLocked()
	s.current = 0
	s.state = State{RequestID: s.state.RequestID}
	s.unlockAndNotify()
}

func (s *Session) run(ctx context.Context, kind Kind, input string, call func(context.Context) (*AnalysisResult, error)) State {
	id, reqCtx := s.begin(ctx)
	log := s.log.WithFields(logrus.Fields{"request_id": id, "kind": kind})
	log.Debug("request started")

	out := Outcome{RequestID: id, Kind: kind, Input: input}
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("analysis panicked")
				out.Result = nil
				out.Err = MsgFailed
			}
		}()
		res, err := call(reqCtx)
		if err != nil {
			log.WithError(err).Warn("analysis failed")
			out.Err = errorMessage(kind, err)
			return
		}
		out.Result = res
	}()

	return s.finish(out)
}

func (s *Session) begin(parent context.Context) (uint64, context.Context) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	s.stopLocked()
	s.seq++
	id := s.seq
	s.current = id
	s.cancel = cancel
	s.state = State{Analyzing: true, RequestID: id}
	s.unlockAndNotify()
	return id, ctx
}

func (s *Session) finish(out Outcome) State {
	s.mu.Lock()
	if out.RequestID != s.current {
		s.log.WithField("request_id", out.RequestID).Debug("discarding superseded outcome")
		snap := s.state
		s.mu.Unlock()
		return snap
	}
	s.stopLocked()
	s.current = 0
	s.state = State{Result: out.Result, Error: out.Err, RequestID: out.RequestID}
	snap := s.unlockAndNotify()

	s.complete(out)
	return snap
}

func (s *Session) complete(out Outcome) {
	if s.onComplete != nil {
		s.onComplete(out)
	}
}

// stopLocked cancels the context of the in-flight request. s.mu must be held.
func (s *Session) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// unlockAndNotify releases s.mu and delivers the snapshot taken under it.
// Observers run with no lock held; the ticket taken under s.mu makes each
// delivery wait for the ones committed before it.
func (s *Session) unlockAndNotify() State {
	snap := s.state
	observers := make([]func(State), 0, len(s.observers))
	for i := 0; i < s.nextObs; i++ {
		if fn, ok := s.observers[i]; ok {
			observers = append(observers, fn)
		}
	}
	s.ticket++
	ticket := s.ticket
	s.mu.Unlock()

	s.notifyMu.Lock()
	for s.delivered != ticket-1 {
		s.notifyCond.Wait()
	}
	s.notifyMu.Unlock()

	defer func() {
		s.notifyMu.Lock()
		s.delivered = ticket
		s.notifyCond.Broadcast()
		s.notifyMu.Unlock()
	}()
	for _, fn := range observers {
		fn(snap)
	}
	return snap
}

func errorMessage(kind Kind, err error) string {
	var decodeErr *DecodeError
	switch {
	case errors.As(err, &decodeErr) && kind == KindText:
		return MsgInvalidResponse
	case errors.Is(err, ErrEmptyResponse):
		return MsgEmptyResponse
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgFailed
}
