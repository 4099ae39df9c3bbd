package quiz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trabalho-quiz/internal/catalog"
)

const (
	defaultQuestionSeconds = 20
	defaultTickInterval    = time.Second
	defaultSaveTimeout     = 5 * time.Second
)

// Options configures a Session.
type Options struct {
	QuestionSeconds int
	TickInterval    time.Duration
	SaveTimeout     time.Duration
	Clock           Clock
	// Listener receives events in transition order. It must not call back
	// into the session synchronously.
	Listener func(Event)
}

// Session drives one player through a category: countdown per question,
// answer recording, scoring and a single best-effort save on finish.
//
// All intents are safe for concurrent use and return whether they were
// applied. Guard violations change nothing.
type Session struct {
	mu     sync.Mutex
	emitMu sync.Mutex

	userID          int64
	saver           ResultSaver
	clock           Clock
	listener        func(Event)
	logger          zerolog.Logger
	questionSeconds int
	tickInterval    time.Duration
	saveTimeout     time.Duration

	phase     Phase
	category  catalog.Category
	index     int
	answers   map[int]Answer
	remaining int
	startedAt time.Time
	result    *Result
	timer     *countdown
	gen       uint64
	saved     chan struct{}
	closed    bool
}

// NewSession creates a session in the category selection phase. saver may be nil.
func NewSession(userID int64, saver ResultSaver, opts Options, logger zerolog.Logger) *Session {
	if opts.QuestionSeconds <= 0 {
		opts.QuestionSeconds = defaultQuestionSeconds
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = defaultSaveTimeout
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}

	return &Session{
		userID:          userID,
		saver:           saver,
		clock:           opts.Clock,
		listener:        opts.Listener,
		logger:          logger.With().Str("component", "quiz_session").Int64("user_id", userID).Logger(),
		questionSeconds: opts.QuestionSeconds,
		tickInterval:    opts.TickInterval,
		saveTimeout:     opts.SaveTimeout,
		phase:           PhaseSelectingCategory,
	}
}

// SelectCategory starts the quiz at the first question of cat.
func (s *Session) SelectCategory(cat catalog.Category) bool {
	s.mu.Lock()
	if s.closed || s.phase != PhaseSelectingCategory || len(cat.Questions) == 0 {
		s.mu.Unlock()
		return false
	}
	s.beginLocked(cat)
	s.commitLocked(EventState)
	return true
}

// SelectAnswer records option for the current question while its countdown runs.
func (s *Session) SelectAnswer(option int) bool {
	s.mu.Lock()
	if s.closed || s.phase != PhaseAwaitingAnswer || s.answers[s.index].Filled() {
		s.mu.Unlock()
		return false
	}
	q := s.category.Questions[s.index]
	if option < 0 || option >= len(q.Options) {
		s.mu.Unlock()
		return false
	}

	s.answers[s.index] = Answered(option)
	s.stopCountdownLocked()
	s.phase = PhaseAnswerRevealed
	if q.IsCorrect(option) {
		answersRecorded.WithLabelValues(OutcomeCorrect.String()).Inc()
	} else {
		answersRecorded.WithLabelValues(OutcomeIncorrect.String()).Inc()
	}
	s.commitLocked(EventState)
	return true
}

// Advance moves past a revealed or timed-out question, finishing after the last.
func (s *Session) Advance() bool {
	s.mu.Lock()
	if s.closed || (s.phase != PhaseAnswerRevealed && s.phase != PhaseTimedOut) {
		s.mu.Unlock()
		return false
	}

	if s.index < len(s.category.Questions)-1 {
		s.index++
		s.enterQuestionLocked()
		s.commitLocked(EventState)
		return true
	}

	s.finishLocked()
	s.commitLocked(EventFinished)
	return true
}

// Abandon discards the attempt and returns to category selection.
func (s *Session) Abandon() bool {
	s.mu.Lock()
	if s.closed || s.phase == PhaseSelectingCategory {
		s.mu.Unlock()
		return false
	}
	s.stopCountdownLocked()
	s.resetLocked()
	s.commitLocked(EventState)
	return true
}

// Retry restarts the finished category from its first question.
func (s *Session) Retry() bool {
	s.mu.Lock()
	if s.closed || s.phase != PhaseFinished {
		s.mu.Unlock()
		return false
	}
	s.beginLocked(s.category)
	s.commitLocked(EventState)
	return true
}

// Close releases the countdown. Every later intent is ignored. An in-flight
// save is not interrupted.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopCountdownLocked()
	s.closed = true
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Saved is closed once the most recent finish has attempted its save. It is
// nil before the first finish.
func (s *Session) Saved() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

func (s *Session) beginLocked(cat catalog.Category) {
	s.category = cat
	s.index = 0
	s.answers = make(map[int]Answer, len(cat.Questions))
	s.result = nil
	s.startedAt = s.clock.Now()
	s.enterQuestionLocked()
	sessionsStarted.Inc()
}

// enterQuestionLocked makes s.index current. The countdown starts only for an
// empty slot; a filled slot keeps its terminal phase.
func (s *Session) enterQuestionLocked() {
	switch s.answers[s.index].Kind() {
	case AnswerChosen:
		s.phase = PhaseAnswerRevealed
		return
	case AnswerTimedOut:
		s.phase = PhaseTimedOut
		return
	}
	s.phase = PhaseAwaitingAnswer
	s.startCountdownLocked()
}

func (s *Session) resetLocked() {
	s.phase = PhaseSelectingCategory
	s.category = catalog.Category{}
	s.index = 0
	s.answers = nil
	s.remaining = 0
	s.result = nil
}

func (s *Session) startCountdownLocked() {
	s.stopCountdownLocked()
	s.gen++
	s.remaining = s.questionSeconds
	s.timer = startCountdown(s.clock.NewTicker(s.tickInterval), s.gen, s.onTick)
}

func (s *Session) stopCountdownLocked() {
	if s.timer != nil {
		s.timer.cancel()
		s.timer = nil
	}
}

func (s *Session) onTick(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen || s.phase != PhaseAwaitingAnswer {
		s.mu.Unlock()
		return
	}

	if s.remaining > 1 {
		s.remaining--
		s.commitLocked(EventTick)
		return
	}

	s.remaining = 0
	s.answers[s.index] = TimedOut()
	s.stopCountdownLocked()
	s.phase = PhaseTimedOut
	answersRecorded.WithLabelValues(OutcomeTimedOut.String()).Inc()
	s.commitLocked(EventState)
}

func (s *Session) finishLocked() {
	res := computeResult(s.category.Questions, s.answers, s.clock.Now().Sub(s.startedAt))
	s.result = &res
	s.phase = PhaseFinished
	s.remaining = 0
	sessionsFinished.Inc()

	done := make(chan struct{})
	s.saved = done
	go s.save(Submission{
		UserID:         s.userID,
		CategoryID:     s.category.ID,
		CategoryName:   s.category.Title,
		Score:          res.Score,
		TotalQuestions: res.Total,
		TimeSpent:      res.TimeSpentSeconds(),
	}, done)
}

// save makes the single persistence attempt for a finished run. Failures are
// logged and dropped; the local result stays authoritative.
func (s *Session) save(sub Submission, done chan struct{}) {
	defer close(done)
	if s.saver == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("saver panic: %v", r)
			}
		}()
		return s.saver.Save(ctx, sub)
	}()
	if err != nil {
		saveFailures.Inc()
		s.logger.Warn().Err(err).
			Str("category_id", sub.CategoryID).
			Int("score", sub.Score).
			Msg("quiz result save failed")
		return
	}

	s.logger.Debug().
		Str("category_id", sub.CategoryID).
		Int("score", sub.Score).
		Int("total", sub.TotalQuestions).
		Msg("quiz result saved")
}

// commitLocked snapshots the state, releases s.mu and notifies the listener.
// emitMu is taken before s.mu is released so listeners observe transitions
// in the order they happened.
func (s *Session) commitLocked(typ EventType) {
	evt := Event{Type: typ, State: s.snapshotLocked()}
	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()
	if s.listener != nil {
		s.listener(evt)
	}
}

func (s *Session) snapshotLocked() State {
	st := State{
		Phase:         s.phase,
		CategoryID:    s.category.ID,
		CategoryTitle: s.category.Title,
		QuestionIndex: s.index,
		TimeRemaining: s.remaining,
	}
	if s.phase == PhaseSelectingCategory {
		return st
	}

	st.TotalQuestions = len(s.category.Questions)
	st.Answers = make(map[int]Answer, len(s.answers))
	for k, v := range s.answers {
		st.Answers[k] = v
	}
	if s.phase != PhaseFinished {
		q := s.category.Questions[s.index]
		st.Question = &q
		st.Current = s.answers[s.index]
	}
	if s.result != nil {
		res := *s.result
		res.Outcomes = append([]Outcome(nil), s.result.Outcomes...)
		st.Result = &res
	}
	return st
}
