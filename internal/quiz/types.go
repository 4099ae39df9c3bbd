package quiz

import (
	"context"
	"time"

	"github.com/gokatarajesh/trabalho-quiz/internal/catalog"
)

// Phase is the session's position in the quiz flow.
type Phase int

const (
	PhaseSelectingCategory Phase = iota
	PhaseAwaitingAnswer
	PhaseAnswerRevealed
	PhaseTimedOut
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseSelectingCategory:
		return "selecting_category"
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseAnswerRevealed:
		return "answer_revealed"
	case PhaseTimedOut:
		return "timed_out"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase name in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// AnswerKind tags the Answer variant.
type AnswerKind int

const (
	AnswerUnanswered AnswerKind = iota
	AnswerChosen
	AnswerTimedOut
)

// Answer is the recorded value of one question slot. The zero value is unanswered.
type Answer struct {
	kind   AnswerKind
	option int
}

// Answered records a chosen option.
func Answered(option int) Answer {
	return Answer{kind: AnswerChosen, option: option}
}

// TimedOut records an expired countdown.
func TimedOut() Answer {
	return Answer{kind: AnswerTimedOut}
}

func (a Answer) Kind() AnswerKind { return a.kind }

// Option returns the chosen option and true only for the Answered variant.
func (a Answer) Option() (int, bool) {
	return a.option, a.kind == AnswerChosen
}

// Filled reports whether the slot is final.
func (a Answer) Filled() bool {
	return a.kind != AnswerUnanswered
}

// Outcome classifies a question once the session is finished.
type Outcome int

const (
	OutcomeIncorrect Outcome = iota
	OutcomeCorrect
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "incorrect"
	}
}

// MarshalText renders the outcome name in JSON payloads.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result is computed once when the session finishes.
type Result struct {
	Score     int           `json:"score"`
	Total     int           `json:"total"`
	Outcomes  []Outcome     `json:"outcomes"`
	TimeSpent time.Duration `json:"-"`
}

// TimeSpentSeconds is the elapsed quiz time truncated to whole seconds.
func (r Result) TimeSpentSeconds() int {
	return int(r.TimeSpent / time.Second)
}

func computeResult(questions []catalog.Question, answers map[int]Answer, spent time.Duration) Result {
	res := Result{
		Total:     len(questions),
		Outcomes:  make([]Outcome, len(questions)),
		TimeSpent: spent,
	}
	for i, q := range questions {
		a := answers[i]
		switch a.Kind() {
		case AnswerTimedOut:
			res.Outcomes[i] = OutcomeTimedOut
		case AnswerChosen:
			if opt, _ := a.Option(); q.IsCorrect(opt) {
				res.Outcomes[i] = OutcomeCorrect
				res.Score++
			}
		}
	}
	return res
}

// Submission is the payload handed to a ResultSaver on finish.
type Submission struct {
	UserID         int64  `json:"userId"`
	CategoryID     string `json:"categoryId"`
	CategoryName   string `json:"categoryName"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	TimeSpent      int    `json:"timeSpent"`
}

// ResultSaver persists finished attempts.
type ResultSaver interface {
	Save(ctx context.Context, sub Submission) error
}

// SaverFunc adapts a function to ResultSaver.
type SaverFunc func(ctx context.Context, sub Submission) error

func (f SaverFunc) Save(ctx context.Context, sub Submission) error {
	return f(ctx, sub)
}

// EventType distinguishes session notifications.
type EventType string

const (
	EventState    EventType = "state"
	EventTick     EventType = "tick"
	EventFinished EventType = "finished"
)

// Event carries a state snapshot taken right after a transition.
type Event struct {
	Type  EventType
	State State
}

// State is an immutable snapshot of the session.
type State struct {
	Phase          Phase
	CategoryID     string
	CategoryTitle  string
	QuestionIndex  int
	TotalQuestions int
	Question       *catalog.Question
	Current        Answer
	TimeRemaining  int
	Answers        map[int]Answer
	Result         *Result
}
