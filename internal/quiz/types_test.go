package quiz

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trabalho-quiz/internal/catalog"
)

func TestAnswerVariants(t *testing.T) {
	var zero Answer
	assert.Equal(t, AnswerUnanswered, zero.Kind())
	assert.False(t, zero.Filled())
	_, ok := zero.Option()
	assert.False(t, ok)

	a := Answered(0)
	opt, ok := a.Option()
	assert.True(t, ok)
	assert.Equal(t, 0, opt)
	assert.True(t, a.Filled())

	to := TimedOut()
	assert.Equal(t, AnswerTimedOut, to.Kind())
	assert.True(t, to.Filled())
	_, ok = to.Option()
	assert.False(t, ok)
}

func TestComputeResult(t *testing.T) {
	questions := []catalog.Question{
		{Options: []string{"a", "b"}, CorrectOption: 0},
		{Options: []string{"a", "b"}, CorrectOption: 1},
		{Options: []string{"a", "b"}, CorrectOption: 1},
		{Options: []string{"a", "b"}, CorrectOption: 0},
	}
	answers := map[int]Answer{
		0: Answered(0),
		1: Answered(0),
		2: TimedOut(),
	}

	res := computeResult(questions, answers, 61500*time.Millisecond)

	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, []Outcome{OutcomeCorrect, OutcomeIncorrect, OutcomeTimedOut, OutcomeIncorrect}, res.Outcomes)
	assert.Equal(t, 61, res.TimeSpentSeconds())
}

func TestPhaseAndOutcomeJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Phase    Phase     `json:"phase"`
		Outcomes []Outcome `json:"outcomes"`
	}{PhaseTimedOut, []Outcome{OutcomeCorrect, OutcomeTimedOut}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"phase":"timed_out","outcomes":["correct","timed_out"]}`, string(data))
}
