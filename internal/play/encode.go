package play

import (
	"github.com/gokatarajesh/trabalho-quiz/internal/quiz"
	ws "github.com/gokatarajesh/trabalho-quiz/pkg/http/ws"
)

func encodeEvent(evt quiz.Event) (ws.Message, error) {
	switch evt.Type {
	case quiz.EventTick:
		return ws.NewMessage(ws.TypeTick, ws.TickPayload{
			QuestionIndex: evt.State.QuestionIndex,
			Remaining:     evt.State.TimeRemaining,
		})
	case quiz.EventFinished:
		if evt.State.Result != nil {
			return ws.NewMessage(ws.TypeFinished, finishedPayload(*evt.State.Result))
		}
	}
	return ws.NewMessage(ws.TypeState, statePayload(evt.State))
}

func statePayload(st quiz.State) ws.StatePayload {
	p := ws.StatePayload{
		Phase:          st.Phase.String(),
		CategoryID:     st.CategoryID,
		CategoryTitle:  st.CategoryTitle,
		QuestionIndex:  st.QuestionIndex,
		TotalQuestions: st.TotalQuestions,
		TimeRemaining:  st.TimeRemaining,
		Answer:         answerView(st.Current),
	}
	if st.Question != nil {
		q := &ws.QuestionView{
			ID:      st.Question.ID,
			Text:    st.Question.Text,
			Options: st.Question.Options,
		}
		// Correct option stays hidden until the slot is filled.
		if st.Current.Filled() {
			correct := st.Question.CorrectOption
			q.CorrectOption = &correct
			q.Explanation = st.Question.Explanation
		}
		p.Question = q
	}
	if st.Result != nil {
		res := finishedPayload(*st.Result)
		p.Result = &res
	}
	return p
}

func answerView(a quiz.Answer) ws.AnswerView {
	switch a.Kind() {
	case quiz.AnswerChosen:
		opt, _ := a.Option()
		return ws.AnswerView{Kind: "answered", Option: &opt}
	case quiz.AnswerTimedOut:
		return ws.AnswerView{Kind: "timed_out"}
	default:
		return ws.AnswerView{Kind: "unanswered"}
	}
}

func finishedPayload(res quiz.Result) ws.FinishedPayload {
	outcomes := make([]string, len(res.Outcomes))
	for i, o := range res.Outcomes {
		outcomes[i] = o.String()
	}
	return ws.FinishedPayload{
		Score:     res.Score,
		Total:     res.Total,
		Outcomes:  outcomes,
		TimeSpent: res.TimeSpentSeconds(),
	}
}
