package quiz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_started_total",
		Help: "Quiz sessions that entered the first question.",
	})
	sessionsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_finished_total",
		Help: "Quiz sessions that reached the finished phase.",
	})
	answersRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_answers_total",
		Help: "Recorded answer slots by outcome.",
	}, []string{"outcome"})
	saveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_result_save_failures_total",
		Help: "Finished sessions whose result could not be persisted.",
	})
)
