package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/trabalho-quiz/internal/catalog"
	"github.com/gokatarajesh/trabalho-quiz/internal/quiz"
)

const saveWait = 10 * time.Second

func newPlayCmd(flags *globalFlags, cat *catalog.Catalog) *cobra.Command {
	var (
		category string
		userID   int64
		offline  bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a category in the terminal",
		Long: "Play a category in the terminal. Type A-D to answer, press Enter to continue,\n" +
			"r to retry a finished category and q to abandon or quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var saver quiz.ResultSaver
			if !offline {
				saver = flags.client().Saver()
			}
			g := &game{
				catalog: cat,
				in:      cmd.InOrStdin(),
				out:     cmd.OutOrStdout(),
				logger:  flags.logger(),
			}
			return g.run(cmd.Context(), userID, category, saver, quiz.Options{})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category id to start with")
	cmd.Flags().Int64Var(&userID, "user-id", 0, "registered user id results are saved under")
	cmd.Flags().BoolVar(&offline, "offline", false, "do not save results to the API")
	cmd.MarkFlagsOneRequired("user-id", "offline")
	return cmd
}

// game renders session events to out and feeds line input from in back as
// intents.
type game struct {
	catalog *catalog.Catalog
	in      io.Reader
	out     io.Writer
	logger  zerolog.Logger

	mu sync.Mutex
}

func (g *game) run(ctx context.Context, userID int64, category string, saver quiz.ResultSaver, opts quiz.Options) error {
	opts.Listener = g.render
	sess := quiz.NewSession(userID, saver, opts, g.logger)
	defer sess.Close()

	g.render(quiz.Event{Type: quiz.EventState, State: sess.State()})
	if category != "" {
		cat, ok := g.catalog.Category(category)
		if !ok {
			return fmt.Errorf("unknown category %q", category)
		}
		sess.SelectCategory(cat)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(g.in)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				g.awaitSave(sess)
				return nil
			}
			if quit := g.handle(sess, line); quit {
				g.awaitSave(sess)
				return nil
			}
		}
	}
}

// handle applies one line of input and reports whether the player quit.
func (g *game) handle(sess *quiz.Session, line string) bool {
	st := sess.State()
	cmd := strings.ToLower(line)

	switch st.Phase {
	case quiz.PhaseSelectingCategory:
		if cmd == "q" {
			return true
		}
		cat, ok := g.pickCategory(line)
		if !ok {
			g.printf("Unknown category %q\n", line)
			return false
		}
		sess.SelectCategory(cat)

	case quiz.PhaseFinished:
		switch cmd {
		case "r":
			sess.Retry()
		case "", "q":
			return true
		default:
			g.printf("Press r to retry or Enter to quit\n")
		}

	default:
		switch {
		case cmd == "q":
			sess.Abandon()
		case cmd == "":
			if !sess.Advance() {
				g.printf("Answer first (A-%c)\n", optionLetter(len(st.Question.Options)-1))
			}
		case len(cmd) == 1 && cmd[0] >= 'a' && cmd[0] <= 'z':
			if !sess.SelectAnswer(int(cmd[0] - 'a')) {
				g.printf("Answer not accepted\n")
			}
		default:
			g.printf("Type a letter to answer, Enter to continue or q to abandon\n")
		}
	}
	return false
}

// pickCategory accepts either a 1-based position or a category id.
func (g *game) pickCategory(input string) (catalog.Category, bool) {
	if cat, ok := g.catalog.Category(input); ok {
		return cat, true
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		return catalog.Category{}, false
	}
	all := g.catalog.ListCategories()
	if n < 1 || n > len(all) {
		return catalog.Category{}, false
	}
	return all[n-1], true
}

func (g *game) awaitSave(sess *quiz.Session) {
	done := sess.Saved()
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(saveWait):
		g.printf("Result is still being saved; exiting anyway\n")
	}
}

func (g *game) render(evt quiz.Event) {
	st := evt.State
	switch evt.Type {
	case quiz.EventTick:
		if st.TimeRemaining <= 5 || st.TimeRemaining%5 == 0 {
			g.printf("  %ds left\n", st.TimeRemaining)
		}
		return
	case quiz.EventFinished:
		g.printResult(st)
		return
	}

	switch st.Phase {
	case quiz.PhaseSelectingCategory:
		g.mu.Lock()
		fmt.Fprintln(g.out, "Choose a category (number or id), q to quit:")
		printCategories(g.out, g.catalog)
		g.mu.Unlock()

	case quiz.PhaseAwaitingAnswer:
		q := st.Question
		var b strings.Builder
		fmt.Fprintf(&b, "\n[%s] Question %d/%d\n%s\n", st.CategoryTitle, st.QuestionIndex+1, st.TotalQuestions, q.Text)
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "  %c) %s\n", optionLetter(i), opt)
		}
		fmt.Fprintf(&b, "%ds to answer\n", st.TimeRemaining)
		g.printf("%s", b.String())

	case quiz.PhaseAnswerRevealed:
		q := st.Question
		chosen, _ := st.Current.Option()
		if q.IsCorrect(chosen) {
			g.printf("Correct!\n")
		} else {
			g.printf("Wrong. The answer is %c) %s\n", optionLetter(q.CorrectOption), q.Options[q.CorrectOption])
		}
		g.printExplanation(q)

	case quiz.PhaseTimedOut:
		q := st.Question
		g.printf("Time is up! The answer is %c) %s\n", optionLetter(q.CorrectOption), q.Options[q.CorrectOption])
		g.printExplanation(q)
	}
}

func (g *game) printExplanation(q *catalog.Question) {
	if q.Explanation != "" {
		g.printf("%s\n", q.Explanation)
	}
	g.printf("Press Enter to continue\n")
}

func (g *game) printResult(st quiz.State) {
	if st.Result == nil {
		return
	}
	res := st.Result
	var b strings.Builder
	fmt.Fprintf(&b, "\nFinished %s: %d/%d in %ds\n", st.CategoryTitle, res.Score, res.Total, res.TimeSpentSeconds())
	for i, o := range res.Outcomes {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, o)
	}
	b.WriteString("Press r to retry or Enter to quit\n")
	g.printf("%s", b.String())
}

func (g *game) printf(format string, args ...interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fmt.Fprintf(g.out, format, args...)
}

func optionLetter(i int) rune {
	return rune('A' + i)
}
