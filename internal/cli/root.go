// Package cli implements the quiz-cli terminal client.
package cli

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/trabalho-quiz/internal/apiclient"
	"github.com/gokatarajesh/trabalho-quiz/internal/catalog"
	"github.com/gokatarajesh/trabalho-quiz/internal/logging"
)

type globalFlags struct {
	apiURL  string
	timeout time.Duration
	retries int
	verbose bool
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envAPI := os.Getenv("QUIZ_API_URL")
	if envAPI == "" {
		envAPI = "http://localhost:8080"
	}

	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:          "quiz-cli",
		Short:        "Play the work and technology quiz from a terminal",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.apiURL, "api", envAPI, "quiz API base URL")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 10*time.Second, "HTTP request timeout")
	cmd.PersistentFlags().IntVar(&flags.retries, "retries", 2, "retries for failed API calls")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(newRegisterCmd(flags))
	cmd.AddCommand(newCategoriesCmd(catalog.Default()))
	cmd.AddCommand(newPlayCmd(flags, catalog.Default()))
	cmd.AddCommand(newRankingCmd(flags))
	return cmd
}

func (f *globalFlags) client() *apiclient.Client {
	retries := f.retries
	if retries == 0 {
		retries = -1
	}
	return apiclient.New(apiclient.Config{
		BaseURL:    f.apiURL,
		Timeout:    f.timeout,
		RetryCount: retries,
	})
}

// logger stays quiet unless --verbose so it does not interleave with the game.
func (f *globalFlags) logger() zerolog.Logger {
	if !f.verbose {
		return zerolog.Nop()
	}
	return logging.NewWithWriter(os.Stderr, "quiz-cli", "development")
}
