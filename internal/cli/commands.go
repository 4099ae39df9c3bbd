package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gokatarajesh/trabalho-quiz/internal/catalog"
	"github.com/gokatarajesh/trabalho-quiz/internal/ranking"
)

func newRegisterCmd(flags *globalFlags) *cobra.Command {
	var name, matricula string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a player or update the name behind a matrícula",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := flags.client().RegisterUser(cmd.Context(), name, matricula)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if reg.Updated {
				fmt.Fprintf(out, "Updated %s (%s)\n", reg.Name, reg.Matricula)
			} else {
				fmt.Fprintf(out, "Registered %s (%s)\n", reg.Name, reg.Matricula)
			}
			fmt.Fprintf(out, "User ID: %d\n", reg.ID)
			fmt.Fprintf(out, "Token:   %s\n", reg.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "player name")
	cmd.Flags().StringVar(&matricula, "matricula", "", "student matrícula")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("matricula")
	return cmd
}

func newCategoriesCmd(cat *catalog.Catalog) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List quiz categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			printCategories(cmd.OutOrStdout(), cat)
			return nil
		},
	}
}

func printCategories(w io.Writer, cat *catalog.Catalog) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tCATEGORY\tQUESTIONS")
	for i, s := range cat.Summaries() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i+1, s.ID, s.Title, s.QuestionCount)
	}
	_ = tw.Flush()
}

func newRankingCmd(flags *globalFlags) *cobra.Command {
	var category string
	var stats bool
	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Show the overall or per-category ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := flags.client()
			out := cmd.OutOrStdout()

			if stats {
				rows, err := client.RankingCategories(cmd.Context())
				if err != nil {
					return err
				}
				printCategoryStats(out, rows)
				return nil
			}

			var (
				entries []ranking.Entry
				err     error
			)
			if category != "" {
				entries, err = client.CategoryRanking(cmd.Context(), category)
			} else {
				entries, err = client.Ranking(cmd.Context())
			}
			if err != nil {
				return err
			}
			printRanking(out, entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "restrict to one category id")
	cmd.Flags().BoolVar(&stats, "stats", false, "show participation per category instead")
	return cmd
}

func printRanking(w io.Writer, entries []ranking.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No results yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tNAME\tMATRÍCULA\tSCORE\tQUIZZES\tAVERAGE")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%.2f\n", i+1, e.Name, e.Matricula, e.TotalScore, e.TotalQuizzes, e.AverageScore)
	}
	_ = tw.Flush()
}

func printCategoryStats(w io.Writer, rows []ranking.CategoryStat) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No results yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tPLAYERS\tQUIZZES")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.CategoryID, r.CategoryName, r.TotalParticipants, r.TotalQuizzes)
	}
	_ = tw.Flush()
}
