package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"changewatch/internal/dto"
	"changewatch/internal/model"
	"changewatch/internal/repository/sqlite"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var changesOnly bool
	var clear bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded comparisons, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}

			db, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := sqlite.NewComparisonRepository(db)

			out := cmd.OutOrStdout()
			if clear {
				if err := repo.DeleteAll(); err != nil {
					return err
				}
				fmt.Fprintln(out, "History cleared")
				return nil
			}

			comparisons, err := repo.GetAll(&dto.ComparisonFilter{Limit: limit, ChangeOnly: changesOnly})
			if err != nil {
				return err
			}
			if len(comparisons) == 0 {
				fmt.Fprintln(out, "No comparisons recorded")
				return nil
			}

			fmt.Fprintln(out, renderHistory(tableStyle(out), comparisons))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of rows")
	cmd.Flags().BoolVar(&changesOnly, "changes", false, "Only show runs that detected a change")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete the whole history")
	return cmd
}

func renderHistory(style table.Style, comparisons []model.Comparison) string {
	headers := []string{"When", "Newest", "Previous", "Strategy", "Outcome", "Score", "Threshold", "Change", "Notified"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft}

	rows := make([][]string, 0, len(comparisons))
	for _, c := range comparisons {
		score, threshold := "-", "-"
		if c.Outcome == "compared" {
			score = strconv.FormatFloat(c.Score, 'f', 3, 64)
			threshold = strconv.FormatFloat(c.Threshold, 'f', 2, 64)
		}
		rows = append(rows, []string{
			c.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			c.Newest,
			c.Previous,
			c.Strategy,
			c.Outcome,
			score,
			threshold,
			yesNo(c.ChangeDetected),
			yesNo(c.Notified),
		})
	}
	return renderTable(style, headers, rows, aligns)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
