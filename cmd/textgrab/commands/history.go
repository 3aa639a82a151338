package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical/textgrab/cmd/textgrab/ui"
	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent extraction sessions",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", storage.DefaultRecentLimit, "number of sessions to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repo, err := storage.Open(ctx, cfg.History)
	if err != nil {
		return err
	}
	if repo == nil {
		ui.Warning("History is disabled (history.driver is none)")
		return nil
	}
	defer repo.Close()

	records, err := repo.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}

	if outputJSON {
		if records == nil {
			records = []domain.SessionRecord{}
		}
		return writeJSON(records)
	}

	if len(records) == 0 {
		ui.Info("No sessions recorded yet")
		return nil
	}

	ui.Table(historyHeaders, historyRows(records))
	return nil
}

var historyHeaders = []string{"Started", "Name", "Kind", "Pages", "Status", "Chars", "Cached", "Duration"}

func historyRows(records []domain.SessionRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		cached := "no"
		if rec.Cached {
			cached = "yes"
		}
		pages := "-"
		if rec.Kind == domain.PayloadDocument {
			pages = fmt.Sprintf("%d", rec.PageCount)
		}
		rows = append(rows, []string{
			rec.StartedAt.Local().Format(time.DateTime),
			ui.Truncate(rec.Name, 32),
			string(rec.Kind),
			pages,
			string(rec.Status),
			fmt.Sprintf("%d", rec.TextLength),
			cached,
			ui.FormatDuration(rec.FinishedAt.Sub(rec.StartedAt)),
		})
	}
	return rows
}
