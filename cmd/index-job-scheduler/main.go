// Command index-job-scheduler inserts IndexJob rows directly against
// Postgres, grounded on the teacher's memoryctl cobra command tree, adapted
// from an HTTP client CLI into a direct-to-database one since the scheduler
// runs as a cron/operator tool alongside the service rather than against it.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/techresidents/indexsvc/internal/model"
	"github.com/techresidents/indexsvc/internal/queue"
)

const (
	minDays = 1
	maxDays = 90
)

var (
	dsnFlag     string
	daysFlag    int
	previewFlag bool
	contextFlag string
	nameFlag    string
	typeFlag    string
	keysFlag    []string
	retriesFlag int

	rootCmd = &cobra.Command{
		Use:   "index-job-scheduler",
		Short: "Schedule recurring IndexJob rows against the index_job table",
		RunE:  runSchedule,
	}
)

func main() {
	rootCmd.Flags().StringVar(&dsnFlag, "dsn", "", "Postgres connection string (required unless --preview)")
	rootCmd.Flags().IntVar(&daysFlag, "days", 1, "number of daily jobs to create, 1-90")
	rootCmd.Flags().BoolVar(&previewFlag, "preview", false, "print the jobs that would be created without inserting them")
	rootCmd.Flags().StringVar(&contextFlag, "context", "scheduler", "job context label")
	rootCmd.Flags().StringVar(&nameFlag, "name", "", "index name (required)")
	rootCmd.Flags().StringVar(&typeFlag, "type", "", "document type (required)")
	rootCmd.Flags().StringSliceVar(&keysFlag, "keys", nil, "keys to index; omit to index all")
	rootCmd.Flags().IntVar(&retriesFlag, "max-retries", 3, "retries_remaining to set on each created job")
	_ = rootCmd.MarkFlagRequired("name")
	_ = rootCmd.MarkFlagRequired("type")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if daysFlag < minDays || daysFlag > maxDays {
		return fmt.Errorf("--days must be between %d and %d, got %d", minDays, maxDays, daysFlag)
	}
	if contextFlag == "" {
		return fmt.Errorf("--context must not be empty")
	}

	op := model.IndexOp{Action: model.ActionUpdate, Name: nameFlag, Type: typeFlag, Keys: keysFlag}
	notBeforeTimes := dailyMidnights(time.Now().UTC(), daysFlag)

	if previewFlag {
		for _, nb := range notBeforeTimes {
			fmt.Fprintf(cmd.OutOrStdout(), "context=%s not_before=%s action=%s name=%s type=%s keys=%v\n",
				contextFlag, nb.Format(time.RFC3339), op.Action, op.Name, op.Type, op.Keys)
		}
		return nil
	}

	if dsnFlag == "" {
		return fmt.Errorf("--dsn is required unless --preview is set")
	}
	db, err := sql.Open("pgx", dsnFlag)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	for _, nb := range notBeforeTimes {
		id, err := queue.Insert(ctx, db, contextFlag, op, nb, retriesFlag)
		if err != nil {
			return fmt.Errorf("insert job for %s: %w", nb.Format(time.RFC3339), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created index_job_id=%d not_before=%s\n", id, nb.Format(time.RFC3339))
	}
	return nil
}

// dailyMidnights returns n UTC-midnight timestamps, starting with tomorrow's
// midnight relative to from.
func dailyMidnights(from time.Time, n int) []time.Time {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	times := make([]time.Time, n)
	for i := 0; i < n; i++ {
		times[i] = start.AddDate(0, 0, i)
	}
	return times
}
