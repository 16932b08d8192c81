package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mztab/internal/store"
)

// purgeTimeout bounds a purge run.
const purgeTimeout = 30 * time.Second

var (
	purgeDatabaseURL string
	purgeOlderThan   time.Duration
	purgeBatch       int
)

// purgeCmd deletes stored reports older than a given age.
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete stored reports older than a given age",
	Long: `Delete reports, with their findings and rows, that were started more than
--older-than ago. The database defaults to $DATABASE_URL:
  mztab purge --older-than 720h`,
	Args: cobra.NoArgs,
	RunE: runPurge,
}

func init() {
	f := purgeCmd.Flags()
	f.StringVar(&purgeDatabaseURL, "database-url", "", "PostgreSQL database (default $DATABASE_URL)")
	f.DurationVar(&purgeOlderThan, "older-than", 0, "delete reports started before now minus this duration")
	f.IntVar(&purgeBatch, "batch", 500, "reports deleted per statement")
}

type reportDeleter interface {
	store.Deleter
	Close()
}

// openDeleter is replaced in tests.
var openDeleter = func(ctx context.Context, url string) (reportDeleter, error) {
	return store.Open(ctx, url, 1)
}

func runPurge(cmd *cobra.Command, _ []string) error {
	url := purgeDatabaseURL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return exitError(ExitUsage, "mztab: --database-url or DATABASE_URL is required")
	}
	if purgeOlderThan <= 0 {
		return exitError(ExitUsage, "mztab: --older-than must be positive")
	}
	if purgeBatch < 1 {
		return exitError(ExitUsage, "mztab: --batch must be at least 1")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), purgeTimeout)
	defer cancel()

	d, err := openDeleter(ctx, url)
	if err != nil {
		return exitError(ExitIO, "mztab: %v", err)
	}
	defer d.Close()

	cutoff := time.Now().Add(-purgeOlderThan)
	n, err := d.DeleteReportsBefore(ctx, cutoff, purgeBatch)
	if err != nil {
		return exitError(ExitIO, "mztab: %v (%s deleted before the failure)", err, plural(int(n), "report"))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s started before %s\n", plural(int(n), "report"), cutoff.Format(time.RFC3339))
	return nil
}
