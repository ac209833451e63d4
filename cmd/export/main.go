// Command export snapshots subjects' check-ins from the HTTP check-in
// service into a SQLite file that the server can read with DB_PATH.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/jengzang/profileviewer-go/internal/config"
	"github.com/jengzang/profileviewer-go/internal/database"
	"github.com/jengzang/profileviewer-go/internal/repository"
	"github.com/jengzang/profileviewer-go/internal/source"
	"github.com/spf13/cobra"
)

var (
	sourceURL     string
	subjectParam  string
	outPath       string
	migrationsDir string
)

var exportCmd = &cobra.Command{
	Use:   "export <subject>...",
	Short: "Snapshot check-ins into a SQLite export",
	Long: `Fetch every check-in of the given subjects from the check-in service
and store them in a SQLite file. Existing rows of a subject are replaced.

Examples:
  export --url https://example.org/checkins -o checkins.db alice bob
  export --param screen_name -o checkins.db alice`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	cfg := config.Load()

	exportCmd.Flags().StringVar(&sourceURL, "url", cfg.DataSourceURL, "check-in service URL (default: DATA_SOURCE_URL)")
	exportCmd.Flags().StringVar(&subjectParam, "param", cfg.SubjectParam, "subject query parameter: candidate or screen_name")
	exportCmd.Flags().StringVarP(&outPath, "output", "o", "checkins.db", "SQLite file to write")
	exportCmd.Flags().StringVar(&migrationsDir, "migrations", "", "directory of extra NNN_name.sql migrations")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := exportCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	if sourceURL == "" {
		return fmt.Errorf("--url or DATA_SOURCE_URL is required")
	}
	ctx := cmd.Context()

	db, err := database.Open(database.Config{Path: outPath})
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	defer db.Close()

	if err := database.NewMigrationManager(db, migrationsDir).RunMigrations(); err != nil {
		return fmt.Errorf("migrate export: %w", err)
	}
	repo := repository.NewCheckinRepository(db)

	src := &source.HTTPSource{
		BaseURL: sourceURL,
		Param:   subjectParam,
		Client:  &http.Client{Timeout: config.Load().FetchTimeout},
	}
	for _, subject := range args {
		src.Progress = func(pages, records int) {
			log.Printf("%s: %d pages, %d check-ins", subject, pages, records)
		}

		raw, err := src.Fetch(ctx, subject)
		if err != nil {
			return err
		}
		if err := repo.ReplaceSubject(ctx, subject, raw); err != nil {
			return fmt.Errorf("store %s: %w", subject, err)
		}
		log.Printf("Exported %d check-ins of %s to %s", len(raw), subject, outPath)
	}
	return nil
}
