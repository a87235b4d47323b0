package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"village/internal/config"
	"village/internal/database"
	"village/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the database and services a command works with
type app struct {
	db       *database.DB
	services *service.Services
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		log.Printf("Warning: failed to close database: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "villagectl",
		Short:         "Village operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newBackupCmd())
	root.AddCommand(newAchievementsCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newCatalogCmd())
	return root
}

// loadApp opens the configured database, brings the schema up to date and
// builds the services. Email and file storage are not needed by any command.
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	loc, _ := cfg.Location()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &app{
		db: db,
		services: service.New(db, service.Options{
			Clock:           service.NewClock(loc),
			SessionDuration: cfg.SessionDuration,
		}),
	}, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "migrations are up to date")
			return nil
		},
	}
}

func newBackupCmd() *cobra.Command {
	backup := &cobra.Command{Use: "backup", Short: "Export or import a JSON backup"}

	var output string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the database to a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if output == "" {
				output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
			}
			if dir := filepath.Dir(output); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			if err := a.services.Backup.Export(output); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			info, err := os.Stat(output)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %s (%.2f MB)\n", output, float64(info.Size())/1024/1024)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default backup_YYYYMMDD_HHMMSS.json)")

	var yes bool
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("input file: %w", err)
			}
			if !yes {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), "WARNING: This will delete all existing data. Type 'yes' to confirm: ")
				var confirmation string
				_, _ = fmt.Fscanln(cmd.InOrStdin(), &confirmation)
				if strings.TrimSpace(confirmation) != "yes" {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "import cancelled")
					return nil
				}
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.services.Backup.Import(args[0]); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "import complete")
			return nil
		},
	}
	importCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	backup.AddCommand(exportCmd, importCmd)
	return backup
}

func newAchievementsCmd() *cobra.Command {
	achievementsCmd := &cobra.Command{Use: "achievements", Short: "Achievement maintenance"}

	achievementsCmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Re-check achievements for every child",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			awarded, err := a.services.Achievements.SyncAll()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "awarded %d achievements\n", awarded)
			return nil
		},
	})
	return achievementsCmd
}
