package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mariaferry [config.toml]",
	Short: "SQLite to MariaDB/MySQL migration tool",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMigration,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to migration TOML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runMigration(cmd *cobra.Command, args []string) error {
	// Resolve config path: positional arg takes precedence over --config flag
	cfgPath := configPath
	if len(args) > 0 {
		cfgPath = args[0]
	}
	if cfgPath == "" {
		return fmt.Errorf("config file required: mariaferry <config.toml> or mariaferry --config <config.toml>")
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	log.Printf("mariaferry — SQLite → MariaDB/MySQL migration")
	log.Printf(
		"config: batch_size=%d on_value_error=%s on_table_exists=%s create_indexes=%t create_foreign_keys=%t scan_value_stats=%t",
		cfg.BatchSize,
		cfg.OnValueError,
		cfg.OnTableExists,
		cfg.CreateIndexes,
		cfg.CreateForeignKeys,
		cfg.ScanValueStats,
	)

	report := newMigrator(cfg).run(context.Background())
	printReport(report)

	switch report.Outcome {
	case OutcomeFailed:
		return fmt.Errorf("migration failed during %s: %w", report.Stage, report.Err)
	case OutcomePartiallyDone:
		return fmt.Errorf("migration partially done; review the table and constraint report above")
	}
	return nil
}

func printReport(r *RunReport) {
	log.Printf("migration %s in %s", r.Outcome, r.Duration.Round(time.Millisecond))

	for i := range r.Tables {
		t := &r.Tables[i]
		switch {
		case t.Err != nil:
			log.Printf("  FAIL %s: %v", t.Name, t.Err)
		case len(t.Skipped) > 0:
			log.Printf("  %s: %d rows (%d skipped)", t.Name, t.RowsWritten, len(t.Skipped))
		default:
			log.Printf("  %s: %d rows", t.Name, t.RowsWritten)
		}
		for _, s := range t.Skipped {
			log.Printf("    skipped row at offset %d: %s: %s", s.RowOffset, s.Column, s.Reason)
		}
	}

	failedConstraints := 0
	for _, c := range r.Constraints {
		if c.Err != nil {
			failedConstraints++
		}
	}
	if len(r.Constraints) > 0 {
		log.Printf("  constraints: %d applied, %d failed", len(r.Constraints)-failedConstraints, failedConstraints)
	}
	for _, c := range r.Constraints {
		if c.Err != nil {
			log.Printf("    FAIL %s %s on %s: %v", c.Kind, c.Name, c.Table, c.Err)
		}
	}

	if len(r.Warnings) > 0 {
		log.Printf("  %d warning(s); review them before relying on the target", len(r.Warnings))
	}
}
