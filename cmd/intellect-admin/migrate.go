package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/bootstrap"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/migrate"
)

const defaultMigrationTimeout = 5 * time.Minute

type migrateOptions struct {
	*rootOptions
	Timeout time.Duration
}

func newMigrateCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &migrateOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), opts)
		},
	}
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "maximum time to wait")

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List embedded migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateStatus(cmd.Context(), opts)
		},
	})
	return cmd
}

func runMigrate(ctx context.Context, opts *migrateOptions) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	logger := opts.logger()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, _, err := connectInfra(ctx, &connectInfraOptions{Logger: logger, Config: &cfg})
	if err != nil {
		return err
	}
	runErr := bootstrap.RunMigrations(ctx, db, logger)
	return errors.Join(runErr, closeInfra(db, nil))
}

func runMigrateStatus(ctx context.Context, opts *migrateOptions) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, _, err := connectInfra(ctx, &connectInfraOptions{Logger: opts.logger(), Config: &cfg})
	if err != nil {
		return err
	}
	migrations, err := migrate.Status(ctx, db)
	if closeErr := closeInfra(db, nil); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if err != nil {
		return err
	}
	return printMigrations(opts.rootOptions, migrations)
}

func printMigrations(opts *rootOptions, migrations []migrate.Migration) error {
	if opts.Format == "json" {
		return opts.writeJSON(migrations)
	}
	tw := tabwriter.NewWriter(opts.IO.Out, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "VERSION\tAPPLIED"); err != nil {
		return fmt.Errorf("write migration header: %w", err)
	}
	for _, m := range migrations {
		if _, err := fmt.Fprintf(tw, "%s\t%t\n", m.Version, m.Applied); err != nil {
			return fmt.Errorf("write migration %s: %w", m.Version, err)
		}
	}
	return tw.Flush()
}
