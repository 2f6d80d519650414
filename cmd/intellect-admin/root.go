package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/itsAR-VR/Community-Intellect-sub001/config"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/bootstrap"
)

// validFormats defines the allowed output formats.
var validFormats = []string{"text", "json"}

// cliIO bundles the streams commands read from and write to.
type cliIO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func newIO(in io.Reader, out, errOut io.Writer) cliIO {
	return cliIO{In: in, Out: out, Err: errOut}
}

// rootOptions holds global flags and shared dependencies for all commands.
type rootOptions struct {
	IO      cliIO
	Format  string
	Verbose bool

	// loadConfig is swapped in tests.
	loadConfig func() (config.AppConfig, error)
}

func (o *rootOptions) logger() *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(o.IO.Err, &slog.HandlerOptions{Level: level}))
}

func (o *rootOptions) config() (config.AppConfig, error) {
	load := o.loadConfig
	if load == nil {
		load = bootstrap.LoadConfig
	}
	cfg, err := load()
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) writeJSON(v any) error {
	enc := json.NewEncoder(o.IO.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCommand(streams cliIO) *cobra.Command {
	return buildRootCommand(&rootOptions{IO: streams})
}

func buildRootCommand(opts *rootOptions) *cobra.Command {
	streams := opts.IO
	cmd := &cobra.Command{
		Use:   "intellect-admin",
		Short: "Operator tooling for the community intellect service",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newRunsCommand(opts))
	cmd.AddCommand(newTriggerCommand(opts))
	cmd.AddCommand(newSignCommand(opts))

	return cmd
}
