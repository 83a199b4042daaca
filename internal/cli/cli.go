// Package cli wires configuration, logging and storage into the qsolog
// commands: the interactive logbook and its non-interactive helpers.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jask/qsolog/internal/config"
	"github.com/jask/qsolog/internal/database"
	"github.com/jask/qsolog/internal/logbook"
	"github.com/jask/qsolog/internal/logging"
	"github.com/jask/qsolog/internal/testdata"
	"github.com/jask/qsolog/internal/tui"
)

// Options holds the global flags.
type Options struct {
	ConfigPath string
	DBPath     string
	LogPath    string
	SaveConfig bool
}

type runtime struct {
	cfg    config.Config
	fields []logbook.Field
	closer io.Closer
}

// NewRootCommand builds the qsolog command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &Options{}
	rt := &runtime{}

	rootCmd := &cobra.Command{
		Use:          "qsolog",
		Short:        "qsolog - amateur radio contact logbook",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return rt.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), rt)
		},
	}

	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "List the logs in the logbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogbook(cmd.Context(), rt, func(ctx context.Context, book *logbook.Logbook) error {
				return printLogs(cmd.OutOrStdout(), book)
			})
		},
	}

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import an ADIF file as a new log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogbook(cmd.Context(), rt, func(ctx context.Context, book *logbook.Logbook) error {
				tab, err := book.ImportLog(ctx, args[0])
				if err != nil {
					return err
				}
				t, _ := book.Tab(tab)
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d records into log %s\n", t.Log.RecordCount(), t.Log.Name())
				return nil
			})
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export LOG FILE",
		Short: "Export a log to an ADIF file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogbook(cmd.Context(), rt, func(ctx context.Context, book *logbook.Logbook) error {
				tab, err := findLog(book, args[0])
				if err != nil {
					return err
				}
				if err := book.ExportLog(ctx, tab, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported log %s to %s\n", args[0], args[1])
				return nil
			})
		},
	}

	var sampleCount int
	var sampleSeed int64
	sampleCmd := &cobra.Command{
		Use:   "sample NAME",
		Short: "Create a log filled with generated contacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogbook(cmd.Context(), rt, func(ctx context.Context, book *logbook.Logbook) error {
				if _, err := testdata.Seed(ctx, book, args[0], sampleCount, sampleSeed); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created log %s with %d contacts\n", args[0], sampleCount)
				return nil
			})
		},
	}
	sampleCmd.Flags().IntVar(&sampleCount, "count", 25, "Number of contacts to generate")
	sampleCmd.Flags().Int64Var(&sampleSeed, "seed", 1, "Random seed")

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to config file (default: ~/.config/qsolog/config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "Path to the logbook database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.LogPath, "log", "", "Path to log file (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&opts.SaveConfig, "save-config", false, "Write the effective config back to the config file")

	rootCmd.AddCommand(logsCmd, importCmd, exportCmd, sampleCmd)
	return rootCmd
}

func (rt *runtime) setup(opts *Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.DBPath != "" {
		cfg.Database.Path = opts.DBPath
	}
	if opts.LogPath != "" {
		cfg.Logging.Path = opts.LogPath
	}
	fields, err := logbook.ResolveFields(cfg.Fields.Selected)
	if err != nil {
		return errors.Wrap(err, "config fields.selected")
	}
	if opts.SaveConfig {
		if err := config.Save(cfg, opts.ConfigPath); err != nil {
			return err
		}
	}
	closer, err := logging.Init(cfg.Logging)
	if err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	rt.cfg, rt.fields, rt.closer = cfg, fields, closer
	return nil
}

func (rt *runtime) close() error {
	if rt.closer == nil {
		return nil
	}
	err := rt.closer.Close()
	rt.closer = nil
	return err
}

func withLogbook(ctx context.Context, rt *runtime, fn func(context.Context, *logbook.Logbook) error) error {
	conn, err := database.Connect(rt.cfg.Database.Path)
	if err != nil {
		return errors.Wrap(err, "could not connect to database")
	}
	defer conn.Disconnect()

	book := logbook.New(conn, rt.fields)
	if err := book.Restore(ctx); err != nil {
		return err
	}
	return fn(ctx, book)
}

func runTUI(ctx context.Context, rt *runtime) error {
	conn, err := database.Connect(rt.cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", rt.cfg.Database.Path).Msg("could not connect to database")
	}
	defer conn.Disconnect()

	book := logbook.New(conn, rt.fields)
	if err := book.Restore(ctx); err != nil {
		return err
	}
	p := tea.NewProgram(tui.New(ctx, book, rt.cfg.ADIF.Directory), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "run tui")
	}
	return nil
}

// findLog resolves a log by display name or table name, ignoring case.
func findLog(book *logbook.Logbook, name string) (int, error) {
	for i, t := range book.Tabs() {
		if strings.EqualFold(t.Log.Name(), name) || strings.EqualFold(t.Log.Table(), name) {
			return i, nil
		}
	}
	return -1, errors.Wrapf(logbook.ErrNoLog, "log %q", name)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func printLogs(w io.Writer, book *logbook.Logbook) error {
	if book.LogCount() == 0 {
		_, err := fmt.Fprintln(w, "no logs")
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "TABLE", "RECORDS", "MODIFIED", "PATH").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, tab := range book.Tabs() {
		l := tab.Log
		t.Row(l.Name(), l.Table(), strconv.Itoa(l.RecordCount()), strconv.FormatBool(l.Modified()), l.Path())
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}
