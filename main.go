package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"library-hub/library"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := newRootCmd(loadConfig()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg config) *cobra.Command {
	var logOut io.Closer

	root := &cobra.Command{
		Use:          "library-hub",
		Short:        "Role-gated library management console",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			closer, err := setupLogging(cfg)
			logOut = closer
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if logOut != nil {
				logOut.Close()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := openLibrary(cfg)
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			s := newSession(mgr, bufio.NewScanner(in), cmd.OutOrStdout())
			s.masked = in == os.Stdin && term.IsTerminal(int(os.Stdin.Fd()))
			s.archive = cfg.Archive
			s.run()
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.SeedFile, "seed", cfg.SeedFile, "INI file with the starting books, members and logins (default: built-in dataset)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flags.StringVar(&cfg.LogFile, "log", cfg.LogFile, "append logs to this file instead of stderr")

	root.AddCommand(newExportCmd(&cfg))
	return root
}

// setupLogging configures the standard logrus logger and returns the log file to close, if any.
func setupLogging(cfg config) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.LogFile == "" {
		logrus.SetOutput(os.Stderr)
		return nil, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)
	return f, nil
}

// openLibrary builds the in-memory library from the configured seed.
func openLibrary(cfg config) (*library.LibraryManager, error) {
	var (
		seed library.Seed
		err  error
	)
	if cfg.SeedFile == "" {
		seed, err = library.DefaultSeed()
	} else {
		seed, err = library.LoadSeed(cfg.SeedFile)
	}
	if err != nil {
		return nil, err
	}
	return seed.Build(library.WithLogger(logrus.StandardLogger()))
}

func newExportCmd(cfg *config) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the starting library state to a SQLite or JSON archive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := openLibrary(*cfg)
			if err != nil {
				return err
			}
			return writeArchive(cmd.OutOrStdout(), mgr.Snapshot(), cfg.Archive, format)
		},
	}
	cmd.Flags().StringVarP(&cfg.Archive, "out", "o", cfg.Archive, "archive path (\"-\" writes JSON to stdout)")
	cmd.Flags().StringVar(&format, "format", "sqlite", "archive format: sqlite or json")
	return cmd
}

// archiveFormat picks json for a .json path or stdout and sqlite otherwise.
func archiveFormat(path string) string {
	if path == "-" || strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "sqlite"
}

// writeArchive stores snap at path in the given format. A path of "-" writes JSON to out.
func writeArchive(out io.Writer, snap library.Snapshot, path, format string) error {
	switch strings.ToLower(format) {
	case "json":
		if path == "-" {
			return library.WriteJSON(out, snap)
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := library.WriteJSON(f, snap); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %d books, %d members, %d borrow records to %s\n",
			len(snap.Books), len(snap.Members), len(snap.Records), path)
		return nil
	case "sqlite":
		a, err := library.OpenArchive(path)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Write(snap); err != nil {
			return err
		}
		c, err := a.Counts()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Archived %d books, %d members, %d borrow records (%d active) to %s\n",
			c.Books, c.Members, c.Records, c.ActiveRecords, path)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want sqlite or json)", format)
	}
}
