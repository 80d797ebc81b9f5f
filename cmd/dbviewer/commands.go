package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"dbviewer/internal/config"
	"dbviewer/internal/export"
	"dbviewer/internal/logging"
	"dbviewer/internal/render"
	"dbviewer/internal/repr"
	"dbviewer/internal/store"
	"dbviewer/internal/tui"
	"dbviewer/internal/viewer"

	"github.com/urfave/cli/v2"
)

var logger = logging.For("cli")

var (
	limitFlag = cli.IntFlag{
		Name:  "limit",
		Usage: "maximum number of rows, 0 for all (default view.row_limit)",
	}
	formatFlag = cli.StringFlag{
		Name:  "format",
		Usage: "output format: text, json or pretty (default view.format)",
	}
	outFlag = cli.StringFlag{
		Name:     "out",
		Usage:    "target file of the export",
		Required: true,
	}
)

var FamiliesCmd = cli.Command{
	Action:    doFamilies,
	Name:      "families",
	Usage:     "lists the column families of a store with their layouts",
	ArgsUsage: "[<path>]",
}

var LayoutsCmd = cli.Command{
	Action: doLayouts,
	Name:   "layouts",
	Usage:  "lists the column families with a known layout",
}

var ScanCmd = cli.Command{
	Action:    doScan,
	Name:      "scan",
	Usage:     "prints the decoded rows of a column family",
	ArgsUsage: "[<path>] <family>",
	Flags: []cli.Flag{
		&limitFlag,
		&formatFlag,
	},
}

var ExportCmd = cli.Command{
	Action:    doExport,
	Name:      "export",
	Usage:     "dumps raw and decoded rows of a column family into a file",
	ArgsUsage: "[<path>] <family>",
	Flags: []cli.Flag{
		&outFlag,
		&limitFlag,
	},
}

var BrowseCmd = cli.Command{
	Action:    doBrowse,
	Name:      "browse",
	Usage:     "opens the interactive browser",
	ArgsUsage: "[<path>]",
	Flags: []cli.Flag{
		&limitFlag,
	},
}

// storeArgs splits the positional arguments into the store path and the n
// arguments that follow it. The path may be omitted when store.path is set.
func storeArgs(c *cli.Context, cfg *config.Config, n int) (string, []string, error) {
	args := c.Args().Slice()
	switch {
	case len(args) == n+1:
		return config.ExpandHome(args[0]), args[1:], nil
	case len(args) == n && cfg.Store.Path != "":
		return cfg.Store.Path, args, nil
	case cfg.Store.Path == "" && len(args) <= n:
		return "", nil, fmt.Errorf("missing store path (argument or store.path in config)")
	default:
		return "", nil, fmt.Errorf("expected %d arguments after the store path, got %d", n, max(len(args)-1, 0))
	}
}

func openOptions(cfg *config.Config) (viewer.Options, error) {
	engine, err := store.ParseEngine(cfg.Store.Engine)
	if err != nil {
		return viewer.Options{}, err
	}
	timeout, err := cfg.Store.Timeout()
	if err != nil {
		return viewer.Options{}, err
	}
	return viewer.Options{Engine: engine, Timeout: timeout}, nil
}

func openStore(cfg *config.Config, path string) (*viewer.Store, error) {
	opts, err := openOptions(cfg)
	if err != nil {
		return nil, err
	}
	return viewer.Open(path, opts)
}

func rowLimit(c *cli.Context, cfg *config.Config) (int, error) {
	if !c.IsSet(limitFlag.Name) {
		return cfg.View.RowLimit, nil
	}
	limit := c.Int(limitFlag.Name)
	if limit < 0 {
		return 0, fmt.Errorf("--limit must not be negative, got %d", limit)
	}
	return limit, nil
}

func doFamilies(c *cli.Context) error {
	cfg := configFrom(c)
	path, _, err := storeArgs(c, cfg, 0)
	if err != nil {
		return err
	}
	s, err := openStore(cfg, path)
	if err != nil {
		return err
	}
	defer s.Close()

	out := c.App.Writer
	for _, name := range s.ColumnFamilies() {
		layout := repr.Lookup(name)
		_, _ = fmt.Fprintf(out, "%-20s %-18s %s\n", name, layout.Key, layout.Value)
	}
	return nil
}

func doLayouts(c *cli.Context) error {
	out := c.App.Writer
	_, _ = fmt.Fprintf(out, "%-20s %-18s %s\n", "FAMILY", "KEY", "VALUE")
	for _, name := range repr.Known() {
		layout := repr.Lookup(name)
		_, _ = fmt.Fprintf(out, "%-20s %-18s %s\n", name, layout.Key, layout.Value)
	}
	_, _ = fmt.Fprintf(out, "%-20s %-18s %s\n", "(other)", repr.DefaultLayout.Key, repr.DefaultLayout.Value)
	return nil
}

// openRows opens the store and starts a scan of family. The returned close
// function ends the scan and releases the store.
func openRows(cfg *config.Config, path, family string) (*viewer.Rows, func(), error) {
	s, err := openStore(cfg, path)
	if err != nil {
		return nil, nil, err
	}
	cf, err := s.Resolve(family)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	rows, err := s.Iterate(cf)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return rows, func() { s.Close() }, nil
}

func doScan(c *cli.Context) error {
	cfg := configFrom(c)
	path, args, err := storeArgs(c, cfg, 1)
	if err != nil {
		return err
	}
	limit, err := rowLimit(c, cfg)
	if err != nil {
		return err
	}
	format := cfg.View.Format
	if c.IsSet(formatFlag.Name) {
		format = c.String(formatFlag.Name)
	}

	var opts render.Options
	if f, ok := c.App.Writer.(*os.File); ok {
		opts = render.TerminalOptions(f)
	}
	w, err := render.New(format, c.App.Writer, opts)
	if err != nil {
		return err
	}

	rows, closeStore, err := openRows(cfg, path, args[0])
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := writeRows(w, rows, limit)
	if err != nil {
		logger.Warn("scan ended early", "family", args[0], "rows", n, "err", err)
		return err
	}
	return nil
}

// writeRows streams up to limit rows (all when limit <= 0) into w. Rows
// written before a scan error stay written.
func writeRows(w render.Writer, rows *viewer.Rows, limit int) (int, error) {
	defer rows.Close()
	for (limit <= 0 || rows.Count() < limit) && rows.Next() {
		if err := w.Write(rows.Family(), rows.Row()); err != nil {
			return rows.Count() - 1, errors.Join(err, w.Flush())
		}
	}
	if err := w.Flush(); err != nil {
		return rows.Count(), err
	}
	return rows.Count(), rows.Err()
}

func doExport(c *cli.Context) error {
	cfg := configFrom(c)
	path, args, err := storeArgs(c, cfg, 1)
	if err != nil {
		return err
	}
	limit, err := rowLimit(c, cfg)
	if err != nil {
		return err
	}

	rows, closeStore, err := openRows(cfg, path, args[0])
	if err != nil {
		return err
	}
	defer closeStore()

	target := c.String(outFlag.Name)
	file, err := os.Create(target)
	if err != nil {
		return err
	}
	n, exportErr := export.Rows(export.NewWriter(file), rows, limit)
	if err := errors.Join(exportErr, file.Close()); err != nil {
		return fmt.Errorf("exporting %s after %d rows: %w", args[0], n, err)
	}
	logger.Info("export done", "family", args[0], "rows", n, "file", target)
	return nil
}

func doBrowse(c *cli.Context) error {
	cfg := configFrom(c)
	path, _, err := storeArgs(c, cfg, 0)
	if err != nil {
		return err
	}
	limit, err := rowLimit(c, cfg)
	if err != nil {
		return err
	}

	// The browser owns the terminal; logs go to logging.file or nowhere.
	var logOut io.Writer = io.Discard
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logging.InitWriter(logOut, cfg.Logging.Level, cfg.Logging.Format)

	opts, err := openOptions(cfg)
	if err != nil {
		return err
	}
	s, err := viewer.Open(path, opts)
	if err != nil {
		return err
	}
	// Run closes whichever store is shown when the browser exits.
	return tui.Run(s, tui.Options{Limit: limit, Open: opts})
}
