package main

import (
	"fmt"
	"os"

	"dbviewer/internal/config"
	"dbviewer/internal/logging"

	"github.com/urfave/cli/v2"
)

const configKey = "config"

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to config file (default " + config.DefaultPath + ")",
	}
	engineFlag = cli.StringFlag{
		Name:  "engine",
		Usage: "storage engine: auto, bolt or leveldb (overrides config)",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "debug, info, warn or error (overrides config)",
	}
	logFormatFlag = cli.StringFlag{
		Name:  "log-format",
		Usage: "text or json (overrides config)",
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "dbviewer",
		Usage: "read-only viewer for node databases",
		Flags: []cli.Flag{
			&configFlag,
			&engineFlag,
			&logLevelFlag,
			&logFormatFlag,
		},
		Before: setup,
		Commands: []*cli.Command{
			&FamiliesCmd,
			&LayoutsCmd,
			&ScanCmd,
			&ExportCmd,
			&BrowseCmd,
		},
	}
}

// setup loads the config file, applies flag overrides and starts logging.
// The resulting config is kept in the app metadata for the commands.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return err
	}

	// CLI flags override config file values
	if c.IsSet(engineFlag.Name) {
		cfg.Store.Engine = c.String(engineFlag.Name)
	}
	if c.IsSet(logLevelFlag.Name) {
		cfg.Logging.Level = c.String(logLevelFlag.Name)
	}
	if c.IsSet(logFormatFlag.Name) {
		cfg.Logging.Format = c.String(logFormatFlag.Name)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	cfg.Store.Path = config.ExpandHome(cfg.Store.Path)
	cfg.Logging.File = config.ExpandHome(cfg.Logging.File)
	logging.Init(cfg.Logging.Level, cfg.Logging.Format)

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]interface{})
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Defaults()
}
