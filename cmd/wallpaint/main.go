package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/gg"
	"github.com/spf13/pflag"
	"go.coder.com/cli"

	"github.com/erinpentecost/wallpaint/internal/config"
	"github.com/erinpentecost/wallpaint/internal/logging"
)

type rootCmd struct{}

func (r *rootCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "wallpaint",
		Usage: "[subcommand] [flags]",
		Desc:  "Repaint walls in room photos while keeping their light, shadow and texture.",
	}
}

func (r *rootCmd) Run(fl *pflag.FlagSet) {
	fl.Usage()
	os.Exit(2)
}

func (r *rootCmd) Subcommands() []cli.Command {
	return []cli.Command{
		&renderCmd{},
		&exportCmd{},
		&lightingCmd{},
	}
}

// settings are the flags shared by every subcommand.
type settings struct {
	configPath   string
	output       string
	whiteBalance bool
	compare      bool
	flags        config.Flags
}

func (s *settings) register(fl *pflag.FlagSet) {
	fl.StringVarP(&s.configPath, "config", "c", "", "YAML config file")
	fl.StringVarP(&s.output, "output", "o", "", "output file")
	fl.IntVar(&s.flags.WorkingSide, "working-side", 0, "longest side of the working image")
	fl.IntVar(&s.flags.Feather, "feather", 0, "edge feather radius in pixels")
	fl.IntVar(&s.flags.Workers, "workers", 0, "parallel mask workers")
	fl.StringVar(&s.flags.Format, "format", "", "output format: png, jpeg, webp or bmp")
	fl.IntVar(&s.flags.Quality, "quality", 0, "JPEG quality")
	fl.BoolVar(&s.whiteBalance, "white-balance", false, "gray-world white balance the photo first")
	fl.BoolVar(&s.compare, "compare", false, "also write a before/after image")
	fl.StringVar(&s.flags.LogLevel, "log-level", "", "debug, info, warn or error")
}

// resolve loads the config file, applies flags and installs the logger.
// Boolean flags override the file only when given on the command line.
func (s *settings) resolve(fl *pflag.FlagSet) (config.Config, error) {
	if fl.Changed("white-balance") {
		s.flags.WhiteBalance = &s.whiteBalance
	}
	if fl.Changed("compare") {
		s.flags.Compare = &s.compare
	}

	var cfg config.Config
	if s.configPath != "" {
		var err error
		if cfg, err = config.Load(s.configPath); err != nil {
			return config.Config{}, err
		}
	}
	cfg.Resolve(s.flags)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	level, _ := cfg.Level()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logging.SetLogger(log)
	gg.SetLogger(log)
	return cfg, nil
}

func fail(err error) {
	fmt.Printf("FAILED: %v\n", err)
	os.Exit(33)
}

func positional(fl *pflag.FlagSet, what string) string {
	if fl.NArg() != 1 {
		fail(fmt.Errorf("expected exactly one %s argument, got %d", what, fl.NArg()))
	}
	return fl.Arg(0)
}

type renderCmd struct{ settings }

func (c *renderCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "render",
		Usage: "[flags] <project.yaml>",
		Desc:  "Paint the project's layers onto the working resolution photo.",
	}
}

func (c *renderCmd) RegisterFlags(fl *pflag.FlagSet) { c.register(fl) }

func (c *renderCmd) Run(fl *pflag.FlagSet) {
	projectPath := positional(fl, "project")
	cfg, err := c.resolve(fl)
	if err != nil {
		fail(err)
	}
	if err := run(context.Background(), cfg, projectPath, c.output, false); err != nil {
		fail(err)
	}
}

type exportCmd struct{ settings }

func (c *exportCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "export",
		Usage: "[flags] <project.yaml>",
		Desc:  "Re-render the project's layers against the full resolution photo.",
	}
}

func (c *exportCmd) RegisterFlags(fl *pflag.FlagSet) { c.register(fl) }

func (c *exportCmd) Run(fl *pflag.FlagSet) {
	projectPath := positional(fl, "project")
	cfg, err := c.resolve(fl)
	if err != nil {
		fail(err)
	}
	if err := run(context.Background(), cfg, projectPath, c.output, true); err != nil {
		fail(err)
	}
}

type lightingCmd struct {
	settings
	full bool
}

func (c *lightingCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "lighting",
		Usage: "[flags] <photo>",
		Desc:  "Write the luminance, shadow and texture maps of a photo for inspection.",
	}
}

func (c *lightingCmd) RegisterFlags(fl *pflag.FlagSet) {
	c.register(fl)
	fl.BoolVar(&c.full, "full", false, "decompose at full resolution")
}

func (c *lightingCmd) Run(fl *pflag.FlagSet) {
	photo := positional(fl, "photo")
	cfg, err := c.resolve(fl)
	if err != nil {
		fail(err)
	}
	if err := dumpLighting(context.Background(), cfg, photo, c.output, c.full); err != nil {
		fail(err)
	}
}

func main() {
	cli.RunRoot(&rootCmd{})
}
