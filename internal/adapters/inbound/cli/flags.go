package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/config"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/detector"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/tui"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath     string
	directory      string
	detector       string
	detectorConfig []string
	color          bool
	noColor        bool
	verbose        bool
}

func (g *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Path to the configuration file (TOML, or YAML by extension)")
	pf.StringVarP(&g.directory, "directory", "C", ".", "Top-level directory with a go.mod file and vendor directory")
	pf.StringVarP(&g.detector, "detector", "d", "", fmt.Sprintf("License detector, one of %s (default: autodetect)", strings.Join(detector.Names(), ", ")))
	pf.StringArrayVarP(&g.detectorConfig, "detector-config", "D", nil, "KEY=VALUE pairs passed to the license detector; may be repeated")
	pf.BoolVar(&g.color, "color", false, "Always color the output")
	pf.BoolVar(&g.noColor, "no-color", false, "Never color the output")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Log debug messages to stderr")
}

// env is what a subcommand needs after the persistent flags are resolved.
type env struct {
	directory string
	config    domain.Config
	logger    *log.Logger
}

func (g *globalFlags) setup(cmd *cobra.Command) (*env, error) {
	info, err := os.Stat(g.directory)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s must exist and be a directory", g.directory)
	}
	cfg, err := config.New().Load(g.configPath)
	if err != nil {
		return nil, err
	}
	return &env{directory: g.directory, config: cfg, logger: g.logger(cmd)}, nil
}

func (g *globalFlags) logger(cmd *cobra.Command) *log.Logger {
	l := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: cmd.Root().Name()})
	if g.verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// detectorName prefers the flag over the configured detector.
func (g *globalFlags) detectorName(cfg domain.Config) string {
	if g.detector != "" {
		return g.detector
	}
	return cfg.Licensing.Detector
}

func (g *globalFlags) loadDetectors(e *env) (*detector.Registry, error) {
	return detector.Load(splitKV(g.detectorConfig), e.config.Licensing, detector.WithLogger(e.logger))
}

// chooseDetector picks the requested backend. When nothing is available the
// reason each backend is missing goes to stderr.
func (g *globalFlags) chooseDetector(cmd *cobra.Command, e *env) (domain.Detector, error) {
	reg, err := g.loadDetectors(e)
	if err != nil {
		return nil, err
	}
	name := g.detectorName(e.config)
	d, err := reg.Choose(name)
	switch {
	case errors.Is(err, domain.ErrNoDetector):
		w := cmd.ErrOrStderr()
		fmt.Fprintln(w, "Failed to load license detectors:")
		for _, n := range detector.Names() {
			if reason, ok := reg.Missing[n]; ok {
				fmt.Fprintf(w, "! %s: %v\n", n, reason)
			}
		}
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("failed to get detector %q: %w", name, err)
	}
	e.logger.Debug("using detector", "name", d.Name())
	return d, nil
}

// useColor resolves --color/--no-color, then NO_COLOR, then whether w is a
// terminal.
func (g *globalFlags) useColor(w io.Writer) bool {
	switch {
	case g.noColor:
		return false
	case g.color:
		return true
	case os.Getenv("NO_COLOR") != "":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (g *globalFlags) renderer(w io.Writer) *tui.Renderer {
	return tui.NewRenderer(w, g.useColor(w))
}

// prompter asks with a form on a terminal and reads lines otherwise.
func prompter(cmd *cobra.Command) domain.Prompter {
	if f, ok := cmd.InOrStdin().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return tui.NewFormPrompter()
	}
	return tui.NewLinePrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
}

// splitKV parses KEY=VALUE options. One option may carry several pairs
// separated by ";".
func splitKV(opts []string) map[string]string {
	out := make(map[string]string)
	for _, opt := range opts {
		for _, pair := range strings.Split(opt, ";") {
			if pair == "" {
				continue
			}
			key, value, _ := strings.Cut(pair, "=")
			out[key] = value
		}
	}
	return out
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
