// routeaudit reports the page routes of a Blazor UI, their authorization
// requirements, and whether every link in the tree points at a known route.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phobologic/routeaudit/internal/audit"
	"github.com/phobologic/routeaudit/internal/config"
	"github.com/phobologic/routeaudit/internal/diffcheck"
	"github.com/phobologic/routeaudit/internal/logging"
	"github.com/phobologic/routeaudit/internal/model"
	"github.com/phobologic/routeaudit/internal/report"
	"github.com/phobologic/routeaudit/internal/toon"
)

var version = "dev"

var (
	errDrift        = errors.New("report differs from checked-in copy")
	errUnknownLinks = errors.New("unknown link destinations found")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runContext(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, audit.ErrRootNotFound):
		return 2
	case errors.Is(err, errDrift), errors.Is(err, errUnknownLinks):
		return 3
	}
	return 1
}

func run(args []string, stdout, stderr io.Writer) error {
	return runContext(context.Background(), args, stdout, stderr)
}

func runContext(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// outputs holds the output-selection flags of the root command.
type outputs struct {
	out           string
	csvDir        string
	htmlPath      string
	toonPath      string
	yamlPath      string
	check         string
	failOnUnknown bool
}

// needsResult reports whether any requested output needs the audit records
// rather than only the Markdown report.
func (o outputs) needsResult() bool {
	return o.csvDir != "" || o.toonPath != "" || o.yamlPath != "" || o.failOnUnknown
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		o           outputs
		configFile  string
		cachePath   string
		watch       bool
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:   "routeaudit [flags] [root]",
		Short: "Audit Blazor page routes, their authorization, and the links that target them.",
		Long: `routeaudit discovers @page and [Route] declarations, records whether each
route requires authorization and which roles it needs, then classifies every
href and NavigateTo destination as external, matched, or unknown.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				_, _ = fmt.Fprintf(stdout, "routeaudit %s\n", version)
				return nil
			}

			root, cfg, err := setup(cmd, configFile, args)
			if err != nil {
				return err
			}

			name := filepath.Base(root)
			once := func() error {
				if cachePath != "" && !o.needsResult() {
					if md, ok := cachedReport(cachePath, root, cfg); ok {
						logging.Log.Debugf("using cached report %s", cachePath)
						return emit(name, nil, md, o, stdout)
					}
				}
				res, md, err := generate(root, cfg)
				if err != nil {
					return err
				}
				if cachePath != "" {
					if err := report.WriteFileAtomic(cachePath, []byte(md)); err != nil {
						logging.Log.Warnf("writing cache: %v", err)
					}
				}
				return emit(name, res, md, o, stdout)
			}

			if !watch {
				return once()
			}
			if err := once(); err != nil && !isReportOutcome(err) {
				return err
			}
			suffixes := append(audit.RouteSuffixes(), cfg.ScanSuffixes...)
			filter := watchFilter(suffixes, o.out, o.htmlPath, o.toonPath, o.yamlPath, cachePath)
			return watchTree(cmd.Context(), root, filter, func() {
				if err := once(); err != nil {
					logging.Log.Warnf("audit: %v", err)
				}
			})
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default is .routeaudit.yaml in the root, then $HOME)")
	pf.StringP("loglevel", "l", "info", "log level: debug, info, warn, error, fatal")
	pf.String("style", "markdown", "status style: markdown or plain")
	pf.String("langs", "", "comma-separated route languages to include (razor, csharp)")
	pf.Int64("max-file-size", 1_000_000, "skip files larger than this many bytes")
	pf.Bool("no-gitignore", false, "include files ignored by git")

	f := cmd.Flags()
	f.StringVarP(&o.out, "out", "o", "", "write the Markdown report to this file instead of stdout")
	f.StringVar(&o.csvDir, "csv", "", "write routes.csv and links.csv to this directory")
	f.StringVar(&o.htmlPath, "html", "", "write an HTML rendering of the report to this file")
	f.StringVar(&o.toonPath, "toon", "", "write a TOON dump of the records to this file")
	f.StringVar(&o.yamlPath, "yaml", "", "write a YAML dump of the records to this file")
	f.StringVar(&cachePath, "cache", "", "reuse the report stored in this file while no audited file is newer")
	f.StringVar(&o.check, "check", "", "fail if the report differs from this file, printing a diff")
	f.BoolVar(&o.failOnUnknown, "fail-on-unknown", false, "fail when any link destination is unknown")
	f.BoolVar(&watch, "watch", false, "rerun whenever files under the root change")
	f.BoolVarP(&showVersion, "version", "V", false, "show version and exit")

	cmd.AddCommand(newEmbedCmd(stdout, stderr))
	return cmd
}

// setup resolves the root argument, loads configuration and configures
// logging.
func setup(cmd *cobra.Command, configFile string, args []string) (string, config.Config, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", config.Config{}, fmt.Errorf("resolving root: %w", err)
	}

	logging.SetOutput(cmd.ErrOrStderr())
	v := config.New(cmd.Flags())
	cfg, err := config.Load(v, configFile, root)
	if err != nil {
		return "", config.Config{}, err
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return "", config.Config{}, err
	}
	if cfg.File != "" {
		logging.Log.Debugf("using config %s", cfg.File)
	}
	return root, cfg, nil
}

// generate audits root and renders the Markdown report.
func generate(root string, cfg config.Config) (*model.Result, string, error) {
	style, err := report.StyleByName(cfg.Style)
	if err != nil {
		return nil, "", err
	}
	res, err := audit.Run(root, cfg.Options())
	if err != nil {
		return nil, "", err
	}
	logging.Log.Infof("%d routes, %d links (%d unknown)", len(res.Routes), len(res.Links), res.Count(model.Unknown))
	md := report.NewBuilder(res).WithStyle(style).Markdown()
	return res, md, nil
}

// emit writes every requested output. Outputs are rendered before any file
// is written so an encoding failure leaves nothing behind. res is nil when md
// came from the cache, in which case o never needs it.
func emit(name string, res *model.Result, md string, o outputs, stdout io.Writer) error {
	var htmlPage, yamlDoc []byte
	var err error
	if o.htmlPath != "" {
		if htmlPage, err = report.HTML("Route audit: "+name, md); err != nil {
			return fmt.Errorf("rendering html: %w", err)
		}
	}
	if o.yamlPath != "" {
		if yamlDoc, err = report.YAML(res); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
	}

	switch {
	case o.out != "":
		if err := report.WriteFileAtomic(o.out, []byte(md)); err != nil {
			return fmt.Errorf("writing %s: %w", o.out, err)
		}
	case o.check == "":
		_, _ = fmt.Fprint(stdout, md)
	}
	if o.csvDir != "" {
		if err := report.WriteCSV(o.csvDir, res); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
	}
	if htmlPage != nil {
		if err := report.WriteFileAtomic(o.htmlPath, htmlPage); err != nil {
			return fmt.Errorf("writing %s: %w", o.htmlPath, err)
		}
	}
	if o.toonPath != "" {
		if err := report.WriteFileAtomic(o.toonPath, []byte(toon.Encode(res)+"\n")); err != nil {
			return fmt.Errorf("writing %s: %w", o.toonPath, err)
		}
	}
	if yamlDoc != nil {
		if err := report.WriteFileAtomic(o.yamlPath, yamlDoc); err != nil {
			return fmt.Errorf("writing %s: %w", o.yamlPath, err)
		}
	}

	if o.check != "" {
		if err := checkDrift(o.check, md, stdout); err != nil {
			return err
		}
	}
	if o.failOnUnknown {
		if n := res.Count(model.Unknown); n > 0 {
			return fmt.Errorf("%w: %d", errUnknownLinks, n)
		}
	}
	return nil
}

// cachedReport returns the report stored at cachePath when neither the config
// file nor any route or scan file under root is newer than it.
func cachedReport(cachePath, root string, cfg config.Config) (string, bool) {
	routeFiles, scanFiles, err := audit.Discover(root, cfg.Options())
	if err != nil {
		return "", false
	}
	paths := make([]string, 0, len(routeFiles)+len(scanFiles)+1)
	for _, f := range append(routeFiles, scanFiles...) {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(f.Path)))
	}
	if cfg.File != "" {
		paths = append(paths, cfg.File)
	}
	if !cacheIsFresh(cachePath, paths) {
		return "", false
	}
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func cacheIsFresh(cachePath string, paths []string) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

func checkDrift(path, md string, stdout io.Writer) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	d, err := diffcheck.Unified(path, "generated", string(existing), md)
	if err != nil {
		return fmt.Errorf("diffing %s: %w", path, err)
	}
	if d == "" {
		return nil
	}
	_, _ = fmt.Fprint(stdout, d)
	return fmt.Errorf("%w: %s", errDrift, path)
}

// isReportOutcome reports whether err describes the audited tree rather than
// a failure to audit it.
func isReportOutcome(err error) bool {
	return errors.Is(err, errDrift) || errors.Is(err, errUnknownLinks)
}
