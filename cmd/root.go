package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pipshow-dev/pipshow/internal/cache"
	"github.com/pipshow-dev/pipshow/internal/clients"
	"github.com/pipshow-dev/pipshow/internal/depindex"
	"github.com/pipshow-dev/pipshow/internal/logging"
	"github.com/pipshow-dev/pipshow/internal/models"
	"github.com/pipshow-dev/pipshow/internal/pep508"
	"github.com/pipshow-dev/pipshow/internal/pyenv"
	"github.com/pipshow-dev/pipshow/internal/reporter"
	"github.com/pipshow-dev/pipshow/internal/sitepackages"
)

var (
	flagPython      string
	flagSystem      bool
	flagStrict      bool
	flagFiles       bool
	flagCheckLatest bool
	flagFormat      string
	flagOutput      string
	flagNoCache     bool
	flagTimeout     int
	flagVerbose     bool
	flagConfig      string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pipshow [packages...]",
	Short: "Show information about installed Python packages",
	Long: `pipshow inspects the installed packages of a Python environment and
prints, for each requested package, its version, install location, active
direct dependencies (Requires) and the installed packages that depend on it
(Required-by).

Dependency declarations are filtered by the environment's PEP 508 markers,
so only requirements that are active for the inspected interpreter and
platform are shown. Metadata is parsed lazily: only the requested packages
and, for Required-by, one pass over the rest of the catalog.

Examples:
  # Show a package in the active virtual environment
  pipshow requests

  # Several packages, with their installed files
  pipshow --files flask jinja2

  # Inspect a specific interpreter
  pipshow --python /opt/py311/bin/python numpy

  # Machine-readable output
  pipshow --format json requests

  # Check the environment for broken or duplicate installs
  pipshow --strict requests`,
	Args: cobra.ArbitraryArgs,
	RunE: runShow,

	SilenceUsage: true,
}

// Execute runs the root command and sets the process exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&flagPython, "python", "p", "", "Python interpreter to inspect (path or PATH name)")
	rootCmd.Flags().BoolVar(&flagSystem, "system", false, "Allow the base interpreter when no virtual environment is active")
	rootCmd.Flags().BoolVar(&flagStrict, "strict", false, "Report environment-consistency problems on stderr")
	rootCmd.Flags().BoolVar(&flagFiles, "files", false, "List the installed files of each package")
	rootCmd.Flags().BoolVar(&flagCheckLatest, "check-latest", false, "Query PyPI for the newest release of each package")
	rootCmd.Flags().StringVarP(&flagFormat, "format", "f", "terminal", "Output format: terminal, json, yaml")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Disable interpreter-probe and PyPI caching")
	rootCmd.Flags().IntVar(&flagTimeout, "timeout", 30, "HTTP request timeout in seconds")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Config file (default: ~/.config/pipshow/config.toml)")
}

// loadConfig resolves the effective configuration: defaults, then the
// config file, then any flags set on the command line.
func loadConfig(cmd *cobra.Command) (*models.Config, error) {
	config := models.DefaultConfig()

	path := flagConfig
	if path == "" {
		if p := models.DefaultConfigPath(); p != "" {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		if err := config.LoadFile(path); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("python") {
		config.Python = flagPython
	}
	if flags.Changed("system") {
		config.System = flagSystem
	}
	if flags.Changed("strict") {
		config.Strict = flagStrict
	}
	if flags.Changed("files") {
		config.Files = flagFiles
	}
	if flags.Changed("check-latest") {
		config.CheckLatest = flagCheckLatest
	}
	if flags.Changed("format") {
		config.OutputFormat = flagFormat
	}
	if flags.Changed("output") {
		config.OutputFile = flagOutput
	}
	if flags.Changed("no-cache") {
		config.NoCache = flagNoCache
	}
	if flags.Changed("timeout") {
		config.Timeout = time.Duration(flagTimeout) * time.Second
	}
	if flags.Changed("verbose") {
		config.Verbose = flagVerbose
	}
	return config, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "warning: Please provide a package name or names.")
		os.Exit(1)
	}

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(config.Verbose)

	var fileCache *cache.Cache
	if !config.NoCache {
		fileCache, err = cache.New("pipshow", config.CacheTTL)
		if err != nil {
			// Non-fatal: continue without cache.
			logger.WithError(err).Debug("cache unavailable")
			fileCache = nil
		}
	}

	ctx := context.Background()

	// Resolve the target environment.
	exe, err := pyenv.Discover(config.Python, config.System)
	if err != nil {
		return err
	}
	env, err := pyenv.Probe(ctx, exe, fileCache, logger)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"python": env.Executable,
		"prefix": env.Prefix,
	}).Debug("resolved environment")

	// Snapshot the installed catalog.
	catalog, err := sitepackages.Scan(env.SitePackages)
	if err != nil {
		return err
	}
	logger.WithField("installed", catalog.Len()).Debug("scanned site-packages")

	// Sort and deduplicate the requested names.
	names := make([]string, 0, len(args))
	seen := make(map[string]bool, len(args))
	for _, arg := range args {
		name := pep508.NormalizeName(arg)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)

	// Map to installed distributions and collect missing names.
	var targets []*sitepackages.Distribution
	var missing []string
	for _, name := range names {
		installed := catalog.Find(name)
		if len(installed) == 0 {
			missing = append(missing, name)
			continue
		}
		targets = append(targets, installed...)
	}

	if len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "warning: Package(s) not found for: %s\n", strings.Join(missing, ", "))
	}

	// Like pip, finding none of the requested packages is a failure.
	if len(targets) == 0 {
		os.Exit(1)
	}

	index := depindex.Build(asIndexDists(targets), asIndexDists(catalog.All()), env.Environment)

	report, err := buildReport(ctx, config, logger, env, catalog, targets, index, missing, fileCache)
	if err != nil {
		return err
	}

	rep := reporter.Get(config.OutputFormat)
	output, err := rep.Report(*report)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if config.OutputFile != "" {
		if err := os.WriteFile(config.OutputFile, output, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", config.OutputFile)
	} else {
		fmt.Print(string(output))
	}

	// Strict diagnostics go to stderr so they never pollute the report.
	for _, diag := range report.Diagnostics {
		fmt.Fprintf(os.Stderr, "warning: %s\n", diag)
	}

	return nil
}

func buildReport(
	ctx context.Context,
	config *models.Config,
	logger *logrus.Logger,
	env *pyenv.Info,
	catalog *sitepackages.Catalog,
	targets []*sitepackages.Distribution,
	index *depindex.Index,
	missing []string,
	fileCache *cache.Cache,
) (*models.Report, error) {
	report := &models.Report{NotFound: missing}

	var pypi *clients.PyPIClient
	if config.CheckLatest {
		pypi = clients.NewPyPIClient(fileCache, config.Timeout)
	}

	for _, dist := range targets {
		pkg := models.Package{
			Name:     dist.Name(),
			Version:  dist.Version(),
			Location: dist.Location(),
		}

		editable, err := dist.EditableLocation()
		if err != nil {
			logger.WithError(err).Warnf("could not determine editable location for %s", dist.Name())
		}
		pkg.EditableLocation = editable

		if requires, ok := index.Requires(dist.Name()); ok {
			pkg.RequiresKnown = true
			pkg.Requires = requires
			pkg.RequiredBy = index.RequiredBy(dist.Name())
		}

		if config.Files {
			files, err := dist.Files()
			if err != nil {
				return nil, err
			}
			pkg.Files = files
		}

		if pypi != nil {
			latest, err := pypi.LatestVersion(ctx, dist.Name())
			if err != nil {
				logger.WithError(err).Warnf("could not check latest version of %s", dist.Name())
			} else {
				pkg.LatestVersion = latest
			}
		}

		report.Packages = append(report.Packages, pkg)
	}

	if config.Strict {
		for _, diag := range sitepackages.Diagnostics(catalog, env.Environment) {
			report.Diagnostics = append(report.Diagnostics, diag.Message)
		}
	}

	return report, nil
}

func asIndexDists(dists []*sitepackages.Distribution) []depindex.Distribution {
	out := make([]depindex.Distribution, len(dists))
	for i, d := range dists {
		out[i] = d
	}
	return out
}
