// Package cli implements the psvm command-line interface.
//
// The root command updates a Cargo workspace to the crate versions of a
// Polkadot SDK release, with flags for check mode, path-dependency
// overwriting, ORML augmentation, and version listing. Supporting
// subcommands manage the on-disk version-list cache and generate shell
// completions.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/substrate-tools/psvm/pkg/buildinfo"
	"github.com/substrate-tools/psvm/pkg/httputil"
	"github.com/substrate-tools/psvm/pkg/integrations/crates"
	"github.com/substrate-tools/psvm/pkg/integrations/github"
	"github.com/substrate-tools/psvm/pkg/versions"
)

// appName is the application name used for directories and display.
const appName = "psvm"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Build info lives on a `version` subcommand: the root's -v/--version flag
// names the target release, so cobra's built-in version handling (which
// reads a bool flag of the same name) must stay disabled.
func (c *CLI) RootCommand() *cobra.Command {
	root := c.updateCommand()
	root.SilenceUsage = true

	root.AddCommand(c.versionCommand())
	root.AddCommand(c.updateCacheCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// versionCommand creates the version subcommand, printing ldflags build info.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(appName + " " + buildinfo.String())
		},
	}
}

// newResolver wires the remote clients and the embedded registry into a
// version resolver configured per cfg.
func (c *CLI) newResolver(cfg Config) *versions.Resolver {
	cache := c.newCache(cfg.CacheTTL)

	gh := github.NewClient(cfg.GithubToken, cache)
	if cfg.GitServer != "" {
		gh.RawServer = cfg.GitServer
	}

	registry, err := versions.NewEmbeddedRegistry()
	if err != nil {
		c.Logger.Warn("embedded release registry unavailable", "err", err)
	}

	return versions.NewResolver(gh, crates.NewClient(cache), registry, c.Logger)
}

func (c *CLI) newCache(ttl time.Duration) *httputil.Cache {
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Debug("cache directory unavailable, caching disabled", "err", err)
		return nil
	}
	cache, err := httputil.NewCache(dir, ttl)
	if err != nil {
		c.Logger.Debug("cache init failed, caching disabled", "err", err)
		return nil
	}
	return cache
}

// cacheDir returns the cache directory using XDG standard (~/.cache/psvm/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
