package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/substrate-tools/psvm/pkg/errors"
	"github.com/substrate-tools/psvm/pkg/rewrite"
	"github.com/substrate-tools/psvm/pkg/versions"
)

// updateOptions holds the root command's flag values.
type updateOptions struct {
	path      string
	version   string
	overwrite bool
	check     bool
	orml      bool
	list      bool
	cached    bool
}

// updateCommand creates the root command, which rewrites a Cargo manifest
// to a release's crate versions (or lists available releases with --list).
func (c *CLI) updateCommand() *cobra.Command {
	var opts updateOptions

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Polkadot SDK version manager",
		Long: `psvm updates the dependencies of a Cargo workspace to the crate versions
published for a given Polkadot SDK release. Versions are resolved from the
release's plan file, falling back to its lock file, and the manifest is
rewritten in place preserving its formatting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			if opts.list {
				return c.runList(cmd.Context(), cfg, opts)
			}
			if opts.version == "" {
				return fmt.Errorf("--version is required (or use --list to see available versions)")
			}
			return c.runUpdate(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.path, "path", "p", "Cargo.toml", "path to a Cargo.toml or its directory")
	cmd.Flags().StringVarP(&opts.version, "version", "v", "", "target Polkadot SDK release (e.g. 1.3.0, stable2407)")
	cmd.Flags().BoolVarP(&opts.overwrite, "overwrite", "o", false, "overwrite local path dependencies as well")
	cmd.Flags().BoolVarP(&opts.check, "check", "c", false, "check only, fail if dependencies are not up to date")
	cmd.Flags().BoolVarP(&opts.orml, "orml", "O", false, "include ORML crates")
	cmd.Flags().BoolVarP(&opts.list, "list", "l", false, "list available versions")
	cmd.Flags().BoolVarP(&opts.cached, "cached", "C", false, "serve --list from the local cache when possible")

	return cmd
}

func (c *CLI) runUpdate(ctx context.Context, cfg Config, opts updateOptions) error {
	path, err := resolveManifestPath(opts.path)
	if err != nil {
		return err
	}

	original, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read manifest %s", path)
	}

	p := newProgress(c.Logger)
	// An update must see releases published since the listing was last
	// cached; the cached listing is only for --list --cached.
	mapping, err := c.newResolver(cfg).Resolve(ctx, opts.version, versions.Options{
		IncludeOrml: opts.orml,
		Refresh:     true,
	})
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Resolved %d crate versions for %s", len(mapping), opts.version))

	outcome, err := rewrite.Rewrite(string(original), mapping, rewrite.Options{
		OverwriteLocal: opts.overwrite,
		Logger:         c.Logger,
	})
	if err != nil {
		return err
	}

	if opts.check {
		if outcome.Changed {
			return errors.New(errors.ErrCodeCheckFailed, "Dependencies are not up to date")
		}
		printSuccess("Dependencies are up to date with %s", opts.version)
		return nil
	}

	if !outcome.Changed {
		printInfo("Dependencies already match %s, nothing to do", opts.version)
		return nil
	}

	if err := writeManifest(path, outcome.Text); err != nil {
		return err
	}
	printSuccess("Updated dependencies to Polkadot SDK %s", opts.version)
	printDetail("Manifest: %s", path)
	return nil
}

func (c *CLI) runList(ctx context.Context, cfg Config, opts updateOptions) error {
	resolver := c.newResolver(cfg)
	refresh := !opts.cached

	var (
		list []string
		err  error
	)
	if opts.orml {
		list, err = resolver.OrmlVersions(ctx, refresh)
	} else {
		list, err = resolver.SDKVersions(ctx, refresh)
	}
	if err != nil {
		return err
	}

	for _, v := range list {
		fmt.Println(v)
	}
	return nil
}

// resolveManifestPath validates the --path flag. A directory gets
// Cargo.toml appended; the final path must exist.
func resolveManifestPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "no manifest at %s", path)
	}
	if info.IsDir() {
		path = filepath.Join(path, "Cargo.toml")
		if _, err := os.Stat(path); err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "no manifest at %s", path)
		}
	}
	return path, nil
}

// writeManifest replaces the manifest contents, preserving its file mode.
func writeManifest(path, text string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(text), mode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write manifest %s", path)
	}
	return nil
}
