// Package rewrite applies a crate-name to version mapping onto a Cargo.toml
// document while preserving everything it does not touch byte-for-byte.
//
// The engine is pure: text in, text (or an unchanged signal) out. Reading
// and writing files is the command surface's job, which is also where the
// check-only policy (treat "changed" as a failure) lives.
package rewrite

import (
	"io"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/substrate-tools/psvm/pkg/errors"
	"github.com/substrate-tools/psvm/pkg/tomledit"
)

// depTables are the dependency tables the engine operates on, either at the
// document root or under [workspace], never both.
var depTables = []string{"dependencies", "dev-dependencies", "build-dependencies"}

// vcsKeys never survive a rewrite: a declaration pinned to a released
// version must not also reference a git ref or local path.
var vcsKeys = map[string]bool{
	"git":    true,
	"rev":    true,
	"branch": true,
	"tag":    true,
	"path":   true,
}

// Outcome is the result of a rewrite: either unchanged (original bytes
// preserved exactly) or changed, carrying the full new document text.
type Outcome struct {
	Changed bool
	Text    string // full new document text, set only when Changed
}

// Options control per-entry behavior.
type Options struct {
	// OverwriteLocal rewrites declarations that use a local path. By
	// default those are intentional development overrides and are left
	// fully untouched.
	OverwriteLocal bool

	// Logger receives per-entry diagnostics. Nil discards them.
	Logger *log.Logger
}

// Rewrite updates every matching dependency declaration in the document to
// the version in the mapping, following the canonicalization rules:
//
//   - the lookup name is the declaration's `package` rename when present,
//     otherwise its key
//   - names absent from the mapping are skipped silently
//   - structured declarations are rebuilt as a canonical single-line inline
//     table: version first, then the remaining directly-valued keys in
//     original order; git/rev/branch/tag/path are removed
//   - bare string declarations are replaced in place
//   - unknown value shapes are logged and skipped, never fatal
//
// The outcome is decided by comparing the serialized document against the
// input text, so formatting noise from touched entries can never produce a
// false "changed" for a semantically identical document.
func Rewrite(text string, versions map[string]string, opts Options) (Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	doc, err := tomledit.Parse(text)
	if err != nil {
		return Outcome{}, errors.Wrap(errors.ErrCodeRewrite, err, "manifest does not parse")
	}

	var scope []string
	if _, ok := doc.Table("workspace"); ok {
		scope = []string{"workspace"}
	}

	for _, name := range depTables {
		tbl, ok := doc.Table(append(scope, name)...)
		if !ok {
			continue
		}
		rewriteTable(tbl, versions, opts.OverwriteLocal, logger)
	}

	out := doc.String()
	if out == text {
		return Outcome{Changed: false}, nil
	}
	return Outcome{Changed: true, Text: out}, nil
}

func rewriteTable(t *tomledit.Table, versions map[string]string, overwriteLocal bool, logger *log.Logger) {
	for _, e := range t.Entries() {
		// account for dependency renaming
		lookup := e.Key()
		if rec, ok := e.Value().(*tomledit.Record); ok {
			if pkg, ok := rec.GetString("package"); ok {
				lookup = pkg
			}
		}

		version, ok := versions[lookup]
		if !ok {
			logger.Debug("no version for dependency", "crate", lookup)
			continue
		}

		switch v := e.Value().(type) {
		case *tomledit.Record:
			if !overwriteLocal && v.Has("path") {
				continue
			}
			pairs := []tomledit.Pair{{Key: "version", RawValue: strconv.Quote(version)}}
			for _, p := range v.Pairs() {
				if p.Key == "version" || vcsKeys[p.Key] || p.IsRecord {
					continue
				}
				pairs = append(pairs, p)
			}
			e.SetInline(pairs)
		case *tomledit.String:
			e.SetString(version)
		default:
			logger.Warn("unexpected dependency value shape", "crate", e.Key())
			continue
		}

		logger.Debug("setting dependency version", "crate", e.Key(), "version", version)
	}
}
