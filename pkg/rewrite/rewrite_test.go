package rewrite

import (
	"strings"
	"testing"

	"github.com/substrate-tools/psvm/pkg/errors"
)

var sdkVersions = map[string]string{
	"sp-core":       "21.0.0",
	"sp-runtime":    "24.0.0",
	"frame-support": "21.0.0",
	"frame-system":  "21.0.0",
}

func TestRewrite_BareString(t *testing.T) {
	in := `[dependencies]
sp-core = "6.0.0"
`
	out, err := Rewrite(in, sdkVersions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := `[dependencies]
sp-core = "21.0.0"
`
	if !out.Changed || out.Text != want {
		t.Errorf("got changed=%v text:\n%q\nwant:\n%q", out.Changed, out.Text, want)
	}
}

func TestRewrite_CanonicalInlineForm(t *testing.T) {
	// Version comes first, git/branch are removed, the remaining keys keep
	// their original relative order.
	in := `[dependencies]
sp-core = { git = "https://github.com/paritytech/substrate", branch = "polkadot-v0.9.43", default-features = false, features = ["full_crypto"] }
`
	out, err := Rewrite(in, sdkVersions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := `[dependencies]
sp-core = { version = "21.0.0", default-features = false, features = ["full_crypto"] }
`
	if out.Text != want {
		t.Errorf("got:\n%q\nwant:\n%q", out.Text, want)
	}
}

func TestRewrite_StripsAllSourceKeys(t *testing.T) {
	in := `[dependencies]
sp-core = { git = "https://example.com", rev = "abc123", tag = "v1", version = "6.0.0" }
`
	out, err := Rewrite(in, sdkVersions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"git", "rev", "tag"} {
		if strings.Contains(out.Text, key+" =") {
			t.Errorf("%s key survived: %s", key, out.Text)
		}
	}
	if !strings.Contains(out.Text, `sp-core = { version = "21.0.0" }`) {
		t.Errorf("unexpected output: %s", out.Text)
	}
}

func TestRewrite_PathDependencies(t *testing.T) {
	in := `[dependencies]
sp-core = { path = "../substrate/primitives/core", default-features = false }
`
	out, err := Rewrite(in, sdkVersions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Changed {
		t.Errorf("path dependency rewritten without overwrite: %s", out.Text)
	}

	out, err = Rewrite(in, sdkVersions, Options{OverwriteLocal: true})
	if err != nil {
		t.Fatal(err)
	}
	want := `[dependencies]
sp-core = { version = "21.0.0", default-features = false }
`
	if out.Text != want {
		t.Errorf("overwrite: got:\n%q\nwant:\n%q", out.Text, want)
	}
}

func TestRewrite_RenamedDependency(t *testing.T) {
	// The mapping is keyed by the real crate name, found via `package`.
	in := `[dependencies]
support = { package = "frame-support", version = "6.0.0", default-features = false }
`
	out, err := Rewrite(in, sdkVersions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := `[dependencies]
support = { version = "21.0.0", package = "frame-support", default-features = false }
`
	if out.Text != want {
		t.Errorf("got:\n%q\nwant:\n%q", out.Text, want)
	}
}

func TestRewrite_WorkspaceScope(t *testing.T) {
	// With a [workspace] table present, only workspace.* dependency tables
	// are rewritten; the root tables belong to member crates inheriting
	// from the workspace.
	in := `[workspace]
members = ["node", "runtime"]

[workspace.dependencies]
sp-core = { git = "https://example.com", branch = "master" }

[dependencies]
sp-runtime = "6.0.0"
`
	out, err := Rewrite(in, sdkVersions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Text, `sp-core = { version = "21.0.0" }`) {
		t.Errorf("workspace dependency not rewritten:\n%s", out.Text)
	}
	if !strings.Contains(out.Text, `sp-runtime = "6.0.0"`) {
		t.Errorf("root dependency rewritten in workspace context:\n%s", out.Text)
	}
}

func TestRewrite_AllDependencyTables(t *testing.T) {
	in := `[dependencies]
sp-core = "6.0.0"

[dev-dependencies]
sp-runtime = "6.0.0"

[build-dependencies]
frame-support = "6.0.0"
`
	out, err := Rewrite(in, sdkVersions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`sp-core = "21.0.0"`,
		`sp-runtime = "24.0.0"`,
		`frame-support = "21.0.0"`,
	} {
		if !strings.Contains(out.Text, want) {
			t.Errorf("missing %q in:\n%s", want, out.Text)
		}
	}
}

func TestRewrite_SectionDependency(t *testing.T) {
	in := `[dependencies]
serde = "1.0"

[dependencies.sp-core]
git = "https://example.com"
branch = "master"
default-features = false
`
	out, err := Rewrite(in, sdkVersions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Text, `sp-core = { version = "21.0.0", default-features = false }`) {
		t.Errorf("section not converted:\n%s", out.Text)
	}
	if strings.Contains(out.Text, "[dependencies.sp-core]") {
		t.Errorf("section header survived:\n%s", out.Text)
	}
}

func TestRewrite_UnknownNamesAndShapesSkipped(t *testing.T) {
	in := `[dependencies]
serde = "1.0"
clap = { version = "4.0", features = ["derive"] }
`
	out, err := Rewrite(in, sdkVersions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Changed {
		t.Errorf("document with no mapped crates reported changed:\n%s", out.Text)
	}
}

func TestRewrite_UnchangedIsByteIdentical(t *testing.T) {
	// A manifest already in canonical form at the target versions must
	// come back unchanged even though its entries are rebuilt.
	in := `# workspace manifest
[dependencies]
sp-core = { version = "21.0.0", default-features = false }
sp-runtime = "24.0.0"
`
	out, err := Rewrite(in, sdkVersions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Changed {
		t.Errorf("up-to-date manifest reported changed:\n%q", out.Text)
	}
}

func TestRewrite_Idempotent(t *testing.T) {
	in := `[dependencies]
sp-core = { git = "https://example.com", branch = "master", features = ["std"] }
sp-runtime = "6.0.0"
unrelated = "0.1.0"
`
	first, err := Rewrite(in, sdkVersions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !first.Changed {
		t.Fatal("expected first pass to change the document")
	}

	second, err := Rewrite(first.Text, sdkVersions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if second.Changed {
		t.Errorf("second pass changed the document again:\n%q vs\n%q", second.Text, first.Text)
	}
}

func TestRewrite_PreservesSurroundings(t *testing.T) {
	in := `# build configuration
[package]
name = "runtime"
version = "0.1.0"    # crate version, not SDK version

[dependencies]
sp-core = "6.0.0"

[features]
std = ["sp-core/std"]
`
	out, err := Rewrite(in, sdkVersions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"# build configuration",
		`version = "0.1.0"    # crate version, not SDK version`,
		`std = ["sp-core/std"]`,
	} {
		if !strings.Contains(out.Text, want) {
			t.Errorf("surrounding text lost: %q", want)
		}
	}
}

func TestRewrite_MalformedManifest(t *testing.T) {
	_, err := Rewrite("[dependencies\nsp-core = \"1.0\"\n", sdkVersions, Options{})
	if err == nil {
		t.Fatal("expected error for malformed manifest")
	}
	if !errors.Is(err, errors.ErrCodeRewrite) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeRewrite)
	}
}
