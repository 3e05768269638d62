// Package tomledit provides a layout-preserving TOML document model.
//
// The model exists for one purpose: rewriting individual dependency
// declarations inside a Cargo.toml while keeping every untouched byte —
// comments, blank lines, ordering, whitespace — exactly as it was. A plain
// unmarshal/marshal round trip cannot guarantee that, so the document is
// kept as its original lines plus an index of where each table and each
// key/value entry lives.
//
// The model is deliberately narrow. It understands the shapes dependency
// tables actually take:
//
//   - bare string values:        serde = "1.0"
//   - inline tables:             serde = { version = "1.0", features = [...] }
//   - dotted keys:               serde.workspace = true
//   - explicit sub-tables:       [dependencies.serde]
//
// Values are a closed sum over [String], [Record], and [Other]; anything the
// model does not understand classifies as [Other], which callers are
// expected to leave untouched.
//
// Mutations are staged on entries via [Entry.SetString] and
// [Entry.SetInline], then materialized by [Document.String]. A document
// with no staged mutations serializes byte-for-byte identical to its input.
package tomledit
