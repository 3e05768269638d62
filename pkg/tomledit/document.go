package tomledit

import (
	"fmt"
	"strings"
)

// Document is a parsed TOML file that remembers its original lines.
// Serialization emits every untouched line verbatim; only entries mutated
// through [Entry.SetString] or [Entry.SetInline] are re-rendered.
type Document struct {
	lines  []string // original physical lines, each keeping its trailing newline
	root   *Table
	tables []*Table
	byPath map[string]*Table
}

// Table is one TOML table: the document root, an explicit [header] table,
// or a table that exists implicitly because a deeper header references it.
type Table struct {
	doc     *Document
	path    []string
	header  int // line index of the [header], -1 for root and implicit tables
	array   bool
	entries []*Entry

	lastEntry int // line index of the last line of the last direct entry, -1 if none

	// synthesized header position for implicit tables that receive
	// converted entries
	synthAnchor int
	synthDone   bool
}

// Entry is one key/value declaration inside a table. An entry is either a
// physical `key = value` line group, or an explicit `[table.key]` section
// viewed from its parent table.
type Entry struct {
	parent  *Table
	key     string
	rawKey  string
	indent  string
	start   int // first line index
	end     int // one past the last line index
	section *Table // non-nil when this entry is an explicit sub-table
	value   Value
	rawVal  string // normalized single-line value text (line entries only)

	repl *string // staged canonical replacement, nil when untouched
}

// Parse builds a layout-preserving document from TOML text.
// It fails only on structural problems (unterminated values or headers);
// content-level oddities classify as [Other] values instead of failing.
func Parse(src string) (*Document, error) {
	doc := &Document{
		lines:  strings.SplitAfter(src, "\n"),
		byPath: map[string]*Table{},
	}
	// SplitAfter leaves a trailing empty element when src ends with \n
	if n := len(doc.lines); n > 0 && doc.lines[n-1] == "" {
		doc.lines = doc.lines[:n-1]
	}

	doc.root = &Table{doc: doc, header: -1, lastEntry: -1, synthAnchor: -1}
	doc.byPath[""] = doc.root
	doc.tables = append(doc.tables, doc.root)

	cur := doc.root
	for i := 0; i < len(doc.lines); i++ {
		text := trimEOL(doc.lines[i])
		t := strings.TrimSpace(text)
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}

		if strings.HasPrefix(t, "[") {
			node, err := parseHeader(doc, t, i)
			if err != nil {
				return nil, err
			}
			doc.tables = append(doc.tables, node)
			if !node.array {
				if _, exists := doc.byPath[pathKey(node.path)]; !exists {
					doc.byPath[pathKey(node.path)] = node
				}
			}
			cur = node
			continue
		}

		// key/value pair, possibly spanning lines
		start := i
		var st scanState
		st.feed(text)
		acc := text
		for st.open() && i+1 < len(doc.lines) {
			i++
			next := trimEOL(doc.lines[i])
			st.feed(next)
			acc += "\n" + next
		}
		if st.open() {
			return nil, fmt.Errorf("unterminated value starting at line %d", start+1)
		}

		if err := cur.addEntry(acc, start, i+1); err != nil {
			return nil, err
		}
		cur.lastEntry = i
	}

	doc.linkSections()
	return doc, nil
}

// Table returns the table at the given dotted path (no arguments for the
// document root). Implicit tables, created by deeper headers like
// [workspace.dependencies], are found too.
func (d *Document) Table(path ...string) (*Table, bool) {
	t, ok := d.byPath[pathKey(path)]
	return t, ok
}

// Entries returns the table's entries in document order: physical key/value
// lines first, then explicit sub-table sections.
func (t *Table) Entries() []*Entry { return t.entries }

// Key returns the entry's decoded key.
func (e *Entry) Key() string { return e.key }

// Value returns the entry's classified value.
func (e *Entry) Value() Value { return e.value }

// SetString stages a replacement of the whole entry with `key = "val"`.
func (e *Entry) SetString(val string) {
	line := e.indent + e.rawKey + " = " + quoteString(val)
	e.repl = &line
}

// SetInline stages a replacement of the whole entry with a canonical
// single-line inline table built from pairs, in the given order.
func (e *Entry) SetInline(pairs []Pair) {
	var parts []string
	for _, p := range pairs {
		k := p.RawKey
		if k == "" {
			k = formatKey(p.Key)
		}
		parts = append(parts, k+" = "+p.RawValue)
	}
	line := e.indent + e.rawKey + " = { " + strings.Join(parts, ", ") + " }"
	e.repl = &line
}

// String serializes the document, emitting untouched lines byte-for-byte
// and staged replacements in canonical form. Entries backed by explicit
// sections are converted to inline form inside their parent table.
func (d *Document) String() string {
	skip := make([]bool, len(d.lines))
	replaceAt := map[int]*Entry{}
	insertAfter := map[int][]string{}
	insertBefore := map[int][]string{}

	for _, t := range d.tables {
		for _, e := range t.entries {
			if e.repl == nil {
				continue
			}
			if e.section == nil {
				for i := e.start; i < e.end; i++ {
					skip[i] = true
				}
				replaceAt[e.start] = e
				continue
			}
			d.skipSection(e.section, skip)
			d.placeConverted(e, insertAfter, insertBefore)
		}
	}

	var b strings.Builder
	write := func(s string) { b.WriteString(s) }
	atLineStart := func() bool {
		out := b.String()
		return out == "" || strings.HasSuffix(out, "\n")
	}
	for i, ln := range d.lines {
		for _, s := range insertBefore[i] {
			if !atLineStart() {
				write("\n")
			}
			write(s + "\n")
		}
		if skip[i] {
			if e, ok := replaceAt[i]; ok {
				write(*e.repl)
				if strings.HasSuffix(d.lines[e.end-1], "\n") {
					write("\n")
				}
			}
		} else {
			write(ln)
		}
		for _, s := range insertAfter[i] {
			if !atLineStart() {
				write("\n")
			}
			write(s + "\n")
		}
	}
	return b.String()
}

// skipSection marks the lines of a section and of every deeper section
// under its path. Trailing blank and comment lines after the section's last
// entry are kept; they belong to whatever follows.
func (d *Document) skipSection(sec *Table, skip []bool) {
	for _, t := range d.tables {
		if t.header < 0 || !hasPathPrefix(t.path, sec.path) {
			continue
		}
		end := t.header
		if t.lastEntry >= 0 {
			end = t.lastEntry
		}
		for i := t.header; i <= end; i++ {
			skip[i] = true
		}
	}
}

// placeConverted queues the canonical line of a converted section entry at
// its parent table's insertion point. A parent that only exists implicitly
// gets a synthesized header at the position of its first converted child.
func (d *Document) placeConverted(e *Entry, insertAfter, insertBefore map[int][]string) {
	p := e.parent
	if anchor := p.insertAnchor(); anchor >= 0 {
		insertAfter[anchor] = append(insertAfter[anchor], *e.repl)
		return
	}
	if !p.synthDone {
		p.synthDone = true
		p.synthAnchor = e.section.header
		insertBefore[p.synthAnchor] = append(insertBefore[p.synthAnchor], "["+strings.Join(p.path, ".")+"]")
	}
	insertBefore[p.synthAnchor] = append(insertBefore[p.synthAnchor], *e.repl)
}

// insertAnchor returns the line after which converted entries are inserted,
// or -1 when the table has no physical presence of its own.
func (t *Table) insertAnchor() int {
	if t.lastEntry >= 0 {
		return t.lastEntry
	}
	return t.header // -1 for implicit tables
}

// addEntry parses one accumulated key/value span into the table.
func (t *Table) addEntry(acc string, start, end int) error {
	segs, rest, err := splitKeySegments(acc)
	if err != nil || len(segs) == 0 {
		return fmt.Errorf("malformed key at line %d", start+1)
	}
	rest = strings.TrimLeft(rest, " \t")
	if !strings.HasPrefix(rest, "=") {
		return fmt.Errorf("expected '=' after key at line %d", start+1)
	}
	rawVal := rest[1:]

	indent := acc[:len(acc)-len(strings.TrimLeft(acc, " \t"))]
	key := decodeKey(segs[0])

	norm := strings.TrimSpace(rawVal)
	var val Value
	if toks, err := tokenize(rawVal); err == nil {
		norm = joinTokens(toks)
		val = classifyValue(rawVal)
	} else {
		val = &Other{Raw: norm}
	}

	if len(segs) > 1 {
		// dotted key: `serde.workspace = true` is a structured declaration
		// of `serde` with one pair
		pair := Pair{
			Key:      decodeKey(strings.Join(segs[1:], ".")),
			RawKey:   strings.Join(segs[1:], "."),
			RawValue: norm,
			IsRecord: strings.HasPrefix(norm, "{"),
		}
		// contiguous dotted lines for the same key merge into one entry
		if n := len(t.entries); n > 0 {
			prev := t.entries[n-1]
			if prev.key == key && prev.end == start && prev.section == nil {
				if rec, ok := prev.value.(*Record); ok {
					rec.pairs = append(rec.pairs, pair)
					prev.end = end
					return nil
				}
			}
		}
		t.entries = append(t.entries, &Entry{
			parent: t,
			key:    key,
			rawKey: segs[0],
			indent: indent,
			start:  start,
			end:    end,
			value:  &Record{pairs: []Pair{pair}},
		})
		return nil
	}

	t.entries = append(t.entries, &Entry{
		parent: t,
		key:    key,
		rawKey: segs[0],
		indent: indent,
		start:  start,
		end:    end,
		value:  val,
		rawVal: norm,
	})
	return nil
}

// linkSections attaches every explicit table to its parent as an entry, so
// that `[dependencies.serde]` is visible as the `serde` declaration of the
// dependencies table. Parents referenced only by deeper headers are created
// implicitly.
func (d *Document) linkSections() {
	for _, t := range d.tables {
		if t.header < 0 || t.array || len(t.path) == 0 {
			continue
		}
		parent := d.ensure(t.path[:len(t.path)-1])
		rawKey := t.path[len(t.path)-1]
		end := t.header + 1
		if t.lastEntry >= 0 {
			end = t.lastEntry + 1
		}
		parent.entries = append(parent.entries, &Entry{
			parent:  parent,
			key:     decodeKey(rawKey),
			rawKey:  formatKey(decodeKey(rawKey)),
			start:   t.header,
			end:     end,
			section: t,
			value:   t.asRecord(),
		})
	}
}

// asRecord views a section's direct key/value lines as a Record. Deeper
// sub-sections are not part of the record; they are nested structure.
func (t *Table) asRecord() *Record {
	rec := &Record{}
	for _, e := range t.entries {
		if e.section != nil {
			continue
		}
		switch v := e.value.(type) {
		case *Record:
			var parts []string
			for _, p := range v.pairs {
				parts = append(parts, p.RawKey+" = "+p.RawValue)
			}
			rec.pairs = append(rec.pairs, Pair{
				Key:      e.key,
				RawKey:   e.rawKey,
				RawValue: "{ " + strings.Join(parts, ", ") + " }",
				IsRecord: true,
			})
		default:
			rec.pairs = append(rec.pairs, Pair{
				Key:      e.key,
				RawKey:   e.rawKey,
				RawValue: e.rawVal,
			})
		}
	}
	return rec
}

// ensure returns the table at path, creating implicit ancestors as needed.
func (d *Document) ensure(path []string) *Table {
	key := pathKey(path)
	if t, ok := d.byPath[key]; ok {
		return t
	}
	if len(path) > 0 {
		d.ensure(path[:len(path)-1])
	}
	t := &Table{doc: d, path: append([]string(nil), path...), header: -1, lastEntry: -1, synthAnchor: -1}
	d.byPath[key] = t
	d.tables = append(d.tables, t)
	return t
}

// parseHeader parses a `[a.b]` or `[[a.b]]` line into a table node.
func parseHeader(d *Document, t string, line int) (*Table, error) {
	array := strings.HasPrefix(t, "[[")
	inner := strings.TrimPrefix(t, "[")
	closer := "]"
	if array {
		inner = strings.TrimPrefix(inner, "[")
		closer = "]]"
	}

	segs, rest, err := splitKeySegments(inner)
	if err != nil || len(segs) == 0 {
		return nil, fmt.Errorf("malformed table header at line %d", line+1)
	}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, closer) {
		return nil, fmt.Errorf("unclosed table header at line %d", line+1)
	}
	tail := strings.TrimSpace(strings.TrimPrefix(rest, closer))
	if tail != "" && !strings.HasPrefix(tail, "#") {
		return nil, fmt.Errorf("unexpected text after table header at line %d", line+1)
	}

	path := make([]string, len(segs))
	for i, s := range segs {
		path[i] = decodeKey(s)
	}
	return &Table{doc: d, path: path, header: line, array: array, lastEntry: -1, synthAnchor: -1}, nil
}

// splitKeySegments scans a dotted key at the start of s and returns its raw
// segments plus the unconsumed remainder (starting at '=' for key/value
// pairs, or ']' for headers).
func splitKeySegments(s string) ([]string, string, error) {
	var segs []string
	i := 0
	skipWS := func() {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
	}
	for {
		skipWS()
		if i >= len(s) {
			return nil, "", fmt.Errorf("unexpected end of key")
		}
		if s[i] == '"' || s[i] == '\'' {
			end, err := scanStringToken(s, i)
			if err != nil {
				return nil, "", err
			}
			segs = append(segs, s[i:end])
			i = end
		} else {
			j := i
			for j < len(s) && !strings.ContainsRune(" \t.=]", rune(s[j])) {
				j++
			}
			if j == i {
				return nil, "", fmt.Errorf("empty key segment")
			}
			segs = append(segs, s[i:j])
			i = j
		}
		skipWS()
		if i < len(s) && s[i] == '.' {
			i++
			continue
		}
		return segs, s[i:], nil
	}
}

func pathKey(path []string) string { return strings.Join(path, "\x00") }

func hasPathPrefix(path, prefix []string) bool {
	if len(path) < len(prefix) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
