package synthesis

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/entrhq/titleforge/pkg/llm/parser"
	"github.com/entrhq/titleforge/pkg/types"
)

// Shape identifies how a model reply was laid out.
type Shape string

const (
	// ShapeNone means nothing usable was found.
	ShapeNone Shape = "none"

	// ShapeArray is a JSON array of candidates, or an object wrapping one
	// under "results" or "titles".
	ShapeArray Shape = "array"

	// ShapeObject is a single candidate object.
	ShapeObject Shape = "object"

	// ShapeLines is newline-delimited JSON: every non-blank line is an object.
	ShapeLines Shape = "lines"

	// ShapeBlocks is objects separated by blank lines, possibly with stray
	// prose between them.
	ShapeBlocks Shape = "blocks"

	// ShapeStream is objects concatenated with arbitrary whitespace, found
	// by scanning for balanced braces.
	ShapeStream Shape = "stream"
)

// Parsed is the outcome of ParseCandidates.
type Parsed struct {
	Candidates []types.TitleCandidate
	Shape      Shape

	// Segments is how many pieces of the reply were considered.
	Segments int

	// Dropped counts segments that did not parse or had neither a
	// rationale nor a title.
	Dropped int
}

var wrapperKeys = []string{"results", "titles", "candidates"}

// ParseCandidates extracts title candidates from a raw model reply.
//
// Code fences and <thinking> blocks are removed first. The reply is then
// matched against each Shape in declaration order and the first that yields
// candidates wins, except that ShapeStream replaces ShapeBlocks when it finds
// more. Order is preserved; the result is never nil.
func ParseCandidates(text string) Parsed {
	cleaned := stripFences(parser.StripThinking(text))
	if cleaned == "" {
		return Parsed{Candidates: []types.TitleCandidate{}, Shape: ShapeNone}
	}

	if p, ok := parseWhole(cleaned); ok {
		return p
	}
	if p, ok := parseLines(cleaned); ok {
		return p
	}
	blocks, okBlocks := parseBlocks(cleaned)
	stream, okStream := parseStream(cleaned)
	if okStream && len(stream.Candidates) > len(blocks.Candidates) {
		return stream
	}
	if okBlocks {
		return blocks
	}

	return Parsed{Candidates: []types.TitleCandidate{}, Shape: ShapeNone, Segments: 1, Dropped: 1}
}

var fenceReplacer = strings.NewReplacer("```json", "", "```JSON", "", "```", "")

func stripFences(text string) string {
	return strings.TrimSpace(fenceReplacer.Replace(text))
}

// parseWhole handles replies that are a single JSON value.
func parseWhole(text string) (Parsed, bool) {
	r, ok := parseJSON(text)
	if !ok {
		return Parsed{}, false
	}

	items := r
	if r.IsObject() {
		wrapped := false
		for _, key := range wrapperKeys {
			if w := r.Get(key); w.IsArray() {
				items, wrapped = w, true
				break
			}
		}
		if !wrapped {
			c, ok := candidateFrom(r)
			if !ok {
				return Parsed{}, false
			}
			return Parsed{Candidates: []types.TitleCandidate{c}, Shape: ShapeObject, Segments: 1}, true
		}
	}
	if !items.IsArray() {
		return Parsed{}, false
	}

	p := Parsed{Candidates: []types.TitleCandidate{}, Shape: ShapeArray}
	for _, item := range items.Array() {
		p.add(item, true)
	}
	return p, len(p.Candidates) > 0
}

// parseLines accepts the reply only if every non-blank line is an object.
func parseLines(text string) (Parsed, bool) {
	lines := nonBlank(strings.Split(text, "\n"))
	if len(lines) < 2 {
		return Parsed{}, false
	}

	p := Parsed{Candidates: []types.TitleCandidate{}, Shape: ShapeLines}
	for _, line := range lines {
		r, ok := parseJSON(line)
		if !ok || !r.IsObject() {
			return Parsed{}, false
		}
		p.add(r, true)
	}
	return p, len(p.Candidates) > 0
}

var blankLine = regexp.MustCompile(`\n[ \t\r]*\n`)

// parseBlocks splits on blank lines. A block that is not a single object is
// split into its lines, each tried on its own.
func parseBlocks(text string) (Parsed, bool) {
	p := Parsed{Candidates: []types.TitleCandidate{}, Shape: ShapeBlocks}
	for _, block := range nonBlank(blankLine.Split(text, -1)) {
		if r, ok := parseJSON(block); ok && r.IsObject() {
			p.add(r, true)
			continue
		}
		for _, line := range nonBlank(strings.Split(block, "\n")) {
			r, ok := parseJSON(line)
			p.add(r, ok && r.IsObject())
		}
	}
	return p, len(p.Candidates) > 0
}

// parseStream scans for balanced top-level braces, ignoring braces inside
// string literals.
func parseStream(text string) (Parsed, bool) {
	p := Parsed{Candidates: []types.TitleCandidate{}, Shape: ShapeStream}
	for _, seg := range braceSegments(text) {
		r, ok := parseJSON(seg)
		p.add(r, ok && r.IsObject())
	}
	return p, len(p.Candidates) > 0
}

// add records one segment.
func (p *Parsed) add(r gjson.Result, ok bool) {
	p.Segments++
	if ok {
		if c, ok := candidateFrom(r); ok {
			p.Candidates = append(p.Candidates, c)
			return
		}
	}
	p.Dropped++
}

// candidateFrom reads rationale and title from an object. It fails when
// both are missing or empty.
func candidateFrom(r gjson.Result) (types.TitleCandidate, bool) {
	if !r.IsObject() {
		return types.TitleCandidate{}, false
	}
	c := types.TitleCandidate{
		Rationale: strings.TrimSpace(field(r, "rationale")),
		Title:     strings.TrimSpace(field(r, "title")),
	}
	if c.Rationale == "" && c.Title == "" {
		return types.TitleCandidate{}, false
	}
	return c, true
}

// field looks a key up case-insensitively.
func field(r gjson.Result, key string) string {
	if v := r.Get(key); v.Exists() {
		return v.String()
	}
	var out string
	r.ForEach(func(k, v gjson.Result) bool {
		if strings.EqualFold(k.String(), key) {
			out = v.String()
			return false
		}
		return true
	})
	return out
}

// parseJSON parses text as JSON, retrying once with bare object keys quoted.
func parseJSON(text string) (gjson.Result, bool) {
	text = strings.TrimSpace(text)
	if gjson.Valid(text) {
		return gjson.Parse(text), true
	}
	quoted := quoteBareKeys(text)
	if quoted != text && gjson.Valid(quoted) {
		return gjson.Parse(quoted), true
	}
	return gjson.Result{}, false
}

// quoteBareKeys wraps identifiers that follow '{' or ',' and precede ':' in
// double quotes. String literals are copied untouched.
func quoteBareKeys(text string) string {
	var (
		b        strings.Builder
		prev     byte
		inString bool
		escaped  bool
	)
	b.Grow(len(text) + 8)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		if (prev == '{' || prev == ',') && isIdentStart(ch) {
			end := i
			for end < len(text) && isIdent(text[end]) {
				end++
			}
			colon := end
			for colon < len(text) && isSpace(text[colon]) {
				colon++
			}
			if colon < len(text) && text[colon] == ':' {
				b.WriteByte('"')
				b.WriteString(text[i:end])
				b.WriteByte('"')
				i = end - 1
				prev = '"'
				continue
			}
		}

		b.WriteByte(ch)
		if ch == '"' {
			inString = true
		}
		if !isSpace(ch) {
			prev = ch
		}
	}
	return b.String()
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isIdent(ch byte) bool {
	return isIdentStart(ch) || ('0' <= ch && ch <= '9')
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

// braceSegments returns every balanced {...} run at nesting depth zero.
func braceSegments(text string) []string {
	var (
		segs     []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				segs = append(segs, text[start:i+1])
			}
		}
	}
	return segs
}

func nonBlank(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
