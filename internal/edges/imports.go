package edges

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/felixgeelhaar/wiggum/internal/graph"
	"github.com/felixgeelhaar/wiggum/internal/log"
	"github.com/felixgeelhaar/wiggum/internal/workspace"
)

// ScanDirs are the project subdirectories searched for imports, in order.
var ScanDirs = []string{"src", "test", "tests", "spec", "specs", "__tests__"}

// SourceExtensions are the file extensions considered source files.
var SourceExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
	".mjs": true,
	".cjs": true,
	".mts": true,
	".cts": true,
}

var specifierPatterns = []*regexp.Regexp{
	// import x from 'y', import {a, b} from "y", export * from 'y'
	regexp.MustCompile(`\b(?:import|export)\s[^'"();]*?\bfrom\s*['"]([^'"\n]+)['"]`),
	// import 'y'
	regexp.MustCompile(`\bimport\s*['"]([^'"\n]+)['"]`),
	// import('y')
	regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"\n]+)['"]\s*\)`),
	// require('y')
	regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"\n]+)['"]\s*\)`),
}

var errScanLimit = stderrors.New("scan limit reached")

// importScanner finds inferred-import edges for one project at a time.
type importScanner struct {
	fs       afero.Fs
	reg      *workspace.Registry
	maxFiles int
	logger   *log.Logger
}

// scan returns the inferred edges of p in file order.
func (s *importScanner) scan(ctx context.Context, p *workspace.Project) ([]graph.Edge, error) {
	files, err := s.sourceFiles(p)
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithProject(p.Name)
	seen := make(map[string]bool)
	var out []graph.Edge
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := afero.ReadFile(s.fs, file)
		if err != nil {
			logger.WarnContext(ctx, "skipping unreadable source file", "file", file, "error", err)
			continue
		}
		if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
			logger.WarnContext(ctx, "skipping source file that is not UTF-8 text", "file", file)
			continue
		}

		for _, spec := range Specifiers(string(data)) {
			name, ok := s.match(spec)
			if !ok || name == p.Name || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, graph.Edge{From: p.Name, To: name, Reason: graph.ReasonInferredImport})
		}
	}

	logger.DebugContext(ctx, "scanned imports", "files", len(files), "edges", len(out))
	return out, nil
}

// sourceFiles lists up to maxFiles source files of p in lexical walk order.
func (s *importScanner) sourceFiles(p *workspace.Project) ([]string, error) {
	var files []string
	for _, dir := range ScanDirs {
		base := filepath.Join(p.Root, dir)
		info, err := s.fs.Stat(base)
		if err != nil || !info.IsDir() {
			continue
		}

		err = afero.Walk(s.fs, base, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				s.logger.Warn("skipping unreadable path", "project", p.Name, "path", path, "error", err)
				if info != nil && info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if info.IsDir() {
				name := info.Name()
				if path != base && (name == "node_modules" || strings.HasPrefix(name, ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if !SourceExtensions[filepath.Ext(path)] {
				return nil
			}
			if len(files) >= s.maxFiles {
				return errScanLimit
			}
			files = append(files, path)
			return nil
		})
		if stderrors.Is(err, errScanLimit) {
			s.logger.Debug("import scan limit reached", "project", p.Name, "limit", s.maxFiles)
			return files, nil
		}
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// match maps an import specifier to a project name. Relative, absolute and
// node: specifiers never match.
func (s *importScanner) match(spec string) (string, bool) {
	if spec == "" || strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") || strings.HasPrefix(spec, "node:") {
		return "", false
	}
	if _, ok := s.reg.Get(spec); ok {
		return spec, true
	}
	if prefix := PackageName(spec); prefix != spec {
		if _, ok := s.reg.Get(prefix); ok {
			return prefix, true
		}
	}
	return "", false
}

// PackageName returns the package part of a bare specifier: "@scope/name" for
// scoped specifiers and the first path segment otherwise.
func PackageName(spec string) string {
	parts := strings.SplitN(spec, "/", 3)
	if strings.HasPrefix(spec, "@") {
		if len(parts) < 2 {
			return spec
		}
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

// Specifiers returns the module specifiers referenced by source, in order of
// appearance with duplicates removed. Comments are ignored, and so are
// import-like text inside string, template and regex literals.
func Specifiers(source string) []string {
	code, literals := scanSource(source)

	type hit struct {
		pos  int
		spec string
	}
	var hits []hit
	for _, re := range specifierPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(code, -1) {
			if literals.contains(m[0]) {
				continue
			}
			hits = append(hits, hit{pos: m[2], spec: code[m[2]:m[3]]})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]bool, len(hits))
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		spec := strings.TrimSpace(h.spec)
		if spec == "" || seen[spec] {
			continue
		}
		seen[spec] = true
		out = append(out, spec)
	}
	return out
}

// StripComments blanks out // and /* */ comments and the bodies of regex
// literals while leaving string and template literals intact. Offsets and
// newlines are preserved.
func StripComments(source string) string {
	code, _ := scanSource(source)
	return code
}

// span is a half-open byte range [start, end)
type span struct{ start, end int }

// spans are sorted and disjoint
type spans []span

func (s spans) contains(pos int) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i].end > pos })
	return i < len(s) && s[i].start <= pos
}

// regexKeywords may directly precede a regex literal
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

// scanSource returns source with comments and regex bodies blanked, plus the
// spans of its string and template literals including their quotes.
func scanSource(source string) (string, spans) {
	out := make([]byte, 0, len(source))
	var literals spans

	const (
		code = iota
		lineComment
		blockComment
		quoted
		regex
	)
	state := code
	var quote byte
	litStart := 0
	inClass := false

	// lastSignificant is the index in out of the last non-space code byte, or -1
	lastSignificant := -1

	for i := 0; i < len(source); i++ {
		c := source[i]
		switch state {
		case code:
			switch {
			case c == '/' && i+1 < len(source) && source[i+1] == '/':
				state = lineComment
				out = append(out, ' ', ' ')
				i++
			case c == '/' && i+1 < len(source) && source[i+1] == '*':
				state = blockComment
				out = append(out, ' ', ' ')
				i++
			case c == '/' && regexAllowed(out, lastSignificant):
				state = regex
				inClass = false
				lastSignificant = len(out)
				out = append(out, c)
			case c == '\'' || c == '"' || c == '`':
				state = quoted
				quote = c
				litStart = len(out)
				out = append(out, c)
			default:
				if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
					lastSignificant = len(out)
				}
				out = append(out, c)
			}
		case lineComment:
			if c == '\n' {
				state = code
				out = append(out, c)
			} else {
				out = append(out, ' ')
			}
		case blockComment:
			if c == '*' && i+1 < len(source) && source[i+1] == '/' {
				state = code
				out = append(out, ' ', ' ')
				i++
			} else if c == '\n' {
				out = append(out, c)
			} else {
				out = append(out, ' ')
			}
		case quoted:
			out = append(out, c)
			switch {
			case c == '\\' && i+1 < len(source):
				i++
				out = append(out, source[i])
			case c == quote, c == '\n' && quote != '`':
				state = code
				literals = append(literals, span{start: litStart, end: len(out)})
				lastSignificant = len(out) - 1
			}
		case regex:
			switch {
			case c == '\n':
				// Unterminated; resume as code on the next line
				state = code
				out = append(out, c)
			case c == '\\' && i+1 < len(source) && source[i+1] != '\n':
				out = append(out, ' ', ' ')
				i++
			case c == '[':
				inClass = true
				out = append(out, ' ')
			case c == ']':
				inClass = false
				out = append(out, ' ')
			case c == '/' && !inClass:
				state = code
				lastSignificant = len(out)
				out = append(out, c)
			default:
				out = append(out, ' ')
			}
		}
	}
	if state == quoted {
		literals = append(literals, span{start: litStart, end: len(out)})
	}
	return string(out), literals
}

// regexAllowed reports whether a '/' following out starts a regex literal
// rather than a division, judged by the last significant code byte.
func regexAllowed(out []byte, last int) bool {
	if last < 0 {
		return true
	}
	prev := out[last]
	switch {
	case prev == ')' || prev == ']' || prev == '}' || prev == '\'' || prev == '"' || prev == '`':
		return false
	case isIdentByte(prev):
		start := last
		for start > 0 && isIdentByte(out[start-1]) {
			start--
		}
		return regexKeywords[string(out[start:last+1])]
	default:
		return true
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
