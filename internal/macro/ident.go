package macro

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Segments derives filesystem-safe path segments from a macro identifier.
// The leading sigil is stripped, the remainder split on '.' and ':',
// lower-cased, and unsafe characters replaced with hyphens. Deriving zero
// segments is a generation error: there is no filename to write.
func Segments(identifier string) ([]string, error) {
	trimmed := strings.TrimLeft(identifier, ":/")
	parts := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == '.' || r == ':'
	})
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		seg := sanitizeSegment(part)
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("macro identifier %q yields no usable path segments", identifier)
	}
	return segments, nil
}

func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// FunctionName converts path segments into an exported function name:
// hyphen/underscore-delimited sub-parts are capitalized and concatenated,
// then the configured suffix is appended. A leading digit is not a valid
// identifier start, so such names get an underscore prefix.
func FunctionName(segments []string, suffix string) string {
	var b strings.Builder
	for _, seg := range segments {
		for _, part := range strings.FieldsFunc(seg, func(r rune) bool {
			return r == '-' || r == '_'
		}) {
			b.WriteString(strings.ToUpper(part[:1]))
			b.WriteString(part[1:])
		}
	}
	b.WriteString(suffix)
	name := b.String()
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// TargetPath joins segments under the macros root; the final segment becomes
// the file name.
func TargetPath(root string, segments []string) string {
	parts := append([]string{root}, segments...)
	return filepath.Join(parts...) + ".ts"
}

// ContextImport computes the module specifier for the shared MacroContext
// type, relative to the stub's directory.
func ContextImport(targetPath, contextModule string) string {
	rel, err := filepath.Rel(filepath.Dir(targetPath), contextModule)
	if err != nil {
		return filepath.ToSlash(contextModule)
	}
	spec := filepath.ToSlash(rel)
	if !strings.HasPrefix(spec, ".") {
		spec = "./" + spec
	}
	return spec
}
