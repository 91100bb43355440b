package adapter

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/smacker/go-tree-sitter/csharp"

	"archgate/internal/model"
)

var (
	usingRE = regexp.MustCompile(`^\s*using\s+(?:static\s+)?([A-Za-z_][\w.]*)\s*;`)

	// Prefixed identifiers are the convention's class/module names; their
	// occurrence is a declared reference to the owning file.
	prefixedIdentRE = regexp.MustCompile(`(?i)\b(?:ida|prx|poi|cfg|db|svc|mdw|hal|bsp|stm|inf)_[a-z0-9_]+\b`)
)

var csBranchKinds = map[string]bool{
	"if_statement":           true,
	"switch_statement":       true,
	"switch_expression":      true,
	"switch_section":         true,
	"conditional_expression": true,
}

type csharpAdapter struct{}

// NewCSharp returns the adapter for .cs files.
func NewCSharp() Adapter { return &csharpAdapter{} }

func (a *csharpAdapter) Dialect() string           { return "csharp" }
func (a *csharpAdapter) Extensions() []string      { return []string{".cs"} }
func (a *csharpAdapter) Linkable(path string) bool { return true }

func (a *csharpAdapter) Extract(ctx context.Context, src []byte) (refs []model.Reference, sig model.Signals) {
	defer func() {
		if recover() != nil {
			refs, sig = nil, model.Signals{ParseFailed: true}
		}
	}()

	if !utf8.Valid(src) {
		return nil, model.Signals{ParseFailed: true}
	}

	refs = scanClassReferences(src, usingRE, []string{"//"})
	sig.CodeLines = countCodeLines(src, []string{"//", "/*", "*", "*/"}, "/*", "*/", false)

	err := collectSignals(ctx, grammar{
		lang:        csharp.GetLanguage(),
		branchKinds: csBranchKinds,
		paramKinds:  map[string]bool{"parameter": true},
		fieldKinds:  map[string]bool{"member_access_expression": true},
		fieldBase:   "expression",
	}, src, &sig)
	if err != nil {
		return nil, model.Signals{ParseFailed: true}
	}
	return refs, sig
}

// scanClassReferences extracts namespace imports and prefixed identifier
// references, one reference per (name, line), skipping comment lines.
func scanClassReferences(src []byte, importRE *regexp.Regexp, comments []string) []model.Reference {
	var refs []model.Reference
	type key struct {
		stem string
		line int
	}
	seen := make(map[key]bool)

	for i, line := range strings.Split(string(src), "\n") {
		stripped := strings.TrimSpace(line)
		skip := false
		for _, c := range comments {
			if strings.HasPrefix(stripped, c) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		if m := importRE.FindStringSubmatch(line); m != nil {
			refs = append(refs, model.Reference{
				Kind: model.RefImport,
				Raw:  m[1],
				Line: i + 1,
			})
			continue
		}

		for _, name := range prefixedIdentRE.FindAllString(line, -1) {
			stem := strings.ToLower(name)
			k := key{stem, i + 1}
			if seen[k] {
				continue
			}
			seen[k] = true
			refs = append(refs, model.Reference{
				Kind: model.RefIdentifier,
				Raw:  name,
				Stem: stem,
				Line: i + 1,
			})
		}
	}
	return refs
}
