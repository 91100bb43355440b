package adapter

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"

	"archgate/internal/model"
)

// Quoted includes only: angle includes address the toolchain environment and
// are outside the project model.
var includeRE = regexp.MustCompile(`^\s*#\s*include\s*"([^"]+)"`)

var cBranchKinds = map[string]bool{
	"if_statement":           true,
	"switch_statement":       true,
	"case_statement":         true,
	"conditional_expression": true,
}

// cAdapter covers the C family. The C and C++ grammars differ, so each
// extension pair gets its own instance sharing one dialect.
type cAdapter struct {
	lang *sitter.Language
	exts []string
}

// NewC returns the adapter for .c/.h files.
func NewC() Adapter {
	return &cAdapter{lang: c.GetLanguage(), exts: []string{".c", ".h"}}
}

// NewCPP returns the adapter for .cpp/.hpp files.
func NewCPP() Adapter {
	return &cAdapter{lang: cpp.GetLanguage(), exts: []string{".cpp", ".hpp"}}
}

func (a *cAdapter) Dialect() string      { return "c" }
func (a *cAdapter) Extensions() []string { return a.exts }

// Headers are what includes resolve to.
func (a *cAdapter) Linkable(path string) bool {
	p := strings.ToLower(path)
	return strings.HasSuffix(p, ".h") || strings.HasSuffix(p, ".hpp")
}

func (a *cAdapter) Extract(ctx context.Context, src []byte) (refs []model.Reference, sig model.Signals) {
	defer func() {
		if recover() != nil {
			refs, sig = nil, model.Signals{ParseFailed: true}
		}
	}()

	if !utf8.Valid(src) {
		return nil, model.Signals{ParseFailed: true}
	}

	for i, line := range strings.Split(string(src), "\n") {
		m := includeRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		refs = append(refs, model.Reference{
			Kind: model.RefInclude,
			Raw:  m[1],
			Stem: model.Stem(m[1]),
			Line: i + 1,
		})
	}

	sig.CodeLines = countCodeLines(src, []string{"//", "/*", "*", "*/"}, "/*", "*/", true)

	err := collectSignals(ctx, grammar{
		lang:        a.lang,
		branchKinds: cBranchKinds,
		paramKinds:  map[string]bool{"parameter_declaration": true},
		fieldKinds:  map[string]bool{"field_expression": true},
		fieldBase:   "argument",
	}, src, &sig)
	if err != nil {
		return nil, model.Signals{ParseFailed: true}
	}
	return refs, sig
}
