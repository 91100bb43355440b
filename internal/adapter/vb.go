package adapter

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"archgate/internal/model"
)

// No VB tree-sitter grammar exists; this adapter is a line scanner. The
// convention's references are still fully recoverable from text: Imports
// statements and prefixed identifiers.
var (
	vbImportsRE = regexp.MustCompile(`(?i)^\s*Imports\s+([A-Za-z_][\w.]*)`)
	vbBranchRE  = regexp.MustCompile(`(?i)^\s*(?:if\b|elseif\b|select\s+case\b|case\b)`)
)

type vbAdapter struct{}

// NewVB returns the adapter for .vb files.
func NewVB() Adapter { return &vbAdapter{} }

func (a *vbAdapter) Dialect() string           { return "vb" }
func (a *vbAdapter) Extensions() []string      { return []string{".vb"} }
func (a *vbAdapter) Linkable(path string) bool { return true }

func (a *vbAdapter) Extract(ctx context.Context, src []byte) (refs []model.Reference, sig model.Signals) {
	if !utf8.Valid(src) {
		return nil, model.Signals{ParseFailed: true}
	}

	refs = scanClassReferences(src, vbImportsRE, []string{"'"})

	for _, line := range strings.Split(string(src), "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "'") {
			continue
		}
		sig.CodeLines++
		if vbBranchRE.MatchString(stripped) {
			sig.Branches++
		}
	}

	for i, line := range strings.Split(string(src), "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "'") {
			continue
		}
		if domainConditionalRE.MatchString(stripped) && vbBranchRE.MatchString(stripped) {
			sig.DomainBranchLines = append(sig.DomainBranchLines, i+1)
		}
	}
	return refs, sig
}
