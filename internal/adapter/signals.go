package adapter

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"archgate/internal/model"
)

// domainConditionalRE marks conditionals over domain-meaningful terms.
// A Production file branching on these likely carries misplaced judgment.
var domainConditionalRE = regexp.MustCompile(
	`(?i)\b(?:if|switch|case|elseif|select\s+case)\b.*\b(?:mode|state|status|level|type|flag|enable|disable|active|threshold)\b`)

// grammar parameterizes the tree-sitter signal walk per dialect.
type grammar struct {
	lang        *sitter.Language
	branchKinds map[string]bool
	paramKinds  map[string]bool
	fieldKinds  map[string]bool
	fieldBase   string // field name of the accessed object node
}

// collectSignals parses src and fills the tree-sitter-derived signals:
// branch counts, domain-conditional lines, and field reads through function
// parameters. Returns an error on parse failure (including a blown per-file
// budget via ctx); callers degrade to ParseFailed.
func collectSignals(ctx context.Context, g grammar, src []byte, sig *model.Signals) error {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return err
	}
	defer tree.Close()

	params := make(map[string]bool)
	var branches []*sitter.Node

	// First pass: parameter names and branch nodes.
	walk(tree.RootNode(), func(n *sitter.Node) {
		kind := n.Type()
		if g.paramKinds[kind] {
			if id := firstIdentifier(n); id != nil {
				params[id.Content(src)] = true
			}
		}
		if g.branchKinds[kind] {
			branches = append(branches, n)
		}
		if g.fieldKinds[kind] {
			base := n.ChildByFieldName(g.fieldBase)
			if base != nil && base.Type() == "identifier" && params[base.Content(src)] {
				sig.ParamFieldReads++
			}
		}
	})

	sig.Branches = len(branches)
	for _, n := range branches {
		head := n.Content(src)
		if i := strings.IndexByte(head, '\n'); i >= 0 {
			head = head[:i]
		}
		if domainConditionalRE.MatchString(head) {
			sig.DomainBranchLines = append(sig.DomainBranchLines, int(n.StartPoint().Row)+1)
		}
	}
	return nil
}

// walk visits every named node depth-first.
func walk(root *sitter.Node, visit func(*sitter.Node)) {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(n)
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.NamedChild(i))
		}
	}
}

// firstIdentifier finds the first identifier beneath n.
func firstIdentifier(n *sitter.Node) *sitter.Node {
	var found *sitter.Node
	stack := []*sitter.Node{n}
	for len(stack) > 0 && found == nil {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Type() == "identifier" {
			found = cur
			break
		}
		for i := int(cur.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, cur.NamedChild(i))
		}
	}
	return found
}

// countCodeLines counts non-blank, non-comment lines. Preprocessor lines are
// excluded for dialects that have them: directives are not logic.
func countCodeLines(src []byte, lineComments []string, blockStart, blockEnd string, skipPreproc bool) int {
	count := 0
	inBlock := false
	for _, line := range strings.Split(string(src), "\n") {
		stripped := strings.TrimSpace(line)
		if inBlock {
			if blockEnd != "" && strings.Contains(stripped, blockEnd) {
				inBlock = false
			}
			continue
		}
		if blockStart != "" && strings.HasPrefix(stripped, blockStart) && !strings.Contains(stripped[len(blockStart):], blockEnd) {
			inBlock = true
			continue
		}
		if stripped == "" {
			continue
		}
		if skipPreproc && strings.HasPrefix(stripped, "#") {
			continue
		}
		comment := false
		for _, c := range lineComments {
			if strings.HasPrefix(stripped, c) {
				comment = true
				break
			}
		}
		if comment {
			continue
		}
		count++
	}
	return count
}
