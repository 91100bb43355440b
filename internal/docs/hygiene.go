// Package docs implements the documentation-hygiene gate stage: structural
// checks over the specification documents themselves.
package docs

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"archgate/internal/model"
)

// Finding rule ids for the docs stage. Closed set, all Error severity: a
// malformed specification blocks the gate the same way a malformed layer
// does.
const (
	RuleDocFilename = "doc-filename"
	RuleDocHeading  = "doc-heading"
	RuleDocEncoding = "doc-encoding"
	RuleDocEmpty    = "doc-empty"
	RuleDocReadme   = "doc-readme"
)

var (
	// Numbered sections NN_slug.md, appendices A<n>_slug.md.
	specNameRE     = regexp.MustCompile(`^(?:(\d{2})|A(\d+))_([a-z0-9_]+)\.md$`)
	h1NumberRE     = regexp.MustCompile(`^#\s*(\d+)\.\s+`)
	h1AppendixRE   = regexp.MustCompile(`^#\s*Appendix\s+[A-Z]\.`)
	numberedHeadRE = regexp.MustCompile(`^#{2,6}\s+(\d+)\.`)
	mojibakeRunRE  = regexp.MustCompile(`\?{2,}`)
)

const replacementChar = "�"

// Check runs the hygiene checks over the spec documents in docsRoot and the
// README next to repoRoot. Findings carry paths relative to repoRoot.
func Check(repoRoot, docsRoot string) ([]model.Finding, error) {
	entries, err := filepath.Glob(filepath.Join(docsRoot, "*.md"))
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)

	var findings []model.Finding
	add := func(rule, file, msg string) {
		findings = append(findings, model.Finding{
			Rule:     rule,
			Severity: model.SeverityError,
			File:     file,
			Message:  msg,
		})
	}

	for _, entry := range entries {
		name := filepath.Base(entry)
		rel := relTo(repoRoot, entry)

		m := specNameRE.FindStringSubmatch(name)
		if m == nil {
			add(RuleDocFilename, rel, "invalid spec filename (expected NN_slug.md or A#_slug.md)")
			continue
		}

		raw, err := os.ReadFile(entry)
		if err != nil {
			add(RuleDocEmpty, rel, fmt.Sprintf("unreadable spec file: %v", err))
			continue
		}
		text := strings.TrimPrefix(string(raw), "\uFEFF") // tolerate a BOM

		if strings.Contains(text, replacementChar) {
			add(RuleDocEncoding, rel, "encoding replacement character (U+FFFD) found")
		}

		checkHeadings(text, rel, m[1], add)
	}

	checkReadme(repoRoot, add)
	return model.SortFindings(findings), nil
}

func checkHeadings(text, rel, fileNum string, add func(rule, file, msg string)) {
	lines := strings.Split(text, "\n")

	first := ""
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			first = line
			break
		}
	}
	if first == "" {
		add(RuleDocEmpty, rel, "empty spec file")
		return
	}

	h1 := h1NumberRE.FindStringSubmatch(first)
	switch {
	case h1 != nil:
		if fileNum != "" {
			want, _ := strconv.Atoi(fileNum)
			got, _ := strconv.Atoi(h1[1])
			if got != want {
				add(RuleDocHeading, rel, fmt.Sprintf("H1 section number mismatch (H1=%d, filename=%02d)", got, want))
			}
			checkNumberedHeadings(lines, rel, got, add)
		}
	case h1AppendixRE.MatchString(first):
		// appendix headings are free-form beyond the H1
	default:
		add(RuleDocHeading, rel, "H1 does not start with a section number (expected '# N. ...' or '# Appendix X. ...')")
	}
}

// checkNumberedHeadings accepts either sub-headings all prefixed with the H1
// number or a local numbering starting at 1; mixed schemes are flagged.
func checkNumberedHeadings(lines []string, rel string, h1Num int, add func(rule, file, msg string)) {
	distinct := make(map[int]bool)
	firstLine, firstText := 0, ""
	for i, line := range lines {
		m := numberedHeadRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		distinct[n] = true
		if firstLine == 0 {
			firstLine, firstText = i+1, strings.TrimSpace(line)
		}
	}
	if len(distinct) == 0 {
		return
	}
	prefixed := len(distinct) == 1 && distinct[h1Num]
	local := distinct[1]
	if !prefixed && !local {
		add(RuleDocHeading, fmt.Sprintf("%s:%d", rel, firstLine),
			fmt.Sprintf("numbered headings neither match H1 number %d nor start at 1 (%q)", h1Num, firstText))
	}
}

func checkReadme(repoRoot string, add func(rule, file, msg string)) {
	readme := filepath.Join(repoRoot, "README.md")
	raw, err := os.ReadFile(readme)
	if err != nil {
		add(RuleDocReadme, "README.md", "README.md not found")
		return
	}
	text := string(raw)
	if strings.Contains(text, replacementChar) {
		add(RuleDocEncoding, "README.md", "encoding replacement character (U+FFFD) found")
	}
	if mojibakeRunRE.MatchString(text) {
		add(RuleDocReadme, "README.md", "suspicious '??' sequences found (likely encoding artifacts)")
	}
}

func relTo(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return path.Base(p)
	}
	return filepath.ToSlash(rel)
}
