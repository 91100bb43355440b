package model

import "sort"

// RefKind says how a reference was declared in source.
type RefKind string

const (
	RefInclude    RefKind = "include"    // C/C++ quoted #include
	RefImport     RefKind = "import"     // C#/VB namespace import
	RefIdentifier RefKind = "identifier" // prefixed type/module identifier
)

// Reference is a declared outbound reference, pre-resolution.
type Reference struct {
	Kind RefKind `json:"kind"`
	Raw  string  `json:"raw"`
	Stem string  `json:"stem,omitempty"` // lowercased leaf stem used for resolution; empty for namespace imports
	Line int     `json:"line"`
}

// Signals are the structural measurements heuristic rules consume.
type Signals struct {
	CodeLines         int   // non-blank, non-comment lines
	Branches          int   // conditional constructs
	DomainBranchLines []int // lines of conditionals over domain-meaningful terms
	ParamFieldReads   int   // field accesses through function parameters
	ParseFailed       bool
}

// SourceFile is one classified node of the source model. Immutable once the
// graph is frozen.
type SourceFile struct {
	ID       int
	Path     string // slash-separated, relative to the scanned root
	Dialect  string
	Role     Role
	Category Category
	Prefix   string
	Feature  string
	Linkable bool // whether other files' references may resolve to it
	Refs     []Reference
	Signals  Signals
}

// Resolution is the outcome of matching a raw reference against the file index.
type Resolution string

const (
	ResolutionResolved  Resolution = "resolved"
	ResolutionExternal  Resolution = "external"
	ResolutionAmbiguous Resolution = "ambiguous"
)

// Edge is one declared dependency, computed exactly once per run.
type Edge struct {
	From       int
	Ref        Reference
	Resolution Resolution
	To         int   // target node id; -1 unless resolved
	Candidates []int // populated for ambiguous resolutions
}

// Severity of a finding. Fixed per rule, never configurable per run.
type Severity string

const (
	SeverityError    Severity = "error"
	SeverityAdvisory Severity = "advisory"
)

// Finding is a single reported rule outcome.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Message  string   `json:"message"`
}

// SortFindings orders findings deterministically (file, line, rule) and drops
// duplicates sharing the same file, line, and rule.
func SortFindings(findings []Finding) []Finding {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Rule < b.Rule
	})

	type key struct {
		file string
		line int
		rule string
	}
	seen := make(map[key]bool, len(findings))
	out := findings[:0]
	for _, f := range findings {
		k := key{f.File, f.Line, f.Rule}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}

// CountErrors returns the number of Error-severity findings.
func CountErrors(findings []Finding) int {
	n := 0
	for _, f := range findings {
		if f.Severity == SeverityError {
			n++
		}
	}
	return n
}
