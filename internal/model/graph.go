package model

import "sort"

// Layout records the presence of required and deprecated layout anchors,
// probed once at build time so rules never touch the filesystem.
type Layout struct {
	HasInfraBootstrap bool
	HasDeps           bool
	HasProjectConfig  bool
	LegacyDirs        []string // deprecated directories that exist under the root
}

// Graph is the source model: an arena of files built once by a single writer,
// then frozen. Rules read it concurrently; nothing mutates it after Freeze.
type Graph struct {
	Root     string
	Dialects []string
	Files    []SourceFile
	Edges    []Edge
	Layout   Layout

	stems  map[string][]int
	frozen bool
}

// NewGraph creates an empty graph for the given scanned root.
func NewGraph(root string) *Graph {
	return &Graph{
		Root:  root,
		stems: make(map[string][]int),
	}
}

// Add inserts a file, assigns its stable id, and indexes its stem when the
// file is a resolution target. Panics if the graph is frozen: the build phase
// is the only writer.
func (g *Graph) Add(f SourceFile) int {
	if g.frozen {
		panic("model: add to frozen graph")
	}
	f.ID = len(g.Files)
	g.Files = append(g.Files, f)
	if f.Linkable {
		s := Stem(f.Path)
		g.stems[s] = append(g.stems[s], f.ID)
	}
	return f.ID
}

// AddEdge appends a resolved dependency edge.
func (g *Graph) AddEdge(e Edge) {
	if g.frozen {
		panic("model: add edge to frozen graph")
	}
	g.Edges = append(g.Edges, e)
}

// Lookup returns the ids of linkable files whose stem matches, in insertion
// order. The returned slice must not be mutated.
func (g *Graph) Lookup(stem string) []int {
	return g.stems[stem]
}

// File returns the node with the given id.
func (g *Graph) File(id int) *SourceFile {
	return &g.Files[id]
}

// Freeze marks the graph read-only. Called once, after edge resolution.
func (g *Graph) Freeze() {
	sort.Strings(g.Dialects)
	g.frozen = true
}

// Frozen reports whether the build phase has completed.
func (g *Graph) Frozen() bool {
	return g.frozen
}
