package builder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"archgate/internal/adapter"
	"archgate/internal/model"
)

// ErrRootNotFound marks an invalid invocation: the run aborts before any
// file is scanned.
var ErrRootNotFound = errors.New("scan root not found")

const (
	defaultWorkers     = 8
	defaultParseBudget = 5 * time.Second
)

// Builder walks a code root, classifies every in-scope file, extracts its
// references through the adapter registry, and assembles the frozen graph.
type Builder struct {
	reg      *adapter.Registry
	log      *zap.Logger
	excludes []string
	ignored  map[string]bool
	workers  int
	budget   time.Duration
}

// Option configures a Builder.
type Option func(*Builder)

// WithExcludes adds doublestar glob patterns matched against slash-relative
// paths; matching files are excluded from the model entirely.
func WithExcludes(patterns []string) Option {
	return func(b *Builder) { b.excludes = append(b.excludes, patterns...) }
}

// WithWorkers sets the extraction worker-pool size.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithParseBudget sets the per-file parse timeout. A file blowing the budget
// degrades to a ParseFailure instead of stalling the run.
func WithParseBudget(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.budget = d
		}
	}
}

// New creates a Builder over the given adapter registry.
func New(reg *adapter.Registry, log *zap.Logger, opts ...Option) *Builder {
	b := &Builder{
		reg:     reg,
		log:     log,
		workers: defaultWorkers,
		budget:  defaultParseBudget,
		ignored: map[string]bool{
			".git": true, "vendor": true, "node_modules": true,
			"testdata": true, "build": true, "out": true,
		},
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build scans root for files of the given dialect and returns the frozen
// graph. An individual file's read or parse failure degrades to a node with
// zero edges and the ParseFailed signal; only a missing root aborts.
func (b *Builder) Build(ctx context.Context, root, dialect string) (*model.Graph, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	paths, err := b.enumerate(root, dialect)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", root, err)
	}

	// Extraction is embarrassingly parallel: each worker writes only its own
	// slot, so there is no contention before the resolution barrier.
	results := make([]model.SourceFile, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.workers)
	for i, rel := range paths {
		i, rel := i, rel
		eg.Go(func() error {
			results[i] = b.scanFile(egCtx, root, rel)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Barrier: resolving any file's references requires the full index.
	g := model.NewGraph(root)
	g.Dialects = []string{dialect}
	for _, f := range results {
		g.Add(f)
	}
	probeLayout(g, root)
	resolve(g)
	g.Freeze()

	b.log.Debug("graph built",
		zap.String("dialect", dialect),
		zap.Int("files", len(g.Files)),
		zap.Int("edges", len(g.Edges)))
	return g, nil
}

// DetectDialects reports which registered dialects have at least one
// in-scope file under root, sorted by name.
func (b *Builder) DetectDialects(root string) ([]string, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}
	present := make(map[string]bool)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if b.ignored[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if a, ok := b.reg.ForExtension(filepath.Ext(d.Name())); ok {
			present[a.Dialect()] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	var out []string
	for d := range present {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s: %w", root, ErrRootNotFound)
	}
	return nil
}

func (b *Builder) enumerate(root, dialect string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if b.ignored[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		a, ok := b.reg.ForExtension(filepath.Ext(d.Name()))
		if !ok || a.Dialect() != dialect {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range b.excludes {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return nil
			}
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (b *Builder) scanFile(ctx context.Context, root, rel string) model.SourceFile {
	role, cat, prefix, feature := Classify(rel)
	a, _ := b.reg.ForExtension(filepath.Ext(rel))

	f := model.SourceFile{
		Path:     rel,
		Dialect:  a.Dialect(),
		Role:     role,
		Category: cat,
		Prefix:   prefix,
		Feature:  feature,
		Linkable: a.Linkable(rel),
	}

	src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		b.log.Warn("read failed", zap.String("file", rel), zap.Error(err))
		f.Signals.ParseFailed = true
		return f
	}

	parseCtx, cancel := context.WithTimeout(ctx, b.budget)
	defer cancel()
	f.Refs, f.Signals = a.Extract(parseCtx, src)
	if f.Signals.ParseFailed {
		b.log.Warn("parse failed", zap.String("file", rel))
	}
	return f
}

// probeLayout records which required and deprecated layout anchors exist, so
// rules never touch the filesystem.
func probeLayout(g *model.Graph, root string) {
	isDir := func(rel string) bool {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		return err == nil && info.IsDir()
	}
	g.Layout.HasInfraBootstrap = isDir("infra/bootstrap")
	g.Layout.HasDeps = isDir("deps")
	g.Layout.HasProjectConfig = isDir("project/config")
	for _, shape := range model.LegacyShapes {
		if isDir(shape) {
			g.Layout.LegacyDirs = append(g.Layout.LegacyDirs, shape)
		}
	}
	sort.Strings(g.Layout.LegacyDirs)
}
