package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// RepoRoot anchors everything else; the only path that must exist.
	RepoRoot string `yaml:"repo_root"`
	// CodeRoot and DocsRoot may be absent on disk; their stages skip.
	CodeRoot string `yaml:"code_root"`
	DocsRoot string `yaml:"docs_root"`

	ReportPath string   `yaml:"report_path"`
	Exclude    []string `yaml:"exclude"` // doublestar globs, relative to CodeRoot
	Workers    int      `yaml:"workers"`

	SkipDocs bool `yaml:"skip_docs"`
	SkipCode bool `yaml:"skip_code"`
}

// Load reads the optional YAML config, then applies ARCHGATE_* environment
// overrides, then fills defaults relative to the repo root. An empty path
// means env-and-defaults only.
func Load(path string) (*Config, error) {
	// .env is a convenience for local runs; absence is fine.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("ARCHGATE_REPO_ROOT"); v != "" {
		cfg.RepoRoot = v
	}
	if v := os.Getenv("ARCHGATE_CODE_ROOT"); v != "" {
		cfg.CodeRoot = v
	}
	if v := os.Getenv("ARCHGATE_DOCS_ROOT"); v != "" {
		cfg.DocsRoot = v
	}
	if v := os.Getenv("ARCHGATE_REPORT_PATH"); v != "" {
		cfg.ReportPath = v
	}
	if v := os.Getenv("ARCHGATE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse ARCHGATE_WORKERS: %w", err)
		}
		cfg.Workers = n
	}

	if err := cfg.fillDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) fillDefaults() error {
	if c.RepoRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		c.RepoRoot = wd
	}
	abs, err := filepath.Abs(c.RepoRoot)
	if err != nil {
		return fmt.Errorf("resolve repo root: %w", err)
	}
	c.RepoRoot = abs

	if c.CodeRoot == "" {
		c.CodeRoot = c.RepoRoot
	} else if !filepath.IsAbs(c.CodeRoot) {
		c.CodeRoot = filepath.Join(c.RepoRoot, c.CodeRoot)
	}
	if c.DocsRoot == "" {
		c.DocsRoot = filepath.Join(c.RepoRoot, "specs")
	} else if !filepath.IsAbs(c.DocsRoot) {
		c.DocsRoot = filepath.Join(c.RepoRoot, c.DocsRoot)
	}
	if c.ReportPath == "" {
		c.ReportPath = filepath.Join(c.RepoRoot, ".archgate-report.json")
	} else if !filepath.IsAbs(c.ReportPath) {
		c.ReportPath = filepath.Join(c.RepoRoot, c.ReportPath)
	}
	return nil
}

// Validate checks the one hard precondition: the repo root must exist and be
// a directory. Everything else degrades to a skipped stage.
func (c *Config) Validate() error {
	info, err := os.Stat(c.RepoRoot)
	if err != nil {
		return fmt.Errorf("repo root not found: %s", c.RepoRoot)
	}
	if !info.IsDir() {
		return fmt.Errorf("repo root is not a directory: %s", c.RepoRoot)
	}
	return nil
}
