package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"archgate/internal/config"
	"archgate/internal/gate"
	"archgate/internal/report"
)

var (
	rootCmd = &cobra.Command{
		Use:   "archgate",
		Short: "Architecture conformance gate for layered source trees",
	}
	cfgPath    string
	repoRoot   string
	reportPath string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(report.ExitConfigError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&repoRoot, "root", "", "Repository root to check (default: working directory)")
	rootCmd.PersistentFlags().StringVar(&reportPath, "report", "", "Path for the aggregate gate report")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(gateCmd)
	rootCmd.AddCommand(codeCmd)
	rootCmd.AddCommand(docsCmd)
}

// loadConfig builds the effective config: YAML, then environment, then the
// command-line flags on top. Flags are pushed through the environment layer
// so the derived default paths stay anchored to the effective root.
func loadConfig() (*config.Config, error) {
	if repoRoot != "" {
		os.Setenv("ARCHGATE_REPO_ROOT", repoRoot)
	}
	if reportPath != "" {
		os.Setenv("ARCHGATE_REPORT_PATH", reportPath)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() *zap.Logger {
	if verbose {
		log, _ := zap.NewDevelopment()
		return log
	}
	log, _ := zap.NewProduction()
	return log
}

// run executes the gate with the given stage selection and exits per the
// contract: 0 pass, 1 config error, 2 violations, 3 internal fault.
func run(mutate func(*config.Config)) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(report.ExitConfigError)
	}
	mutate(cfg)

	log := newLogger()
	defer log.Sync()

	rep, err := gate.New(cfg, log).Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "gate run failed: %v\n", err)
		os.Exit(report.ExitFault)
	}

	for _, s := range rep.Stages {
		fmt.Printf("%-12s %-8s %s\n", s.Name, s.Status, s.Note)
	}
	if rep.GatePassed {
		fmt.Printf("gate passed; report: %s\n", cfg.ReportPath)
	} else {
		fmt.Printf("gate FAILED; report: %s\n", cfg.ReportPath)
	}
	os.Exit(rep.ExitCode())
}

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Run every stage: documentation hygiene plus one code stage per dialect",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func(cfg *config.Config) {})
	},
}

var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Run only the code stages",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func(cfg *config.Config) { cfg.SkipDocs = true })
	},
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Run only the documentation-hygiene stage",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func(cfg *config.Config) { cfg.SkipCode = true })
	},
}
