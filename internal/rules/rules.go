package rules

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"archgate/internal/model"
)

// Rule ids. The catalog is closed and versioned with the tool: severities are
// fixed per rule and there is no strict/lenient mode. Extension happens only
// by adding new entries, never by weakening existing ones per invocation.
const (
	RuleNamingInvalid        = "naming-invalid"
	RuleReservedPrefixMisuse = "reserved-prefix-misuse"
	RuleDirectionViolation   = "direction-violation"
	RuleIntentCapability     = "intent-capability-violation"
	RuleCrossFeatureImport   = "cross-feature-import"
	RuleLegacyLayout         = "legacy-layout"
	RuleLayoutRequired       = "layout-required"
	RulePlacementViolation   = "placement-violation"
	RuleUnresolvedAmbiguous  = "unresolved-ambiguous"
	RuleParseFailure         = "parse-failure"
	RuleEmptyIntent          = "empty-intent"
	RuleFatProduction        = "fat-production"
)

// Rule is one catalog entry: a stable id, a fixed severity, and an evaluator
// over the frozen graph. Evaluators are pure read-only scans.
type Rule struct {
	ID       string
	Severity model.Severity
	Evaluate func(g *model.Graph) []model.Finding
}

// Catalog returns the full rule set in id order.
func Catalog() []Rule {
	rules := []Rule{
		{RuleNamingInvalid, model.SeverityError, evalNamingInvalid},
		{RuleReservedPrefixMisuse, model.SeverityError, evalReservedPrefix},
		{RuleDirectionViolation, model.SeverityError, evalDirection},
		{RuleIntentCapability, model.SeverityError, evalIntentCapability},
		{RuleCrossFeatureImport, model.SeverityError, evalCrossFeature},
		{RuleLegacyLayout, model.SeverityError, evalLegacyLayout},
		{RuleLayoutRequired, model.SeverityError, evalLayoutRequired},
		{RulePlacementViolation, model.SeverityError, evalPlacement},
		{RuleUnresolvedAmbiguous, model.SeverityAdvisory, evalAmbiguous},
		{RuleParseFailure, model.SeverityAdvisory, evalParseFailure},
		{RuleEmptyIntent, model.SeverityAdvisory, evalEmptyIntent},
		{RuleFatProduction, model.SeverityAdvisory, evalFatProduction},
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}

// Fault records a rule evaluator that itself failed. Distinct from a normal
// violation: it marks the stage Errored and is never swallowed into a pass.
type Fault struct {
	Rule string
	Err  error
}

// Engine evaluates the catalog against a frozen graph.
type Engine struct {
	log   *zap.Logger
	rules []Rule
}

// NewEngine creates an engine over the full catalog.
func NewEngine(log *zap.Logger) *Engine {
	return &Engine{log: log, rules: Catalog()}
}

// Run evaluates every rule. Rules run concurrently: the graph is frozen and
// reads need no locking. A panicking evaluator aborts only that rule; its
// fault is reported alongside the findings of the rules that completed.
func (e *Engine) Run(ctx context.Context, g *model.Graph) ([]model.Finding, []Fault) {
	perRule := make([][]model.Finding, len(e.rules))
	perFault := make([]*Fault, len(e.rules))

	eg, _ := errgroup.WithContext(ctx)
	for i, r := range e.rules {
		i, r := i, r
		eg.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					perFault[i] = &Fault{Rule: r.ID, Err: fmt.Errorf("rule %s: %v", r.ID, rec)}
					e.log.Error("rule evaluator fault",
						zap.String("rule", r.ID), zap.Any("panic", rec))
				}
			}()
			found := r.Evaluate(g)
			for j := range found {
				found[j].Rule = r.ID
				found[j].Severity = r.Severity
			}
			perRule[i] = found
			return nil
		})
	}
	_ = eg.Wait()

	var findings []model.Finding
	var faults []Fault
	for i := range e.rules {
		findings = append(findings, perRule[i]...)
		if perFault[i] != nil {
			faults = append(faults, *perFault[i])
		}
	}
	sort.Slice(faults, func(i, j int) bool { return faults[i].Rule < faults[j].Rule })
	return model.SortFindings(findings), faults
}
