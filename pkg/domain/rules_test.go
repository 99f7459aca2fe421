package domain

import (
	"context"
	"errors"
	"testing"
)

type fixedRule struct {
	name     string
	severity Severity
	err      error
	seen     *int
}

func (r fixedRule) Name() string { return r.name }

func (r fixedRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	if r.seen != nil {
		*r.seen += len(changes)
	}
	if r.err != nil {
		return Result{}, r.err
	}
	return Result{Violations: []Violation{{Rule: r.name, Severity: r.severity}}}, nil
}

func TestResultBlockingOnlyForBlockSeverity(t *testing.T) {
	var res Result
	res.Merge(Result{})
	if len(res.Violations) != 0 || res.HasBlocking() {
		t.Fatalf("empty merge should leave an empty result")
	}
	res.Merge(Result{Violations: []Violation{{Severity: SeverityWarn}, {Severity: SeverityLog}}})
	if res.HasBlocking() {
		t.Fatalf("warn and log must not block")
	}
	res.Merge(Result{Violations: []Violation{{Severity: SeverityBlock}}})
	if !res.HasBlocking() || len(res.Violations) != 3 {
		t.Fatalf("expected three violations with a blocker, got %+v", res.Violations)
	}
	if (RuleViolationError{Result: res}).Error() != "transaction blocked by rules" {
		t.Fatalf("unexpected error text")
	}
}

func TestRulesEngineRunsInOrderAndSkipsNil(t *testing.T) {
	seen := 0
	engine := NewRulesEngine()
	engine.Register(fixedRule{name: "first", severity: SeverityWarn, seen: &seen}, nil,
		fixedRule{name: "second", severity: SeverityBlock, seen: &seen})
	if n := len(engine.Rules()); n != 2 {
		t.Fatalf("expected nil rule skipped, got %d rules", n)
	}
	changes := []Change{{Entity: EntitySequence, Action: ActionCreate}}
	res, err := engine.Evaluate(context.Background(), nil, changes)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if seen != 2 || res.Violations[0].Rule != "first" || res.Violations[1].Rule != "second" {
		t.Fatalf("unexpected evaluation %d %+v", seen, res.Violations)
	}
}

func TestRulesEngineWrapsRuleErrors(t *testing.T) {
	boom := errors.New("boom")
	engine := NewRulesEngine()
	engine.Register(fixedRule{name: "ok", severity: SeverityWarn}, fixedRule{name: "broken", err: boom})
	res, err := engine.Evaluate(context.Background(), nil, nil)
	if !errors.Is(err, boom) || err.Error() != "rule broken: boom" {
		t.Fatalf("expected wrapped rule error, got %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("expected no partial violations, got %+v", res.Violations)
	}
}

func TestRulesEngineRulesIsACopy(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(fixedRule{name: "a"})
	engine.Rules()[0] = fixedRule{name: "b"}
	if engine.Rules()[0].Name() != "a" {
		t.Fatalf("caller mutation leaked into the engine")
	}
}
