package domain

import (
	"context"
	"fmt"
)

// RuleView is the read side of a pending transaction as rules see it.
type RuleView interface {
	ListSequences() []SequenceRecord
	ListAlignments() []AlignmentRecord
	ListBookmarks() []Bookmark
	FindSequence(id string) (SequenceRecord, bool)
	FindAlignment(id string) (AlignmentRecord, bool)
}

// Rule inspects the changes of a transaction before it commits.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine runs rules in registration order.
type RulesEngine struct {
	rules []Rule
}

func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends rules; nil entries are ignored.
func (e *RulesEngine) Register(rules ...Rule) {
	for _, r := range rules {
		if r != nil {
			e.rules = append(e.rules, r)
		}
	}
}

// Rules returns a copy of the registered rules.
func (e *RulesEngine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Evaluate stops at the first rule that fails to evaluate. Violations from
// the rules that ran are discarded in that case.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var out Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		out.Merge(res)
	}
	return out, nil
}
