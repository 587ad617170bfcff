package core

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// Group names.
const (
	GroupDefault = "default"
	GroupImport  = "import"
)

// Violation is one failed rule.
type Violation struct {
	Path    string
	Message string
}

// String formats the violation as "path: message".
func (v Violation) String() string {
	return v.Path + ": " + v.Message
}

// Validator checks a domain object against the rules of the given groups.
// An error means a rule could not be evaluated, not that the object is invalid.
type Validator interface {
	Validate(ctx context.Context, obj any, groups []string) ([]Violation, error)
}

// RuleValidator evaluates the Rules of a TargetDefinition.
type RuleValidator struct {
	def    TargetDefinition
	unique UniqueChecker
}

// NewRuleValidator validates objects of def. unique may be nil, in which
// case uniqueness rules pass.
func NewRuleValidator(def TargetDefinition, unique UniqueChecker) *RuleValidator {
	return &RuleValidator{def: def, unique: unique}
}

// Validate implements Validator. Rules run in declaration order and every
// failing rule yields one violation.
func (v *RuleValidator) Validate(ctx context.Context, obj any, groups []string) ([]Violation, error) {
	active := normalizeGroups(groups)

	env := RuleEnv{Target: v.def, Unique: v.unique}
	var violations []Violation
	for _, rule := range v.def.Rules {
		if !rule.inAny(active) {
			continue
		}
		ok, err := rule.Check(ctx, env, obj)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %s", rule.Path)
		}
		if !ok {
			violations = append(violations, Violation{Path: rule.Path, Message: rule.Message})
		}
	}
	return violations, nil
}

func normalizeGroups(groups []string) map[string]bool {
	active := make(map[string]bool, len(groups)+1)
	for _, g := range groups {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			active[g] = true
		}
	}
	if len(active) == 0 {
		active[GroupDefault] = true
	}
	return active
}
