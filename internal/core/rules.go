package core

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgtype"
)

// RuleEnv is what a rule may consult besides the object.
type RuleEnv struct {
	Target TargetDefinition
	Unique UniqueChecker
}

// CheckFunc returns false when obj breaks the rule.
type CheckFunc func(ctx context.Context, env RuleEnv, obj any) (bool, error)

// Rule is a single check bound to a property path and a set of groups.
type Rule struct {
	Path    string
	Groups  []string
	Message string
	Check   CheckFunc
}

func (r Rule) inAny(active map[string]bool) bool {
	for _, g := range r.Groups {
		if active[strings.ToLower(g)] {
			return true
		}
	}
	return false
}

// Getter extracts a field value from an object for a rule.
type Getter func(obj any) any

// Rule messages.
const (
	msgNotBlank     = "This value should not be blank."
	msgUnique       = "This value is already used."
	msgPositiveZero = "This value should be either positive or zero."
)

// NotBlank fails on empty strings and on pgtype values with Valid=false.
func NotBlank(path string, get Getter, groups ...string) Rule {
	return Rule{
		Path:    path,
		Groups:  groups,
		Message: msgNotBlank,
		Check: func(_ context.Context, _ RuleEnv, obj any) (bool, error) {
			return !isBlank(get(obj)), nil
		},
	}
}

// MaxLength fails on strings longer than max characters.
func MaxLength(path string, max int, get Getter, groups ...string) Rule {
	return Rule{
		Path:    path,
		Groups:  groups,
		Message: fmt.Sprintf("This value is too long. It should have %d characters or less.", max),
		Check: func(_ context.Context, _ RuleEnv, obj any) (bool, error) {
			s, _ := get(obj).(string)
			return utf8.RuneCountInString(s) <= max, nil
		},
	}
}

// LessOrEqual fails when a present number exceeds limit.
func LessOrEqual(path string, limit float64, get Getter, groups ...string) Rule {
	return Rule{
		Path:    path,
		Groups:  groups,
		Message: fmt.Sprintf("This value should be less than or equal to %s.", formatLimit(limit)),
		Check: func(_ context.Context, _ RuleEnv, obj any) (bool, error) {
			n, ok := number(get(obj))
			return !ok || n <= limit, nil
		},
	}
}

// GreaterOrEqual fails when a present number is below limit.
func GreaterOrEqual(path string, limit float64, get Getter, groups ...string) Rule {
	msg := fmt.Sprintf("This value should be greater than or equal to %s.", formatLimit(limit))
	if limit == 0 {
		msg = msgPositiveZero
	}
	return Rule{
		Path:    path,
		Groups:  groups,
		Message: msg,
		Check: func(_ context.Context, _ RuleEnv, obj any) (bool, error) {
			n, ok := number(get(obj))
			return !ok || n >= limit, nil
		},
	}
}

// Unique fails when the value already exists in column of the target table.
// Blank values and a missing checker pass.
func Unique(path, column string, get Getter, groups ...string) Rule {
	return Rule{
		Path:    path,
		Groups:  groups,
		Message: msgUnique,
		Check: func(ctx context.Context, env RuleEnv, obj any) (bool, error) {
			v := get(obj)
			if env.Unique == nil || isBlank(v) {
				return true, nil
			}
			exists, err := env.Unique.Exists(ctx, env.Target.Info.Table, column, v)
			if err != nil {
				return false, errors.Wrapf(err, "check %s uniqueness", column)
			}
			return !exists, nil
		},
	}
}

// Callback wraps an arbitrary predicate.
func Callback(path, message string, valid func(obj any) bool, groups ...string) Rule {
	return Rule{
		Path:    path,
		Groups:  groups,
		Message: message,
		Check: func(_ context.Context, _ RuleEnv, obj any) (bool, error) {
			return valid(obj), nil
		},
	}
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case pgtype.Text:
		return !x.Valid || strings.TrimSpace(x.String) == ""
	case pgtype.Int4:
		return !x.Valid
	case pgtype.Numeric:
		return !x.Valid
	case pgtype.Timestamptz:
		return !x.Valid
	default:
		return false
	}
}

// number extracts a numeric value; ok is false for absent values.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case pgtype.Int4:
		return float64(x.Int32), x.Valid
	case pgtype.Numeric:
		return NumericFloat(x)
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

func formatLimit(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%f", f), "0"), ".")
}
