package planning

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SetupMatrix models changeover between setup states on a resource as a
// priority-ordered list of rules. Rule priorities are unique within a
// matrix.
type SetupMatrix struct {
	name  string
	rules []*SetupRule
}

// NewSetupMatrix creates an empty setup matrix.
func NewSetupMatrix(name string) *SetupMatrix {
	return &SetupMatrix{name: name}
}

// Name returns the matrix name.
func (m *SetupMatrix) Name() string { return m.name }

// SetupRule describes one changeover: converting from a setup matching
// FromSetup to a setup matching ToSetup takes Duration and costs Cost.
// Patterns may use the '*' and '?' wildcards; an empty pattern matches
// anything.
type SetupRule struct {
	matrix    *SetupMatrix
	priority  int
	fromSetup string
	toSetup   string
	duration  time.Duration
	cost      decimal.Decimal
}

// AddRule creates a rule with the given priority. The priority must be
// unique within the matrix; the uniqueness check is part of the insertion
// path.
func (m *SetupMatrix) AddRule(priority int) (*SetupRule, error) {
	pos := len(m.rules)
	for i, r := range m.rules {
		if r.priority == priority {
			return nil, NewDataError("rule with priority %d already exists in setup matrix '%s'", priority, m.name)
		}
		if r.priority > priority {
			pos = i
			break
		}
	}
	rule := &SetupRule{matrix: m, priority: priority}
	m.rules = append(m.rules, nil)
	copy(m.rules[pos+1:], m.rules[pos:])
	m.rules[pos] = rule
	return rule, nil
}

// RemoveRule drops a rule from the matrix.
func (m *SetupMatrix) RemoveRule(r *SetupRule) {
	for i, x := range m.rules {
		if x == r {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return
		}
	}
}

// FindRule returns the rule with the given priority, or nil.
func (m *SetupMatrix) FindRule(priority int) *SetupRule {
	for _, r := range m.rules {
		if r.priority == priority {
			return r
		}
	}
	return nil
}

// Rules returns the rules in ascending priority order.
func (m *SetupMatrix) Rules() []*SetupRule { return m.rules }

// Priority returns the rule priority. Lower numbers are searched first.
func (r *SetupRule) Priority() int { return r.priority }

// FromSetup returns the pattern matched against the current setup.
func (r *SetupRule) FromSetup() string { return r.fromSetup }

// SetFromSetup updates the from-setup pattern.
func (r *SetupRule) SetFromSetup(s string) { r.fromSetup = s }

// ToSetup returns the pattern matched against the desired setup.
func (r *SetupRule) ToSetup() string { return r.toSetup }

// SetToSetup updates the to-setup pattern.
func (r *SetupRule) SetToSetup(s string) { r.toSetup = s }

// Duration returns the changeover duration.
func (r *SetupRule) Duration() time.Duration { return r.duration }

// SetDuration updates the changeover duration.
func (r *SetupRule) SetDuration(d time.Duration) error {
	if d < 0 {
		return NewDataError("setup rule duration must not be negative")
	}
	r.duration = d
	return nil
}

// Cost returns the changeover cost.
func (r *SetupRule) Cost() decimal.Decimal { return r.cost }

// SetCost updates the changeover cost.
func (r *SetupRule) SetCost(c decimal.Decimal) { r.cost = c }

// CalculateSetup returns the first rule, in priority order, whose patterns
// match the conversion from oldSetup to newSetup. Nil is returned when the
// setups are equal (no conversion needed) or when no rule matches (the
// conversion is undefined and treated as infeasible by callers).
func (m *SetupMatrix) CalculateSetup(oldSetup, newSetup string) *SetupRule {
	if oldSetup == newSetup {
		return nil
	}
	for _, r := range m.rules {
		if r.fromSetup != "" && !matchWildcard(r.fromSetup, oldSetup) {
			continue
		}
		if r.toSetup != "" && !matchWildcard(r.toSetup, newSetup) {
			continue
		}
		return r
	}
	log.Warn().
		Str("matrix", m.name).
		Str("from", oldSetup).
		Str("to", newSetup).
		Msg("undefined setup conversion")
	return nil
}

// matchWildcard reports whether s matches pattern, where '*' matches any
// run of characters and '?' matches exactly one.
func matchWildcard(pattern, s string) bool {
	p, n := 0, 0
	star, mark := -1, 0
	for n < len(s) {
		switch {
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == s[n]):
			p++
			n++
		case p < len(pattern) && pattern[p] == '*':
			star = p
			mark = n
			p++
		case star >= 0:
			p = star + 1
			mark++
			n = mark
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
