// Package rule models the recursive approval rule tree and its pure
// evaluator. A rule is a closed tagged union: a group requirement leaf, or an
// and/or composite over child rules. Trees are built top-down at creation
// time with an enforced depth bound, so no cycle handling is needed.
package rule

import "github.com/viant/quorum/fault"

// Kind discriminates rule tree nodes.
type Kind string

const (
	KindGroup Kind = "group"
	KindAnd   Kind = "and"
	KindOr    Kind = "or"
)

// MaxDepth is the maximum node depth beyond the root (root is depth 0).
const MaxDepth = 2

// Rule is one node of the approval tree. Exactly one variant is populated:
// group leaves use GroupID/MinCount/RequireHighPrivilege, composites use
// Rules. The single-struct representation keeps the tree YAML/JSON
// serialisable without custom codecs.
type Rule struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// leaf
	GroupID              string `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	MinCount             int    `json:"minCount,omitempty" yaml:"minCount,omitempty"`
	RequireHighPrivilege bool   `json:"requireHighPrivilege,omitempty" yaml:"requireHighPrivilege,omitempty"`

	// composite
	Rules []*Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// Group creates a group requirement leaf.
func Group(groupID string, minCount int) *Rule {
	return &Rule{Kind: KindGroup, GroupID: groupID, MinCount: minCount}
}

// HighPrivilegeGroup creates a group requirement leaf that demands a
// freshly re-authenticated voter.
func HighPrivilegeGroup(groupID string, minCount int) *Rule {
	return &Rule{Kind: KindGroup, GroupID: groupID, MinCount: minCount, RequireHighPrivilege: true}
}

// And creates a conjunction over the supplied rules.
func And(rules ...*Rule) *Rule {
	return &Rule{Kind: KindAnd, Rules: rules}
}

// Or creates a disjunction over the supplied rules.
func Or(rules ...*Rule) *Rule {
	return &Rule{Kind: KindOr, Rules: rules}
}

// Validate checks structural invariants: depth bound, non-empty composites
// and positive min counts. Validation happens once at creation time; the
// evaluator assumes a valid tree.
func (r *Rule) Validate() error {
	return r.validate(0)
}

func (r *Rule) validate(depth int) error {
	if r == nil {
		return fault.New(fault.AndRuleMustHaveRules, "rule is nil")
	}
	if depth > MaxDepth {
		return fault.New(fault.MaxRuleNestingExceeded, "rule nesting exceeds %v levels", MaxDepth)
	}
	switch r.Kind {
	case KindGroup:
		if r.GroupID == "" {
			return fault.New(fault.GroupRuleInvalidMinCount, "group rule requires a group id")
		}
		if r.MinCount < 1 {
			return fault.New(fault.GroupRuleInvalidMinCount, "group %v: minCount %v, expected >= 1", r.GroupID, r.MinCount)
		}
	case KindAnd:
		if len(r.Rules) == 0 {
			return fault.New(fault.AndRuleMustHaveRules, "and rule has no child rules")
		}
		for _, child := range r.Rules {
			if err := child.validate(depth + 1); err != nil {
				return err
			}
		}
	case KindOr:
		if len(r.Rules) == 0 {
			return fault.New(fault.OrRuleMustHaveRules, "or rule has no child rules")
		}
		for _, child := range r.Rules {
			if err := child.validate(depth + 1); err != nil {
				return err
			}
		}
	default:
		return fault.New(fault.AndRuleMustHaveRules, "unknown rule kind %q", r.Kind)
	}
	return nil
}

// Groups returns the group ids referenced anywhere in the tree, in first
// appearance order, without duplicates.
func (r *Rule) Groups() []string {
	var out []string
	seen := map[string]bool{}
	r.walk(func(node *Rule) {
		if node.Kind == KindGroup && !seen[node.GroupID] {
			seen[node.GroupID] = true
			out = append(out, node.GroupID)
		}
	})
	return out
}

// HighPrivilegeGroups returns the group ids of leaves flagged as requiring
// high privilege, in first appearance order, without duplicates.
func (r *Rule) HighPrivilegeGroups() []string {
	var out []string
	seen := map[string]bool{}
	r.walk(func(node *Rule) {
		if node.Kind == KindGroup && node.RequireHighPrivilege && !seen[node.GroupID] {
			seen[node.GroupID] = true
			out = append(out, node.GroupID)
		}
	})
	return out
}

func (r *Rule) walk(visit func(*Rule)) {
	if r == nil {
		return
	}
	visit(r)
	for _, child := range r.Rules {
		child.walk(visit)
	}
}
