package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/quorum/fault"
)

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name     string
		rule     *Rule
		expected fault.Reason
	}{
		{
			name: "single leaf",
			rule: Group("security", 2),
		},
		{
			name: "two level tree",
			rule: And(Group("security", 1), Or(Group("legal", 1), Group("finance", 1))),
		},
		{
			name: "depth two is accepted",
			rule: And(Or(Group("a", 1))),
		},
		{
			name:     "depth three is rejected",
			rule:     And(Or(And(Group("a", 1)))),
			expected: fault.MaxRuleNestingExceeded,
		},
		{
			name:     "empty and composite",
			rule:     And(),
			expected: fault.AndRuleMustHaveRules,
		},
		{
			name:     "empty or composite",
			rule:     Or(),
			expected: fault.OrRuleMustHaveRules,
		},
		{
			name:     "nested empty composite",
			rule:     And(Group("a", 1), Or()),
			expected: fault.OrRuleMustHaveRules,
		},
		{
			name:     "zero min count",
			rule:     Group("security", 0),
			expected: fault.GroupRuleInvalidMinCount,
		},
		{
			name:     "negative min count",
			rule:     And(Group("security", -1)),
			expected: fault.GroupRuleInvalidMinCount,
		},
		{
			name:     "missing group id",
			rule:     &Rule{Kind: KindGroup, MinCount: 1},
			expected: fault.GroupRuleInvalidMinCount,
		},
	}

	for _, tc := range tests {
		err := tc.rule.Validate()
		if tc.expected == "" {
			assert.NoError(t, err, tc.name)
			continue
		}
		assert.Equal(t, tc.expected, fault.ReasonOf(err), tc.name)
	}
}

func TestRuleGroups(t *testing.T) {
	tree := And(
		Group("security", 1),
		Or(HighPrivilegeGroup("legal", 1), Group("security", 2)),
		HighPrivilegeGroup("finance", 1),
	)
	assert.Equal(t, []string{"security", "legal", "finance"}, tree.Groups())
	assert.Equal(t, []string{"legal", "finance"}, tree.HighPrivilegeGroups())
}

func TestRuleFormat(t *testing.T) {
	tree := And(Group("security", 2), Or(Group("legal", 1), HighPrivilegeGroup("finance", 1)))
	assert.Equal(t, "all(group(security,2), any(group(legal,1), group(finance,1,high)))", tree.Format())
}
