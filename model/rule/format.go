package rule

import (
	"strconv"
	"strings"
)

// Format renders the canonical compact text form of the tree, the same
// grammar the dsl sub-package parses:
//
//	all(group(security,2), any(group(legal,1), group(finance,1,high)))
//
// The rendering is deterministic, so it doubles as the input for template
// version diffs.
func (r *Rule) Format() string {
	var builder strings.Builder
	r.format(&builder)
	return builder.String()
}

func (r *Rule) format(builder *strings.Builder) {
	if r == nil {
		return
	}
	switch r.Kind {
	case KindGroup:
		builder.WriteString("group(")
		builder.WriteString(r.GroupID)
		builder.WriteByte(',')
		builder.WriteString(strconv.Itoa(r.MinCount))
		if r.RequireHighPrivilege {
			builder.WriteString(",high")
		}
		builder.WriteByte(')')
	case KindAnd:
		builder.WriteString("all(")
		r.formatChildren(builder)
		builder.WriteByte(')')
	case KindOr:
		builder.WriteString("any(")
		r.formatChildren(builder)
		builder.WriteByte(')')
	}
}

func (r *Rule) formatChildren(builder *strings.Builder) {
	for i, child := range r.Rules {
		if i > 0 {
			builder.WriteString(", ")
		}
		child.format(builder)
	}
}
