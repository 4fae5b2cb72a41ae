// Package fault defines the symbolic, transport-agnostic error codes the
// engine surfaces to collaborators, together with a small coded error type.
// Outer layers (HTTP glue, CLIs) translate reasons to their own status codes.
package fault

import "fmt"

// Reason is a symbolic error code.
type Reason string

const (
	EntityNotInGroup         Reason = "ENTITY_NOT_IN_GROUP"
	EntityNotInRequiredGroup Reason = "ENTITY_NOT_IN_REQUIRED_GROUP"
	WorkflowExpired          Reason = "WORKFLOW_EXPIRED"
	WorkflowNotFound         Reason = "WORKFLOW_NOT_FOUND"
	WorkflowAlreadyApproved  Reason = "WORKFLOW_ALREADY_APPROVED"
	WorkflowAlreadyRejected  Reason = "WORKFLOW_ALREADY_REJECTED"
	WorkflowCancelled        Reason = "WORKFLOW_CANCELLED"
	VoteTypeInvalid          Reason = "VOTE_TYPE_INVALID"
	StepUpContextMissing     Reason = "STEP_UP_CONTEXT_MISSING"
	MaxRuleNestingExceeded   Reason = "MAX_RULE_NESTING_EXCEEDED"
	AndRuleMustHaveRules     Reason = "AND_RULE_MUST_HAVE_RULES"
	OrRuleMustHaveRules      Reason = "OR_RULE_MUST_HAVE_RULES"
	GroupRuleInvalidMinCount Reason = "GROUP_RULE_INVALID_MIN_COUNT"
	MaxRolesExceeded         Reason = "MAX_ROLES_PER_ENTITY_EXCEEDED"
	PermissionDenied         Reason = "PERMISSION_DENIED"
	TokenNotFound            Reason = "token_not_found"
)

// Fault is an error carrying a symbolic reason.
type Fault struct {
	Reason  Reason
	Message string
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Message == "" {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Message)
}

// New creates a fault with a formatted detail message.
func New(reason Reason, format string, args ...interface{}) *Fault {
	return &Fault{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the symbolic reason from err, unwrapping as needed;
// it returns the empty reason when err carries none.
func ReasonOf(err error) Reason {
	for err != nil {
		if fault, ok := err.(*Fault); ok {
			return fault.Reason
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = unwrapper.Unwrap()
	}
	return ""
}

// Is reports whether err carries the given reason.
func Is(err error, reason Reason) bool {
	return ReasonOf(err) == reason
}
