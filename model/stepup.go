package model

import "time"

// StepUpContext is a single-use privileged authorization context minted by a
// fresh re-authentication exchange. Existence in the store implies the
// context has not been consumed yet; consumption deletes it atomically.
type StepUpContext struct {
	JTI       string    `json:"jti"`
	SubjectID string    `json:"subjectId"`
	Operation string    `json:"operation"`
	Resource  string    `json:"resource"`
	CreatedAt time.Time `json:"createdAt"`
}

// Matches reports whether the context was minted for the given subject,
// operation and resource triple.
func (c *StepUpContext) Matches(subjectID, operation, resource string) bool {
	return c.SubjectID == subjectID && c.Operation == operation && c.Resource == resource
}
