// Package model contains the in-memory representation of identities, roles,
// workflows, templates and votes used by the Quorum engine.
//
// Approval rules live in the rule sub-package together with the pure
// evaluator; the root model package aggregates the remaining building blocks
// so that they can be referenced from other parts of the code base with a
// single import.
package model
