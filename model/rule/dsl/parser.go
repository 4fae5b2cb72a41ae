// Package dsl parses the compact text form of approval rules:
//
//	rule     := group | all | any
//	group    := "group" "(" id "," count ["," "high"] ")"
//	all      := ("all" | "and") "(" rule { "," rule } ")"
//	any      := ("any" | "or")  "(" rule { "," rule } ")"
//
// The parser only builds the tree; structural invariants (depth bound,
// positive counts) are enforced by rule.Validate afterwards.
package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/parsly"
	"github.com/viant/quorum/model/rule"
)

// Parse compiles the textual rule form into a validated rule tree.
func Parse(input []byte) (*rule.Rule, error) {
	cursor := parsly.NewCursor("", input, 0)
	parsed, err := parseRule(cursor)
	if err != nil {
		return nil, err
	}
	// reject trailing content
	cursor.MatchOne(whitespaceToken)
	if cursor.Pos < cursor.InputSize {
		return nil, fmt.Errorf("unexpected trailing input at position %v: %q", cursor.Pos, string(cursor.Input[cursor.Pos:]))
	}
	if err = parsed.Validate(); err != nil {
		return nil, err
	}
	return parsed, nil
}

func parseRule(cursor *parsly.Cursor) (*rule.Rule, error) {
	matched := cursor.MatchAfterOptional(whitespaceToken, identifierToken)
	if matched.Code != identifierToken.Code {
		return nil, cursor.NewError(identifierToken)
	}
	keyword := strings.ToLower(matched.Text(cursor))
	switch keyword {
	case "group":
		return parseGroup(cursor)
	case "all", "and":
		return parseComposite(cursor, rule.KindAnd)
	case "any", "or":
		return parseComposite(cursor, rule.KindOr)
	}
	return nil, fmt.Errorf("unknown rule keyword %q, expected group, all or any", keyword)
}

func parseGroup(cursor *parsly.Cursor) (*rule.Rule, error) {
	if err := expect(cursor, openParenToken); err != nil {
		return nil, err
	}
	matched := cursor.MatchAfterOptional(whitespaceToken, identifierToken)
	if matched.Code != identifierToken.Code {
		return nil, cursor.NewError(identifierToken)
	}
	node := &rule.Rule{Kind: rule.KindGroup, GroupID: matched.Text(cursor)}

	if err := expect(cursor, commaToken); err != nil {
		return nil, err
	}
	matched = cursor.MatchAfterOptional(whitespaceToken, numberToken)
	if matched.Code != numberToken.Code {
		return nil, cursor.NewError(numberToken)
	}
	count, err := strconv.Atoi(matched.Text(cursor))
	if err != nil {
		return nil, err
	}
	node.MinCount = count

	matched = cursor.MatchAfterOptional(whitespaceToken, commaToken, closeParenToken)
	switch matched.Code {
	case closeParenToken.Code:
		return node, nil
	case commaToken.Code:
	default:
		return nil, cursor.NewError(closeParenToken)
	}

	matched = cursor.MatchAfterOptional(whitespaceToken, identifierToken)
	if matched.Code != identifierToken.Code {
		return nil, cursor.NewError(identifierToken)
	}
	if modifier := strings.ToLower(matched.Text(cursor)); modifier != "high" {
		return nil, fmt.Errorf("unknown group modifier %q, expected high", modifier)
	}
	node.RequireHighPrivilege = true
	if err = expect(cursor, closeParenToken); err != nil {
		return nil, err
	}
	return node, nil
}

func parseComposite(cursor *parsly.Cursor, kind rule.Kind) (*rule.Rule, error) {
	if err := expect(cursor, openParenToken); err != nil {
		return nil, err
	}
	node := &rule.Rule{Kind: kind}
	for {
		child, err := parseRule(cursor)
		if err != nil {
			return nil, err
		}
		node.Rules = append(node.Rules, child)

		matched := cursor.MatchAfterOptional(whitespaceToken, commaToken, closeParenToken)
		switch matched.Code {
		case commaToken.Code:
			continue
		case closeParenToken.Code:
			return node, nil
		default:
			return nil, cursor.NewError(closeParenToken)
		}
	}
}

func expect(cursor *parsly.Cursor, token *parsly.Token) error {
	matched := cursor.MatchAfterOptional(whitespaceToken, token)
	if matched.Code != token.Code {
		return cursor.NewError(token)
	}
	return nil
}
