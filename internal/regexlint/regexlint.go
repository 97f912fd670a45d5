// Package regexlint flags domain regular expressions that a rule-set compiler
// would reject or that match every host.
package regexlint

import (
	"errors"
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"
)

// ErrMatchesAny is returned for expressions without any literal anchor, such as ".*".
var ErrMatchesAny = errors.New("expression matches any host")

// onlyWildcards matches shapes that are made of wildcards alone
var onlyWildcards = regexp.MustCompile(`^[\?\*]*$`)

// Check parses expr with Perl syntax and rejects expressions that match any host.
func Check(expr string) error {
	expr = strings.TrimPrefix(expr, "/")
	expr = strings.TrimSuffix(expr, "/")

	re, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return fmt.Errorf("invalid expression: %w", err)
	}
	if onlyWildcards.MatchString(Shape(re)) {
		return ErrMatchesAny
	}
	return nil
}

// Shape renders a parsed expression as a wildcard pattern: literals are kept,
// single characters become '?' and repetitions become '*'.
func Shape(re *syntax.Regexp) string {
	switch re.Op {
	case syntax.OpNoMatch, syntax.OpEmptyMatch:
		return ""
	case syntax.OpLiteral:
		return string(re.Rune)
	case syntax.OpCharClass, syntax.OpAnyCharNotNL, syntax.OpAnyChar:
		return "?"
	case syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText:
		return ""
	case syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return ""
	case syntax.OpCapture, syntax.OpConcat:
		var b strings.Builder
		for _, sub := range re.Sub {
			b.WriteString(Shape(sub))
		}
		return b.String()
	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest, syntax.OpRepeat:
		return "*"
	case syntax.OpAlternate:
		return "*"
	default:
		return "?"
	}
}
