package filter

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	anchoredExpressionFormat = `^(?s:%s)$`
	ignoreCaseFlag           = "(?i)"
	errorCompilePatternFmt   = "compiling pattern %q: %w"
	anyCharacterExpression   = "."
	noCharacterExpression    = `[^\x00-\x{10FFFF}]`
)

// Pattern is a compiled shell-style glob.
//
// `*` matches any run of characters including the path separator, `?` matches
// exactly one character, and `[seq]` / `[!seq]` match one character in or out of
// seq. An unterminated `[` is matched literally. Patterns match the whole subject.
type Pattern struct {
	source     string
	expression *regexp.Regexp
}

// CompilePattern compiles source into a Pattern.
func CompilePattern(source string, ignoreCase bool) (Pattern, error) {
	expressionText := fmt.Sprintf(anchoredExpressionFormat, translateGlob(source))
	if ignoreCase {
		expressionText = ignoreCaseFlag + expressionText
	}
	expression, compileError := regexp.Compile(expressionText)
	if compileError != nil {
		return Pattern{}, fmt.Errorf(errorCompilePatternFmt, source, compileError)
	}
	return Pattern{source: source, expression: expression}, nil
}

// Match reports whether subject matches the whole pattern.
func (pattern Pattern) Match(subject string) bool {
	if pattern.expression == nil {
		return false
	}
	return pattern.expression.MatchString(subject)
}

// String returns the glob the pattern was compiled from.
func (pattern Pattern) String() string {
	return pattern.source
}

func translateGlob(source string) string {
	runes := []rune(source)
	var builder strings.Builder
	index := 0
	for index < len(runes) {
		current := runes[index]
		index++
		switch current {
		case '*':
			builder.WriteString(".*")
		case '?':
			builder.WriteString(".")
		case '[':
			closing := index
			if closing < len(runes) && runes[closing] == '!' {
				closing++
			}
			if closing < len(runes) && runes[closing] == ']' {
				closing++
			}
			for closing < len(runes) && runes[closing] != ']' {
				closing++
			}
			if closing >= len(runes) {
				builder.WriteString(`\[`)
				continue
			}
			builder.WriteString(translateClass(runes[index:closing]))
			index = closing + 1
		default:
			builder.WriteString(regexp.QuoteMeta(string(current)))
		}
	}
	return builder.String()
}

// translateClass converts the members between `[` and `]` into a regexp class.
// Reversed ranges such as z-a are dropped. A class left without members never
// matches, and a negated one matches any character.
func translateClass(members []rune) string {
	negated := len(members) > 0 && members[0] == '!'
	if negated {
		members = members[1:]
	}
	var body strings.Builder
	for index := 0; index < len(members); index++ {
		low := members[index]
		if index+2 < len(members) && members[index+1] == '-' {
			high := members[index+2]
			index += 2
			if low > high {
				continue
			}
			body.WriteString(quoteClassMember(low) + "-" + quoteClassMember(high))
			continue
		}
		body.WriteString(quoteClassMember(low))
	}
	switch {
	case body.Len() > 0 && negated:
		return "[^" + body.String() + "]"
	case body.Len() > 0:
		return "[" + body.String() + "]"
	case negated:
		return anyCharacterExpression
	default:
		return noCharacterExpression
	}
}

func quoteClassMember(member rune) string {
	if member == '-' {
		return `\-`
	}
	return regexp.QuoteMeta(string(member))
}
