package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName      = "bool"
	booleanFlagDefaultValue  = "true"
	booleanFlagLongPrefix    = "--"
	booleanFlagTerminator    = "--"
	booleanFlagAssignment    = "="
	booleanFlagAcceptedList  = "true, false, yes, no, on, off, 1, 0"
	booleanFlagInvalidFormat = "invalid boolean value %q for --%s; accepted values: %s"
)

// booleanLiterals maps the spellings accepted after a boolean flag.
var booleanLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

func parseBooleanLiteral(input string) (bool, bool) {
	value, known := booleanLiterals[strings.ToLower(strings.TrimSpace(input))]
	return value, known
}

// booleanFlag is a pflag.Value that accepts yes/no style literals. A bare
// flag means true.
type booleanFlag struct {
	target *bool
	name   string
}

func (flag *booleanFlag) Set(input string) error {
	if strings.TrimSpace(input) == "" {
		input = booleanFlagDefaultValue
	}
	value, known := parseBooleanLiteral(input)
	if !known {
		return fmt.Errorf(booleanFlagInvalidFormat, input, flag.name, booleanFlagAcceptedList)
	}
	*flag.target = value
	return nil
}

func (flag *booleanFlag) String() string {
	if flag == nil || flag.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*flag.target)
}

func (flag *booleanFlag) Type() string {
	return booleanFlagTypeName
}

// registerBooleanFlag defines a boolean flag that also accepts a separate
// literal argument, as in "--summary no".
func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = defaultValue
	flagSet.Var(&booleanFlag{target: target, name: name}, name, usage)
	registered := flagSet.Lookup(name)
	registered.DefValue = strconv.FormatBool(defaultValue)
	registered.NoOptDefVal = booleanFlagDefaultValue
}

// normalizeBooleanFlagArguments rewrites "--flag literal" into "--flag=literal"
// for every boolean flag of command and its subcommands. pflag would
// otherwise treat the literal as a positional root argument.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	booleanNames := map[string]struct{}{}
	collectBooleanFlagNames(command, booleanNames)
	if len(booleanNames) == 0 {
		return arguments
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == booleanFlagTerminator {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if index+1 < len(arguments) && isBareBooleanFlag(argument, booleanNames) {
			next := arguments[index+1]
			if _, known := parseBooleanLiteral(next); known && !strings.HasPrefix(next, "-") {
				normalized = append(normalized, argument+booleanFlagAssignment+next)
				index++
				continue
			}
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

func isBareBooleanFlag(argument string, booleanNames map[string]struct{}) bool {
	if !strings.HasPrefix(argument, booleanFlagLongPrefix) || strings.Contains(argument, booleanFlagAssignment) {
		return false
	}
	_, found := booleanNames[strings.TrimPrefix(argument, booleanFlagLongPrefix)]
	return found
}

func collectBooleanFlagNames(command *cobra.Command, names map[string]struct{}) {
	record := func(flag *pflag.Flag) {
		if flag.Value != nil && flag.Value.Type() == booleanFlagTypeName {
			names[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(record)
	command.Flags().VisitAll(record)
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, names)
	}
}
