package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var negativeInt = regexp.MustCompile(`^-\d+$`)

// usageArgs wraps a cobra positional-argument validator so its failures
// exit with the usage code.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// parseAmount parses a signed integer amount argument.
func parseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &usageError{err: fmt.Errorf("invalid amount %q: must be an integer", s)}
	}
	return n, nil
}

// liftNegativeNumbers rewrites args that contain a bare negative integer
// such as "-50" so pflag reads it as a positional argument rather than a
// shorthand flag. Command names and flags (with their values) stay in front
// of a "--" terminator; every positional argument follows it in its
// original order.
func liftNegativeNumbers(cmd *cobra.Command, args []string) []string {
	flags := flagSet(cmd)
	takesValue := func(arg string) bool {
		if strings.Contains(arg, "=") {
			return false
		}
		switch {
		case strings.HasPrefix(arg, "--"):
			f := flags.Lookup(arg[2:])
			return f != nil && f.NoOptDefVal == ""
		case len(arg) == 2 && arg[0] == '-':
			f := flags.ShorthandLookup(arg[1:])
			return f != nil && f.NoOptDefVal == ""
		}
		return false
	}

	// Names on the command path, root excluded.
	names := len(strings.Fields(cmd.CommandPath())) - 1

	var head, positional []string
	lift := false
scan:
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			positional = append(positional, args[i+1:]...)
			break scan
		case negativeInt.MatchString(arg):
			lift = true
			positional = append(positional, arg)
		case strings.HasPrefix(arg, "-") && arg != "-":
			head = append(head, arg)
			if takesValue(arg) && i+1 < len(args) {
				i++
				head = append(head, args[i])
			}
		case names > 0:
			names--
			head = append(head, arg)
		default:
			positional = append(positional, arg)
		}
	}
	if !lift {
		return args
	}
	head = append(head, "--")
	return append(head, positional...)
}
