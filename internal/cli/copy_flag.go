package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const (
	copyFlagTypeName            = "copy"
	copyFlagImplicitValue       = "true"
	argumentTerminator          = "--"
	invalidCopyFlagValueMessage = "invalid --copy value %q: expected yes/no, true/false or 1/0"
)

var (
	// copyFlagLiterals maps the accepted spellings of a --copy value.
	copyFlagLiterals = map[string]bool{
		"true":  true,
		"t":     true,
		"1":     true,
		"yes":   true,
		"y":     true,
		"false": false,
		"f":     false,
		"0":     false,
		"no":    false,
		"n":     false,
	}
	// copyingCommands are the commands and aliases that print a result the user may copy.
	copyingCommands = map[string]struct{}{
		treeUse:        {},
		treeAlias:      {},
		docCommandName: {},
		docAlias:       {},
	}
)

func parseCopyLiteral(input string) (bool, bool) {
	value, known := copyFlagLiterals[strings.ToLower(strings.TrimSpace(input))]
	return value, known
}

// copySwitch is a boolean flag that also accepts yes/no style values.
type copySwitch struct {
	enabled *bool
}

func (value copySwitch) Set(input string) error {
	enabled, known := parseCopyLiteral(input)
	if !known {
		return fmt.Errorf(invalidCopyFlagValueMessage, input)
	}
	*value.enabled = enabled
	return nil
}

func (value copySwitch) String() string {
	if value.enabled == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.enabled)
}

func (value copySwitch) Type() string {
	return copyFlagTypeName
}

func registerCopyFlag(flagSet *pflag.FlagSet, enabled *bool) {
	*enabled = false
	flag := flagSet.VarPF(copySwitch{enabled: enabled}, copyFlagName, "", copyFlagDescription)
	flag.NoOptDefVal = copyFlagImplicitValue
}

// normalizeCopyFlagArguments folds "--copy <literal>" into "--copy=<bool>" once
// a copying command has been named, so the literal is not read as a component name.
func normalizeCopyFlagArguments(arguments []string) []string {
	normalized := make([]string, 0, len(arguments))
	copyingCommandSeen := false
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == argumentTerminator {
			return append(normalized, arguments[index:]...)
		}
		if !copyingCommandSeen {
			_, copyingCommandSeen = copyingCommands[current]
			normalized = append(normalized, current)
			continue
		}
		if current == "--"+copyFlagName && index+1 < len(arguments) {
			if enabled, known := parseCopyLiteral(arguments[index+1]); known {
				normalized = append(normalized, fmt.Sprintf("--%s=%t", copyFlagName, enabled))
				index++
				continue
			}
		}
		normalized = append(normalized, current)
	}
	return normalized
}
