package commands

import (
	"context"
	"errors"
	"fmt"

	"WarehouseApp/internal/config"
	"WarehouseApp/internal/service"
)

// Exit codes of Dispatch.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

func isHelp(arg string) bool {
	return arg == "help" || arg == "--help" || arg == "-h"
}

// Dispatch runs the command named by args[0] and returns the process exit code.
// args are what is left after global flags were parsed.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	if isHelp(args[0]) { // whcli help [command]
		if len(args) == 1 {
			fmt.Fprint(Out, FormatGlobalUsage())
			return ExitOK
		}
		if c, ok := Get(args[1]); ok {
			fmt.Fprint(Out, FormatCommandUsage(c))
			return ExitOK
		}
		fmt.Fprintf(Out, "Unknown command: %s\n\n", args[1])
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	c, ok := Get(args[0])
	if !ok {
		fmt.Fprintf(Out, "Unknown command: %s\n\n", args[0])
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}
	for _, a := range args[1:] {
		if a == "--help" || a == "-h" {
			fmt.Fprint(Out, FormatCommandUsage(c))
			return ExitOK
		}
	}

	err := c.Run(ctx, cfg, args[1:])
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		if msg := usageDetail(err); msg != "" {
			fmt.Fprintln(Out, msg)
		}
		fmt.Fprintf(Out, "Usage: whcli %s\n", c.Usage())
		return ExitUsage
	case errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(Out, "%s error: %v (see 'whcli list')\n", c.Name(), err)
		return ExitError
	default:
		fmt.Fprintf(Out, "%s error: %v\n", c.Name(), err)
		return ExitError
	}
}

// usageDetail возвращает пояснение из обёрнутой ErrUsage, если оно есть.
func usageDetail(err error) string {
	if err == nil || err == ErrUsage {
		return ""
	}
	return err.Error()
}
