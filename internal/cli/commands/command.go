package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"WarehouseApp/internal/config"
)

// ErrUsage is returned by a command when arguments are invalid and usage should be shown.
var ErrUsage = errors.New("usage")

// Группы команд в справке, в порядке вывода.
const (
	GroupContainers = "Containers"
	GroupPhotos     = "Photos"
	GroupSheet      = "Sheet sync"
	GroupOperator   = "Operator"
	groupOther      = "Other"
)

var groupOrder = []string{GroupContainers, GroupPhotos, GroupSheet, GroupOperator, groupOther}

// Command is one whcli subcommand.
type Command interface {
	Name() string
	Description() string
	// Usage is the full argument synopsis, e.g. "add <number> [type] [door]".
	Usage() string
	// Run gets the arguments after the command name.
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

// Grouped commands are listed under their group in the help text.
type Grouped interface {
	Group() string
}

var registry = map[string]Command{}

// Out: общий writer для вывода CLI, в тестах подменяется.
var Out io.Writer = os.Stdout

// RegisterCmd adds a command to the registry. Called from init().
func RegisterCmd(cmd Command) {
	registry[strings.ToLower(cmd.Name())] = cmd
}

// Get returns a command by name, case-insensitively.
func Get(name string) (Command, bool) {
	c, ok := registry[strings.ToLower(name)]
	return c, ok
}

// List returns all registered commands sorted by name.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

func groupOf(c Command) string {
	if g, ok := c.(Grouped); ok && g.Group() != "" {
		return g.Group()
	}
	return groupOther
}

// FormatGlobalUsage builds the help text, commands grouped by Group.
func FormatGlobalUsage() string {
	byGroup := map[string][]Command{}
	for _, c := range List() {
		g := groupOf(c)
		byGroup[g] = append(byGroup[g], c)
	}

	var b strings.Builder
	b.WriteString("Warehouse CLI: containers on this device, mirrored to the sheet when online.\n\n")
	b.WriteString("Usage:\n")
	b.WriteString("  whcli [--store sqlite|fs] [--store-path <path>] <command> [args]\n")
	b.WriteString("  whcli help <command>\n")
	for _, g := range groupOrder {
		cmds := byGroup[g]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", g)
		for _, c := range cmds {
			fmt.Fprintf(&b, "  %-44s %s\n", c.Usage(), c.Description())
		}
	}
	b.WriteString("\nContainers are addressed by id or by container number.\n")
	return b.String()
}

// FormatCommandUsage is the help page of a single command.
func FormatCommandUsage(c Command) string {
	return fmt.Sprintf("Usage: whcli %s\n\n%s\n", c.Usage(), c.Description())
}
