package tui

import "strings"

// Command represents a parsed prompt command.
type Command struct {
	Name string
	Args string
}

var commandAliases = map[string]string{
	"q":             "quit",
	"exit":          "quit",
	"h":             "help",
	"c":             "chats",
	"conversations": "chats",
	"f":             "feed",
	"s":             "search",
	"t":             "theme",
	"o":             "chat",
}

// ParseCommand parses a command string, with or without the leading ':',
// and resolves short aliases to their full names.
func ParseCommand(input string) Command {
	input = strings.TrimPrefix(strings.TrimSpace(input), ":")
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if full, ok := commandAliases[cmd.Name]; ok {
		cmd.Name = full
	}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}
