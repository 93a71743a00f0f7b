// Package commands implements the bot's slash commands: /temp, /imagine,
// /clear, /start, /hello, and /help. Messages that are not recognised
// commands fall through to the conversational pipeline.
package commands

import "strings"

// Command is a parsed slash command: the bare name (leading slash and any
// @botname suffix removed) and the whitespace-split argument fields.
type Command struct {
	Name string
	Args []string
}

// Parse splits text into a command name and arguments. It returns false when
// text does not start with a slash. Command names are case-sensitive, so
// "/Temp" parses to name "Temp" which no handler matches.
//
// In group chats commands arrive as "/cmd@BotName"; the suffix is stripped
// only when it addresses botName. A command addressed to another bot keeps
// the suffix in its name and therefore falls through to the conversational
// pipeline, same as any other unmatched text.
func Parse(text, botName string) (Command, bool) {
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}

	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	if name == "" {
		return Command{}, false
	}
	if at := strings.IndexByte(name, '@'); at >= 0 {
		if botName != "" && strings.EqualFold(name[at+1:], botName) {
			name = name[:at]
		}
	}

	return Command{Name: name, Args: fields[1:]}, true
}
