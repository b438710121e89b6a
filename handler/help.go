package handler

import "strings"

const helpTemplate = `Hello! Here are all my commands.

━━━「 General 」━━━
• {p}help - Shows this message
• {p}pmode on/off - Toggles public mode (owner/admin)

━━━「 Pin Board 」━━━
• {p}pin - Saves a message (in reply)
• {p}pin as <name> - Saves it under a contact name
• {p}pinall - Shows your saved pins
• {p}vp <number> - Views a full pin
• {p}unpin <number> - Removes a pin

━━━「 Reminders 」━━━
• {p}r <task> in <time>
• {p}lr - Lists your personal reminders
• {p}cr <number> - Cancels a personal reminder

━━「 Group Reminders 」━━
• {p}tr <task> at <time>
• {p}ltr - Lists your group reminders
• {p}ctr <number> - Cancels a group reminder

━━━「 Group Tools 」━━━
• {p}poll <Q>? <Opt1>, <Opt2>
• {p}tagall - Mentions all group members
• {p}spam <msg> <count> - Repeats a message multiple times
• {p}stopspam - Stops spam in the chat

━━━「 Reactions 」━━━
• {p}react <emoji> - Reacts to a message (in reply)`

// HelpText lists every command under the given prefix.
func HelpText(prefix string) string {
	return strings.ReplaceAll(helpTemplate, "{p}", prefix)
}
