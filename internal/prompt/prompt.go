// Package prompt collapses a structured conversation into the single
// textual prompt argument the vendor CLIs accept.
//
// The flattening is lossy by design: only the system prompt and the most
// recent user turn survive. Prior turns are supplied by the vendor's own
// session continuation, not by resending history.
package prompt

import (
	"fmt"
	"strings"

	"github.com/relayops/agentbridge/bridge"
)

const (
	systemOpen  = "<system>"
	systemClose = "</system>"
)

// Flatten deterministically collapses messages into one prompt string.
//
// Policy, in priority order: a system-role message (if present) is wrapped
// in fixed delimiters and prepended; the most recent user-role message
// supplies the body, concatenating its parts; when no user message exists,
// every message is concatenated as "<role>: <content>" lines.
func Flatten(messages []bridge.Message) string {
	system := systemText(messages)
	user, found := lastUserText(messages)
	if !found {
		user = transcript(messages)
	}

	if system == "" {
		return user
	}
	if user == "" {
		return systemOpen + "\n" + system + "\n" + systemClose
	}
	return systemOpen + "\n" + system + "\n" + systemClose + "\n\n" + user
}

func systemText(messages []bridge.Message) string {
	for _, m := range messages {
		if m.Role == bridge.RoleSystem {
			return joinParts(m.Content)
		}
	}
	return ""
}

// lastUserText scans from the end for the most recent user message.
func lastUserText(messages []bridge.Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == bridge.RoleUser {
			return joinParts(messages[i].Content), true
		}
	}
	return "", false
}

func transcript(messages []bridge.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.Role == bridge.RoleSystem {
			continue // already carried in the delimited header
		}
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, joinParts(m.Content)))
	}
	return strings.Join(lines, "\n")
}

func joinParts(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts, "\n")
	}
}
