// Package claudecli adapts the Claude Code CLI to the bridge protocol.
//
// Each call runs `claude -p <prompt> --output-format stream-json` as a
// one-shot subprocess. Assistant messages carry complete content blocks
// rather than true deltas, so text is reconciled cumulatively; tool_use
// blocks and the tool_result blocks echoed back on user messages drive the
// inline tool narration. The terminal result message settles the call and
// its usage totals override anything accumulated from per-message usage.
//
// Session continuity: the system init message reports the session id,
// which is stored under the caller's session key and replayed as
// `--resume <id>` on later calls. A result message reporting a different
// id overwrites the stored token.
package claudecli
