// Package codexcli adapts the Codex CLI to the bridge protocol.
//
// Each call runs `codex exec <prompt> --json` as a one-shot subprocess.
// Codex streams genuine text deltas (agent_message.delta), which are
// forwarded unchanged; the completed agent_message item is reconciled
// against the already-emitted text so nothing is duplicated. Command
// execution items drive the inline tool narration, and turn.completed
// carries the authoritative usage totals.
//
// Codex can only resume the most recent session in a directory — there is
// no arbitrary session addressing — so the session map stores a
// resume-latest marker once a key completes a turn, and later calls run
// `codex exec resume --last`.
package codexcli
