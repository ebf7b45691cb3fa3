// Package opencodecli adapts the OpenCode CLI to the bridge protocol.
//
// Each call runs `opencode run <prompt> --print-logs --format json` as a
// one-shot subprocess and normalizes its NDJSON stdout. OpenCode reports
// text cumulatively (each text event carries the full part text so far),
// so the adapter diffs consecutive snapshots into suffix deltas. Session
// continuity uses the sessionID carried on events: the first id seen for a
// session key is stored and replayed as `--session <id>` on later calls.
//
// Token usage arrives on step_finish events; a step_finish whose reason is
// "tool-calls" keeps the turn open, only "stop" is terminal.
package opencodecli
