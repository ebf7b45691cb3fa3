// Package bridge defines the uniform streaming protocol that every vendor
// CLI adapter normalizes onto, plus the shared machinery all adapters use:
// the per-call Normalizer, the session continuation store, the provider
// registry and the common error taxonomy.
//
// # Background
//
// Each vendor CLI (claude, opencode, codex) emits its own tagged NDJSON
// event stream on stdout. The taxonomies differ — cumulative text vs true
// deltas, tool lifecycle shapes, where token counts appear — but consumers
// only understand one small alphabet: text-start, text-delta, text-end,
// finish, error. The adapter packages decode vendor events and drive a
// Normalizer, which owns the cross-vendor policy (single open text block,
// cumulative-text diffing, announce-once tool narration, monotonic usage
// with terminal override, exactly-one finish-or-error).
//
// # Usage
//
//	reg := bridge.NewRegistry()
//	reg.Register(claudecli.New())
//
//	model := reg.MustProvider("claude").Model("claude-sonnet-4-5")
//	events, err := model.Stream(ctx, bridge.Request{
//		Messages:   []bridge.Message{bridge.UserMessage("hello")},
//		SessionKey: "conversation-1",
//	})
//	for ev := range events {
//		switch e := ev.(type) {
//		case bridge.TextDeltaEvent:
//			fmt.Print(e.Delta)
//		case bridge.FinishEvent:
//			fmt.Printf("\n[%s, %d in / %d out]\n", e.Reason, e.Usage.InputTokens, e.Usage.OutputTokens)
//		}
//	}
package bridge
