// Package memory stores assistant memory records and answers recall queries.
//
// Invariants:
// - Stored importance is always clamped to [0, 1] and tags carry no duplicates.
// - A persisted embedding always matches the provider dimension active at write time.
// - Recall degrades from semantic search to text matching instead of failing when
//   the embedding provider or vector index is unavailable.
//
// Usage:
//
//	engine, _ := memory.NewEngine(memory.Config{Gateway: gw, Provider: provider})
//	out, _ := engine.Store(ctx, memory.StoreInput{MemoryType: "decision", Content: memory.TextContent("use sqlite")})
//	results, _ := engine.Recall(ctx, memory.RecallQuery{Query: "storage choice"})
//	_ = out
//	_ = results
package memory
