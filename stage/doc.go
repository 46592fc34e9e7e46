// Package stage assembles reasoning loops into pipeline stages. A stage
// binds a fixed persona, a task template, a tool set, and an extraction
// policy, and publishes its validated output to a topic for the next stage.
//
// The hand-off contract is strict. A stage publishes exactly one message per
// successful run and nothing at all when the loop fails or the output does
// not validate. Downstream stages can therefore trust every message they
// consume.
package stage
