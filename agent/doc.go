// Package agent implements the reasoning agent execution loop: the
// tool-call/response cycle that drives one inference task to completion over
// an append-only conversational history.
//
// The loop is a small state machine. It starts awaiting the model; the model
// either answers with final text (done) or requests one or more tool calls
// (awaiting-tool). Tool results are appended as tool-role messages in request
// order and the loop returns to awaiting the model. A hard turn cap bounds
// the cycle so an adversarial model that always requests tools cannot hang a
// run; exceeding the cap is a reported failure, never a silent return.
package agent
