// Package core provides the foundational domain types and execution contexts
// used by leadflow. It defines:
//
//   - LeadRecord (the prospect record flowing through the pipeline)
//   - ScoreResult (the validated output of the scoring stage)
//   - Content / Part (role-based conversational history for one loop run)
//   - FunctionCall / FunctionResponse (the tool invocation contract)
//   - ToolContext (scoped execution surface handed to tool implementations)
//   - TurnLimiter (hard bound on model turns per loop run)
//
// The package intentionally keeps implementation concerns (model providers,
// bus adapters, stage orchestration) out of scope, exposing small types so
// the higher layers stay decoupled.
package core
