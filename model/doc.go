// Package model defines the reasoning-service boundary consumed by the agent
// loop: a normalized Request (instructions, ordered history, declared tool
// schemas) and a normalized Response (final text or tool invocation
// requests). Provider adapters live in subpackages (anthropic, openai); the
// loop never branches on the provider.
package model
