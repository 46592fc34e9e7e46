// Package extract turns the free text a reasoning loop produces into the
// payload a pipeline stage is allowed to publish.
//
// Models rarely return bare JSON even when asked to. The structured
// extractors scan for the first balanced JSON object embedded in the text,
// probe its fields for the expected types, and decode into the typed result.
// Text with no parseable object, or an object that breaks the schema, yields
// an error; callers must treat that as a failed run and publish nothing.
package extract
