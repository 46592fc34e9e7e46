// Package bus defines the stage-to-stage hand-off boundary. A completed
// stage publishes its validated payload to a named topic; what sits behind
// the topic (Kafka in production, an in-process fan-out in tests and local
// runs) is the publisher's concern.
package bus
