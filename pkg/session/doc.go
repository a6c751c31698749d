/*
Package session implements the lifecycle state machine of the supervised host.

One Machine exists per process. It walks the host through
Starting -> LoggingIn -> Running -> ShuttingDown -> Stopped, serializing every
transition under a single lock (optionally backed by a distributed lock so a
standby replica cannot race the active one) and publishing each accepted
transition to a status store and to lifecycle hooks.

Stop requests are idempotent: once the machine is ShuttingDown or Stopped,
further requests from any source are accepted and ignored.
*/
package session
