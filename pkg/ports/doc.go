/*
Package ports defines the driven ports (interfaces) between warden and the outside world.

The dispatcher, configuration tasks and session machine only ever talk to the
host through these interfaces, so the same core runs against a real host
bridge, a spawned process, or the in-memory fake used in tests.

# Key Interfaces

  - Surface: reads window snapshots and performs control-level mutations.
  - WindowEvents: streams window shown/closed notifications.
  - HostProcess: launches the host and asks it to stop.
  - Lifecycle: the view of the session machine handed to dialog handlers.
  - StatusStore: persists the session state and transition history.
  - DistributedLocker: serializes transitions across replicas sharing a host.
*/
package ports
