/*
Package domain contains the core types shared by every warden component.

It describes what the controller observes (window snapshots and their control
trees), what it decides (session phases, stop requests, scheduled triggers) and
what operators send it (commands). The package is pure: no I/O, no timers, no
goroutines.

# Key Entities

  - WindowSnapshot: an immutable view of one host window taken at dispatch time.
  - SessionState: the phase and connection mode of the single host session.
  - StopRequest: why and how the host should be brought down.
  - ScheduledTrigger: a wall-clock instant at which a lifecycle action fires.
  - Command: one parsed line from the control channel.
*/
package domain
