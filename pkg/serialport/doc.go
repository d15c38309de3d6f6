// Package serialport provides the client-side session handle for a serial
// port owned by a bridge daemon.
//
// A Session is bound to one device path and mediates between caller intent
// (open, close, read, write, reconfigure) and two collaborators: a command
// channel carrying request/response calls to the daemon, and an event feed
// delivering data chunks pushed per device path. Both collaborators are
// interfaces; pkg/bridge provides the standard implementation.
//
// # Lifecycle
//
// Sessions start closed. NewSession performs no remote calls and always
// succeeds, filling defaults for unset configuration. Open validates the
// path and baud rate locally before issuing the open command; Close is
// idempotent and a no-op when the session is already closed. Dropping a
// Session without closing it does not release the daemon's port
// reservation; ForceClose exists to recover from that.
//
// # Reading
//
// Read only schedules reads on the daemon - data arrives through the event
// feed, delivered to the callback registered with Listen or ListenBinary.
// This decouples read scheduling from delivery, so the daemon may also push
// unsolicited chunks. There is no client-side read timeout; the timeout
// passed to Read is enforced by the daemon only.
//
// # Concurrency
//
// Field access is synchronized, but state transitions are not serialized
// across their remote round-trip: the open flag is set only after the
// daemon's reply, so two concurrent Open calls can both pass the closed
// guard and both issue commands. Callers are expected not to run
// conflicting transitions on one Session concurrently.
package serialport
