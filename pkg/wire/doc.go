// Package wire defines the message envelope and payload types exchanged
// between a serial bridge client and daemon.
//
// The protocol has three message kinds sharing one framed CBOR stream:
//
//   - Request: client to daemon, carries a command name and arguments
//   - Response: daemon to client, matched to a request by message ID
//   - Event: daemon to client, unsolicited, keyed by a channel name
//
// All messages are CBOR maps with integer keys. Message ID 0 is reserved
// for events, which lets a receiver classify an incoming frame without
// fully decoding it (see PeekMessageType).
//
// Data read from a serial port is never returned in a read response; the
// daemon pushes it as ReadChunk events on the channel derived from the
// port path (see ReadEventChannel). This decouples read scheduling from
// data delivery and allows the daemon to push unsolicited chunks.
package wire
