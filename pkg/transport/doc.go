// Package transport provides the framed stream connection between a serial
// bridge client and daemon.
//
// Messages are length-prefixed CBOR frames over TCP, optionally wrapped in
// TLS. The transport knows nothing about message contents; classification
// and decoding happen in the bridge and wire packages.
package transport
