// Package bridge implements the client side of the serial bridge protocol:
// a command channel matching requests to responses by message ID, and an
// event feed fanning pushed messages out to channel subscribers.
//
// Client satisfies both collaborator interfaces of pkg/serialport, so one
// Client (one daemon connection) can back any number of Sessions:
//
//	conn, err := transport.NewClient(transport.ClientConfig{}).Connect(ctx, addr)
//	client := bridge.NewClient(conn)
//	defer client.Close()
//
//	sess := serialport.NewSession(serialport.Config{
//	    Path:     "/dev/ttyUSB0",
//	    BaudRate: 115200,
//	}, client, client)
package bridge
