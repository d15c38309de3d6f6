package serialport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serialbridge/serialbridge-go/pkg/wire"
)

func newTestSession(t *testing.T, cfg Config) (*Session, *fakeCommander, *fakeFeed) {
	t.Helper()
	commander := newFakeCommander()
	feed := newFakeFeed()
	return NewSession(cfg, commander, feed), commander, feed
}

func TestNewSessionDefaults(t *testing.T) {
	sess, commander, _ := newTestSession(t, Config{Path: "COM3", BaudRate: 9600})

	cfg := sess.Config()
	assert.Equal(t, wire.DataBits8, cfg.DataBits)
	assert.Equal(t, wire.FlowControlNone, cfg.FlowControl)
	assert.Equal(t, wire.ParityNone, cfg.Parity)
	assert.Equal(t, wire.StopBits2, cfg.StopBits)
	assert.Equal(t, 200*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 1024, cfg.Size)
	assert.Equal(t, "utf-8", cfg.Encoding)

	// Construction is purely local
	assert.Empty(t, commander.commandLog())
	assert.False(t, sess.IsOpen())
}

func TestOpenValidatesLocally(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyPath", func(t *testing.T) {
		sess, commander, _ := newTestSession(t, Config{BaudRate: 9600})
		err := sess.Open(ctx)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Empty(t, commander.commandLog(), "validation failure must not reach the daemon")
		assert.False(t, sess.IsOpen())
	})

	t.Run("MissingBaudRate", func(t *testing.T) {
		sess, commander, _ := newTestSession(t, Config{Path: "COM3"})
		err := sess.Open(ctx)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Empty(t, commander.commandLog())
	})
}

func TestOpenIssuesFullConfiguration(t *testing.T) {
	ctx := context.Background()
	sess, commander, _ := newTestSession(t, Config{
		Path:     "/dev/ttyUSB0",
		BaudRate: 115200,
		DataBits: wire.DataBits7,
		Parity:   wire.ParityEven,
		StopBits: wire.StopBits1,
	})

	require.NoError(t, sess.Open(ctx))
	assert.True(t, sess.IsOpen())

	args, ok := commander.lastArgs(wire.CmdOpen).(*wire.OpenArgs)
	require.True(t, ok)
	assert.Equal(t, "/dev/ttyUSB0", args.Path)
	assert.Equal(t, uint32(115200), args.BaudRate)
	assert.Equal(t, wire.DataBits7, args.DataBits)
	assert.Equal(t, wire.ParityEven, args.Parity)
	assert.Equal(t, wire.StopBits1, args.StopBits)
	assert.Equal(t, uint64(200), args.Timeout)

	// Opening an open session is a no-op
	require.NoError(t, sess.Open(ctx))
	assert.Equal(t, []string{wire.CmdOpen}, commander.commandLog())
}

func TestOpenRemoteFailureLeavesClosed(t *testing.T) {
	sess, commander, _ := newTestSession(t, Config{Path: "COM3", BaudRate: 9600})
	remoteErr := &RemoteError{Code: "PORT_ALREADY_OPEN", Message: "serial port COM3 is already open"}
	commander.failWith(wire.CmdOpen, remoteErr)

	err := sess.Open(context.Background())

	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "PORT_ALREADY_OPEN", rerr.Code)
	assert.False(t, sess.IsOpen())
}

func TestWriteRequiresOpen(t *testing.T) {
	ctx := context.Background()
	sess, commander, _ := newTestSession(t, Config{Path: "COM3", BaudRate: 9600})

	n, err := sess.Write(ctx, "hi")
	var nerr *NotOpenError
	require.ErrorAs(t, err, &nerr)
	assert.Zero(t, n)

	_, err = sess.WriteBinary(ctx, []byte{1, 2, 3})
	require.ErrorAs(t, err, &nerr)

	assert.Empty(t, commander.commandLog(), "writes on a closed session must not reach the daemon")
}

func TestWriteReturnsAcceptedBytes(t *testing.T) {
	ctx := context.Background()
	sess, commander, _ := newTestSession(t, Config{Path: "COM3", BaudRate: 9600})
	require.NoError(t, sess.Open(ctx))

	n, err := sess.Write(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = sess.WriteBinary(ctx, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	args, ok := commander.lastArgs(wire.CmdWrite).(*wire.WriteArgs)
	require.True(t, ok)
	assert.Equal(t, "hi", args.Value)
}

func TestCloseIdempotent(t *testing.T) {
	sess, commander, _ := newTestSession(t, Config{Path: "COM3", BaudRate: 9600})

	require.NoError(t, sess.Close(context.Background()))
	assert.Empty(t, commander.commandLog(), "closing a closed session must not reach the daemon")
	assert.False(t, sess.IsOpen())
}

func TestCloseOrdering(t *testing.T) {
	ctx := context.Background()
	sess, commander, feed := newTestSession(t, Config{Path: "COM3", BaudRate: 9600})

	require.NoError(t, sess.Open(ctx))
	require.NoError(t, sess.Listen(func(string) {}))
	require.Equal(t, 1, feed.active())

	n, err := sess.Write(ctx, "hi")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, sess.Close(ctx))

	assert.Equal(t,
		[]string{wire.CmdOpen, wire.CmdWrite, wire.CmdCancelRead, wire.CmdClose},
		commander.commandLog(),
		"in-flight reads are cancelled before the device is released")
	assert.Equal(t, 0, feed.active(), "the subscription is released after the close command")
	assert.False(t, sess.IsOpen())
}

func TestCloseRemoteFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	sess, commander, _ := newTestSession(t, Config{Path: "COM3", BaudRate: 9600})
	require.NoError(t, sess.Open(ctx))

	commander.failWith(wire.CmdClose, &RemoteError{Code: "IO_ERROR", Message: "device wedged"})

	err := sess.Close(ctx)
	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.True(t, sess.IsOpen(), "close is not assumed to have partially succeeded")
}

func TestReadForwardsEffectiveOptions(t *testing.T) {
	ctx := context.Background()
	sess, commander, _ := newTestSession(t, Config{Path: "COM3", BaudRate: 9600})

	require.NoError(t, sess.Read(ctx, nil))
	args, ok := commander.lastArgs(wire.CmdRead).(*wire.ReadArgs)
	require.True(t, ok)
	assert.Equal(t, uint64(200), args.Timeout)
	assert.Equal(t, uint32(1024), args.Size)

	require.NoError(t, sess.Read(ctx, &ReadOptions{Timeout: 500 * time.Millisecond, Size: 64}))
	args, ok = commander.lastArgs(wire.CmdRead).(*wire.ReadArgs)
	require.True(t, ok)
	assert.Equal(t, uint64(500), args.Timeout)
	assert.Equal(t, uint32(64), args.Size)
}

func TestCancelReadWithoutOutstandingRead(t *testing.T) {
	sess, commander, _ := newTestSession(t, Config{Path: "COM3", BaudRate: 9600})

	require.NoError(t, sess.CancelRead(context.Background()))
	args, ok := commander.lastArgs(wire.CmdCancelRead).(*wire.PathArgs)
	require.True(t, ok)
	assert.Equal(t, "COM3", args.Path)
}

func TestChangeWhileClosedMutatesDirectly(t *testing.T) {
	sess, commander, _ := newTestSession(t, Config{Path: "COM3", BaudRate: 9600})

	require.NoError(t, sess.Change(context.Background(), ChangeOptions{Path: "COM4", BaudRate: 19200}))
	assert.Equal(t, "COM4", sess.Path())
	assert.Equal(t, 19200, sess.BaudRate())
	assert.Empty(t, commander.commandLog())
	assert.False(t, sess.IsOpen())
}

func TestChangeWhileOpenReopens(t *testing.T) {
	ctx := context.Background()
	sess, commander, _ := newTestSession(t, Config{Path: "COM3", BaudRate: 9600})
	require.NoError(t, sess.Open(ctx))

	require.NoError(t, sess.SetBaudRate(ctx, 9600))
	assert.True(t, sess.IsOpen(), "an open session stays open across a successful change")
	assert.Equal(t, 9600, sess.BaudRate())

	assert.Equal(t,
		[]string{wire.CmdOpen, wire.CmdCancelRead, wire.CmdClose, wire.CmdOpen},
		commander.commandLog(),
		"close completes before the reopen begins")

	args, ok := commander.lastArgs(wire.CmdOpen).(*wire.OpenArgs)
	require.True(t, ok)
	assert.Equal(t, uint32(9600), args.BaudRate)
}

func TestChangeReopenFailureLeavesClosed(t *testing.T) {
	ctx := context.Background()
	sess, commander, _ := newTestSession(t, Config{Path: "COM3", BaudRate: 9600})
	require.NoError(t, sess.Open(ctx))

	commander.failWith(wire.CmdOpen, &RemoteError{Code: "IO_ERROR", Message: "device unplugged"})

	err := sess.SetPath(ctx, "COM9")
	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.False(t, sess.IsOpen(), "a failed reopen leaves the session closed")
	assert.Equal(t, "COM9", sess.Path(), "the mutation itself is applied")
}

func TestChangeCloseFailurePropagates(t *testing.T) {
	ctx := context.Background()
	sess, commander, _ := newTestSession(t, Config{Path: "COM3", BaudRate: 9600})
	require.NoError(t, sess.Open(ctx))

	commander.failWith(wire.CmdCancelRead, errors.New("connection lost"))

	err := sess.SetBaudRate(ctx, 19200)
	require.Error(t, err)
	assert.Equal(t, 9600, sess.BaudRate(), "the mutation is not applied when the close step fails")
	assert.True(t, sess.IsOpen())
}
