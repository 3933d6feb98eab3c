package notifier

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gaze/pkg/core"
)

func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readDatagram(t *testing.T, conn *net.UDPConn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 64)
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestUDP_SendsExactPayload(t *testing.T) {
	listener := listenUDP(t)
	port := listener.LocalAddr().(*net.UDPAddr).Port

	u, err := NewUDP("127.0.0.1", port)
	require.NoError(t, err)
	defer u.Close()

	require.NoError(t, u.Notify(context.Background(), core.MessageLooking))
	assert.Equal(t, "LOOKING", readDatagram(t, listener))

	require.NoError(t, u.Notify(context.Background(), core.MessageLookingAway))
	assert.Equal(t, "LOOKING_AWAY", readDatagram(t, listener))
}

func TestUDP_Addr(t *testing.T) {
	u, err := NewUDP(DefaultHost, DefaultPort)
	require.NoError(t, err)
	defer u.Close()
	assert.Equal(t, "127.0.0.1:5005", u.Addr())
}

type fakeNotifier struct {
	sent     []core.Message
	err      error
	closed   bool
	closeErr error
}

func (f *fakeNotifier) Notify(_ context.Context, msg core.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeNotifier) Close() error {
	f.closed = true
	return f.closeErr
}

func TestMulti_FansOut(t *testing.T) {
	a, b := &fakeNotifier{}, &fakeNotifier{}
	m := NewMulti(a, nil, b)
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.Notify(context.Background(), core.MessageLookingAway))
	assert.Equal(t, []core.Message{core.MessageLookingAway}, a.sent)
	assert.Equal(t, []core.Message{core.MessageLookingAway}, b.sent)
}

func TestMulti_ContinuesPastFailure(t *testing.T) {
	boom := errors.New("boom")
	a, b := &fakeNotifier{err: boom}, &fakeNotifier{}
	m := NewMulti(a, b)

	err := m.Notify(context.Background(), core.MessageLooking)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, b.sent, 1)
}

func TestMulti_Close(t *testing.T) {
	a, b := &fakeNotifier{closeErr: errors.New("close failed")}, &fakeNotifier{}
	m := NewMulti(a, b)

	assert.Error(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestRedis_UnreachableServer(t *testing.T) {
	r := NewRedis(RedisConfig{Address: "127.0.0.1:1", Channel: "gaze:state"})
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	assert.NoError(t, r.Notify(ctx, core.MessageLooking))
	assert.Error(t, r.Ping(ctx))
}

// silentServer accepts connections and never writes a reply.
func silentServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	return ln.Addr().String()
}

func TestRedis_StalledServerDoesNotBlockNotify(t *testing.T) {
	r := NewRedis(RedisConfig{
		Address:        silentServer(t),
		Channel:        "gaze:state",
		PublishTimeout: 100 * time.Millisecond,
	})

	start := time.Now()
	for _, msg := range []core.Message{core.MessageLookingAway, core.MessageLooking, core.MessageLookingAway} {
		require.NoError(t, r.Notify(context.Background(), msg))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	start = time.Now()
	require.NoError(t, r.Close())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRedis_BacklogFull(t *testing.T) {
	r := NewRedis(RedisConfig{
		Address:        silentServer(t),
		Channel:        "gaze:state",
		PublishTimeout: 200 * time.Millisecond,
		Buffer:         1,
	})
	defer r.Close()

	var err error
	for range 10 {
		if err = r.Notify(context.Background(), core.MessageLooking); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, ErrRedisBacklog)
}

func TestRedis_NotifyAfterClose(t *testing.T) {
	r := NewRedis(RedisConfig{Address: "127.0.0.1:1", Channel: "gaze:state"})
	require.NoError(t, r.Close())
	assert.Error(t, r.Notify(context.Background(), core.MessageLooking))
}
