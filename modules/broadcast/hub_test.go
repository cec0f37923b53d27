package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records delivered frames. Set fail to make every write error.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
	closed bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("write on dead socket")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	f.frames = append(f.frames, buf)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeConn) lastFrame() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[len(f.frames)-1]
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestBroadcastRoomSkipsDeadConnections(t *testing.T) {
	hub := NewHub()

	good := make([]*fakeConn, 0, 3)
	for i := 0; i < 3; i++ {
		conn := &fakeConn{}
		good = append(good, conn)
		hub.JoinRoom(NewClient(fmt.Sprintf("c%d", i), fmt.Sprintf("user%d", i), conn), 1)
	}
	dead := &fakeConn{fail: true}
	hub.JoinRoom(NewClient("dead", "ghost", dead), 1)

	hub.BroadcastRoom(1, MessageEvent{Type: "msg", Author: "user0", Text: "hi"})

	for _, conn := range good {
		var event MessageEvent
		require.NoError(t, json.Unmarshal(conn.lastFrame(), &event))
		assert.Equal(t, "msg", event.Type)
		assert.Equal(t, "hi", event.Text)
	}

	assert.True(t, dead.isClosed(), "failed connection should be closed")
	assert.NotContains(t, hub.OnlineUsers(1), "ghost", "failed connection should leave presence")
}

func TestUnicastUserReachesEveryDevice(t *testing.T) {
	hub := NewHub()

	phone := &fakeConn{}
	laptop := &fakeConn{}
	other := &fakeConn{}
	hub.JoinUser(NewClient("c1", "alice", phone))
	hub.JoinUser(NewClient("c2", "alice", laptop))
	hub.JoinUser(NewClient("c3", "bob", other))

	hub.UnicastUser("alice", DirectMessageEvent{Type: "dm", Sender: "bob", Text: "hey"})

	assert.Equal(t, 1, phone.frameCount())
	assert.Equal(t, 1, laptop.frameCount())
	assert.Equal(t, 0, other.frameCount())

	var event DirectMessageEvent
	require.NoError(t, json.Unmarshal(phone.lastFrame(), &event))
	assert.Equal(t, "bob", event.Sender)
}

func TestUnicastUserWithoutConnectionsIsNoop(t *testing.T) {
	hub := NewHub()
	hub.UnicastUser("nobody", NewFeedEvent())
	assert.Equal(t, 0, hub.ClientCount())
}

func TestPresenceFollowsRoomMembership(t *testing.T) {
	hub := NewHub()

	aliceConn := &fakeConn{}
	alice := NewClient("c1", "alice", aliceConn)
	hub.JoinRoom(alice, 7)

	bobConn := &fakeConn{}
	bob := NewClient("c2", "bob", bobConn)
	hub.JoinRoom(bob, 7)

	assert.Equal(t, []string{"alice", "bob"}, hub.OnlineUsers(7))

	// Both clients saw a status event for bob's arrival.
	var status StatusEvent
	require.NoError(t, json.Unmarshal(aliceConn.lastFrame(), &status))
	assert.Equal(t, "status", status.Type)
	assert.Equal(t, []string{"alice", "bob"}, status.OnlineUsers)

	hub.LeaveRoom(bob, 7)
	assert.Equal(t, []string{"alice"}, hub.OnlineUsers(7))

	require.NoError(t, json.Unmarshal(aliceConn.lastFrame(), &status))
	assert.Equal(t, []string{"alice"}, status.OnlineUsers)
}

func TestMultiDevicePresenceCountsConnections(t *testing.T) {
	hub := NewHub()

	phone := NewClient("c1", "alice", &fakeConn{})
	laptop := NewClient("c2", "alice", &fakeConn{})
	hub.JoinRoom(phone, 3)
	hub.JoinRoom(laptop, 3)

	hub.LeaveRoom(phone, 3)
	assert.Equal(t, []string{"alice"}, hub.OnlineUsers(3), "alice still online via laptop")

	hub.LeaveRoom(laptop, 3)
	assert.Empty(t, hub.OnlineUsers(3))
}

func TestLeaveRoomIsIdempotent(t *testing.T) {
	hub := NewHub()

	conn := &fakeConn{}
	c := NewClient("c1", "alice", conn)
	hub.JoinRoom(c, 1)

	hub.LeaveRoom(c, 1)
	frames := conn.frameCount()
	hub.LeaveRoom(c, 1)

	assert.Equal(t, frames, conn.frameCount(), "second leave must not emit events")
	assert.Equal(t, 0, hub.ClientCount())
}

func TestCloseRoomClosesEveryConnection(t *testing.T) {
	hub := NewHub()

	conns := make([]*fakeConn, 0, 3)
	for i := 0; i < 3; i++ {
		conn := &fakeConn{}
		conns = append(conns, conn)
		hub.JoinRoom(NewClient(fmt.Sprintf("c%d", i), fmt.Sprintf("user%d", i), conn), 5)
	}

	hub.CloseRoom(5)

	for _, conn := range conns {
		assert.True(t, conn.isClosed())
	}
	assert.Empty(t, hub.OnlineUsers(5))
	assert.Equal(t, 0, hub.ClientCount())
}

func TestClientCountDeduplicatesGroups(t *testing.T) {
	hub := NewHub()

	c := NewClient("c1", "alice", &fakeConn{})
	hub.JoinRoom(c, 1)
	hub.JoinUser(c)

	assert.Equal(t, 1, hub.ClientCount())

	hub.Remove(c)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestConcurrentBroadcastAndMembership(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := NewClient(fmt.Sprintf("c%d", i), fmt.Sprintf("user%d", i), &fakeConn{})
			hub.JoinRoom(c, 1)
			hub.BroadcastRoom(1, NewFeedEvent())
			hub.LeaveRoom(c, 1)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ClientCount())
	assert.Empty(t, hub.OnlineUsers(1))
}
