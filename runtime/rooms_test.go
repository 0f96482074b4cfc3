package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRooms_Join_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()

	rooms.Join("chat1", "c1")
	rooms.Join("chat1", "c1")

	req.Equal([]string{"c1"}, rooms.Members("chat1"))
	req.True(rooms.IsMember("chat1", "c1"))
	req.False(rooms.IsMember("chat1", "c2"))
}

func TestRooms_Leave(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	rooms.Join("chat1", "c1")
	rooms.Join("chat1", "c2")

	// When c1 leaves
	rooms.Leave("chat1", "c1")

	// Then only c2 is left
	req.Equal([]string{"c2"}, rooms.Members("chat1"))

	// Leaving twice, or a room never joined, is a no-op
	rooms.Leave("chat1", "c1")
	rooms.Leave("chat2", "c1")
	req.Equal([]string{"c2"}, rooms.Members("chat1"))

	// When the last member leaves the room disappears
	rooms.Leave("chat1", "c2")
	req.Empty(rooms.members)
	req.Empty(rooms.joined)
}

func TestRooms_LeaveAll_On_Disconnect(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()

	// Given a connection in the chat list and two chats
	rooms.Join("list", "c1")
	rooms.Join("chat1", "c1")
	rooms.Join("chat2", "c1")
	rooms.Join("chat1", "c2")

	// When it disconnects
	rooms.LeaveAll("c1")

	// Then it is in no room anymore
	req.False(rooms.IsMember("list", "c1"))
	req.False(rooms.IsMember("chat1", "c1"))
	req.False(rooms.IsMember("chat2", "c1"))
	req.Equal([]string{"c2"}, rooms.Members("chat1"))
	req.NotContains(rooms.joined, "c1")
}
