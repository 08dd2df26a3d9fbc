package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubscriber struct {
	mu   sync.Mutex
	recv []ServerMessage
}

func (r *recordingSubscriber) Deliver(msg ServerMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recv = append(r.recv, msg)
}

func (r *recordingSubscriber) messages() []ServerMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ServerMessage, len(r.recv))
	copy(out, r.recv)
	return out
}

func TestRegisterBroadcastGameStateReachesOnlySubscribersOfThatGame(t *testing.T) {
	r := NewRegistry()
	subA := &recordingSubscriber{}
	subB := &recordingSubscriber{}

	tokenA := r.Register(1, 100, subA)
	r.Register(2, 200, subB)
	require.NotEqual(t, tokenA.String(), "")

	r.BroadcastGameState(1, ServerMessage{Type: "game_state_available", GameID: 1})

	assert.Len(t, subA.messages(), 1)
	assert.Empty(t, subB.messages())
	assert.EqualValues(t, 2, r.ActiveConnections())
}

func TestUnregisterRemovesSessionAndDecrementsCount(t *testing.T) {
	r := NewRegistry()
	sub := &recordingSubscriber{}
	token := r.Register(1, 100, sub)
	require.EqualValues(t, 1, r.ActiveConnections())

	r.Unregister(token)
	assert.EqualValues(t, 0, r.ActiveConnections())

	r.BroadcastGameState(1, ServerMessage{Type: "game_state_available", GameID: 1})
	assert.Empty(t, sub.messages(), "unregistered session must not receive further broadcasts")

	r.Unregister(token)
}

func TestBroadcastToUserExclTopicSkipsSessionAlreadyWatchingThatGame(t *testing.T) {
	r := NewRegistry()
	inGame := &recordingSubscriber{}
	elsewhere := &recordingSubscriber{}

	r.Register(5, 42, inGame)
	r.Register(0, 42, elsewhere)

	r.BroadcastToUserExclTopic(42, 5, YourTurn(5, 3))

	assert.Empty(t, inGame.messages(), "a session already subscribed to game 5 should not get the out-of-band nudge")
	require.Len(t, elsewhere.messages(), 1)
	assert.Equal(t, "your_turn", elsewhere.messages()[0].Type)
}

func TestBroadcastToUserReachesEveryGameForThatUser(t *testing.T) {
	r := NewRegistry()
	first := &recordingSubscriber{}
	second := &recordingSubscriber{}
	r.Register(1, 7, first)
	r.Register(2, 7, second)

	r.BroadcastToUser(7, LongWaitInvalidated(1))

	assert.Len(t, first.messages(), 1)
	assert.Len(t, second.messages(), 1)
}
