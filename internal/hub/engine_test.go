package hub_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/idan5353/Chat-App/internal/hub"
	"github.com/idan5353/Chat-App/internal/models"
	"github.com/idan5353/Chat-App/internal/storage"
)

var testTS = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func member(roomID, connectionID string) models.Connection {
	return models.Connection{
		RoomID:       roomID,
		ConnectionID: connectionID,
		UserID:       "user_" + connectionID,
		ConnectedAt:  testTS.Add(-time.Minute),
		ExpiresAt:    testTS.Add(23 * time.Hour),
	}
}

func newEngine(store *MockStore, delivery *MockDelivery) *hub.Engine {
	return hub.NewEngine(store, delivery, zerolog.Nop())
}

func confirmationCount(delivery *MockDelivery) int {
	count := 0
	for _, call := range delivery.Calls {
		payload := call.Arguments.Get(2).([]byte)
		if strings.Contains(string(payload), models.ActionMessageConfirmation) {
			count++
		}
	}
	return count
}

func TestSendMessage_RejectsEmptyAfterTrim(t *testing.T) {
	store := new(MockStore)
	delivery := new(MockDelivery)
	engine := newEngine(store, delivery)

	_, err := engine.SendMessage(context.Background(), hub.SendRequest{
		RoomID:             "lobby",
		Text:               "   \n\t ",
		OriginConnectionID: "conn_A",
	})

	assert.ErrorIs(t, err, hub.ErrEmptyMessage)
	assert.Empty(t, store.Calls, "log must be untouched by a rejected message")
	assert.Empty(t, delivery.Calls)
}

func TestSendMessage_DefaultsRoomAndUser(t *testing.T) {
	store := new(MockStore)
	delivery := new(MockDelivery)
	engine := newEngine(store, delivery)

	store.On("AppendMessage", "lobby", "anonymous", "hello", "conn_A").Return(testTS, nil)
	store.On("ListByRoom", "lobby").Return([]models.Connection{}, nil)

	res, err := engine.SendMessage(context.Background(), hub.SendRequest{
		Text:               "hello",
		OriginConnectionID: "conn_A",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.BroadcastResult{BroadcastCount: 0, TotalConnections: 0}, res)
	store.AssertCalled(t, "AppendMessage", "lobby", "anonymous", "hello", "conn_A")
}

func TestSendMessage_EmptyRoomStillPersists(t *testing.T) {
	store := new(MockStore)
	delivery := new(MockDelivery)
	engine := newEngine(store, delivery)

	store.On("AppendMessage", "quiet", "anonymous", "anyone here?", "conn_A").Return(testTS, nil)
	store.On("ListByRoom", "quiet").Return([]models.Connection{}, nil)

	res, err := engine.SendMessage(context.Background(), hub.SendRequest{
		RoomID:             "quiet",
		Text:               "anyone here?",
		OriginConnectionID: "conn_A",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.BroadcastResult{}, res)
	store.AssertCalled(t, "AppendMessage", "quiet", "anonymous", "anyone here?", "conn_A")
	assert.Empty(t, delivery.Calls, "no push, not even a confirmation, for an empty room")
}

func TestSendMessage_TruncatesLongText(t *testing.T) {
	store := new(MockStore)
	delivery := new(MockDelivery)
	engine := newEngine(store, delivery)

	truncated := mock.MatchedBy(func(s string) bool { return len([]rune(s)) == 2000 })
	store.On("AppendMessage", "lobby", "alice", truncated, "conn_A").Return(testTS, nil)
	store.On("ListByRoom", "lobby").Return([]models.Connection{}, nil)

	_, err := engine.SendMessage(context.Background(), hub.SendRequest{
		RoomID:             "lobby",
		UserID:             "alice",
		Text:               strings.Repeat("x", 2500),
		OriginConnectionID: "conn_A",
	})

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestSendMessage_AppendFailureStopsBroadcast(t *testing.T) {
	store := new(MockStore)
	delivery := new(MockDelivery)
	engine := newEngine(store, delivery)

	store.On("AppendMessage", "lobby", "anonymous", "hello", "conn_A").
		Return(time.Time{}, fmt.Errorf("append message: %w", storage.ErrStorageUnavailable))

	_, err := engine.SendMessage(context.Background(), hub.SendRequest{
		RoomID:             "lobby",
		Text:               "hello",
		OriginConnectionID: "conn_A",
	})

	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
	store.AssertNotCalled(t, "ListByRoom", "lobby")
	assert.Empty(t, delivery.Calls)
}

func TestSendMessage_BroadcastsToAllMembers(t *testing.T) {
	store := new(MockStore)
	delivery := new(MockDelivery)
	engine := newEngine(store, delivery)

	members := []models.Connection{
		member("lobby", "conn_A"),
		member("lobby", "conn_B"),
		member("lobby", "conn_C"),
	}
	store.On("AppendMessage", "lobby", "alice", "hi all", "conn_A").Return(testTS, nil)
	store.On("ListByRoom", "lobby").Return(members, nil)
	delivery.On("Send", "chat.example.com", mock.Anything, mock.Anything).Return(nil)

	res, err := engine.SendMessage(context.Background(), hub.SendRequest{
		RoomID:             "lobby",
		UserID:             "alice",
		Text:               "hi all",
		OriginConnectionID: "conn_A",
		ReplyDomain:        "chat.example.com",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.BroadcastResult{BroadcastCount: 3, TotalConnections: 3}, res)
	// Three broadcast pushes plus one confirmation to the origin.
	delivery.AssertNumberOfCalls(t, "Send", 4)
	assert.Equal(t, 1, confirmationCount(delivery))
	store.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestSendMessage_ReapsGoneConnections(t *testing.T) {
	store := new(MockStore)
	delivery := new(MockDelivery)
	engine := newEngine(store, delivery)

	members := []models.Connection{
		member("lobby", "conn_A"),
		member("lobby", "conn_B"),
		member("lobby", "conn_C"),
	}
	store.On("AppendMessage", "lobby", "alice", "hi all", "conn_A").Return(testTS, nil)
	store.On("ListByRoom", "lobby").Return(members, nil)
	store.On("Remove", "lobby", "conn_C").Return(true, nil)

	delivery.On("Send", "", "conn_A", mock.Anything).Return(nil)
	delivery.On("Send", "", "conn_B", mock.Anything).Return(nil)
	delivery.On("Send", "", "conn_C", mock.Anything).
		Return(fmt.Errorf("post to conn_C: %w", hub.ErrGone))

	res, err := engine.SendMessage(context.Background(), hub.SendRequest{
		RoomID:             "lobby",
		UserID:             "alice",
		Text:               "hi all",
		OriginConnectionID: "conn_A",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.BroadcastResult{BroadcastCount: 2, TotalConnections: 3}, res)
	store.AssertCalled(t, "Remove", "lobby", "conn_C")
	store.AssertNotCalled(t, "Remove", "lobby", "conn_A")
	store.AssertNotCalled(t, "Remove", "lobby", "conn_B")
}

func TestSendMessage_TransientFailuresAreNotReaped(t *testing.T) {
	store := new(MockStore)
	delivery := new(MockDelivery)
	engine := newEngine(store, delivery)

	members := []models.Connection{
		member("lobby", "conn_A"),
		member("lobby", "conn_B"),
	}
	store.On("AppendMessage", "lobby", "anonymous", "hi", "conn_A").Return(testTS, nil)
	store.On("ListByRoom", "lobby").Return(members, nil)
	delivery.On("Send", "", "conn_A", mock.Anything).Return(nil)
	delivery.On("Send", "", "conn_B", mock.Anything).Return(fmt.Errorf("write timeout"))

	res, err := engine.SendMessage(context.Background(), hub.SendRequest{
		RoomID:             "lobby",
		Text:               "hi",
		OriginConnectionID: "conn_A",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.BroadcastResult{BroadcastCount: 1, TotalConnections: 2}, res)
	store.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestSendMessage_ConfirmationOnTotalFailure(t *testing.T) {
	store := new(MockStore)
	delivery := new(MockDelivery)
	engine := newEngine(store, delivery)

	members := []models.Connection{
		member("lobby", "conn_A"),
		member("lobby", "conn_B"),
	}
	store.On("AppendMessage", "lobby", "anonymous", "hi", "conn_A").Return(testTS, nil)
	store.On("ListByRoom", "lobby").Return(members, nil)
	delivery.On("Send", "", mock.Anything, mock.Anything).Return(fmt.Errorf("flaky transport"))

	res, err := engine.SendMessage(context.Background(), hub.SendRequest{
		RoomID:             "lobby",
		Text:               "hi",
		OriginConnectionID: "conn_A",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.BroadcastResult{BroadcastCount: 0, TotalConnections: 2}, res)
	// The confirmation attempt is still made exactly once, even though the
	// origin's own broadcast delivery just failed.
	assert.Equal(t, 1, confirmationCount(delivery))
}

func TestConnect_Defaults(t *testing.T) {
	store := new(MockStore)
	engine := newEngine(store, new(MockDelivery))

	want := member("lobby", "conn_A")
	store.On("Register", "lobby", "conn_A", "anonymous").Return(want, nil)

	got, err := engine.Connect(context.Background(), "", "", "conn_A")

	assert.NoError(t, err)
	assert.Equal(t, want, got)
	store.AssertExpectations(t)
}

func TestDisconnect_UnknownIsNoop(t *testing.T) {
	store := new(MockStore)
	engine := newEngine(store, new(MockDelivery))

	store.On("RemoveByConnection", "conn_missing").Return(false, nil)

	removed, err := engine.Disconnect(context.Background(), "conn_missing")

	assert.NoError(t, err)
	assert.False(t, removed)
}
