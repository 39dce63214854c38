package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mwork_chat/internal/models/chat"
)

func msg(id string, status chat.MessageStatus) chat.Message {
	return chat.Message{ID: id, ConversationID: "c1", SenderID: "u1", Status: status}
}

func TestStore_AppendDeduplicates(t *testing.T) {
	t.Parallel()

	s := New("c1", nil)
	assert.True(t, s.Append(msg("m1", chat.StatusDelivered)))
	assert.False(t, s.Append(msg("m1", chat.StatusDelivered)))
	assert.Equal(t, 1, s.Len())
}

func TestStore_ReplaceKeepsPosition(t *testing.T) {
	t.Parallel()

	s := New("c1", nil)
	s.Append(msg("m1", chat.StatusDelivered))
	s.Append(msg("local-abc", chat.StatusSending))
	s.Append(msg("m3", chat.StatusDelivered))

	ok := s.Replace("local-abc", msg("srv-2", chat.StatusSent))
	require.True(t, ok)

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "srv-2", snapshot[1].ID, "replacement must keep the array position")

	_, found := s.Get("local-abc")
	assert.False(t, found)
}

func TestStore_ReplaceMergesWhenCanonicalAlreadyArrived(t *testing.T) {
	t.Parallel()

	// Push event with the canonical id lands before the send ack.
	s := New("c1", nil)
	s.Append(msg("local-abc", chat.StatusSending))
	s.Upsert(msg("srv-1", chat.StatusDelivered))

	ok := s.Replace("local-abc", msg("srv-1", chat.StatusSent))
	require.True(t, ok)

	// Exactly one entry with the final id, and the ack did not regress
	// the delivered mark.
	assert.Equal(t, 1, s.Len())
	got, found := s.Get("srv-1")
	require.True(t, found)
	assert.Equal(t, chat.StatusDelivered, got.Status)
}

func TestStore_ReplaceKeepsHigherStatusFromPushes(t *testing.T) {
	t.Parallel()

	s := New("c1", nil)
	s.Append(msg("local-abc", chat.StatusSending))
	// A status update for the optimistic entry raced ahead of the ack.
	require.True(t, s.ApplyStatus("local-abc", chat.StatusDelivered))

	s.Replace("local-abc", msg("srv-1", chat.StatusSent))
	got, _ := s.Get("srv-1")
	assert.Equal(t, chat.StatusDelivered, got.Status)
}

func TestStore_ApplyStatusMonotonic(t *testing.T) {
	t.Parallel()

	s := New("c1", nil)
	s.Append(msg("m1", chat.StatusSent))

	// Forward moves apply, backward moves are ignored.
	sequences := []struct {
		apply   chat.MessageStatus
		applied bool
		want    chat.MessageStatus
	}{
		{chat.StatusDelivered, true, chat.StatusDelivered},
		{chat.StatusSent, false, chat.StatusDelivered},
		{chat.StatusRead, true, chat.StatusRead},
		{chat.StatusDelivered, false, chat.StatusRead},
		{chat.StatusFailed, false, chat.StatusRead},
	}
	for _, step := range sequences {
		assert.Equal(t, step.applied, s.ApplyStatus("m1", step.apply))
		got, _ := s.Get("m1")
		assert.Equal(t, step.want, got.Status)
	}

	assert.False(t, s.ApplyStatus("missing", chat.StatusRead))
}

func TestStore_FailedRetryCycle(t *testing.T) {
	t.Parallel()

	s := New("c1", nil)
	s.Append(msg("local-1", chat.StatusSending))

	require.True(t, s.MarkFailed("local-1"))
	got, _ := s.Get("local-1")
	assert.Equal(t, chat.StatusFailed, got.Status)

	// Failed entries are kept, not removed.
	assert.Equal(t, 1, s.Len())

	require.True(t, s.ResetForRetry("local-1"))
	got, _ = s.Get("local-1")
	assert.Equal(t, chat.StatusSending, got.Status)

	// MarkFailed only applies to sending entries.
	s.Append(msg("m2", chat.StatusRead))
	assert.False(t, s.MarkFailed("m2"))
	assert.False(t, s.ResetForRetry("m2"))
}

func TestStore_SeedReplacesContents(t *testing.T) {
	t.Parallel()

	s := New("c1", nil)
	s.Append(msg("old", chat.StatusDelivered))

	s.Seed([]chat.Message{
		msg("h1", chat.StatusRead),
		msg("h2", chat.StatusDelivered),
		msg("h2", chat.StatusDelivered), // duplicate in backlog
	})

	assert.Equal(t, 2, s.Len())
	_, found := s.Get("old")
	assert.False(t, found)

	snapshot := s.Snapshot()
	assert.Equal(t, "h1", snapshot[0].ID, "seed keeps backlog order")
	assert.Equal(t, "h2", snapshot[1].ID)
}

func TestStore_AppendOrderIsArrivalOrder(t *testing.T) {
	t.Parallel()

	// Out-of-order timestamps must not be re-sorted.
	s := New("c1", nil)
	later := msg("m1", chat.StatusDelivered)
	earlier := msg("m2", chat.StatusDelivered)
	s.Append(later)
	s.Append(earlier)

	snapshot := s.Snapshot()
	assert.Equal(t, "m1", snapshot[0].ID)
	assert.Equal(t, "m2", snapshot[1].ID)
}

func TestStore_SubscribeSignalsOnMutation(t *testing.T) {
	t.Parallel()

	s := New("c1", nil)
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Append(msg("m1", chat.StatusDelivered))

	select {
	case <-ch:
	default:
		t.Fatal("expected a notification after Append")
	}

	cancel()
	s.Append(msg("m2", chat.StatusDelivered))
	// No panic and no further requirement: cancelled observers are gone.
}

func TestStore_UpsertMergesStatus(t *testing.T) {
	t.Parallel()

	s := New("c1", nil)
	s.Upsert(msg("m1", chat.StatusRead))
	s.Upsert(msg("m1", chat.StatusDelivered))

	assert.Equal(t, 1, s.Len())
	got, _ := s.Get("m1")
	assert.Equal(t, chat.StatusRead, got.Status, "duplicate push must not regress read")
}
