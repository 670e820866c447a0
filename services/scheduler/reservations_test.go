package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	er "github.com/outreachcrm/sendpool/internal/errors"
	"github.com/outreachcrm/sendpool/internal/models"
)

func reservation(id, accountID string, expiresAt time.Time) *models.Reservation {
	return &models.Reservation{
		ID:         id,
		AccountID:  accountID,
		Workspace:  "ws1",
		ReservedAt: baseTime,
		ExpiresAt:  expiresAt,
	}
}

func TestReservationLedger_Take(t *testing.T) {
	t.Run("settling removes the reservation", func(t *testing.T) {
		l := newReservationLedger()
		l.add(reservation("r1", "a1", baseTime.Add(time.Minute)))

		r, err := l.take("r1", baseTime)
		require.NoError(t, err)
		assert.Equal(t, "a1", r.AccountID)

		_, err = l.take("r1", baseTime)
		assert.ErrorIs(t, err, er.ErrReservationNotFound)
	})

	t.Run("expired reservation is reported and dropped", func(t *testing.T) {
		l := newReservationLedger()
		l.add(reservation("r1", "a1", baseTime.Add(time.Minute)))

		_, err := l.take("r1", baseTime.Add(2*time.Minute))
		assert.ErrorIs(t, err, er.ErrReservationExpired)
		assert.Equal(t, 0, l.size())
	})
}

func TestReservationLedger_Peek(t *testing.T) {
	t.Run("peeking leaves the reservation in place", func(t *testing.T) {
		l := newReservationLedger()
		l.add(reservation("r1", "a1", baseTime.Add(time.Minute)))

		r, err := l.peek("r1", baseTime)
		require.NoError(t, err)
		assert.Equal(t, "a1", r.AccountID)
		assert.Equal(t, 1, l.size())

		_, err = l.take("r1", baseTime)
		assert.NoError(t, err)
	})

	t.Run("missing and expired entries", func(t *testing.T) {
		l := newReservationLedger()
		_, err := l.peek("missing", baseTime)
		assert.ErrorIs(t, err, er.ErrReservationNotFound)

		l.add(reservation("r1", "a1", baseTime.Add(-time.Minute)))
		_, err = l.peek("r1", baseTime)
		assert.ErrorIs(t, err, er.ErrReservationExpired)
		assert.Equal(t, 0, l.size())
	})
}

func TestReservationLedger_ActiveCount(t *testing.T) {
	l := newReservationLedger()
	l.add(reservation("r1", "a1", baseTime.Add(time.Minute)))
	l.add(reservation("r2", "a1", baseTime.Add(time.Minute)))
	l.add(reservation("r3", "a2", baseTime.Add(time.Minute)))
	l.add(reservation("r4", "a1", baseTime.Add(-time.Minute))) // already expired

	assert.Equal(t, 2, l.activeCount("ws1", "a1", baseTime))
	// the expired entry was pruned on the way through
	assert.Equal(t, 3, l.size())
}

func TestReservationLedger_ActiveCountScopedByWorkspace(t *testing.T) {
	l := newReservationLedger()
	l.add(reservation("r1", "shared", baseTime.Add(time.Minute)))
	other := reservation("r2", "shared", baseTime.Add(time.Minute))
	other.Workspace = "ws2"
	l.add(other)

	// The same account id in another workspace is a different account and
	// must not count against this one.
	assert.Equal(t, 1, l.activeCount("ws1", "shared", baseTime))
	assert.Equal(t, 1, l.activeCount("ws2", "shared", baseTime))
	assert.Equal(t, 0, l.activeCount("ws3", "shared", baseTime))
}

func TestReservationLedger_Sweep(t *testing.T) {
	l := newReservationLedger()
	l.add(reservation("r1", "a1", baseTime.Add(time.Minute)))
	l.add(reservation("r2", "a2", baseTime.Add(-time.Minute)))
	l.add(reservation("r3", "a3", baseTime.Add(-time.Hour)))

	swept := l.sweep(baseTime)
	assert.Len(t, swept, 2)
	assert.Equal(t, 1, l.size())
}
