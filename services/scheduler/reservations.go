package scheduler

import (
	"sync"
	"time"

	er "github.com/outreachcrm/sendpool/internal/errors"
	"github.com/outreachcrm/sendpool/internal/models"
)

// reservationLedger tracks in-flight claims. Capacity accounting counts a
// reservation until it is settled or expires, so concurrent selectors cannot
// commit past an account's remaining quota.
type reservationLedger struct {
	mu   sync.Mutex
	byID map[string]*models.Reservation
}

func newReservationLedger() *reservationLedger {
	return &reservationLedger{byID: map[string]*models.Reservation{}}
}

func (l *reservationLedger) add(r *models.Reservation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID[r.ID] = r
}

// peek returns the reservation without settling it, so a caller can locate
// and lock the account first. Expired entries are dropped and reported the
// same way take reports them.
func (l *reservationLedger) peek(id string, now time.Time) (*models.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.byID[id]
	if !ok {
		return nil, er.ErrReservationNotFound
	}
	if r.Expired(now) {
		delete(l.byID, id)
		return nil, er.ErrReservationExpired
	}
	return r, nil
}

// take removes and returns the reservation. An expired reservation is
// removed and reported as such; its held capacity was already notional.
func (l *reservationLedger) take(id string, now time.Time) (*models.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.byID[id]
	if !ok {
		return nil, er.ErrReservationNotFound
	}
	delete(l.byID, id)
	if r.Expired(now) {
		return nil, er.ErrReservationExpired
	}
	return r, nil
}

// activeCount returns the number of unexpired reservations held against an
// account, pruning expired ones as it goes. Account ids are only unique
// within a workspace, so the workspace is part of the match.
func (l *reservationLedger) activeCount(workspace, accountID string, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for id, r := range l.byID {
		if r.Expired(now) {
			delete(l.byID, id)
			continue
		}
		if r.Workspace == workspace && r.AccountID == accountID {
			count++
		}
	}
	return count
}

// sweep drops every expired reservation and returns them, equivalent to the
// caller having reported each as abandoned.
func (l *reservationLedger) sweep(now time.Time) []*models.Reservation {
	l.mu.Lock()
	defer l.mu.Unlock()

	var swept []*models.Reservation
	for id, r := range l.byID {
		if r.Expired(now) {
			swept = append(swept, r)
			delete(l.byID, id)
		}
	}
	return swept
}

func (l *reservationLedger) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byID)
}
