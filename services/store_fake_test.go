package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/worklink/api-go/models"
	"github.com/worklink/api-go/stores"
)

// fakeStore is an in-memory ConnectionStore + UserStore. It mirrors the
// production guarantees that matter to the service: the blocking-pair
// uniqueness enforced by the partial index, conditional status updates, and
// newest-first ordering.
type fakeStore struct {
	mu     sync.Mutex
	nextID uint
	conns  map[uint]*models.Connection
	users  map[uint]models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conns: make(map[uint]*models.Connection),
		users: make(map[uint]models.User),
	}
}

func (f *fakeStore) addUser(id uint, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = models.User{ID: id, Username: username}
}

// addAccepted seeds an accepted edge directly, for graph fixtures.
func (f *fakeStore) addAccepted(a, b uint) {
	now := time.Now()
	conn := &models.Connection{
		RequesterID: a,
		AddresseeID: b,
		Status:      models.ConnectionStatusAccepted,
		CreatedAt:   now,
		AcceptedAt:  &now,
	}
	if err := f.Insert(context.Background(), conn); err != nil {
		panic(err)
	}
}

func (f *fakeStore) Insert(ctx context.Context, conn *models.Connection) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	lo, hi := models.NormalizePair(conn.RequesterID, conn.AddresseeID)
	for _, existing := range f.conns {
		if existing.PairLowID == lo && existing.PairHighID == hi && models.IsBlockingStatus(existing.Status) {
			return stores.ErrDuplicatePair
		}
	}

	f.nextID++
	conn.ID = f.nextID
	conn.PairLowID, conn.PairHighID = lo, hi
	stored := *conn
	f.conns[conn.ID] = &stored
	return nil
}

func (f *fakeStore) FindByID(ctx context.Context, id uint) (*models.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	conn, ok := f.conns[id]
	if !ok {
		return nil, stores.ErrNotFound
	}
	copied := *conn
	return &copied, nil
}

func (f *fakeStore) FindBetween(ctx context.Context, userA, userB uint) (*models.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lo, hi := models.NormalizePair(userA, userB)
	var newest *models.Connection
	for _, conn := range f.conns {
		if conn.PairLowID != lo || conn.PairHighID != hi {
			continue
		}
		if newest == nil || conn.ID > newest.ID {
			newest = conn
		}
	}
	if newest == nil {
		return nil, nil
	}
	copied := *newest
	return &copied, nil
}

func (f *fakeStore) ListForUser(ctx context.Context, userID uint, statusFilter string, page, pageSize int) ([]models.Connection, int64, error) {
	return f.listWhere(func(c *models.Connection) bool {
		if !c.HasEndpoint(userID) {
			return false
		}
		return statusFilter == "" || c.Status == statusFilter
	}, page, pageSize)
}

func (f *fakeStore) ListPendingReceivedBy(ctx context.Context, userID uint, page, pageSize int) ([]models.Connection, int64, error) {
	return f.listWhere(func(c *models.Connection) bool {
		return c.AddresseeID == userID && c.Status == models.ConnectionStatusPending
	}, page, pageSize)
}

func (f *fakeStore) ListPendingSentBy(ctx context.Context, userID uint, page, pageSize int) ([]models.Connection, int64, error) {
	return f.listWhere(func(c *models.Connection) bool {
		return c.RequesterID == userID && c.Status == models.ConnectionStatusPending
	}, page, pageSize)
}

func (f *fakeStore) listWhere(match func(*models.Connection) bool, page, pageSize int) ([]models.Connection, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []models.Connection
	for _, conn := range f.conns {
		if match(conn) {
			matched = append(matched, *conn)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeStore) CountAccepted(ctx context.Context, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, conn := range f.conns {
		if conn.HasEndpoint(userID) && conn.Status == models.ConnectionStatusAccepted {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) neighborSet(userID uint) map[uint]bool {
	neighbors := make(map[uint]bool)
	for _, conn := range f.conns {
		if conn.Status == models.ConnectionStatusAccepted && conn.HasEndpoint(userID) {
			neighbors[conn.CounterpartID(userID)] = true
		}
	}
	return neighbors
}

func (f *fakeStore) CountMutual(ctx context.Context, userA, userB uint) (int, error) {
	ids, err := f.ListMutual(ctx, userA, userB, int(^uint(0)>>1))
	return len(ids), err
}

func (f *fakeStore) ListMutual(ctx context.Context, userA, userB uint, limit int) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	neighborsA := f.neighborSet(userA)
	neighborsB := f.neighborSet(userB)

	var mutual []uint
	for id := range neighborsA {
		if neighborsB[id] && id != userA && id != userB {
			mutual = append(mutual, id)
		}
	}
	sort.Slice(mutual, func(i, j int) bool { return mutual[i] < mutual[j] })
	if len(mutual) > limit {
		mutual = mutual[:limit]
	}
	return mutual, nil
}

func (f *fakeStore) ListSecondDegreeCandidates(ctx context.Context, userID uint, limit int) ([]stores.SuggestionRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	neighbors := f.neighborSet(userID)

	related := make(map[uint]bool)
	for _, conn := range f.conns {
		if conn.HasEndpoint(userID) {
			related[conn.CounterpartID(userID)] = true
		}
	}

	shared := make(map[uint]int64)
	for neighbor := range neighbors {
		for candidate := range f.neighborSet(neighbor) {
			if candidate == userID || neighbors[candidate] || related[candidate] {
				continue
			}
			shared[candidate]++
		}
	}

	rows := make([]stores.SuggestionRow, 0, len(shared))
	for id, count := range shared {
		rows = append(rows, stores.SuggestionRow{UserID: id, SharedCount: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SharedCount != rows[j].SharedCount {
			return rows[i].SharedCount > rows[j].SharedCount
		}
		return rows[i].UserID < rows[j].UserID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeStore) applyStatus(conn *models.Connection, status string, at time.Time) {
	conn.Status = status
	conn.UpdatedAt = at
	switch status {
	case models.ConnectionStatusAccepted:
		conn.AcceptedAt = &at
	case models.ConnectionStatusRejected:
		conn.RejectedAt = &at
	case models.ConnectionStatusBlocked:
		conn.BlockedAt = &at
	}
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id uint, status string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	conn, ok := f.conns[id]
	if !ok {
		return stores.ErrNotFound
	}
	f.applyStatus(conn, status, at)
	return nil
}

func (f *fakeStore) UpdateStatusFrom(ctx context.Context, id uint, from, to string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	conn, ok := f.conns[id]
	if !ok || conn.Status != from {
		return false, nil
	}
	f.applyStatus(conn, to, at)
	return true, nil
}

// UserStore side of the fake.

func (f *fakeStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, stores.ErrNotFound
	}
	return &user, nil
}

func (f *fakeStore) ListByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	byID := make(map[uint]models.User, len(ids))
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			byID[id] = user
		}
	}
	return byID, nil
}

// fakeUsers adapts fakeStore to the UserStore interface (FindByID clashes
// with the connection-side method name).
type fakeUsers struct {
	store *fakeStore
}

func (f fakeUsers) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return f.store.FindUserByID(ctx, id)
}

func (f fakeUsers) ListByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	return f.store.ListByIDs(ctx, ids)
}

// fakeNotifier records enqueued events.
type fakeNotifier struct {
	mu     sync.Mutex
	events []fakeEvent
	fail   bool
}

type fakeEvent struct {
	Topic   string
	Payload map[string]string
}

func (n *fakeNotifier) Enqueue(ctx context.Context, topic string, payload map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return context.DeadlineExceeded
	}
	n.events = append(n.events, fakeEvent{Topic: topic, Payload: payload})
	return nil
}

func (n *fakeNotifier) all() []fakeEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]fakeEvent(nil), n.events...)
}

// fixedClock always returns the same instant.
type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time {
	return c.at
}
