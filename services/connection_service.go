package services

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/worklink/api-go/apperrors"
	"github.com/worklink/api-go/models"
	"github.com/worklink/api-go/notifications"
	"github.com/worklink/api-go/stores"
)

// ConnectionService orchestrates the connection graph: it runs lifecycle
// guards, writes edges through the store, and enqueues events for the
// notification pipeline. The edge write is the transaction of record; a
// failed enqueue is logged and swallowed, never propagated.
type ConnectionService struct {
	store     stores.ConnectionStore
	users     stores.UserStore
	lifecycle *Lifecycle
	engine    *GraphEngine
	notifier  notifications.Notifier
	clock     Clock
}

func NewConnectionService(store stores.ConnectionStore, users stores.UserStore, notifier notifications.Notifier, clock Clock) *ConnectionService {
	return &ConnectionService{
		store:     store,
		users:     users,
		lifecycle: NewLifecycle(),
		engine:    NewGraphEngine(store),
		notifier:  notifier,
		clock:     clock,
	}
}

// SendConnectionRequest creates a pending edge from requester to addressee.
// A pair whose newest edge is rejected or withdrawn gets a fresh row; pairs
// with a pending, accepted or blocked edge are refused. The partial unique
// index on the pair closes the check-then-insert race: the losing writer's
// insert fails and is surfaced as Conflict.
func (s *ConnectionService) SendConnectionRequest(ctx context.Context, requesterID, addresseeID uint, message string) (uint, error) {
	if requesterID == addresseeID {
		return 0, apperrors.InvalidActor("cannot send a connection request to yourself")
	}

	if _, err := s.users.FindByID(ctx, addresseeID); err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return 0, apperrors.NotFound("user not found")
		}
		return 0, err
	}

	existing, err := s.store.FindBetween(ctx, requesterID, addresseeID)
	if err != nil {
		return 0, err
	}
	if err := s.lifecycle.GuardNewRequest(existing); err != nil {
		return 0, err
	}

	conn := &models.Connection{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.ConnectionStatusPending,
		Message:     message,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.Insert(ctx, conn); err != nil {
		if errors.Is(err, stores.ErrDuplicatePair) {
			return 0, s.conflictForPair(ctx, requesterID, addresseeID)
		}
		return 0, err
	}

	s.notify(ctx, map[string]string{
		notifications.KeyType:         notifications.TypeNewConnectionRequest,
		notifications.KeyUserID:       formatID(addresseeID),
		notifications.KeyRequesterID:  formatID(requesterID),
		notifications.KeyConnectionID: formatID(conn.ID),
	})

	return conn.ID, nil
}

// conflictForPair re-reads the pair after a duplicate-key insert so the
// caller gets the same error a sequential guard would have produced.
func (s *ConnectionService) conflictForPair(ctx context.Context, userA, userB uint) error {
	existing, err := s.store.FindBetween(ctx, userA, userB)
	if err == nil && existing != nil {
		if guardErr := s.lifecycle.GuardNewRequest(existing); guardErr != nil {
			return guardErr
		}
	}
	return apperrors.Conflict("a connection request is already pending")
}

// AcceptConnectionRequest moves a pending request to accepted and notifies
// the original requester. Of two concurrent responders only the first
// succeeds; the other observes InvalidState.
func (s *ConnectionService) AcceptConnectionRequest(ctx context.Context, connectionID, callerID uint) error {
	conn, err := s.findConnection(ctx, connectionID)
	if err != nil {
		return err
	}
	if err := s.lifecycle.GuardAccept(conn, callerID); err != nil {
		return err
	}

	updated, err := s.store.UpdateStatusFrom(ctx, connectionID,
		models.ConnectionStatusPending, models.ConnectionStatusAccepted, s.clock.Now())
	if err != nil {
		return err
	}
	if !updated {
		return apperrors.InvalidState("connection request is no longer pending")
	}

	s.notify(ctx, map[string]string{
		notifications.KeyType:         notifications.TypeConnectionAccepted,
		notifications.KeyUserID:       formatID(conn.RequesterID),
		notifications.KeyAccepterID:   formatID(callerID),
		notifications.KeyConnectionID: formatID(connectionID),
	})

	return nil
}

func (s *ConnectionService) RejectConnectionRequest(ctx context.Context, connectionID, callerID uint) error {
	conn, err := s.findConnection(ctx, connectionID)
	if err != nil {
		return err
	}
	if err := s.lifecycle.GuardReject(conn, callerID); err != nil {
		return err
	}
	return s.transitionFrom(ctx, connectionID, models.ConnectionStatusPending, models.ConnectionStatusRejected)
}

func (s *ConnectionService) WithdrawConnectionRequest(ctx context.Context, connectionID, callerID uint) error {
	conn, err := s.findConnection(ctx, connectionID)
	if err != nil {
		return err
	}
	if err := s.lifecycle.GuardWithdraw(conn, callerID); err != nil {
		return err
	}
	return s.transitionFrom(ctx, connectionID, models.ConnectionStatusPending, models.ConnectionStatusWithdrawn)
}

// RemoveConnection soft-removes a pending or accepted edge; the row stays as
// withdrawn history and the pair becomes free for a future request.
func (s *ConnectionService) RemoveConnection(ctx context.Context, connectionID, callerID uint) error {
	conn, err := s.findConnection(ctx, connectionID)
	if err != nil {
		return err
	}
	if err := s.lifecycle.GuardRemove(conn, callerID); err != nil {
		return err
	}
	return s.transitionFrom(ctx, connectionID, conn.Status, models.ConnectionStatusWithdrawn)
}

func (s *ConnectionService) transitionFrom(ctx context.Context, connectionID uint, from, to string) error {
	updated, err := s.store.UpdateStatusFrom(ctx, connectionID, from, to, s.clock.Now())
	if err != nil {
		return err
	}
	if !updated {
		return apperrors.InvalidState("connection status changed concurrently")
	}
	return nil
}

// BlockUser blocks the target regardless of any prior relationship. Calling
// it again is a no-op; there is never more than one blocked edge per pair.
func (s *ConnectionService) BlockUser(ctx context.Context, callerID, targetID uint) error {
	if callerID == targetID {
		return apperrors.InvalidActor("cannot block yourself")
	}

	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return apperrors.NotFound("user not found")
		}
		return err
	}

	existing, err := s.store.FindBetween(ctx, callerID, targetID)
	if err != nil {
		return err
	}
	if err := s.lifecycle.GuardBlock(existing, callerID); err != nil {
		return err
	}

	if existing != nil {
		if existing.Status == models.ConnectionStatusBlocked {
			return nil
		}
		if models.IsBlockingStatus(existing.Status) {
			return s.store.UpdateStatus(ctx, existing.ID, models.ConnectionStatusBlocked, s.clock.Now())
		}
	}

	now := s.clock.Now()
	conn := &models.Connection{
		RequesterID: callerID,
		AddresseeID: targetID,
		Status:      models.ConnectionStatusBlocked,
		CreatedAt:   now,
		BlockedAt:   &now,
	}
	if err := s.store.Insert(ctx, conn); err != nil {
		if errors.Is(err, stores.ErrDuplicatePair) {
			// Lost a race against another writer on this pair; block
			// whatever row won.
			return s.blockExisting(ctx, callerID, targetID)
		}
		return err
	}
	return nil
}

func (s *ConnectionService) blockExisting(ctx context.Context, callerID, targetID uint) error {
	existing, err := s.store.FindBetween(ctx, callerID, targetID)
	if err != nil {
		return err
	}
	if existing == nil || existing.Status == models.ConnectionStatusBlocked {
		return nil
	}
	return s.store.UpdateStatus(ctx, existing.ID, models.ConnectionStatusBlocked, s.clock.Now())
}

// GetConnectionStatus reports the relationship between userA and userB as
// seen by userA. Rejected and withdrawn history reads as "no relationship".
func (s *ConnectionService) GetConnectionStatus(ctx context.Context, userA, userB uint) (ConnectionStatus, error) {
	status := ConnectionStatus{}

	mutual, err := s.engine.MutualCount(ctx, userA, userB)
	if err != nil {
		return status, err
	}
	status.MutualConnectionsCount = mutual

	edge, err := s.store.FindBetween(ctx, userA, userB)
	if err != nil {
		return status, err
	}
	if edge == nil || !models.IsBlockingStatus(edge.Status) {
		return status, nil
	}

	status.IsConnected = edge.Status == models.ConnectionStatusAccepted
	status.IsPending = edge.Status == models.ConnectionStatusPending
	status.IsBlocked = edge.Status == models.ConnectionStatusBlocked
	status.IsOutgoingRequest = status.IsPending && edge.RequesterID == userA
	id := edge.ID
	status.ConnectionID = &id
	return status, nil
}

func (s *ConnectionService) GetSuggestions(ctx context.Context, userID uint, limit int) ([]Suggestion, error) {
	rows, err := s.engine.Suggestions(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	usersByID, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(rows))
	for _, row := range rows {
		user, ok := usersByID[row.UserID]
		if !ok {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			User:             summarize(user),
			SharedConnection: row.SharedCount,
		})
	}
	return suggestions, nil
}

func (s *ConnectionService) GetMutualConnections(ctx context.Context, userA, userB uint, limit int) ([]uint, error) {
	return s.engine.MutualList(ctx, userA, userB, limit)
}

func (s *ConnectionService) ListMyConnections(ctx context.Context, userID uint, page, pageSize int) ([]ConnectionEntry, int64, error) {
	conns, total, err := s.store.ListForUser(ctx, userID, models.ConnectionStatusAccepted, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.hydrate(ctx, userID, conns)
	return entries, total, err
}

func (s *ConnectionService) ListPendingReceived(ctx context.Context, userID uint, page, pageSize int) ([]ConnectionEntry, int64, error) {
	conns, total, err := s.store.ListPendingReceivedBy(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.hydrate(ctx, userID, conns)
	return entries, total, err
}

func (s *ConnectionService) ListSentRequests(ctx context.Context, userID uint, page, pageSize int) ([]ConnectionEntry, int64, error) {
	conns, total, err := s.store.ListPendingSentBy(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.hydrate(ctx, userID, conns)
	return entries, total, err
}

func (s *ConnectionService) GetConnectionStats(ctx context.Context, userID uint) (ConnectionStats, error) {
	stats := ConnectionStats{}

	total, err := s.store.CountAccepted(ctx, userID)
	if err != nil {
		return stats, err
	}
	stats.TotalConnections = total

	_, received, err := s.store.ListPendingReceivedBy(ctx, userID, 1, 1)
	if err != nil {
		return stats, err
	}
	stats.PendingReceivedCount = received

	_, sent, err := s.store.ListPendingSentBy(ctx, userID, 1, 1)
	if err != nil {
		return stats, err
	}
	stats.SentCount = sent

	return stats, nil
}

// hydrate turns raw edges into viewer-relative entries with counterpart
// profile summaries attached.
func (s *ConnectionService) hydrate(ctx context.Context, viewerID uint, conns []models.Connection) ([]ConnectionEntry, error) {
	ids := make([]uint, 0, len(conns))
	for _, conn := range conns {
		ids = append(ids, conn.CounterpartID(viewerID))
	}
	usersByID, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]ConnectionEntry, 0, len(conns))
	for _, conn := range conns {
		counterpartID := conn.CounterpartID(viewerID)
		entries = append(entries, ConnectionEntry{
			ConnectionID: conn.ID,
			User:         summarize(usersByID[counterpartID]),
			Status:       conn.Status,
			Message:      conn.Message,
			IsOutgoing:   conn.RequesterID == viewerID,
			CreatedAt:    conn.CreatedAt,
			AcceptedAt:   conn.AcceptedAt,
		})
	}
	return entries, nil
}

func (s *ConnectionService) findConnection(ctx context.Context, id uint) (*models.Connection, error) {
	conn, err := s.store.FindByID(ctx, id)
	if errors.Is(err, stores.ErrNotFound) {
		return nil, apperrors.NotFound("connection not found")
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *ConnectionService) notify(ctx context.Context, payload map[string]string) {
	if err := s.notifier.Enqueue(ctx, notifications.TopicConnections, payload); err != nil {
		log.Printf("failed to enqueue %s notification: %v", payload[notifications.KeyType], err)
	}
}

func summarize(user models.User) UserSummary {
	return UserSummary{
		ID:         user.ID,
		Username:   user.Username,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Headline:   user.Headline,
		Avatar:     user.Avatar,
		IsVerified: user.IsVerified,
	}
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
