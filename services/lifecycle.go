package services

import (
	"fmt"

	"github.com/worklink/api-go/apperrors"
	"github.com/worklink/api-go/models"
)

// Lifecycle holds the connection state machine: which transitions exist,
// from which statuses, and which endpoint may trigger them. It reads edges
// but never writes them.
//
// Transitions only move forward. A rejected or withdrawn pair frees the pair
// for a fresh request (a new row); blocking statuses do not.
type Lifecycle struct{}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// GuardNewRequest decides whether a new request may be created given the
// pair's newest edge (nil when the pair has no history).
func (l *Lifecycle) GuardNewRequest(existing *models.Connection) error {
	if existing == nil {
		return nil
	}
	switch existing.Status {
	case models.ConnectionStatusBlocked:
		return apperrors.Forbidden("cannot send a connection request to this user")
	case models.ConnectionStatusAccepted:
		return apperrors.Conflict("users are already connected")
	case models.ConnectionStatusPending:
		return apperrors.Conflict("a connection request is already pending")
	}
	return nil
}

// GuardAccept: only the addressee of a pending request may accept it.
func (l *Lifecycle) GuardAccept(conn *models.Connection, callerID uint) error {
	return l.guardAnswer(conn, callerID, "accept")
}

// GuardReject: only the addressee of a pending request may reject it.
func (l *Lifecycle) GuardReject(conn *models.Connection, callerID uint) error {
	return l.guardAnswer(conn, callerID, "reject")
}

func (l *Lifecycle) guardAnswer(conn *models.Connection, callerID uint, verb string) error {
	if conn.Status != models.ConnectionStatusPending {
		return apperrors.InvalidState(fmt.Sprintf("cannot %s a connection in status %q", verb, conn.Status))
	}
	if conn.AddresseeID != callerID {
		return apperrors.InvalidActor(fmt.Sprintf("only the recipient can %s a connection request", verb))
	}
	return nil
}

// GuardWithdraw: only the requester of a pending request may withdraw it.
func (l *Lifecycle) GuardWithdraw(conn *models.Connection, callerID uint) error {
	if conn.Status != models.ConnectionStatusPending {
		return apperrors.InvalidState(fmt.Sprintf("cannot withdraw a connection in status %q", conn.Status))
	}
	if conn.RequesterID != callerID {
		return apperrors.InvalidActor("only the sender can withdraw a connection request")
	}
	return nil
}

// GuardRemove: either endpoint may remove a pending or accepted connection.
// Removal is a soft transition to withdrawn, never a delete.
func (l *Lifecycle) GuardRemove(conn *models.Connection, callerID uint) error {
	if !conn.HasEndpoint(callerID) {
		return apperrors.InvalidActor("caller is not part of this connection")
	}
	switch conn.Status {
	case models.ConnectionStatusPending, models.ConnectionStatusAccepted:
		return nil
	}
	return apperrors.InvalidState(fmt.Sprintf("cannot remove a connection in status %q", conn.Status))
}

// GuardBlock: block always wins. The only check is that the caller is an
// endpoint of the edge being overwritten.
func (l *Lifecycle) GuardBlock(conn *models.Connection, callerID uint) error {
	if conn != nil && !conn.HasEndpoint(callerID) {
		return apperrors.InvalidActor("caller is not part of this connection")
	}
	return nil
}
