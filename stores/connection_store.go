package stores

import (
	"context"
	"errors"
	"time"

	"github.com/worklink/api-go/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned by FindByID when no row matches the id.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicatePair is returned by Insert when the partial unique index
	// on the normalized pair rejects a second blocking-status row.
	ErrDuplicatePair = errors.New("blocking connection already exists for pair")
)

// SuggestionRow is one second-degree candidate together with the number of
// connections it shares with the queried user.
type SuggestionRow struct {
	UserID      uint  `json:"user_id"`
	SharedCount int64 `json:"shared_count"`
}

// ConnectionStore is the persistence boundary for connection edges. It is a
// dumb index: no transition rules, no authorization, just storage and
// graph-shaped queries.
type ConnectionStore interface {
	FindByID(ctx context.Context, id uint) (*models.Connection, error)
	// FindBetween returns the newest edge for the unordered pair, or
	// (nil, nil) when the pair has no history.
	FindBetween(ctx context.Context, userA, userB uint) (*models.Connection, error)
	ListForUser(ctx context.Context, userID uint, statusFilter string, page, pageSize int) ([]models.Connection, int64, error)
	ListPendingReceivedBy(ctx context.Context, userID uint, page, pageSize int) ([]models.Connection, int64, error)
	ListPendingSentBy(ctx context.Context, userID uint, page, pageSize int) ([]models.Connection, int64, error)
	CountAccepted(ctx context.Context, userID uint) (int64, error)
	CountMutual(ctx context.Context, userA, userB uint) (int, error)
	ListMutual(ctx context.Context, userA, userB uint, limit int) ([]uint, error)
	ListSecondDegreeCandidates(ctx context.Context, userID uint, limit int) ([]SuggestionRow, error)
	Insert(ctx context.Context, conn *models.Connection) error
	// UpdateStatus unconditionally moves the row to status and stamps the
	// matching timestamp column.
	UpdateStatus(ctx context.Context, id uint, status string, at time.Time) error
	// UpdateStatusFrom is the conditional variant: the write only happens
	// while the row still holds the expected current status. Returns false
	// when a concurrent writer got there first.
	UpdateStatusFrom(ctx context.Context, id uint, from, to string, at time.Time) (bool, error)
}

type gormConnectionStore struct {
	db *gorm.DB
}

func NewConnectionStore(db *gorm.DB) ConnectionStore {
	return &gormConnectionStore{db: db}
}

func (s *gormConnectionStore) FindByID(ctx context.Context, id uint) (*models.Connection, error) {
	var conn models.Connection
	err := s.db.WithContext(ctx).First(&conn, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (s *gormConnectionStore) FindBetween(ctx context.Context, userA, userB uint) (*models.Connection, error) {
	lo, hi := models.NormalizePair(userA, userB)

	var conn models.Connection
	err := s.db.WithContext(ctx).
		Where("pair_low_id = ? AND pair_high_id = ?", lo, hi).
		Order("created_at DESC, id DESC").
		First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (s *gormConnectionStore) forUser(userID uint) *gorm.DB {
	return s.db.Model(&models.Connection{}).
		Where("requester_id = ? OR addressee_id = ?", userID, userID)
}

func (s *gormConnectionStore) ListForUser(ctx context.Context, userID uint, statusFilter string, page, pageSize int) ([]models.Connection, int64, error) {
	build := func() *gorm.DB {
		query := s.forUser(userID).WithContext(ctx)
		if statusFilter != "" {
			query = query.Where("status = ?", statusFilter)
		}
		return query
	}
	return s.paginate(build, page, pageSize)
}

func (s *gormConnectionStore) ListPendingReceivedBy(ctx context.Context, userID uint, page, pageSize int) ([]models.Connection, int64, error) {
	build := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Connection{}).
			Where("addressee_id = ? AND status = ?", userID, models.ConnectionStatusPending)
	}
	return s.paginate(build, page, pageSize)
}

func (s *gormConnectionStore) ListPendingSentBy(ctx context.Context, userID uint, page, pageSize int) ([]models.Connection, int64, error) {
	build := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Connection{}).
			Where("requester_id = ? AND status = ?", userID, models.ConnectionStatusPending)
	}
	return s.paginate(build, page, pageSize)
}

// paginate builds the query twice so the count and the page fetch never
// share a statement.
func (s *gormConnectionStore) paginate(build func() *gorm.DB, page, pageSize int) ([]models.Connection, int64, error) {
	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	var conns []models.Connection
	err := build().
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&conns).Error
	if err != nil {
		return nil, 0, err
	}
	return conns, total, nil
}

func (s *gormConnectionStore) CountAccepted(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := s.forUser(userID).WithContext(ctx).
		Where("status = ?", models.ConnectionStatusAccepted).
		Count(&total).Error
	return total, err
}

// neighborSQL selects the accepted-neighbor ids of one user.
const neighborSQL = `
	SELECT CASE WHEN requester_id = ? THEN addressee_id ELSE requester_id END AS uid
	FROM connections
	WHERE status = 'accepted' AND deleted_at IS NULL
	  AND (requester_id = ? OR addressee_id = ?)`

func (s *gormConnectionStore) CountMutual(ctx context.Context, userA, userB uint) (int, error) {
	var count int
	err := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM (
			`+neighborSQL+`
			INTERSECT
			`+neighborSQL+`
		) mutual
		WHERE uid NOT IN (?, ?)`,
		userA, userA, userA, userB, userB, userB, userA, userB,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *gormConnectionStore) ListMutual(ctx context.Context, userA, userB uint, limit int) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Raw(`
		SELECT uid FROM (
			`+neighborSQL+`
			INTERSECT
			`+neighborSQL+`
		) mutual
		WHERE uid NOT IN (?, ?)
		ORDER BY uid ASC
		LIMIT ?`,
		userA, userA, userA, userB, userB, userB, userA, userB, limit,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListSecondDegreeCandidates walks one accepted hop beyond the user's
// accepted neighbors. Candidates sharing an edge of ANY status with the user
// are excluded so that previously rejected or withdrawn pairs are never
// re-suggested. Ordered by shared-connection count, ties broken by user id.
func (s *gormConnectionStore) ListSecondDegreeCandidates(ctx context.Context, userID uint, limit int) ([]SuggestionRow, error) {
	var rows []SuggestionRow
	err := s.db.WithContext(ctx).Raw(`
		WITH neighbors AS (
			`+neighborSQL+`
		),
		related AS (
			SELECT CASE WHEN requester_id = ? THEN addressee_id ELSE requester_id END AS uid
			FROM connections
			WHERE deleted_at IS NULL AND (requester_id = ? OR addressee_id = ?)
		)
		SELECT user_id, COUNT(*) AS shared_count FROM (
			SELECT CASE WHEN c.requester_id = n.uid THEN c.addressee_id ELSE c.requester_id END AS user_id
			FROM connections c
			JOIN neighbors n ON (c.requester_id = n.uid OR c.addressee_id = n.uid)
			WHERE c.status = 'accepted' AND c.deleted_at IS NULL
		) second_degree
		WHERE user_id != ?
		  AND user_id NOT IN (SELECT uid FROM neighbors)
		  AND user_id NOT IN (SELECT uid FROM related)
		GROUP BY user_id
		ORDER BY shared_count DESC, user_id ASC
		LIMIT ?`,
		userID, userID, userID,
		userID, userID, userID,
		userID, limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *gormConnectionStore) Insert(ctx context.Context, conn *models.Connection) error {
	err := s.db.WithContext(ctx).Create(conn).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicatePair
	}
	return err
}

// statusTimestampColumn maps each terminal-entry status to the column that
// records when the row entered it. Pending and withdrawn carry no column:
// pending is creation (created_at) and withdrawn keeps updated_at only.
func statusTimestampColumn(status string) string {
	switch status {
	case models.ConnectionStatusAccepted:
		return "accepted_at"
	case models.ConnectionStatusRejected:
		return "rejected_at"
	case models.ConnectionStatusBlocked:
		return "blocked_at"
	}
	return ""
}

func statusPatch(status string, at time.Time) map[string]interface{} {
	patch := map[string]interface{}{"status": status, "updated_at": at}
	if col := statusTimestampColumn(status); col != "" {
		patch[col] = at
	}
	return patch
}

func (s *gormConnectionStore) UpdateStatus(ctx context.Context, id uint, status string, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.Connection{}).
		Where("id = ?", id).
		Updates(statusPatch(status, at))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormConnectionStore) UpdateStatusFrom(ctx context.Context, id uint, from, to string, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.Connection{}).
		Where("id = ? AND status = ?", id, from).
		Updates(statusPatch(to, at))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
