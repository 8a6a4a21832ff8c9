package stores

import (
	"context"
	"errors"

	"github.com/worklink/api-go/models"
	"gorm.io/gorm"
)

// UserStore covers the user lookups the connection surface needs: existence
// checks before writes and summary hydration for lists and suggestions.
type UserStore interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	ListByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error)
}

type gormUserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) UserStore {
	return &gormUserStore{db: db}
}

func (s *gormUserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormUserStore) ListByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	byID := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, user := range users {
		byID[user.ID] = user
	}
	return byID, nil
}
