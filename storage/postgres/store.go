// Package postgres implements storage.Storage on gorm over PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/models"
	"github.com/town-square/api-go/storage"
)

type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// notFound maps gorm's record-not-found onto the domain error kind, wrapping
// everything else as a database failure.
func notFound(err, kind error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return kind
	}
	return apperr.Database(err)
}

func (s *Store) RegisterUser(ctx context.Context, user *models.User, address string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		town, err := townByAddress(tx, address)
		if err != nil {
			return err
		}
		user.TownID = town.ID

		if err := tx.Create(user).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.ErrDuplicatePhone
			}
			return apperr.Database(err)
		}

		return tx.Preload("Town").First(user, user.ID).Error
	})
}

func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Town").First(&user, id).Error; err != nil {
		return nil, notFound(err, apperr.ErrUserNotFound)
	}
	return &user, nil
}

func (s *Store) UserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Town").Where("phone = ?", phone).First(&user).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrUserNotFound)
	}
	return &user, nil
}

func (s *Store) UpdateRefreshTokenHash(ctx context.Context, userID uint, hash *string) error {
	return s.updateUserColumn(ctx, userID, "refresh_token_hash", hash)
}

func (s *Store) UpdateUserBio(ctx context.Context, userID uint, bio string) error {
	return s.updateUserColumn(ctx, userID, "bio", bio)
}

func (s *Store) UpdateUserPicture(ctx context.Context, userID uint, url string) error {
	return s.updateUserColumn(ctx, userID, "picture", url)
}

func (s *Store) UpdateUserVerificationPhoto(ctx context.Context, userID uint, url string) error {
	return s.updateUserColumn(ctx, userID, "verification_photo_url", url)
}

func (s *Store) updateUserColumn(ctx context.Context, userID uint, column string, value interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update(column, value)
	if result.Error != nil {
		return apperr.Database(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

func (s *Store) TownByAddress(ctx context.Context, address string) (*models.Town, error) {
	var town *models.Town
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		town, err = townByAddress(tx, address)
		return err
	})
	return town, err
}

// townByAddress finds the town row for the address, creating it on first use.
func townByAddress(tx *gorm.DB, address string) (*models.Town, error) {
	var town models.Town
	err := tx.Where("address = ?", address).First(&town).Error
	if err == nil {
		return &town, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Database(err)
	}

	town = models.Town{Address: address}
	if err := tx.Create(&town).Error; err != nil {
		return nil, apperr.Database(err)
	}
	return &town, nil
}
