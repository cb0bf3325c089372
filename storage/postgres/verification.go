package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/models"
)

// ReplacePhoneVerification swaps in a fresh code row with a delete-then-insert
// so at most one live record exists per phone.
func (s *Store) ReplacePhoneVerification(ctx context.Context, phone, code string, issuedAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("phone = ?", phone).Delete(&models.PhoneVerification{}).Error; err != nil {
			return apperr.Database(err)
		}

		record := models.PhoneVerification{Phone: phone, Code: code, CreatedAt: issuedAt}
		if err := tx.Create(&record).Error; err != nil {
			return apperr.Database(err)
		}
		return nil
	})
}

// PhoneVerificationByPhone returns the live record; a missing record is the
// same verification failure as a wrong code.
func (s *Store) PhoneVerificationByPhone(ctx context.Context, phone string) (*models.PhoneVerification, error) {
	var record models.PhoneVerification
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&record).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrVerification)
	}
	return &record, nil
}

func (s *Store) DeletePhoneVerification(ctx context.Context, phone string) error {
	if err := s.db.WithContext(ctx).Where("phone = ?", phone).Delete(&models.PhoneVerification{}).Error; err != nil {
		return apperr.Database(err)
	}
	return nil
}
