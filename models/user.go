package models

import (
	"crypto/sha256"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/town-square/api-go/apperr"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

func ParseSex(s string) (Sex, error) {
	switch Sex(s) {
	case SexMale, SexFemale:
		return Sex(s), nil
	}
	return "", fmt.Errorf("%w: unknown sex %q", apperr.ErrInvalidRequest, s)
}

// IDVerificationType is the kind of identity document submitted at
// registration.
type IDVerificationType string

const (
	VerificationIDCard           IDVerificationType = "id_card"
	VerificationDriverLicense    IDVerificationType = "driver_license"
	VerificationResidentRegister IDVerificationType = "resident_register"
)

func ParseIDVerificationType(s string) (IDVerificationType, error) {
	switch IDVerificationType(s) {
	case VerificationIDCard, VerificationDriverLicense, VerificationResidentRegister:
		return IDVerificationType(s), nil
	}
	return "", fmt.Errorf("%w: unknown verification type %q", apperr.ErrInvalidRequest, s)
}

// VerificationStatus is the outcome of reviewing the submitted document.
// It is an enumerated state, not a boolean: rejections carry the reason.
type VerificationStatus string

const (
	VerificationPending          VerificationStatus = "pending"
	VerificationVerified         VerificationStatus = "verified"
	VerificationRejectedQuality  VerificationStatus = "rejected_low_quality"
	VerificationRejectedUnmasked VerificationStatus = "rejected_unmasked"
)

type User struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name      string    `gorm:"not null" json:"name"`
	Phone     string    `gorm:"unique;not null" json:"phone"`
	Birthdate time.Time `json:"birthdate"`
	Sex       Sex       `gorm:"type:varchar(10);not null" json:"sex"`

	TownID uint `gorm:"not null" json:"town_id"`
	Town   Town `gorm:"foreignKey:TownID" json:"town"`

	VerificationType     IDVerificationType `gorm:"type:varchar(20);not null" json:"verification_type"`
	VerificationStatus   VerificationStatus `gorm:"type:varchar(30);not null;default:pending" json:"verification_status"`
	VerificationPhotoURL string             `json:"verification_photo_url"`

	Bio     string `json:"bio"`
	Picture string `json:"picture"`

	// Only a bcrypt hash of the single active refresh token is persisted.
	RefreshTokenHash *string `json:"-"`
}

// SetRefreshToken replaces the stored refresh token hash. Every previously
// issued refresh token stops matching from this point on.
//
// The token is digested with SHA-256 before bcrypt: bcrypt only reads the
// first 72 bytes of its input and an encoded JWT is far longer than that.
func (u *User) SetRefreshToken(token string) error {
	digest := sha256.Sum256([]byte(token))
	hash, err := bcrypt.GenerateFromPassword(digest[:], bcrypt.DefaultCost)
	if err != nil {
		return apperr.Vendor(err)
	}

	hashStr := string(hash)
	u.RefreshTokenHash = &hashStr

	return nil
}

// VerifyRefreshToken checks the presented refresh token against the stored
// hash. Absence of a stored token and a mismatch both fail identically.
func (u *User) VerifyRefreshToken(token string) error {
	if u.RefreshTokenHash == nil {
		return apperr.ErrInvalidToken
	}

	digest := sha256.Sum256([]byte(token))
	if err := bcrypt.CompareHashAndPassword([]byte(*u.RefreshTokenHash), digest[:]); err != nil {
		return apperr.ErrInvalidToken
	}

	return nil
}
