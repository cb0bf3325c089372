// Package verification implements the phone OTP flow: issue a code over SMS,
// check a submitted code, and retire the record once it has served.
package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/models"
)

// CodeTTL is how long an issued code stays valid.
const CodeTTL = 30 * time.Minute

// Store is the slice of the storage layer the flow needs.
type Store interface {
	ReplacePhoneVerification(ctx context.Context, phone, code string, issuedAt time.Time) error
	PhoneVerificationByPhone(ctx context.Context, phone string) (*models.PhoneVerification, error)
	DeletePhoneVerification(ctx context.Context, phone string) error
}

// Sender delivers the code to the phone, typically over an SMS vendor.
type Sender interface {
	Send(ctx context.Context, phone, code string) error
}

type Service struct {
	store  Store
	sender Sender
	now    func() time.Time
}

func NewService(store Store, sender Sender) *Service {
	return &Service{store: store, sender: sender, now: time.Now}
}

// Send issues a fresh code for the phone. Any previously issued code for the
// same phone stops working, whether or not the SMS delivery succeeds.
func (s *Service) Send(ctx context.Context, phone string) error {
	if err := s.store.DeletePhoneVerification(ctx, phone); err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	if err := s.sender.Send(ctx, phone, code); err != nil {
		return err
	}

	return s.store.ReplacePhoneVerification(ctx, phone, code, s.now())
}

// Authorize checks the submitted code. A missing record and a wrong code fail
// the same way; an aged-out record fails distinctly so the client can prompt
// for a resend. The record survives the check and is retired by Cancel.
func (s *Service) Authorize(ctx context.Context, phone, code string) error {
	record, err := s.store.PhoneVerificationByPhone(ctx, phone)
	if err != nil {
		return err
	}

	if s.now().Sub(record.CreatedAt) >= CodeTTL {
		return apperr.ErrVerificationExpired
	}

	if record.Code != code {
		return apperr.ErrVerification
	}

	return nil
}

// Cancel removes the record after the code has been consumed.
func (s *Service) Cancel(ctx context.Context, phone string) error {
	return s.store.DeletePhoneVerification(ctx, phone)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", apperr.Vendor(err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
