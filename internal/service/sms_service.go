package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"shop-service/internal/gateway"
	"shop-service/internal/models"
	"shop-service/internal/redisclient"
	"shop-service/internal/util"

	"go.uber.org/zap"
)

var (
	ErrCodeMismatch = errors.New("verification code is wrong or expired")
	ErrNoPhone      = errors.New("user has no phone number on record")
)

const verificationCodeTTL = 2 * time.Minute

// SMSSender is the provider surface the service sends through
type SMSSender interface {
	Send(ctx context.Context, mobile, message string) error
	SendBulk(ctx context.Context, mobiles []string, message string) error
	SendVerifyCode(ctx context.Context, mobile string, templateID int, code string) error
	Credit(ctx context.Context) (float64, error)
}

// CodeStore keeps short-lived verification codes
type CodeStore interface {
	SetVerificationCode(ctx context.Context, phone, code string, ttl time.Duration) error
	GetVerificationCode(ctx context.Context, phone string) (string, error)
	DeleteVerificationCode(ctx context.Context, phone string) error
}

// PhoneStore marks users' phones verified
type PhoneStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	MarkPhoneVerified(ctx context.Context, userID int64, phone string) error
}

// SMSService sends notifications and runs the phone verification flow
type SMSService struct {
	sender     SMSSender
	codes      CodeStore
	users      PhoneStore
	templateID int
	logger     *zap.Logger
}

// NewSMSService creates a new SMS service
func NewSMSService(sender SMSSender, codes CodeStore, users PhoneStore, templateID int) *SMSService {
	return &SMSService{
		sender:     sender,
		codes:      codes,
		users:      users,
		templateID: templateID,
		logger:     util.GetLogger(),
	}
}

// SendVerificationCode generates a 6-digit code, stores it with a short TTL
// and delivers it through the provider's verify template.
func (s *SMSService) SendVerificationCode(ctx context.Context, user *models.User) error {
	ctx, span := util.StartSpan(ctx, "SMSService.SendVerificationCode")
	defer span.End()

	if user.Phone == "" {
		return ErrNoPhone
	}
	phone, err := gateway.NormalizePhone(user.Phone)
	if err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	if err := s.codes.SetVerificationCode(ctx, phone, code, verificationCodeTTL); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	if err := s.sender.SendVerifyCode(ctx, phone, s.templateID, code); err != nil {
		util.SMSFailedTotal.WithLabelValues("verify").Inc()
		return err
	}
	util.SMSSentTotal.WithLabelValues("verify").Inc()

	s.logger.Info("Verification code sent", zap.Int64("user_id", user.ID))
	return nil
}

// ConfirmPhone checks the submitted code against the stored one and marks
// the user's phone verified. Codes are single use.
func (s *SMSService) ConfirmPhone(ctx context.Context, user *models.User, code string) error {
	ctx, span := util.StartSpan(ctx, "SMSService.ConfirmPhone")
	defer span.End()

	if user.Phone == "" {
		return ErrNoPhone
	}
	phone, err := gateway.NormalizePhone(user.Phone)
	if err != nil {
		return err
	}

	stored, err := s.codes.GetVerificationCode(ctx, phone)
	if err != nil {
		if redisclient.IsCacheMiss(err) {
			return ErrCodeMismatch
		}
		return fmt.Errorf("load code: %w", err)
	}
	if stored == "" || stored != code {
		return ErrCodeMismatch
	}

	if err := s.codes.DeleteVerificationCode(ctx, phone); err != nil {
		s.logger.Warn("Failed to delete consumed verification code", zap.Error(err))
	}
	// the normalized form is written back so future lookups agree
	if err := s.users.MarkPhoneVerified(ctx, user.ID, phone); err != nil {
		return err
	}

	s.logger.Info("Phone verified", zap.Int64("user_id", user.ID))
	return nil
}

// SendCodeToPhone runs the code flow for a raw phone number, for callers
// that are not tied to a stored user
func (s *SMSService) SendCodeToPhone(ctx context.Context, phone string) error {
	normalized, err := gateway.NormalizePhone(phone)
	if err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	if err := s.codes.SetVerificationCode(ctx, normalized, code, verificationCodeTTL); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	if err := s.sender.SendVerifyCode(ctx, normalized, s.templateID, code); err != nil {
		util.SMSFailedTotal.WithLabelValues("verify").Inc()
		return err
	}
	util.SMSSentTotal.WithLabelValues("verify").Inc()
	return nil
}

// CheckCode validates a submitted code for a raw phone number and consumes
// it on success
func (s *SMSService) CheckCode(ctx context.Context, phone, code string) error {
	normalized, err := gateway.NormalizePhone(phone)
	if err != nil {
		return err
	}

	stored, err := s.codes.GetVerificationCode(ctx, normalized)
	if err != nil {
		if redisclient.IsCacheMiss(err) {
			return ErrCodeMismatch
		}
		return fmt.Errorf("load code: %w", err)
	}
	if stored == "" || stored != code {
		return ErrCodeMismatch
	}
	if err := s.codes.DeleteVerificationCode(ctx, normalized); err != nil {
		s.logger.Warn("Failed to delete consumed verification code", zap.Error(err))
	}
	return nil
}

// Send delivers a single notification message
func (s *SMSService) Send(ctx context.Context, phone, message string) error {
	normalized, err := gateway.NormalizePhone(phone)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, normalized, message); err != nil {
		util.SMSFailedTotal.WithLabelValues("notify").Inc()
		return err
	}
	util.SMSSentTotal.WithLabelValues("notify").Inc()
	return nil
}

// SendBulk delivers one message to many recipients. Invalid numbers fail
// the whole batch before anything is sent.
func (s *SMSService) SendBulk(ctx context.Context, phones []string, message string) error {
	normalized := make([]string, 0, len(phones))
	for _, p := range phones {
		n, err := gateway.NormalizePhone(p)
		if err != nil {
			return fmt.Errorf("phone %q: %w", p, err)
		}
		normalized = append(normalized, n)
	}
	if err := s.sender.SendBulk(ctx, normalized, message); err != nil {
		util.SMSFailedTotal.WithLabelValues("bulk").Inc()
		return err
	}
	util.SMSSentTotal.WithLabelValues("bulk").Inc()
	return nil
}

// NotifyUser sends a message to a user's phone, best effort for callers
// that ignore the error
func (s *SMSService) NotifyUser(ctx context.Context, userID int64, message string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Phone == "" {
		return ErrNoPhone
	}
	return s.Send(ctx, user.Phone, message)
}

// Credit reports the remaining provider balance
func (s *SMSService) Credit(ctx context.Context) (float64, error) {
	return s.sender.Credit(ctx)
}

// generateCode produces a 6-digit numeric code with a crypto source
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
