package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/shopy/internal/core/async"
)

// OTPService simulates out-of-band verification. Every mobile number gets
// the same configured code; it is a placeholder for a real SMS gateway.
type OTPService struct {
	code   string
	delay  time.Duration
	logger *zap.Logger

	mu   sync.Mutex
	sent map[string]bool
}

func NewOTPService(code string, delay time.Duration, logger *zap.Logger) *OTPService {
	return &OTPService{
		code:   code,
		delay:  delay,
		logger: logger,
		sent:   make(map[string]bool),
	}
}

// Send dispatches an OTP to mobile. The number counts as "sent" only once
// the returned task completes.
func (s *OTPService) Send(ctx context.Context, mobile string) (*async.Task[struct{}], error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return nil, ErrMissingField
	}

	return async.After(ctx, s.delay, func(context.Context) (struct{}, error) {
		s.mu.Lock()
		s.sent[mobile] = true
		s.mu.Unlock()

		s.logger.Debug("otp sent", zap.String("mobile", mobile))
		return struct{}{}, nil
	}), nil
}

func (s *OTPService) Verify(mobile, code string) error {
	s.mu.Lock()
	sent := s.sent[strings.TrimSpace(mobile)]
	s.mu.Unlock()

	if !sent {
		return ErrOTPNotSent
	}
	if code != s.code {
		return ErrInvalidOTP
	}
	return nil
}
