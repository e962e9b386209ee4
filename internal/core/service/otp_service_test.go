package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOTP_VerifyBeforeSend(t *testing.T) {
	svc := NewOTPService("123456", 0, zaptest.NewLogger(t))
	assert.ErrorIs(t, svc.Verify("9876543210", "123456"), ErrOTPNotSent)
}

func TestOTP_SendAndVerify(t *testing.T) {
	svc := NewOTPService("123456", 5*time.Millisecond, zaptest.NewLogger(t))
	ctx := context.Background()

	task, err := svc.Send(ctx, " 9876543210 ")
	require.NoError(t, err)
	_, err = task.Wait(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Verify("9876543210", "000000"), ErrInvalidOTP)
	assert.NoError(t, svc.Verify("9876543210", "123456"))
	// the code stays valid after a successful verify
	assert.NoError(t, svc.Verify("9876543210", "123456"))
}

func TestOTP_CancelledSendIsNotSent(t *testing.T) {
	svc := NewOTPService("123456", time.Hour, zaptest.NewLogger(t))

	task, err := svc.Send(context.Background(), "1")
	require.NoError(t, err)
	require.True(t, task.Cancel())

	assert.ErrorIs(t, svc.Verify("1", "123456"), ErrOTPNotSent)
}

func TestOTP_EmptyMobile(t *testing.T) {
	svc := NewOTPService("123456", 0, zaptest.NewLogger(t))
	_, err := svc.Send(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMissingField)
}
