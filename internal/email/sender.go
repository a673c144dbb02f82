package email

import (
	"context"
	"errors"
	"fmt"
)

// ErrSenderDisabled indica que no hay transporte de correo configurado.
var ErrSenderDisabled = errors.New("email sender disabled")

// Sender define la interfaz para envio de correos transaccionales.
type Sender interface {
	SendSignupWelcome(ctx context.Context, toEmail, name string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendSignupWelcome(_ context.Context, _ string, _ string) error {
	if s.reason == "" {
		return ErrSenderDisabled
	}
	return fmt.Errorf("%w: %s", ErrSenderDisabled, s.reason)
}
