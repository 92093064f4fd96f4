package services

import (
	"context"

	"github.com/aegisauth/aegis/internal/models"
)

// MockUserStore implements UserStore for testing
type MockUserStore struct {
	AddFunc                 func(ctx context.Context, user *models.User) error
	GetByEmailFunc          func(ctx context.Context, email models.Email) (*models.User, error)
	ValidateCredentialsFunc func(ctx context.Context, email models.Email, password models.Password) error
}

func (m *MockUserStore) Add(ctx context.Context, user *models.User) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, user)
	}
	return nil
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email models.Email) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) ValidateCredentials(ctx context.Context, email models.Email, password models.Password) error {
	if m.ValidateCredentialsFunc != nil {
		return m.ValidateCredentialsFunc(ctx, email, password)
	}
	return models.ErrNotFound
}

// MockTwoFactorStore implements TwoFactorStore for testing
type MockTwoFactorStore struct {
	IssueFunc            func(ctx context.Context, email models.Email) (string, string, error)
	VerifyAndConsumeFunc func(ctx context.Context, email models.Email, attemptID, code string) error
}

func (m *MockTwoFactorStore) Issue(ctx context.Context, email models.Email) (string, string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, email)
	}
	return "attempt-id", "123456", nil
}

func (m *MockTwoFactorStore) VerifyAndConsume(ctx context.Context, email models.Email, attemptID, code string) error {
	if m.VerifyAndConsumeFunc != nil {
		return m.VerifyAndConsumeFunc(ctx, email, attemptID, code)
	}
	return models.ErrNoPendingChallenge
}

// MockEmailNotifier implements EmailNotifier for testing
type MockEmailNotifier struct {
	SendFunc func(ctx context.Context, recipient models.Email, subject, body string) error
	Sent     []SentEmail
}

// SentEmail records one Send call
type SentEmail struct {
	Recipient models.Email
	Subject   string
	Body      string
}

func (m *MockEmailNotifier) Send(ctx context.Context, recipient models.Email, subject, body string) error {
	m.Sent = append(m.Sent, SentEmail{Recipient: recipient, Subject: subject, Body: body})
	if m.SendFunc != nil {
		return m.SendFunc(ctx, recipient, subject, body)
	}
	return nil
}
