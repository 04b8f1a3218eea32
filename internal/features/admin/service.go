// Package admin — service.go: проверка пароля, блокировка перебора, сессии родителей.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/common"
)

// Store — хранилище сессий и попыток (реализуется Repository).
type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	GetActiveSession(ctx context.Context, userID int64) (*Session, error)
	DeactivateSession(ctx context.Context, userID int64) error
	UpdateActivity(ctx context.Context, userID int64) error
	LogAttempt(ctx context.Context, userID int64, success bool) error
	RecentFailures(ctx context.Context, userID int64, since time.Time) (int, error)
}

// ParentChecker проверяет роль родителя (реализуется members.Service).
type ParentChecker interface {
	IsParent(ctx context.Context, userID int64) (bool, error)
}

// Service — вход родителей.
type Service struct {
	repo         Store
	parents      ParentChecker
	passwordHash string
	sessionTTL   time.Duration
	now          func() time.Time
}

// NewService создаёт сервис входа. passwordHash — PARENT_PASSWORD_HASH, ttl — срок сессии.
func NewService(repo Store, parents ParentChecker, passwordHash string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{repo: repo, parents: parents, passwordHash: passwordHash, sessionTTL: ttl, now: time.Now}
}

// Login проверяет пароль и открывает сессию.
// После MaxFailedAttempts неудач за LockoutPeriod вход блокируется.
func (s *Service) Login(ctx context.Context, userID int64, password string) (*Session, error) {
	if err := s.checkParent(ctx, userID); err != nil {
		return nil, err
	}

	failures, err := s.repo.RecentFailures(ctx, userID, s.now().Add(-LockoutPeriod))
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки попыток входа: %w", err)
	}
	if failures >= MaxFailedAttempts {
		return nil, common.ErrTooManyAttempts
	}

	match := VerifyPassword(password, s.passwordHash)
	if err := s.repo.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось записать попытку входа")
	}
	if !match {
		log.WithFields(log.Fields{"user_id": userID, "failures": failures + 1}).Warn("Неверный пароль родителя")
		return nil, common.ErrWrongPassword
	}

	session := &Session{
		UserID:       userID,
		SessionToken: generateSecureToken(),
		ExpiresAt:    s.now().Add(s.sessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	log.WithField("user_id", userID).Info("Родитель вошёл")
	return session, nil
}

// Logout закрывает сессии родителя.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.repo.DeactivateSession(ctx, userID)
}

// RequireParent возвращает nil, если пользователь родитель и его сессия действует.
// Иначе common.ErrNotParent или common.ErrSessionExpired.
func (s *Service) RequireParent(ctx context.Context, userID int64) error {
	if err := s.checkParent(ctx, userID); err != nil {
		return err
	}
	if _, err := s.repo.GetActiveSession(ctx, userID); err != nil {
		if errors.Is(err, common.ErrSessionExpired) {
			return err
		}
		return fmt.Errorf("ошибка проверки сессии: %w", err)
	}
	if err := s.repo.UpdateActivity(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось обновить активность сессии")
	}
	return nil
}

func (s *Service) checkParent(ctx context.Context, userID int64) error {
	ok, err := s.parents.IsParent(ctx, userID)
	if err != nil {
		return fmt.Errorf("проверка роли: %w", err)
	}
	if !ok {
		return common.ErrNotParent
	}
	return nil
}
