// Package members — service.go: регистрация участников и проверка роли родителя.
package members

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/common"
)

// Store — хранилище участников (реализуется Repository).
type Store interface {
	Create(ctx context.Context, m *Member) error
	GetByUserID(ctx context.Context, userID int64) (*Member, error)
	GetByUsername(ctx context.Context, username string) (*Member, error)
	Exists(ctx context.Context, userID int64) (bool, error)
	UpdateInfo(ctx context.Context, userID int64, info UpdateInfo) error
	SetParent(ctx context.Context, userID int64, isParent bool) error
	ListChildren(ctx context.Context) ([]*Member, error)
	ListParents(ctx context.Context) ([]*Member, error)
}

// Service управляет участниками семьи.
type Service struct {
	repo      Store
	parentIDs map[int64]bool // Родители из PARENT_IDS
}

// NewService создаёт сервис участников. parentIDs — Telegram ID родителей из конфига.
func NewService(repo Store, parentIDs []int64) *Service {
	ids := make(map[int64]bool, len(parentIDs))
	for _, id := range parentIDs {
		ids[id] = true
	}
	return &Service{repo: repo, parentIDs: ids}
}

// HandleNewMember регистрирует участника или обновляет данные вернувшегося.
func (s *Service) HandleNewMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	existing, err := s.repo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrUserNotFound) {
		return err
	}
	if existing != nil {
		log.WithField("user_id", userID).Info("Участник уже зарегистрирован, обновляем данные")
		return s.repo.UpdateInfo(ctx, userID, UpdateInfo{
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
		})
	}

	member := &Member{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		IsParent:  s.parentIDs[userID],
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return fmt.Errorf("ошибка регистрации нового участника: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":   userID,
		"username":  username,
		"is_parent": member.IsParent,
	}).Info("Новый участник зарегистрирован")
	return nil
}

// EnsureMember гарантирует, что пользователь есть в базе.
func (s *Service) EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.HandleNewMember(ctx, userID, username, firstName, lastName)
}

// SyncParents приводит флаг is_parent в соответствие с PARENT_IDS для уже известных участников.
func (s *Service) SyncParents(ctx context.Context) error {
	for id := range s.parentIDs {
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		if err := s.repo.SetParent(ctx, id, true); err != nil {
			return err
		}
	}
	return nil
}

// IsMember проверяет, зарегистрирован ли пользователь.
func (s *Service) IsMember(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// IsParent сообщает, является ли пользователь родителем.
// Родитель из PARENT_IDS считается родителем, даже если ещё не писал боту.
func (s *Service) IsParent(ctx context.Context, userID int64) (bool, error) {
	if s.parentIDs[userID] {
		return true, nil
	}
	m, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return m.IsParent, nil
}

// GetByUserID возвращает участника по Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByUsername возвращает участника по @username (с @ или без).
func (s *Service) GetByUsername(ctx context.Context, username string) (*Member, error) {
	if len(username) > 0 && username[0] == '@' {
		username = username[1:]
	}
	return s.repo.GetByUsername(ctx, username)
}

// ListChildren возвращает детей — тех, кто зарабатывает искры.
func (s *Service) ListChildren(ctx context.Context) ([]*Member, error) {
	return s.repo.ListChildren(ctx)
}

// ListParents возвращает родителей — им приходят уведомления о заявках.
func (s *Service) ListParents(ctx context.Context) ([]*Member, error) {
	return s.repo.ListParents(ctx)
}
