package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/rsalgados/internal/model"
	"github.com/mmeshcher/rsalgados/internal/repository"
)

// maxPasswordBytes ограничивает длину пароля в байтах: bcrypt не принимает более длинные.
const maxPasswordBytes = 72

// Registration содержит данные для регистрации нового клиента.
type Registration struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Address  string
}

// RegisterClient создаёт пользователя с ролью CLIENT и связанный профиль клиента в одной транзакции.
func (s *Service) RegisterClient(ctx context.Context, reg Registration) (*model.Client, error) {
	email := strings.TrimSpace(reg.Email)

	if len(reg.Password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var client model.Client
	err = s.repo.InTx(ctx, func(st repository.Store) error {
		_, err := st.GetUserByEmail(ctx, email)
		if err == nil {
			return ErrDuplicateEmail
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return err
		}

		user := model.User{
			ID:           uuid.New(),
			Email:        email,
			PasswordHash: hash,
			Role:         model.RoleClient,
			Active:       true,
		}
		if err := st.CreateUser(ctx, user); err != nil {
			if errors.Is(err, repository.ErrUserExists) {
				return ErrDuplicateEmail
			}
			return err
		}

		client = model.Client{
			ID:      uuid.New(),
			Name:    reg.Name,
			Phone:   reg.Phone,
			Address: reg.Address,
			UserID:  user.ID,
		}
		return st.CreateClient(ctx, client)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client registered", zap.String("client_id", client.ID.String()))
	return &client, nil
}

// Authenticate проверяет email и пароль и возвращает пользователя.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	var user *model.User
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		u, err := st.GetUserByEmail(ctx, strings.TrimSpace(email))
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrInvalidCredentials
			}
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		// Профиль деактивированного пользователя не должен обслуживаться из кэша до истечения TTL.
		if s.cache != nil {
			s.cache.Invalidate(ctx, user.ID)
		}
		return nil, ErrInactiveUser
	}

	return user, nil
}

// Profile возвращает профиль клиента, от имени которого выполняется запрос.
func (s *Service) Profile(ctx context.Context, caller model.Caller) (*model.Client, error) {
	var client *model.Client
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		c, err := s.callerClient(ctx, st, caller)
		client = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
