// Package service реализует бизнес-логику сервиса заказов: регистрацию клиентов,
// аутентификацию и работу с агрегатом заказа.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/rsalgados/internal/model"
	"github.com/mmeshcher/rsalgados/internal/repository"
)

var (
	// ErrNotAuthenticated возвращается, если вызывающий не определён.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrWrongRole возвращается, если вызывающий не является клиентом.
	ErrWrongRole = errors.New("caller is not a client")
	// ErrInactiveUser возвращается для деактивированной учётной записи.
	ErrInactiveUser = errors.New("user is inactive")
	// ErrInvalidCredentials возвращается при неверном email или пароле.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateEmail возвращается, если email уже зарегистрирован.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrOwnershipMismatch возвращается, если заказ принадлежит другому клиенту.
	ErrOwnershipMismatch = errors.New("order belongs to another client")
	// ErrItemMismatch возвращается, если позиция не относится к заказу.
	ErrItemMismatch = errors.New("item does not belong to order")
	// ErrNotEditable возвращается, если статус заказа запрещает изменения.
	ErrNotEditable = errors.New("order cannot be changed")
	// ErrInvalidQuantity возвращается при количестве меньше или равном нулю.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrPasswordTooLong возвращается, если пароль длиннее 72 байт, которые учитывает bcrypt.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

	ErrClientNotFound = repository.ErrClientNotFound
	ErrOrderNotFound  = repository.ErrOrderNotFound
	ErrItemNotFound   = repository.ErrItemNotFound

	// ErrValueOutOfRange возвращается, если цена или сумма заказа не помещается в хранилище.
	ErrValueOutOfRange = repository.ErrValueOutOfRange
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	Ping(ctx context.Context) error
	InTx(ctx context.Context, fn func(repository.Store) error) error
}

// ClientCache хранит профиль клиента, уже прошедший проверку роли, по идентификатору пользователя.
type ClientCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.Client, bool)
	Set(ctx context.Context, userID uuid.UUID, c *model.Client)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// Service содержит бизнес-логику сервиса заказов.
type Service struct {
	repo   Repository
	cache  ClientCache
	logger *zap.Logger
	now    func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithClientCache подключает кэш профилей клиентов.
func WithClientCache(c ClientCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// callerClient определяет профиль клиента, от имени которого выполняется запрос.
func (s *Service) callerClient(ctx context.Context, st repository.Store, caller model.Caller) (*model.Client, error) {
	if caller.UserID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}

	if s.cache != nil {
		if c, ok := s.cache.Get(ctx, caller.UserID); ok {
			return c, nil
		}
	}

	user, err := st.GetUserByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	if !user.Active {
		return nil, ErrInactiveUser
	}
	if user.Role != model.RoleClient {
		return nil, fmt.Errorf("%w: %s", ErrWrongRole, user.Role)
	}

	client, err := st.GetClientByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, caller.UserID, client)
	}

	return client, nil
}

// ownedOrder загружает заказ и проверяет, что он принадлежит клиенту.
func ownedOrder(ctx context.Context, st repository.Store, client *model.Client, orderID uuid.UUID) (*model.Order, error) {
	order, err := st.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientID != client.ID {
		return nil, ErrOwnershipMismatch
	}
	return order, nil
}

func ensureEditable(order *model.Order) error {
	if !order.Status.Editable() {
		return fmt.Errorf("%w: status %s", ErrNotEditable, order.Status.Effective())
	}
	return nil
}

// orderItem загружает позицию и проверяет её принадлежность заказу.
func orderItem(ctx context.Context, st repository.Store, order *model.Order, itemID uuid.UUID) (*model.Item, error) {
	item, err := st.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OrderID != order.ID {
		return nil, ErrItemMismatch
	}
	return item, nil
}

// recalcTotal перечитывает сохранённые позиции заказа и записывает их сумму в заказ.
func recalcTotal(ctx context.Context, st repository.Store, order model.Order) (model.Order, error) {
	items, err := st.ListItemsByOrder(ctx, order.ID)
	if err != nil {
		return order, err
	}

	updated := order.WithTotal(model.SumItems(items))
	updated.Items = items

	if err := st.UpdateOrder(ctx, updated); err != nil {
		return order, err
	}
	return updated, nil
}
