package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mmeshcher/rsalgados/internal/model"
)

// Store описывает операции чтения и записи, доступные внутри транзакции.
type Store interface {
	CreateUser(ctx context.Context, u model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	CreateClient(ctx context.Context, c model.Client) error
	GetClient(ctx context.Context, id uuid.UUID) (*model.Client, error)
	GetClientByUserID(ctx context.Context, userID uuid.UUID) (*model.Client, error)

	CreateOrder(ctx context.Context, o model.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	UpdateOrder(ctx context.Context, o model.Order) error
	ListOrdersByClient(ctx context.Context, clientID uuid.UUID) ([]model.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	CreateItem(ctx context.Context, it model.Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error)
	UpdateItem(ctx context.Context, it model.Item) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	DeleteItemsByOrder(ctx context.Context, orderID uuid.UUID) error
	ListItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Item, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgStore struct {
	q      querier
	tracer trace.Tracer
}

func (s *pgStore) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "Store."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CreateUser сохраняет нового пользователя.
func (s *pgStore) CreateUser(ctx context.Context, u model.User) (err error) {
	ctx, span := s.start(ctx, "CreateUser", attribute.String("user.id", u.ID.String()))
	defer func() { endSpan(span, err) }()

	_, err = s.q.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, role, active) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, string(u.Role), u.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *pgStore) GetUserByEmail(ctx context.Context, email string) (u *model.User, err error) {
	ctx, span := s.start(ctx, "GetUserByEmail")
	defer func() { endSpan(span, err) }()

	return s.scanUser(s.q.QueryRow(ctx,
		`SELECT id, email, password_hash, role, active, created_at FROM users WHERE email = $1`,
		email,
	))
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *pgStore) GetUserByID(ctx context.Context, id uuid.UUID) (u *model.User, err error) {
	ctx, span := s.start(ctx, "GetUserByID", attribute.String("user.id", id.String()))
	defer func() { endSpan(span, err) }()

	return s.scanUser(s.q.QueryRow(ctx,
		`SELECT id, email, password_hash, role, active, created_at FROM users WHERE id = $1`,
		id,
	))
}

func (s *pgStore) scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.Active, &u.CreatedAt); err != nil {
		if isNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Role = model.Role(role)
	return &u, nil
}

// CreateClient сохраняет профиль клиента.
func (s *pgStore) CreateClient(ctx context.Context, c model.Client) (err error) {
	ctx, span := s.start(ctx, "CreateClient", attribute.String("client.id", c.ID.String()))
	defer func() { endSpan(span, err) }()

	_, err = s.q.Exec(ctx,
		`INSERT INTO clients (id, name, phone, address, user_id) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Phone, c.Address, c.UserID,
	)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// GetClient возвращает профиль клиента по идентификатору.
func (s *pgStore) GetClient(ctx context.Context, id uuid.UUID) (c *model.Client, err error) {
	ctx, span := s.start(ctx, "GetClient", attribute.String("client.id", id.String()))
	defer func() { endSpan(span, err) }()

	return scanClient(s.q.QueryRow(ctx,
		`SELECT id, name, phone, address, user_id FROM clients WHERE id = $1`,
		id,
	))
}

// GetClientByUserID возвращает профиль клиента, привязанный к пользователю.
func (s *pgStore) GetClientByUserID(ctx context.Context, userID uuid.UUID) (c *model.Client, err error) {
	ctx, span := s.start(ctx, "GetClientByUserID", attribute.String("user.id", userID.String()))
	defer func() { endSpan(span, err) }()

	return scanClient(s.q.QueryRow(ctx,
		`SELECT id, name, phone, address, user_id FROM clients WHERE user_id = $1`,
		userID,
	))
}

func scanClient(row pgx.Row) (*model.Client, error) {
	var c model.Client
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.UserID); err != nil {
		if isNoRows(err) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}
