package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mmeshcher/rsalgados/internal/model"
)

// CreateOrder сохраняет заголовок заказа без позиций.
func (s *pgStore) CreateOrder(ctx context.Context, o model.Order) (err error) {
	ctx, span := s.start(ctx, "CreateOrder", attribute.String("order.id", o.ID.String()))
	defer func() { endSpan(span, err) }()

	_, err = s.q.Exec(ctx,
		`INSERT INTO orders (id, created_at, total, paid, status, client_id) VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.CreatedAt, o.Total, o.Paid, nullableStatus(o.Status), o.ClientID,
	)
	if err != nil {
		return writeErr("create order", err)
	}
	return nil
}

// GetOrder возвращает заказ вместе с позициями.
func (s *pgStore) GetOrder(ctx context.Context, id uuid.UUID) (o *model.Order, err error) {
	ctx, span := s.start(ctx, "GetOrder", attribute.String("order.id", id.String()))
	defer func() { endSpan(span, err) }()

	o, err = scanOrder(s.q.QueryRow(ctx,
		`SELECT id, created_at, total, paid, status, client_id FROM orders WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, err
	}

	items, err := s.ListItemsByOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

// UpdateOrder сохраняет сумму, признак оплаты, статус и владельца заказа.
func (s *pgStore) UpdateOrder(ctx context.Context, o model.Order) (err error) {
	ctx, span := s.start(ctx, "UpdateOrder", attribute.String("order.id", o.ID.String()))
	defer func() { endSpan(span, err) }()

	tag, err := s.q.Exec(ctx,
		`UPDATE orders SET total = $2, paid = $3, status = $4, client_id = $5 WHERE id = $1`,
		o.ID, o.Total, o.Paid, nullableStatus(o.Status), o.ClientID,
	)
	if err != nil {
		return writeErr("update order", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListOrdersByClient возвращает заказы клиента без позиций, новые первыми.
func (s *pgStore) ListOrdersByClient(ctx context.Context, clientID uuid.UUID) (orders []model.Order, err error) {
	ctx, span := s.start(ctx, "ListOrdersByClient", attribute.String("client.id", clientID.String()))
	defer func() { endSpan(span, err) }()

	rows, err := s.q.Query(ctx,
		`SELECT id, created_at, total, paid, status, client_id
		 FROM orders
		 WHERE client_id = $1
		 ORDER BY created_at DESC`,
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// DeleteOrder удаляет заголовок заказа. Позиции удаляются вызывающей стороной.
func (s *pgStore) DeleteOrder(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := s.start(ctx, "DeleteOrder", attribute.String("order.id", id.String()))
	defer func() { endSpan(span, err) }()

	tag, err := s.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// CreateItem сохраняет позицию заказа.
func (s *pgStore) CreateItem(ctx context.Context, it model.Item) (err error) {
	ctx, span := s.start(ctx, "CreateItem", attribute.String("order.id", it.OrderID.String()))
	defer func() { endSpan(span, err) }()

	_, err = s.q.Exec(ctx,
		`INSERT INTO order_items (id, order_id, description, quantity, unit_price) VALUES ($1, $2, $3, $4, $5)`,
		it.ID, it.OrderID, it.Description, it.Quantity, it.UnitPrice,
	)
	if err != nil {
		return writeErr("create item", err)
	}
	return nil
}

// GetItem возвращает позицию по идентификатору.
func (s *pgStore) GetItem(ctx context.Context, id uuid.UUID) (it *model.Item, err error) {
	ctx, span := s.start(ctx, "GetItem", attribute.String("item.id", id.String()))
	defer func() { endSpan(span, err) }()

	return scanItem(s.q.QueryRow(ctx,
		`SELECT id, order_id, description, quantity, unit_price FROM order_items WHERE id = $1`,
		id,
	))
}

// UpdateItem сохраняет количество и цену позиции.
func (s *pgStore) UpdateItem(ctx context.Context, it model.Item) (err error) {
	ctx, span := s.start(ctx, "UpdateItem", attribute.String("item.id", it.ID.String()))
	defer func() { endSpan(span, err) }()

	tag, err := s.q.Exec(ctx,
		`UPDATE order_items SET description = $2, quantity = $3, unit_price = $4 WHERE id = $1`,
		it.ID, it.Description, it.Quantity, it.UnitPrice,
	)
	if err != nil {
		return writeErr("update item", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteItem удаляет позицию заказа.
func (s *pgStore) DeleteItem(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := s.start(ctx, "DeleteItem", attribute.String("item.id", id.String()))
	defer func() { endSpan(span, err) }()

	tag, err := s.q.Exec(ctx, `DELETE FROM order_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteItemsByOrder удаляет все позиции заказа.
func (s *pgStore) DeleteItemsByOrder(ctx context.Context, orderID uuid.UUID) (err error) {
	ctx, span := s.start(ctx, "DeleteItemsByOrder", attribute.String("order.id", orderID.String()))
	defer func() { endSpan(span, err) }()

	if _, err = s.q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	return nil
}

// ListItemsByOrder возвращает позиции заказа в порядке добавления.
func (s *pgStore) ListItemsByOrder(ctx context.Context, orderID uuid.UUID) (items []model.Item, err error) {
	ctx, span := s.start(ctx, "ListItemsByOrder", attribute.String("order.id", orderID.String()))
	defer func() { endSpan(span, err) }()

	rows, err := s.q.Query(ctx,
		`SELECT id, order_id, description, quantity, unit_price
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY position`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o      model.Order
		status *string
	)
	if err := row.Scan(&o.ID, &o.CreatedAt, &o.Total, &o.Paid, &status, &o.ClientID); err != nil {
		if isNoRows(err) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if status != nil {
		o.Status = model.OrderStatus(*status)
	}
	return &o, nil
}

func scanItem(row pgx.Row) (*model.Item, error) {
	var it model.Item
	if err := row.Scan(&it.ID, &it.OrderID, &it.Description, &it.Quantity, &it.UnitPrice); err != nil {
		if isNoRows(err) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}
	return &it, nil
}

func nullableStatus(s model.OrderStatus) *string {
	if s == "" {
		return nil
	}
	v := string(s)
	return &v
}
