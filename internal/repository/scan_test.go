package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/rsalgados/internal/model"
)

// fakeRow отдаёт заранее заданные значения колонок так же, как pgx.Row.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(r.values))
	}

	for i, d := range dest {
		v := r.values[i]
		switch p := d.(type) {
		case *uuid.UUID:
			*p = v.(uuid.UUID)
		case *time.Time:
			*p = v.(time.Time)
		case *decimal.Decimal:
			if err := p.Scan(v); err != nil {
				return fmt.Errorf("scan decimal: %w", err)
			}
		case *bool:
			*p = v.(bool)
		case *int:
			*p = v.(int)
		case *string:
			*p = v.(string)
		case **string:
			if v == nil {
				*p = nil
			} else {
				s := v.(string)
				*p = &s
			}
		default:
			return fmt.Errorf("unsupported destination %T", d)
		}
	}
	return nil
}

func TestScanOrder(t *testing.T) {
	id, clientID := uuid.New(), uuid.New()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status any
		want   model.OrderStatus
	}{
		{name: "null status", status: nil, want: ""},
		{name: "stored status", status: "READY", want: model.OrderStatusReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := scanOrder(fakeRow{values: []any{id, created, "12.50", true, tt.status, clientID}})
			require.NoError(t, err)

			assert.Equal(t, id, o.ID)
			assert.Equal(t, tt.want, o.Status)
			assert.True(t, decimal.RequireFromString("12.5").Equal(o.Total))
			assert.True(t, o.Paid)
			assert.Equal(t, clientID, o.ClientID)
		})
	}

	t.Run("null status is editable", func(t *testing.T) {
		o, err := scanOrder(fakeRow{values: []any{id, created, "0", false, nil, clientID}})
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCreated, o.Status.Effective())
		assert.True(t, o.Status.Editable())
	})

	t.Run("no rows", func(t *testing.T) {
		_, err := scanOrder(fakeRow{err: pgx.ErrNoRows})
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("other error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := scanOrder(fakeRow{err: boom})
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestScanItem(t *testing.T) {
	id, orderID := uuid.New(), uuid.New()

	it, err := scanItem(fakeRow{values: []any{id, orderID, "Coxinha", 3, "4.25"}})
	require.NoError(t, err)
	assert.Equal(t, "Coxinha", it.Description)
	assert.Equal(t, 3, it.Quantity)
	assert.Equal(t, "12.75", it.Subtotal().StringFixed(2))

	_, err = scanItem(fakeRow{err: pgx.ErrNoRows})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestNullableStatusRoundTrip(t *testing.T) {
	id, clientID := uuid.New(), uuid.New()

	for _, status := range []model.OrderStatus{"", model.OrderStatusInProduction} {
		var stored any
		if p := nullableStatus(status); p != nil {
			stored = *p
		}

		o, err := scanOrder(fakeRow{values: []any{id, time.Now(), "1", false, stored, clientID}})
		require.NoError(t, err)
		assert.Equal(t, status, o.Status)
	}
}

func TestWriteErr(t *testing.T) {
	overflow := &pgconn.PgError{Code: pgerrcode.NumericValueOutOfRange}
	err := writeErr("update order", overflow)
	assert.ErrorIs(t, err, ErrValueOutOfRange)
	assert.Contains(t, err.Error(), "update order")

	other := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}
	err = writeErr("create item", other)
	assert.NotErrorIs(t, err, ErrValueOutOfRange)
	assert.ErrorIs(t, err, other)
}
