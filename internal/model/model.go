// Package model содержит доменные сущности сервиса заказов закусок.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role описывает роль пользователя.
type Role string

const (
	RoleClient Role = "CLIENT"
	RoleAdmin  Role = "ADMIN"
)

// User представляет учётную запись для входа в систему.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash []byte
	Role         Role
	Active       bool
	CreatedAt    time.Time
}

// Client представляет профиль покупателя, привязанный к пользователю один к одному.
type Client struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone"`
	Address string    `json:"address"`
	UserID  uuid.UUID `json:"user_id"`
}

// OrderStatus описывает этап жизненного цикла заказа.
type OrderStatus string

const (
	OrderStatusCreated      OrderStatus = "CREATED"
	OrderStatusInProduction OrderStatus = "IN_PRODUCTION"
	OrderStatusReady        OrderStatus = "READY"
	OrderStatusDelivered    OrderStatus = "DELIVERED"
	OrderStatusCanceled     OrderStatus = "CANCELED"
)

// Effective возвращает статус с учётом того, что пустой статус считается CREATED.
func (s OrderStatus) Effective() OrderStatus {
	if s == "" {
		return OrderStatusCreated
	}
	return s
}

// Editable сообщает, можно ли менять позиции заказа в этом статусе.
func (s OrderStatus) Editable() bool {
	switch s.Effective() {
	case OrderStatusCreated, OrderStatusInProduction:
		return true
	default:
		return false
	}
}

// Item описывает позицию заказа.
type Item struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Subtotal возвращает стоимость позиции: количество, умноженное на цену за единицу.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// WithQuantityAndPrice возвращает копию позиции с новыми количеством и ценой.
func (i Item) WithQuantityAndPrice(quantity int, price decimal.Decimal) Item {
	i.Quantity = quantity
	i.UnitPrice = price
	return i
}

// NewItem описывает позицию, переданную клиентом, до сохранения.
type NewItem struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// MoneyScale задаёт число знаков после запятой, с которым хранятся цены и суммы.
const MoneyScale = 2

// Normalized возвращает копию позиции с ценой, округлённой до MoneyScale знаков,
// как её сохранит база данных.
func (n NewItem) Normalized() NewItem {
	n.UnitPrice = n.UnitPrice.Round(MoneyScale)
	return n
}

// NormalizeItems применяет Normalized к каждой позиции.
func NormalizeItems(items []NewItem) []NewItem {
	res := make([]NewItem, 0, len(items))
	for _, it := range items {
		res = append(res, it.Normalized())
	}
	return res
}

// Subtotal возвращает стоимость позиции из входных данных.
func (n NewItem) Subtotal() decimal.Decimal {
	return n.UnitPrice.Mul(decimal.NewFromInt(int64(n.Quantity)))
}

// Order описывает заказ: корень агрегата вместе с позициями.
type Order struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Total     decimal.Decimal
	Paid      bool
	Status    OrderStatus
	ClientID  uuid.UUID
	Items     []Item
}

// WithTotal возвращает копию заказа с новой суммой.
func (o Order) WithTotal(total decimal.Decimal) Order {
	o.Total = total
	return o
}

// WithPaid возвращает копию заказа с новым признаком оплаты.
func (o Order) WithPaid(paid bool) Order {
	o.Paid = paid
	return o
}

// WithClient возвращает копию заказа с новым владельцем.
func (o Order) WithClient(clientID uuid.UUID) Order {
	o.ClientID = clientID
	return o
}

// OrderSummary описывает заказ в списке без позиций.
type OrderSummary struct {
	ID     uuid.UUID
	Date   string
	Total  decimal.Decimal
	Paid   bool
	Status OrderStatus
}

// SummaryDateLayout задаёт формат даты в списке заказов.
const SummaryDateLayout = "02/01/2006 15:04"

// Summary возвращает краткое представление заказа.
func (o Order) Summary() OrderSummary {
	var date string
	if !o.CreatedAt.IsZero() {
		date = o.CreatedAt.Format(SummaryDateLayout)
	}
	return OrderSummary{
		ID:     o.ID,
		Date:   date,
		Total:  o.Total,
		Paid:   o.Paid,
		Status: o.Status.Effective(),
	}
}

// Caller описывает пользователя, от имени которого выполняется запрос.
type Caller struct {
	UserID uuid.UUID
	Role   Role
}

// SumItems возвращает сумму стоимостей сохранённых позиций.
func SumItems(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// SumNewItems возвращает сумму стоимостей позиций из входных данных.
func SumNewItems(items []NewItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
