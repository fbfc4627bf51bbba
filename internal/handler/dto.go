package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/rsalgados/internal/model"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"required,max=120"`
	Phone    string `json:"phone" validate:"max=30"`
	Address  string `json:"address" validate:"max=255"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type itemRequest struct {
	Description string          `json:"description" validate:"max=255"`
	Quantity    int             `json:"quantity" validate:"lte=10000"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0,lte=9999999.99"`
}

func (i itemRequest) toModel() model.NewItem {
	return model.NewItem{
		Description: i.Description,
		Quantity:    i.Quantity,
		UnitPrice:   i.UnitPrice,
	}
}

type createOrderRequest struct {
	Items []itemRequest `json:"items" validate:"dive"`
}

type replaceOrderRequest struct {
	ClientID *uuid.UUID   `json:"client_id,omitempty"`
	Items    []itemRequest `json:"items" validate:"dive"`
}

func toNewItems(in []itemRequest) []model.NewItem {
	res := make([]model.NewItem, 0, len(in))
	for _, it := range in {
		res = append(res, it.toModel())
	}
	return res
}

type itemResponse struct {
	ID          uuid.UUID   `json:"id"`
	OrderID     uuid.UUID   `json:"order_id"`
	Description string      `json:"description"`
	Quantity    int         `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
	Subtotal    json.Number `json:"subtotal"`
}

type orderResponse struct {
	ID        uuid.UUID      `json:"id"`
	CreatedAt string         `json:"created_at"`
	Total     json.Number    `json:"total"`
	Paid      bool           `json:"paid"`
	Status    string         `json:"status"`
	ClientID  uuid.UUID      `json:"client_id"`
	Items     []itemResponse `json:"items"`
}

type orderSummaryResponse struct {
	ID     uuid.UUID   `json:"id"`
	Date   string      `json:"date"`
	Total  json.Number `json:"total"`
	Paid   bool        `json:"paid"`
	Status string      `json:"status"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func toItemResponse(it model.Item) itemResponse {
	return itemResponse{
		ID:          it.ID,
		OrderID:     it.OrderID,
		Description: it.Description,
		Quantity:    it.Quantity,
		UnitPrice:   money(it.UnitPrice),
		Subtotal:    money(it.Subtotal()),
	}
}

func toOrderResponse(o *model.Order) orderResponse {
	items := make([]itemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, toItemResponse(it))
	}

	var createdAt string
	if !o.CreatedAt.IsZero() {
		createdAt = o.CreatedAt.Format(time.RFC3339)
	}

	return orderResponse{
		ID:        o.ID,
		CreatedAt: createdAt,
		Total:     money(o.Total),
		Paid:      o.Paid,
		Status:    string(o.Status.Effective()),
		ClientID:  o.ClientID,
		Items:     items,
	}
}

func toSummaryResponse(s model.OrderSummary) orderSummaryResponse {
	return orderSummaryResponse{
		ID:     s.ID,
		Date:   s.Date,
		Total:  money(s.Total),
		Paid:   s.Paid,
		Status: string(s.Status),
	}
}
