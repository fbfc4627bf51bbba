package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/rsalgados/internal/model"
	"github.com/mmeshcher/rsalgados/internal/validation"
)

var itemFieldRe = regexp.MustCompile(`^items\[(\d+)\]\.(description|quantity|unit_price)$`)

// parseFormItems собирает позиции из полей items[i].description, items[i].quantity
// и items[i].unit_price. Полностью пустые строки формы пропускаются.
func parseFormItems(form url.Values) ([]model.NewItem, error) {
	rows := map[int]map[string]string{}
	for key, values := range form {
		m := itemFieldRe.FindStringSubmatch(key)
		if m == nil || len(values) == 0 {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("item index %q: %w", m[1], err)
		}
		if rows[idx] == nil {
			rows[idx] = map[string]string{}
		}
		rows[idx][m[2]] = strings.TrimSpace(values[0])
	}

	indexes := make([]int, 0, len(rows))
	for idx := range rows {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	items := make([]itemRequest, 0, len(indexes))
	for _, idx := range indexes {
		row := rows[idx]
		if row["description"] == "" && row["quantity"] == "" && row["unit_price"] == "" {
			continue
		}

		var it itemRequest
		it.Description = row["description"]

		if q := row["quantity"]; q != "" {
			n, err := strconv.Atoi(q)
			if err != nil {
				return nil, fmt.Errorf("items[%d].quantity: %w", idx, err)
			}
			it.Quantity = n
		}

		if p := row["unit_price"]; p != "" {
			d, err := decimal.NewFromString(strings.ReplaceAll(p, ",", "."))
			if err != nil {
				return nil, fmt.Errorf("items[%d].unit_price: %w", idx, err)
			}
			it.UnitPrice = d
		}

		items = append(items, it)
	}

	if err := validation.Struct(createOrderRequest{Items: items}); err != nil {
		return nil, err
	}

	return toNewItems(items), nil
}

// CreateOrderForm создаёт заказ из формы. Владельцем всегда становится текущий клиент.
func (h *Handler) CreateOrderForm(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	items, err := parseFormItems(r.PostForm)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if _, err := h.service.CreateOrder(r.Context(), caller, uuid.Nil, items); err != nil {
		h.formError(w, r, "create order", err)
		return
	}

	http.Redirect(w, r, "/orders", http.StatusSeeOther)
}

// ReplaceOrderForm принимает форму редактирования заказа и заменяет его позиции.
func (h *Handler) ReplaceOrderForm(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	items, err := parseFormItems(r.PostForm)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var clientID *uuid.UUID
	if raw := strings.TrimSpace(r.PostForm.Get("client_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		clientID = &id
	}

	if _, err := h.service.ReplaceOrder(r.Context(), caller, orderID, clientID, items); err != nil {
		h.formError(w, r, "replace order", err, zap.String("order_id", orderID.String()))
		return
	}

	http.Redirect(w, r, "/orders", http.StatusSeeOther)
}

// formError отправляет неаутентифицированного пользователя на страницу входа,
// остальные ошибки отдаёт кодом статуса.
func (h *Handler) formError(w http.ResponseWriter, r *http.Request, op string, err error, fields ...zap.Field) {
	if statusFor(err) == http.StatusUnauthorized {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	h.writeError(w, op, err, fields...)
}
