package handler

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateOrder создаёт заказ текущего клиента.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), caller, uuid.Nil, toNewItems(req.Items))
	if err != nil {
		h.writeError(w, "create order", err, zap.String("user_id", caller.UserID.String()))
		return
	}

	h.writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// ListOrders возвращает краткий список заказов текущего клиента.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), caller)
	if err != nil {
		h.writeError(w, "list orders", err, zap.String("user_id", caller.UserID.String()))
		return
	}

	resp := make([]orderSummaryResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toSummaryResponse(o))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetOrder возвращает заказ текущего клиента вместе с позициями.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), caller, orderID)
	if err != nil {
		h.writeError(w, "get order", err, zap.String("order_id", orderID.String()))
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// MarkPaid отмечает заказ оплаченным.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.service.MarkPaid(r.Context(), caller, orderID)
	if err != nil {
		h.writeError(w, "mark paid", err, zap.String("order_id", orderID.String()))
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// ReplaceOrder заменяет позиции заказа и, если передан client_id, его владельца.
func (h *Handler) ReplaceOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req replaceOrderRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.service.ReplaceOrder(r.Context(), caller, orderID, req.ClientID, toNewItems(req.Items)); err != nil {
		h.writeError(w, "replace order", err, zap.String("order_id", orderID.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteOrder удаляет заказ вместе с позициями.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(r.Context(), caller, orderID); err != nil {
		h.writeError(w, "delete order", err, zap.String("order_id", orderID.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddItem добавляет позицию в заказ.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req itemRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	item, err := h.service.AddItem(r.Context(), caller, orderID, req.toModel())
	if err != nil {
		h.writeError(w, "add item", err, zap.String("order_id", orderID.String()))
		return
	}

	h.writeJSON(w, http.StatusCreated, toItemResponse(*item))
}

// UpdateItem меняет позицию заказа. Если позиция удалена из-за нулевого количества, отвечает 204.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}

	var req itemRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	item, removed, err := h.service.UpdateItem(r.Context(), caller, orderID, itemID, req.toModel())
	if err != nil {
		h.writeError(w, "update item", err, zap.String("order_id", orderID.String()), zap.String("item_id", itemID.String()))
		return
	}

	if removed {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, toItemResponse(*item))
}

// RemoveItem удаляет позицию заказа.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}

	if err := h.service.RemoveItem(r.Context(), caller, orderID, itemID); err != nil {
		h.writeError(w, "remove item", err, zap.String("order_id", orderID.String()), zap.String("item_id", itemID.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
