package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/rsalgados/internal/model"
	"github.com/mmeshcher/rsalgados/internal/repository"
)

// CreateOrder создаёт заказ со статусом CREATED и переданными позициями.
// clientID должен быть uuid.Nil или идентификатором клиента вызывающего: неизвестный
// клиент даёт ErrClientNotFound, чужой ErrOwnershipMismatch.
// Сумма заказа считается по входным позициям.
func (s *Service) CreateOrder(ctx context.Context, caller model.Caller, clientID uuid.UUID, items []model.NewItem) (*model.Order, error) {
	items = model.NormalizeItems(items)

	var order model.Order
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		self, err := s.callerClient(ctx, st, caller)
		if err != nil {
			return err
		}

		if clientID != uuid.Nil && clientID != self.ID {
			if _, err := st.GetClient(ctx, clientID); err != nil {
				return err
			}
			return ErrOwnershipMismatch
		}

		order = model.Order{
			ID:        uuid.New(),
			CreatedAt: s.now().UTC(),
			Status:    model.OrderStatusCreated,
			ClientID:  self.ID,
		}
		if err := st.CreateOrder(ctx, order); err != nil {
			return err
		}

		saved, err := createItems(ctx, st, order.ID, items)
		if err != nil {
			return err
		}

		order = order.WithTotal(model.SumNewItems(items))
		order.Items = saved
		return st.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return &order, nil
}

// GetOrder возвращает заказ вызывающего клиента вместе с позициями.
func (s *Service) GetOrder(ctx context.Context, caller model.Caller, orderID uuid.UUID) (*model.Order, error) {
	var order *model.Order
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		client, err := s.callerClient(ctx, st, caller)
		if err != nil {
			return err
		}
		order, err = ownedOrder(ctx, st, client, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// MarkPaid отмечает заказ оплаченным. Повторный вызов не является ошибкой.
func (s *Service) MarkPaid(ctx context.Context, caller model.Caller, orderID uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		client, err := s.callerClient(ctx, st, caller)
		if err != nil {
			return err
		}
		loaded, err := ownedOrder(ctx, st, client, orderID)
		if err != nil {
			return err
		}
		order = loaded.WithPaid(true)
		return st.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// AddItem добавляет позицию в заказ и пересчитывает сумму.
func (s *Service) AddItem(ctx context.Context, caller model.Caller, orderID uuid.UUID, in model.NewItem) (*model.Item, error) {
	in = in.Normalized()

	var item model.Item
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		order, err := s.editableOrder(ctx, st, caller, orderID)
		if err != nil {
			return err
		}
		if in.Quantity <= 0 {
			return ErrInvalidQuantity
		}

		item = model.Item{
			ID:          uuid.New(),
			OrderID:     order.ID,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
		}
		if err := st.CreateItem(ctx, item); err != nil {
			return err
		}

		_, err = recalcTotal(ctx, st, *order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem меняет количество и цену позиции. Количество меньше или равное нулю
// удаляет позицию; в этом случае возвращается removed == true и nil вместо позиции.
func (s *Service) UpdateItem(ctx context.Context, caller model.Caller, orderID, itemID uuid.UUID, in model.NewItem) (*model.Item, bool, error) {
	in = in.Normalized()

	var (
		item    model.Item
		removed bool
	)
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		order, err := s.editableOrder(ctx, st, caller, orderID)
		if err != nil {
			return err
		}
		current, err := orderItem(ctx, st, order, itemID)
		if err != nil {
			return err
		}

		removed = in.Quantity <= 0
		if removed {
			if err := st.DeleteItem(ctx, current.ID); err != nil {
				return err
			}
		} else {
			item = current.WithQuantityAndPrice(in.Quantity, in.UnitPrice)
			if err := st.UpdateItem(ctx, item); err != nil {
				return err
			}
		}

		_, err = recalcTotal(ctx, st, *order)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if removed {
		return nil, true, nil
	}
	return &item, false, nil
}

// RemoveItem удаляет позицию из заказа и пересчитывает сумму.
func (s *Service) RemoveItem(ctx context.Context, caller model.Caller, orderID, itemID uuid.UUID) error {
	return s.repo.InTx(ctx, func(st repository.Store) error {
		order, err := s.editableOrder(ctx, st, caller, orderID)
		if err != nil {
			return err
		}
		item, err := orderItem(ctx, st, order, itemID)
		if err != nil {
			return err
		}
		if err := st.DeleteItem(ctx, item.ID); err != nil {
			return err
		}

		_, err = recalcTotal(ctx, st, *order)
		return err
	})
}

// ReplaceOrder заменяет все позиции заказа и при необходимости переназначает владельца.
// Заказ загружается только по идентификатору: владелец, статус и количество не проверяются.
func (s *Service) ReplaceOrder(ctx context.Context, caller model.Caller, orderID uuid.UUID, clientID *uuid.UUID, items []model.NewItem) (*model.Order, error) {
	items = model.NormalizeItems(items)

	var order model.Order
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		if _, err := s.callerClient(ctx, st, caller); err != nil {
			return err
		}

		loaded, err := st.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := st.DeleteItemsByOrder(ctx, loaded.ID); err != nil {
			return err
		}

		order = *loaded
		if clientID != nil {
			owner, err := st.GetClient(ctx, *clientID)
			if err != nil {
				return err
			}
			order = order.WithClient(owner.ID)
		}

		if _, err := createItems(ctx, st, order.ID, items); err != nil {
			return err
		}

		order, err = recalcTotal(ctx, st, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order replaced",
		zap.String("order_id", order.ID.String()),
		zap.String("caller", caller.UserID.String()),
	)
	return &order, nil
}

// ListOrders возвращает краткие представления заказов вызывающего клиента.
func (s *Service) ListOrders(ctx context.Context, caller model.Caller) ([]model.OrderSummary, error) {
	var orders []model.Order
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		client, err := s.callerClient(ctx, st, caller)
		if err != nil {
			return err
		}
		orders, err = st.ListOrdersByClient(ctx, client.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	res := make([]model.OrderSummary, 0, len(orders))
	for _, o := range orders {
		res = append(res, o.Summary())
	}
	return res, nil
}

// DeleteOrder удаляет заказ вызывающего клиента вместе с позициями.
func (s *Service) DeleteOrder(ctx context.Context, caller model.Caller, orderID uuid.UUID) error {
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		order, err := s.editableOrder(ctx, st, caller, orderID)
		if err != nil {
			return err
		}
		if err := st.DeleteItemsByOrder(ctx, order.ID); err != nil {
			return err
		}
		return st.DeleteOrder(ctx, order.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("order deleted", zap.String("order_id", orderID.String()))
	return nil
}

func (s *Service) editableOrder(ctx context.Context, st repository.Store, caller model.Caller, orderID uuid.UUID) (*model.Order, error) {
	client, err := s.callerClient(ctx, st, caller)
	if err != nil {
		return nil, err
	}
	order, err := ownedOrder(ctx, st, client, orderID)
	if err != nil {
		return nil, err
	}
	if err := ensureEditable(order); err != nil {
		return nil, err
	}
	return order, nil
}

func createItems(ctx context.Context, st repository.Store, orderID uuid.UUID, items []model.NewItem) ([]model.Item, error) {
	saved := make([]model.Item, 0, len(items))
	for _, in := range items {
		item := model.Item{
			ID:          uuid.New(),
			OrderID:     orderID,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
		}
		if err := st.CreateItem(ctx, item); err != nil {
			return nil, err
		}
		saved = append(saved, item)
	}
	return saved, nil
}
