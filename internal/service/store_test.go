package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mmeshcher/rsalgados/internal/model"
	"github.com/mmeshcher/rsalgados/internal/repository"
)

// memState хранит данные in-memory хранилища для тестов.
type memState struct {
	users   map[uuid.UUID]model.User
	clients map[uuid.UUID]model.Client
	orders  map[uuid.UUID]model.Order
	items   map[uuid.UUID]model.Item
	// порядок вставки позиций
	itemSeq []uuid.UUID
}

func newMemState() *memState {
	return &memState{
		users:   map[uuid.UUID]model.User{},
		clients: map[uuid.UUID]model.Client{},
		orders:  map[uuid.UUID]model.Order{},
		items:   map[uuid.UUID]model.Item{},
	}
}

func (m *memState) clone() *memState {
	c := newMemState()
	for k, v := range m.users {
		c.users[k] = v
	}
	for k, v := range m.clients {
		c.clients[k] = v
	}
	for k, v := range m.orders {
		c.orders[k] = v
	}
	for k, v := range m.items {
		c.items[k] = v
	}
	c.itemSeq = append([]uuid.UUID(nil), m.itemSeq...)
	return c
}

// stubRepo реализует Repository: каждая транзакция работает с копией состояния
// и публикует её только при успехе.
type stubRepo struct {
	mu     sync.Mutex
	state  *memState
	writes int
}

func newStubRepo() *stubRepo {
	return &stubRepo{state: newMemState()}
}

func (r *stubRepo) Close() error { return nil }

func (r *stubRepo) Ping(ctx context.Context) error { return nil }

func (r *stubRepo) InTx(ctx context.Context, fn func(repository.Store) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := &memStore{s: r.state.clone()}
	if err := fn(st); err != nil {
		return err
	}
	r.state = st.s
	r.writes += st.writes
	return nil
}

type memStore struct {
	s      *memState
	writes int
}

func (m *memStore) CreateUser(ctx context.Context, u model.User) error {
	for _, existing := range m.s.users {
		if existing.Email == u.Email {
			return repository.ErrUserExists
		}
	}
	m.writes++
	m.s.users[u.ID] = u
	return nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range m.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := m.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (m *memStore) CreateClient(ctx context.Context, c model.Client) error {
	m.writes++
	m.s.clients[c.ID] = c
	return nil
}

func (m *memStore) GetClient(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	c, ok := m.s.clients[id]
	if !ok {
		return nil, repository.ErrClientNotFound
	}
	return &c, nil
}

func (m *memStore) GetClientByUserID(ctx context.Context, userID uuid.UUID) (*model.Client, error) {
	for _, c := range m.s.clients {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, repository.ErrClientNotFound
}

func (m *memStore) CreateOrder(ctx context.Context, o model.Order) error {
	m.writes++
	o.Items = nil
	m.s.orders[o.ID] = o
	return nil
}

func (m *memStore) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := m.s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	items, _ := m.ListItemsByOrder(ctx, id)
	o.Items = items
	return &o, nil
}

func (m *memStore) UpdateOrder(ctx context.Context, o model.Order) error {
	if _, ok := m.s.orders[o.ID]; !ok {
		return repository.ErrOrderNotFound
	}
	m.writes++
	o.Items = nil
	m.s.orders[o.ID] = o
	return nil
}

func (m *memStore) ListOrdersByClient(ctx context.Context, clientID uuid.UUID) ([]model.Order, error) {
	var res []model.Order
	for _, o := range m.s.orders {
		if o.ClientID == clientID {
			res = append(res, o)
		}
	}
	return res, nil
}

func (m *memStore) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.s.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	m.writes++
	delete(m.s.orders, id)
	return nil
}

func (m *memStore) CreateItem(ctx context.Context, it model.Item) error {
	m.writes++
	m.s.items[it.ID] = it
	m.s.itemSeq = append(m.s.itemSeq, it.ID)
	return nil
}

func (m *memStore) GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	it, ok := m.s.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	return &it, nil
}

func (m *memStore) UpdateItem(ctx context.Context, it model.Item) error {
	if _, ok := m.s.items[it.ID]; !ok {
		return repository.ErrItemNotFound
	}
	m.writes++
	m.s.items[it.ID] = it
	return nil
}

func (m *memStore) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.s.items[id]; !ok {
		return repository.ErrItemNotFound
	}
	m.writes++
	delete(m.s.items, id)
	return nil
}

func (m *memStore) DeleteItemsByOrder(ctx context.Context, orderID uuid.UUID) error {
	for id, it := range m.s.items {
		if it.OrderID == orderID {
			m.writes++
			delete(m.s.items, id)
		}
	}
	return nil
}

func (m *memStore) ListItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Item, error) {
	var res []model.Item
	for _, id := range m.s.itemSeq {
		it, ok := m.s.items[id]
		if ok && it.OrderID == orderID {
			res = append(res, it)
		}
	}
	return res, nil
}
