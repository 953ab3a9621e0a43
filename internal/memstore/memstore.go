// Package memstore is an in-memory inventory store. It keeps every record
// in maps behind one RWMutex and cannot run multi-step transactions; the
// inventory core compensates for it instead.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/erazemk/skladisca/internal/inventory"
	"github.com/erazemk/skladisca/internal/model"
)

// Store holds items, warehouses, users, movements and requests in memory.
type Store struct {
	mu sync.RWMutex

	now func() time.Time

	items      map[int64]*model.Item
	warehouses map[int64]*model.Warehouse
	users      map[int64]*model.User
	movements  []model.Movement
	requests   map[int64]*model.Request

	nextItem      int64
	nextWarehouse int64
	nextUser      int64
	nextMovement  int64
	nextRequest   int64
}

var _ inventory.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		now:        time.Now,
		items:      make(map[int64]*model.Item),
		warehouses: make(map[int64]*model.Warehouse),
		users:      make(map[int64]*model.User),
		requests:   make(map[int64]*model.Request),
	}
}

// AddWarehouse creates a warehouse.
func (s *Store) AddWarehouse(name, address string) *model.Warehouse {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextWarehouse++
	w := &model.Warehouse{ID: s.nextWarehouse, Name: name, Address: address, CreatedAt: s.now()}
	s.warehouses[w.ID] = w
	c := *w
	return &c
}

// AddUser creates a user.
func (s *Store) AddUser(username, role string) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUser++
	u := &model.User{ID: s.nextUser, Username: username, Role: role, CreatedAt: s.now()}
	s.users[u.ID] = u
	c := *u
	return &c
}

// Movements returns every recorded movement in insertion order.
func (s *Store) Movements() []model.Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Movement(nil), s.movements...)
}

// Items returns every active item ordered by ID.
func (s *Store) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Item, 0, len(s.items))
	for _, it := range s.items {
		if it.DeletedAt == nil {
			items = append(items, *it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (s *Store) GetItem(_ context.Context, id int64) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok || it.DeletedAt != nil {
		return nil, nil
	}
	return s.itemCopy(it), nil
}

func (s *Store) FindItem(_ context.Context, name string, warehouseID int64) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *model.Item
	for _, it := range s.items {
		if it.DeletedAt != nil || it.Name != name || !it.InWarehouse(warehouseID) {
			continue
		}
		if found == nil || it.ID < found.ID {
			found = it
		}
	}
	if found == nil {
		return nil, nil
	}
	return s.itemCopy(found), nil
}

func (s *Store) CreateItem(_ context.Context, item *model.Item) (*model.Item, error) {
	if item.Quantity < 0 {
		return nil, fmt.Errorf("creating item: negative quantity %d", item.Quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItem++
	it := *item
	it.ID = s.nextItem
	if it.WarehouseID != nil {
		id := *it.WarehouseID
		it.WarehouseID = &id
	}
	it.CreatedAt = s.now()
	it.UpdatedAt = it.CreatedAt
	s.items[it.ID] = &it
	return s.itemCopy(&it), nil
}

func (s *Store) DecrementQuantity(_ context.Context, itemID, warehouseID int64, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[itemID]
	if !ok || it.DeletedAt != nil || !it.InWarehouse(warehouseID) || it.Quantity < quantity {
		return false, nil
	}
	it.Quantity -= quantity
	it.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) IncrementQuantity(_ context.Context, itemID int64, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[itemID]
	if !ok || it.DeletedAt != nil {
		return false, nil
	}
	it.Quantity += quantity
	it.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) CreateMovement(_ context.Context, m *model.Movement) (*model.Movement, error) {
	if m.Quantity <= 0 {
		return nil, fmt.Errorf("recording movement: quantity %d is not positive", m.Quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMovement++
	c := *m
	c.ID = s.nextMovement
	if it, ok := s.items[c.ItemID]; ok {
		c.ItemName = it.Name
	}
	if w, ok := s.warehouses[c.FromWarehouseID]; ok {
		c.FromWarehouseName = w.Name
	}
	if w, ok := s.warehouses[c.ToWarehouseID]; ok {
		c.ToWarehouseName = w.Name
	}
	s.movements = append(s.movements, c)
	return &c, nil
}

func (s *Store) GetWarehouse(_ context.Context, id int64) (*model.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.warehouses[id]
	if !ok || w.DeletedAt != nil {
		return nil, nil
	}
	c := *w
	return &c, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (s *Store) CreateRequest(_ context.Context, r *model.Request) (*model.Request, error) {
	if !r.Status.Valid() {
		return nil, fmt.Errorf("creating request: invalid status %d", int(r.Status))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRequest++
	c := *r
	c.ID = s.nextRequest
	s.requests[c.ID] = &c
	return s.requestCopy(&c), nil
}

func (s *Store) GetRequest(_ context.Context, id int64) (*model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	return s.requestCopy(r), nil
}

func (s *Store) ListRequests(_ context.Context, filter model.RequestFilter) ([]model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Request
	for _, r := range s.requests {
		if filter.Status != 0 && r.Status != filter.Status {
			continue
		}
		if filter.UserID != 0 && r.UserID != filter.UserID {
			continue
		}
		out = append(out, *s.requestCopy(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) SetRequestStatus(_ context.Context, id int64, from, to model.RequestStatus, decidedBy int64, decidedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.DecidedAt = &decidedAt
	r.DecidedBy = &decidedBy
	return true, nil
}

// itemCopy returns a detached copy of it with the joined warehouse name.
// Callers hold s.mu.
func (s *Store) itemCopy(it *model.Item) *model.Item {
	c := *it
	if it.WarehouseID != nil {
		id := *it.WarehouseID
		c.WarehouseID = &id
		if w, ok := s.warehouses[id]; ok {
			c.WarehouseName = w.Name
		}
	}
	return &c
}

func (s *Store) requestCopy(r *model.Request) *model.Request {
	c := *r
	if u, ok := s.users[r.UserID]; ok {
		c.Username = u.Username
	}
	if it, ok := s.items[r.ItemID]; ok {
		c.ItemName = it.Name
	}
	if r.DecidedAt != nil {
		at := *r.DecidedAt
		c.DecidedAt = &at
	}
	if r.DecidedBy != nil {
		by := *r.DecidedBy
		c.DecidedBy = &by
	}
	return &c
}
