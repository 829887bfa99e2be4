package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/repository"
)

// memStore is an in-memory stand-in for the postgres store. Transactions are
// serialized and roll back by restoring a snapshot.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	items     map[int32]domain.Item
	rentals   map[int32]domain.Rental
	users     map[string]domain.User
	roles     map[string]domain.Role
	nicknames map[string]string
	counters  map[string]int64
	messages  []domain.ChatMessage
	settings  *domain.Settings
	nextID    int32

	counterErr error
}

func newMemStore() *memStore {
	return &memStore{
		items:     map[int32]domain.Item{},
		rentals:   map[int32]domain.Rental{},
		users:     map[string]domain.User{},
		roles:     map[string]domain.Role{},
		nicknames: map[string]string{},
		counters:  map[string]int64{},
	}
}

type memSnapshot struct {
	items     map[int32]domain.Item
	rentals   map[int32]domain.Rental
	users     map[string]domain.User
	roles     map[string]domain.Role
	nicknames map[string]string
	messages  []domain.ChatMessage
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := memSnapshot{
		items:     copyMap(s.items),
		rentals:   copyMap(s.rentals),
		users:     copyMap(s.users),
		roles:     copyMap(s.roles),
		nicknames: copyMap(s.nicknames),
		messages:  append([]domain.ChatMessage(nil), s.messages...),
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.items, s.rentals, s.users = snap.items, snap.rentals, snap.users
		s.roles, s.nicknames, s.messages = snap.roles, snap.nicknames, snap.messages
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) id() int32 {
	s.nextID++
	return s.nextID
}

// seeding helpers

func (s *memStore) addUser(uid, nickname string, role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[uid] = domain.User{UID: uid, Email: uid + "@clan.gg", GameNickname: nickname, GameID: "g-" + uid}
	s.roles[uid] = role
	s.nicknames[nickname] = uid
}

func (s *memStore) addItem(name string, marketRate int64, qty int32) domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := domain.Item{
		ID:                 s.id(),
		Name:               name,
		Category:           "weapons",
		Availability:       domain.ItemAvailable,
		MarketRate:         marketRate,
		DailyRate:          marketRate * 2 / 100,
		WeeklyRate:         marketRate * 105 / 1000,
		RequiredCollateral: marketRate * 80 / 100,
		Quantity:           qty,
		AvailableQuantity:  qty,
	}
	s.items[it.ID] = it
	return it
}

func (s *memStore) item(id int32) domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

func (s *memStore) setAvailability(id int32, a domain.ItemAvailability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.items[id]
	it.Availability = a
	s.items[id] = it
}

func (s *memStore) deleteItem(id int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

type memItems struct{ s *memStore }

func (r memItems) Create(ctx context.Context, item *domain.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item.ID = r.s.id()
	item.CreatedAt = time.Now()
	r.s.items[item.ID] = *item
	return nil
}

func (r memItems) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (r memItems) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Item, error) {
	return r.GetByID(ctx, id)
}

func (r memItems) Update(ctx context.Context, item *domain.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[item.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.items[item.ID] = *item
	return nil
}

func (r memItems) UpdateStock(ctx context.Context, id int32, available int32, availability domain.ItemAvailability) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	it.AvailableQuantity = available
	it.Availability = availability
	r.s.items[id] = it
	return nil
}

func (r memItems) Delete(ctx context.Context, id int32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.items, id)
	return nil
}

func (r memItems) List(ctx context.Context, availability domain.ItemAvailability) ([]domain.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Item
	for _, it := range r.s.items {
		if availability == "" || it.Availability == availability {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type memCategories struct {
	mu   sync.Mutex
	list []domain.Category
}

func (r *memCategories) Create(ctx context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = int32(len(r.list) + 1)
	r.list = append(r.list, *c)
	return nil
}

func (r *memCategories) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.list {
		if strings.EqualFold(c.Name, name) {
			c := c
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memCategories) List(ctx context.Context) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Category(nil), r.list...), nil
}

func (r *memCategories) Delete(ctx context.Context, id int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.list {
		if c.ID == id {
			r.list = append(r.list[:i], r.list[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memRentals struct{ s *memStore }

func (r memRentals) Create(ctx context.Context, rental *domain.Rental) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rental.ID = r.s.id()
	rental.CreatedAt = time.Now()
	r.s.rentals[rental.ID] = *rental
	return nil
}

func (r memRentals) GetByID(ctx context.Context, id int32) (*domain.Rental, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rental, ok := r.s.rentals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rental, nil
}

func (r memRentals) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Rental, error) {
	return r.GetByID(ctx, id)
}

func (r memRentals) UpdateStatus(ctx context.Context, rental *domain.Rental) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rentals[rental.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.rentals[rental.ID] = *rental
	return nil
}

func (r memRentals) Delete(ctx context.Context, id int32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rentals[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.rentals, id)
	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if m.RentalID != id {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept
	return nil
}

func (r memRentals) List(ctx context.Context, filter repository.RentalFilter) ([]domain.Rental, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Rental
	for _, rental := range r.s.rentals {
		if filter.RenterID != "" && rental.RenterID != filter.RenterID {
			continue
		}
		if filter.Status != "" && rental.Status != filter.Status {
			continue
		}
		out = append(out, rental)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type memCounters struct{ s *memStore }

func (r memCounters) Next(ctx context.Context, name string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.counterErr != nil {
		return 0, r.s.counterErr
	}
	r.s.counters[name]++
	return r.s.counters[name], nil
}

type memChat struct{ s *memStore }

func (r memChat) Create(ctx context.Context, m *domain.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = int64(len(r.s.messages) + 1)
	m.CreatedAt = time.Now()
	r.s.messages = append(r.s.messages, *m)
	return nil
}

func (r memChat) ListByRental(ctx context.Context, rentalID int32) ([]domain.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ChatMessage
	for _, m := range r.s.messages {
		if m.RentalID == rentalID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memUsers struct{ s *memStore }

func (r memUsers) ReserveNickname(ctx context.Context, n *domain.Nickname) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, taken := r.s.nicknames[n.Nickname]; taken {
		return false, nil
	}
	r.s.nicknames[n.Nickname] = n.UID
	return true, nil
}

func (r memUsers) NicknameExists(ctx context.Context, nickname string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.nicknames[nickname]
	return ok, nil
}

func (r memUsers) Create(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[u.UID] = *u
	return nil
}

func (r memUsers) GetByID(ctx context.Context, uid string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) Delete(ctx context.Context, uid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[uid]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, uid)
	delete(r.s.roles, uid)
	return nil
}

func (r memUsers) SetRole(ctx context.Context, uid string, role domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.roles[uid] = role
	return nil
}

func (r memUsers) GetRole(ctx context.Context, uid string) (domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[uid]
	if !ok {
		return "", repository.ErrNotFound
	}
	return role, nil
}

func (r memUsers) List(ctx context.Context) ([]domain.UserWithRole, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.UserWithRole
	for uid, u := range r.s.users {
		out = append(out, domain.UserWithRole{User: u, Role: r.s.roles[uid]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameNickname < out[j].GameNickname })
	return out, nil
}

func (r memUsers) ListAdmins(ctx context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.User
	for uid, role := range r.s.roles {
		if role == domain.RoleAdmin {
			if u, ok := r.s.users[uid]; ok {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

type memSettings struct{ s *memStore }

func (r memSettings) Get(ctx context.Context) (*domain.Settings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.settings == nil {
		return nil, repository.ErrNotFound
	}
	st := *r.s.settings
	return &st, nil
}

func (r memSettings) Save(ctx context.Context, st *domain.Settings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *st
	r.s.settings = &cp
	return nil
}

// recordingNotifier captures notifications instead of storing them.
type recordingNotifier struct {
	mu     sync.Mutex
	users  []string
	admins []string
}

func (n *recordingNotifier) Notify(ctx context.Context, userID, title, message string, attrs map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID+":"+attrs["type"])
}

func (n *recordingNotifier) NotifyAdmins(ctx context.Context, title, message string, attrs map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admins = append(n.admins, attrs["type"])
}

func (n *recordingNotifier) GetNotifications(ctx context.Context, userID string, page, pageSize int32) ([]domain.Notification, int32, error) {
	return nil, 0, nil
}

func (n *recordingNotifier) MarkAsRead(ctx context.Context, userID string, notificationID int32) error {
	return nil
}

var errBoom = errors.New("boom")
