package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"go-label-ws/internal/model"
	"go-label-ws/internal/repository"
)

// ── In-memory LabelHistoryRepository ─────────────────────────────────────────

type stubLabelHistoryRepo struct {
	entries   map[uuid.UUID]model.LabelHistory
	createErr error
}

func newStubLabelHistoryRepo() *stubLabelHistoryRepo {
	return &stubLabelHistoryRepo{entries: map[uuid.UUID]model.LabelHistory{}}
}

func (r *stubLabelHistoryRepo) Create(_ context.Context, h *model.LabelHistory) error {
	if r.createErr != nil {
		return r.createErr
	}
	_ = h.BeforeCreate(nil)
	r.entries[h.ID] = *h
	return nil
}

func (r *stubLabelHistoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.LabelHistory, error) {
	h, ok := r.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &h, nil
}

func (r *stubLabelHistoryRepo) FindAll(_ context.Context, limit int) ([]model.LabelHistory, error) {
	out := make([]model.LabelHistory, 0, len(r.entries))
	for _, h := range r.entries {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubLabelHistoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.entries[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *stubLabelHistoryRepo) DeleteAll(_ context.Context) (int64, error) {
	n := int64(len(r.entries))
	r.entries = map[uuid.UUID]model.LabelHistory{}
	return n, nil
}

var _ repository.LabelHistoryRepository = (*stubLabelHistoryRepo)(nil)

// ── In-memory SettingsRepository ─────────────────────────────────────────────

type stubSettingsRepo struct {
	rows map[string]model.AppSetting
}

func newStubSettingsRepo() *stubSettingsRepo {
	return &stubSettingsRepo{rows: map[string]model.AppSetting{}}
}

func (r *stubSettingsRepo) Get(_ context.Context, key string) (*model.AppSetting, error) {
	s, ok := r.rows[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *stubSettingsRepo) Put(_ context.Context, s *model.AppSetting) error {
	r.rows[s.Key] = *s
	return nil
}

var _ repository.SettingsRepository = (*stubSettingsRepo)(nil)

// ── In-memory StockRepository ────────────────────────────────────────────────

type stubStockRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]model.StockItem
}

func newStubStockRepo() *stubStockRepo {
	return &stubStockRepo{items: map[uuid.UUID]model.StockItem{}}
}

func clone(item model.StockItem) model.StockItem {
	item.Historico = append([]model.StockHistoryEntry(nil), item.Historico...)
	return item
}

func (r *stubStockRepo) Create(_ context.Context, item *model.StockItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.Serial == item.Serial {
			return repository.ErrDuplicateKey
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = clone(*item)
	return nil
}

func (r *stubStockRepo) FindAll(_ context.Context) ([]model.StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.StockItem, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, clone(it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DataAtualizacao.After(out[j].DataAtualizacao) })
	return out, nil
}

func (r *stubStockRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := clone(it)
	return &c, nil
}

func (r *stubStockRepo) FindBySerial(_ context.Context, serial string) (*model.StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.Serial == serial {
			c := clone(it)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubStockRepo) Mutate(_ context.Context, id uuid.UUID, fn repository.Mutation) (*model.StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := clone(it)
	if _, err := fn(&c); err != nil {
		return nil, err
	}
	r.items[id] = clone(c)
	return &c, nil
}

func (r *stubStockRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *stubStockRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

var _ repository.StockRepository = (*stubStockRepo)(nil)

// ── In-memory StockConfigRepository ──────────────────────────────────────────

type stubStockConfigRepo struct {
	mu  sync.Mutex
	cfg model.StockConfig
}

func newStubStockConfigRepo() *stubStockConfigRepo {
	return &stubStockConfigRepo{cfg: model.DefaultStockConfig()}
}

func (r *stubStockConfigRepo) Get(_ context.Context) (*model.StockConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.cfg
	return &c, nil
}

func (r *stubStockConfigRepo) Update(_ context.Context, fn func(cfg *model.StockConfig) bool) (*model.StockConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.cfg
	if fn(&c) {
		r.cfg = c
	}
	return &c, nil
}

func (r *stubStockConfigRepo) EnsureDefaults(_ context.Context) error { return nil }

var _ repository.StockConfigRepository = (*stubStockConfigRepo)(nil)

// ── In-memory UserRepository ─────────────────────────────────────────────────

type stubUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[uuid.UUID]model.User{}}
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *stubUserRepo) FindAll(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *stubUserRepo) create(user *model.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *stubUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.create(user)
}

func (r *stubUserRepo) Register(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.Role = model.RoleUser
	if len(r.users) == 0 {
		user.Role = model.RoleAdmin
	}
	return r.create(user)
}

func (r *stubUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) modify(id uuid.UUID, fn func(u *model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	r.users[id] = u
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hashed string) error {
	return r.modify(id, func(u *model.User) { u.Password = hashed })
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role model.Role) error {
	return r.modify(id, func(u *model.User) { u.Role = role })
}

func (r *stubUserRepo) UpdateTokenVersion(_ context.Context, id uuid.UUID, version string) error {
	return r.modify(id, func(u *model.User) { u.TokenVersion = version })
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

var errStoreDown = errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
