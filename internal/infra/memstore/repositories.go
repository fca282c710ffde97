package memstore

import (
	"context"
	"sort"
	"time"

	"attendance_notice_bot/internal/domain/action"
	"attendance_notice_bot/internal/domain/settings"
	"attendance_notice_bot/internal/domain/user"
)

type UserRepository struct{ db *DB }

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(db *DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) GetBySenderID(_ context.Context, senderID string) (*user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if u, ok := r.db.users[senderID]; ok {
		return &u, nil
	}
	return nil, user.ErrNotFound
}

func (r *UserRepository) Save(_ context.Context, u *user.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u.UpdatedAt = time.Now()
	r.db.users[u.SenderID] = *u
	return nil
}

func (r *UserRepository) Delete(_ context.Context, senderID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.users, senderID)
	delete(r.db.actions, senderID)
	return nil
}

func (r *UserRepository) ListAll(_ context.Context) ([]*user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	users := make([]*user.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		u := u
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

type ActionRepository struct{ db *DB }

var _ action.Repository = (*ActionRepository)(nil)

func NewActionRepository(db *DB) *ActionRepository { return &ActionRepository{db: db} }

func (r *ActionRepository) GetBySenderID(_ context.Context, senderID string) (*action.Action, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if a, ok := r.db.actions[senderID]; ok {
		return &a, nil
	}
	return nil, action.ErrNotFound
}

func (r *ActionRepository) Save(_ context.Context, a *action.Action) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.actions[a.SenderID] = *a
	return nil
}

func (r *ActionRepository) Delete(_ context.Context, senderID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.actions, senderID)
	return nil
}

func (r *ActionRepository) DeleteCreatedBefore(_ context.Context, before time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, a := range r.db.actions {
		if a.CreatedAt.Before(before) {
			delete(r.db.actions, id)
			n++
		}
	}
	return n, nil
}

type SentActionRepository struct{ db *DB }

var _ action.SentRepository = (*SentActionRepository)(nil)

func NewSentActionRepository(db *DB) *SentActionRepository { return &SentActionRepository{db: db} }

func (r *SentActionRepository) Create(_ context.Context, s *action.SentAction) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.sent {
		if existing.SenderID == s.SenderID && existing.StartedAt.Equal(s.StartedAt) {
			return nil
		}
	}
	r.db.nextID++
	s.ID = r.db.nextID
	r.db.sent = append(r.db.sent, *s)
	return nil
}

func (r *SentActionRepository) ListAll(_ context.Context) ([]*action.SentAction, error) {
	return r.list(func(action.SentAction) bool { return true }), nil
}

func (r *SentActionRepository) ListByRegisteredDate(_ context.Context, date string) ([]*action.SentAction, error) {
	return r.list(func(s action.SentAction) bool { return s.RegisteredDate == date }), nil
}

func (r *SentActionRepository) list(keep func(action.SentAction) bool) []*action.SentAction {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	items := make([]*action.SentAction, 0)
	for _, s := range r.db.sent {
		if keep(s) {
			s := s
			items = append(items, &s)
		}
	}
	return items
}

type SettingsRepository struct{ db *DB }

var _ settings.Repository = (*SettingsRepository)(nil)

func NewSettingsRepository(db *DB) *SettingsRepository { return &SettingsRepository{db: db} }

func (r *SettingsRepository) Get(_ context.Context, key string) (*settings.Configuration, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if c, ok := r.db.config[key]; ok {
		return &c, nil
	}
	return &settings.Configuration{Key: key}, nil
}

func (r *SettingsRepository) Save(_ context.Context, c *settings.Configuration) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c.UpdatedAt = time.Now()
	r.db.config[c.Key] = *c
	return nil
}
