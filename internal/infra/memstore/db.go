package memstore

import (
	"context"
	"sync"

	"attendance_notice_bot/internal/domain/action"
	"attendance_notice_bot/internal/domain/settings"
	"attendance_notice_bot/internal/domain/store"
	"attendance_notice_bot/internal/domain/user"
)

// DB is a process-local store used by tests and by STORE_DRIVER=memory.
// Transactions are serialised and rolled back by restoring a snapshot.
type DB struct {
	mu      sync.Mutex
	txMu    sync.Mutex
	users   map[string]user.User
	actions map[string]action.Action
	sent    []action.SentAction
	config  map[string]settings.Configuration
	nextID  int64
}

func Open() *DB {
	return &DB{
		users:   make(map[string]user.User),
		actions: make(map[string]action.Action),
		config:  make(map[string]settings.Configuration),
	}
}

type snapshot struct {
	users   map[string]user.User
	actions map[string]action.Action
	sent    []action.SentAction
	config  map[string]settings.Configuration
	nextID  int64
}

func (db *DB) snapshot() snapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := snapshot{
		users:   make(map[string]user.User, len(db.users)),
		actions: make(map[string]action.Action, len(db.actions)),
		sent:    append([]action.SentAction(nil), db.sent...),
		config:  make(map[string]settings.Configuration, len(db.config)),
		nextID:  db.nextID,
	}
	for k, v := range db.users {
		s.users[k] = v
	}
	for k, v := range db.actions {
		s.actions[k] = v
	}
	for k, v := range db.config {
		s.config[k] = v
	}
	return s
}

func (db *DB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users, db.actions, db.sent, db.config, db.nextID = s.users, s.actions, s.sent, s.config, s.nextID
}

type txKey struct{}

type Transactor struct {
	db *DB
}

var _ store.Transactor = (*Transactor)(nil)

func NewTransactor(db *DB) *Transactor {
	return &Transactor{db: db}
}

func (t *Transactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	snap := t.db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}
