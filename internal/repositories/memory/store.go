// Package memory is an in-process implementation of repositories.Store. Units
// of work are serialized by one mutex and rolled back from a snapshot when the
// callback fails.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"escrow/internal/models"
	"escrow/internal/repositories"
)

type state struct {
	users         map[uint]models.User
	wallets       map[uint]models.Wallet
	escrow        *models.EscrowWallet
	transactions  map[uint]models.EscrowTransaction
	milestones    map[uint]models.Milestone
	payments      map[uint]models.PaymentRecord
	reviews       map[uint]models.Review
	outbox        map[uint]models.OutboxEvent
	notifications map[uint]models.Notification
	seq           map[string]uint
}

func newState() *state {
	return &state{
		users:         map[uint]models.User{},
		wallets:       map[uint]models.Wallet{},
		transactions:  map[uint]models.EscrowTransaction{},
		milestones:    map[uint]models.Milestone{},
		payments:      map[uint]models.PaymentRecord{},
		reviews:       map[uint]models.Review{},
		outbox:        map[uint]models.OutboxEvent{},
		notifications: map[uint]models.Notification{},
		seq:           map[string]uint{},
	}
}

func copyMap[V any](src map[uint]V) map[uint]V {
	dst := make(map[uint]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (s *state) clone() *state {
	cp := &state{
		users:         copyMap(s.users),
		wallets:       copyMap(s.wallets),
		transactions:  copyMap(s.transactions),
		milestones:    copyMap(s.milestones),
		payments:      copyMap(s.payments),
		reviews:       copyMap(s.reviews),
		outbox:        copyMap(s.outbox),
		notifications: copyMap(s.notifications),
		seq:           make(map[string]uint, len(s.seq)),
	}
	for k, v := range s.seq {
		cp.seq[k] = v
	}
	if s.escrow != nil {
		e := *s.escrow
		cp.escrow = &e
	}
	return cp
}

func (s *state) next(table string) uint {
	s.seq[table]++
	return s.seq[table]
}

func sortedIDs[V any](m map[uint]V) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Store keeps all escrow data in memory.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{state: newState(), now: time.Now}
}

// binding routes repository calls either through the store mutex or, inside a
// unit of work, straight to the state the unit already holds.
type binding struct {
	store  *Store
	inUnit bool
}

func (b binding) do(fn func(st *state) error) error {
	if !b.inUnit {
		b.store.mu.Lock()
		defer b.store.mu.Unlock()
	}
	return fn(b.store.state)
}

func (s *Store) repositories(inUnit bool) *repositories.Repositories {
	b := binding{store: s, inUnit: inUnit}
	return &repositories.Repositories{
		Wallets:       &walletRepository{b},
		Escrows:       &escrowRepository{b},
		Payments:      &paymentRepository{b},
		Reviews:       &reviewRepository{b},
		Outbox:        &outboxRepository{b},
		Notifications: &notificationRepository{b},
		Users:         &userRepository{b},
	}
}

func (s *Store) Repositories() *repositories.Repositories {
	return s.repositories(false)
}

func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(r *repositories.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.state.clone()
	if err := fn(s.repositories(true)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
