// Package store owns the transaction and category collections scoped to the
// current identity, mediates every mutation, and republishes recomputed
// dashboard statistics after each one.
package store

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/notify"
	"tally/internal/persist"
	"tally/internal/session"
	"tally/internal/stats"
)

// Backend is the composed persistence surface the store writes through.
type Backend interface {
	persist.TransactionLister
	persist.TransactionWriter
	persist.TransactionDeleter
	persist.CategoryReader
	persist.CategoryWriter
}

// EventPublisher announces mutations on the event queue. Publication is
// best-effort: a failed publish never fails the mutation.
type EventPublisher interface {
	PublishCreated(ctx context.Context, userID string, t core.Transaction) error
	PublishDeleted(ctx context.Context, userID, transactionID string) error
}

type Store struct {
	backend  Backend
	events   EventPublisher
	notifier notify.Notifier
	logger   *log.Logger

	mu           sync.Mutex
	user         *core.User
	transactions []core.Transaction
	categories   []core.Category
	stats        core.DashboardStats
	loading      bool
	statsSubs    []func(core.DashboardStats)
}

// New builds a store around a backend. events may be nil when no queue is
// configured.
func New(backend Backend, events EventPublisher, notifier notify.Notifier, logger *log.Logger) *Store {
	return &Store{
		backend:  backend,
		events:   events,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentStore),
		stats:    core.ZeroStats(),
	}
}

// Attach subscribes the store to identity changes: collections load when an
// identity is acquired and reset when it is cleared.
func (s *Store) Attach(sessions *session.Store) {
	sessions.Subscribe(func(u *core.User) {
		s.SetUser(context.Background(), u)
	})
}

// SetUser is the identity-change handler. A nil user resets the collections
// and the statistics to their zeroed baseline.
func (s *Store) SetUser(ctx context.Context, u *core.User) {
	if u == nil {
		s.mu.Lock()
		s.user = nil
		s.transactions = nil
		s.categories = nil
		s.stats = core.ZeroStats()
		snapshot := s.stats
		s.mu.Unlock()

		s.publishStats(snapshot)
		return
	}

	s.mu.Lock()
	s.user = u
	s.loading = true
	s.mu.Unlock()

	s.load(ctx, u.ID)
}

// load fetches both collections concurrently and installs them, seeding the
// default categories when the identity has none yet.
func (s *Store) load(ctx context.Context, userID string) {
	var (
		transactions []core.Transaction
		categories   []core.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = s.backend.ListTransactions(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.backend.ListCategories(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load user data", log.FieldUserID, userID, log.FieldError, err)
		notify.Error(s.notifier, "Failed to load data", err.Error())
		s.finishLoad(userID, nil, nil)
		return
	}

	if len(categories) == 0 {
		categories = s.seedCategories(ctx, userID)
	}

	s.finishLoad(userID, transactions, categories)
}

// seedCategories persists the default set for a fresh identity. When the
// backend rejects seeding (the remote variant does not accept category
// writes), the defaults still serve as the in-memory display set.
func (s *Store) seedCategories(ctx context.Context, userID string) []core.Category {
	seeded := make([]core.Category, 0, len(core.DefaultCategories()))
	for _, c := range core.DefaultCategories() {
		created, err := s.backend.CreateCategory(ctx, userID, core.CategoryInput{
			Name:  c.Name,
			Type:  c.Type,
			Color: c.Color,
		})
		if err != nil {
			s.logger.Warn("Failed to seed default categories, using in-memory defaults",
				log.FieldUserID, userID, log.FieldError, err)
			return core.DefaultCategories()
		}
		seeded = append(seeded, created)
	}
	s.logger.Info("Seeded default categories", log.FieldUserID, userID, "count", len(seeded))
	return seeded
}

// finishLoad installs collections fetched for userID unless the identity
// changed while the fetch was in flight.
func (s *Store) finishLoad(userID string, transactions []core.Transaction, categories []core.Category) {
	s.mu.Lock()
	if s.user == nil || s.user.ID != userID {
		s.mu.Unlock()
		s.logger.Warn("Discarding load for stale identity", log.FieldUserID, userID)
		return
	}
	s.transactions = transactions
	s.categories = categories
	s.loading = false
	s.recompute()
	snapshot := s.stats
	s.mu.Unlock()

	s.publishStats(snapshot)
}

// AddTransaction validates the input, persists it (the backend assigns the
// id), then appends it in memory, so a rejected write never strands an
// optimistic entry. The statistics republish before the confirmation
// notification.
func (s *Store) AddTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		notify.Error(s.notifier, "Invalid transaction", err.Error())
		return core.Transaction{}, err
	}

	userID, err := s.currentUserID()
	if err != nil {
		return core.Transaction{}, err
	}

	created, err := s.backend.CreateTransaction(ctx, userID, in)
	if err != nil {
		s.logger.Error("Failed to persist transaction",
			log.FieldUserID, userID,
			log.FieldDescription, in.Description,
			log.FieldError, err)
		notify.Error(s.notifier, "Failed to add transaction", err.Error())
		return core.Transaction{}, err
	}

	s.mu.Lock()
	if s.user == nil || s.user.ID != userID {
		s.mu.Unlock()
		s.logger.Warn("Discarding transaction persisted for stale identity",
			log.FieldUserID, userID, log.FieldTxID, created.ID)
		return created, nil
	}
	s.transactions = append(s.transactions, created)
	s.recompute()
	snapshot := s.stats
	s.mu.Unlock()

	s.publishStats(snapshot)

	title := "Income added"
	if created.Type == core.Expense {
		title = "Expense added"
	}
	notify.Success(s.notifier, title,
		fmt.Sprintf("%s - $%s", created.Description, created.Amount.StringFixed(2)))

	s.logger.Info("Transaction added",
		log.FieldUserID, userID,
		log.FieldTxID, created.ID,
		log.FieldTxType, string(created.Type),
		log.FieldAmount, created.Amount.String(),
		log.FieldCategory, created.Category)

	if s.events != nil {
		if err := s.events.PublishCreated(ctx, userID, created); err != nil {
			s.logger.Warn("Failed to publish created event",
				log.FieldTxID, created.ID, log.FieldError, err)
		}
	}
	return created, nil
}

// DeleteTransaction removes by id, preserving the relative order of the
// remainder. A missing id surfaces the benign NotFoundError and changes
// nothing.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	userID, err := s.currentUserID()
	if err != nil {
		return err
	}

	if err := s.backend.DeleteTransaction(ctx, userID, id); err != nil {
		if core.IsNotFound(err) {
			s.logger.Info("Delete of unknown transaction ignored", log.FieldTxID, id)
			return err
		}
		s.logger.Error("Failed to delete transaction",
			log.FieldUserID, userID, log.FieldTxID, id, log.FieldError, err)
		notify.Error(s.notifier, "Failed to delete transaction", err.Error())
		return err
	}

	s.mu.Lock()
	if s.user == nil || s.user.ID != userID {
		s.mu.Unlock()
		s.logger.Warn("Discarding delete applied to stale identity",
			log.FieldUserID, userID, log.FieldTxID, id)
		return nil
	}
	remaining := make([]core.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if t.ID != id {
			remaining = append(remaining, t)
		}
	}
	s.transactions = remaining
	s.recompute()
	snapshot := s.stats
	s.mu.Unlock()

	s.publishStats(snapshot)
	notify.Success(s.notifier, "Transaction deleted", "The transaction has been removed")

	s.logger.Info("Transaction deleted", log.FieldUserID, userID, log.FieldTxID, id)

	if s.events != nil {
		if err := s.events.PublishDeleted(ctx, userID, id); err != nil {
			s.logger.Warn("Failed to publish deleted event",
				log.FieldTxID, id, log.FieldError, err)
		}
	}
	return nil
}

// AddCategory persists an additional category. Duplicate names are
// tolerated; aggregation keys on name, so duplicates merge silently there.
func (s *Store) AddCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		notify.Error(s.notifier, "Invalid category", err.Error())
		return core.Category{}, err
	}

	userID, err := s.currentUserID()
	if err != nil {
		return core.Category{}, err
	}

	created, err := s.backend.CreateCategory(ctx, userID, in)
	if err != nil {
		s.logger.Error("Failed to persist category",
			log.FieldUserID, userID, log.FieldCategory, in.Name, log.FieldError, err)
		notify.Error(s.notifier, "Failed to add category", err.Error())
		return core.Category{}, err
	}

	s.mu.Lock()
	if s.user == nil || s.user.ID != userID {
		s.mu.Unlock()
		return created, nil
	}
	s.categories = append(s.categories, created)
	s.recompute()
	snapshot := s.stats
	s.mu.Unlock()

	s.publishStats(snapshot)
	notify.Success(s.notifier, "Category added",
		fmt.Sprintf("%s has been added to your categories", created.Name))
	return created, nil
}

// Transactions returns a copy of the current collection.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...)
}

// Categories returns a copy of the current collection.
func (s *Store) Categories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...)
}

// Stats returns the most recently computed dashboard statistics.
func (s *Store) Stats() core.DashboardStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Loading reports whether a collection reload is still in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// SubscribeStats registers a listener for recomputed statistics.
func (s *Store) SubscribeStats(fn func(core.DashboardStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statsSubs = append(s.statsSubs, fn)
}

func (s *Store) currentUserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return "", core.NewAuthError("no authenticated user")
	}
	return s.user.ID, nil
}

// recompute derives fresh statistics from the current collections.
// Callers hold s.mu.
func (s *Store) recompute() {
	s.stats = stats.Compute(s.transactions, s.categories)
}

func (s *Store) publishStats(snapshot core.DashboardStats) {
	s.mu.Lock()
	subs := append(([]func(core.DashboardStats))(nil), s.statsSubs...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
