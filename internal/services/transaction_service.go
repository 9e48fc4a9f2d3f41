package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/parser"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// RecentLimit is the number of transactions returned with a dashboard.
const RecentLimit = 5

// Repository persists whole user collections. Save overwrites everything
// stored for the user.
type Repository interface {
	Load(ctx context.Context, userID string) (txs []core.Transaction, found bool, err error)
	Save(ctx context.Context, userID string, txs []core.Transaction) error
}

// Pinger is implemented by repositories that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error
}

type Options struct {
	Cache       *cache.Collections
	Publisher   EventPublisher
	Engine      analytics.Engine
	ParserDelay time.Duration
	Now         func() time.Time
	NewID       func() string
	// Logger is used when the request context carries none.
	Logger      *applog.Logger
}

// TransactionService owns every user's collection: it seeds first-time
// users, serialises mutations per user and keeps the cache in step with
// what was last saved.
type TransactionService struct {
	repo        Repository
	cache       *cache.Collections
	publisher   EventPublisher
	engine      analytics.Engine
	parserDelay time.Duration
	now         func() time.Time
	newID       func() string
	log         *applog.Logger
	events      *applog.StructuredLogger

	loads   singleflight.Group
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewTransactionService(repo Repository, opts Options) *TransactionService {
	s := &TransactionService{
		repo:        repo,
		cache:       opts.Cache,
		publisher:   opts.Publisher,
		engine:      opts.Engine,
		parserDelay: opts.ParserDelay,
		now:         opts.Now,
		newID:       opts.NewID,
		locks:       make(map[string]*sync.Mutex),
	}
	if s.cache == nil {
		s.cache = cache.NewCollections(1000, time.Hour)
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	s.log = logger
	s.events = applog.NewStructuredLogger(logger)
	return s
}

// Load returns the user's collection, seeding it on first access.
func (s *TransactionService) Load(ctx context.Context, userID string) ([]core.Transaction, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	if txs, ok := s.cache.Get(userID); ok {
		return txs, nil
	}

	v, err, _ := s.loads.Do(userID, func() (any, error) {
		unlock := s.lockUser(userID)
		defer unlock()
		return s.loadLocked(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	// Callers sharing a flight must not share the slice.
	return append([]core.Transaction{}, v.([]core.Transaction)...), nil
}

// Append validates in, assigns identity and timestamps, and saves the
// collection with the new transaction at the end.
func (s *TransactionService) Append(ctx context.Context, userID string, in core.NewTransaction) (core.Transaction, error) {
	if err := checkUser(userID); err != nil {
		return core.Transaction{}, err
	}
	in.Description = strings.TrimSpace(in.Description)
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	unlock := s.lockUser(userID)
	defer unlock()

	txs, err := s.loadLocked(ctx, userID)
	if err != nil {
		return core.Transaction{}, err
	}

	now := s.now()
	t := core.Transaction{
		ID:          s.newID(),
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
		Type:        in.Type,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.saveLocked(ctx, userID, append(txs, t)); err != nil {
		return core.Transaction{}, err
	}

	s.logChanged(ctx, applog.OpAppend, t)
	s.publish(ctx, amqp.EventCreated, userID, t.ID)
	return t, nil
}

// Update merges patch into the transaction with id. It reports false
// without saving when no such transaction exists.
func (s *TransactionService) Update(ctx context.Context, userID, id string, patch core.Patch) (bool, error) {
	if err := checkUser(userID); err != nil {
		return false, err
	}

	unlock := s.lockUser(userID)
	defer unlock()

	txs, err := s.loadLocked(ctx, userID)
	if err != nil {
		return false, err
	}

	idx := indexOf(txs, id)
	if idx < 0 {
		return false, nil
	}
	updated := patch.Apply(txs[idx])
	updated.Description = strings.TrimSpace(updated.Description)
	updated.UpdatedAt = s.now()
	if err := updated.Validate(); err != nil {
		return false, err
	}
	txs[idx] = updated

	if err := s.saveLocked(ctx, userID, txs); err != nil {
		return false, err
	}

	s.logChanged(ctx, applog.OpUpdate, updated)
	s.publish(ctx, amqp.EventUpdated, userID, id)
	return true, nil
}

// Remove deletes the transaction with id. It reports false without saving
// when no such transaction exists.
func (s *TransactionService) Remove(ctx context.Context, userID, id string) (bool, error) {
	if err := checkUser(userID); err != nil {
		return false, err
	}

	unlock := s.lockUser(userID)
	defer unlock()

	txs, err := s.loadLocked(ctx, userID)
	if err != nil {
		return false, err
	}

	idx := indexOf(txs, id)
	if idx < 0 {
		return false, nil
	}
	removed := txs[idx]
	next := append(txs[:idx:idx], txs[idx+1:]...)

	if err := s.saveLocked(ctx, userID, next); err != nil {
		return false, err
	}

	s.logChanged(ctx, applog.OpRemove, removed)
	s.publish(ctx, amqp.EventDeleted, userID, id)
	return true, nil
}

// List returns the collection filtered by f in f.Sort order, newest first
// by default.
func (s *TransactionService) List(ctx context.Context, userID string, f analytics.Filter) ([]core.Transaction, error) {
	txs, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return f.Sort.Apply(f.Apply(txs)), nil
}

func (s *TransactionService) Summary(ctx context.Context, userID string) (core.FinancialSummary, error) {
	txs, err := s.Load(ctx, userID)
	if err != nil {
		return core.FinancialSummary{}, err
	}
	return s.engine.Summary(txs, s.now()), nil
}

func (s *TransactionService) Categories(ctx context.Context, userID string) ([]core.CategoryData, error) {
	txs, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.engine.Categories(txs), nil
}

func (s *TransactionService) Trend(ctx context.Context, userID string) ([]core.TrendPoint, error) {
	txs, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.engine.Trend(txs, s.now()), nil
}

// Monthly returns the per-month income/expense series ending with the
// current month.
func (s *TransactionService) Monthly(ctx context.Context, userID string, months int) ([]core.MonthPoint, error) {
	txs, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.engine.Monthly(txs, s.now(), months), nil
}

// Dashboard computes every derived view from one snapshot of the collection.
func (s *TransactionService) Dashboard(ctx context.Context, userID string) (core.Dashboard, error) {
	txs, err := s.Load(ctx, userID)
	if err != nil {
		return core.Dashboard{}, err
	}
	return s.engine.Dashboard(txs, s.now(), RecentLimit), nil
}

// Parse turns free text into a candidate. A configured parser delay stands
// in for remote inference latency and is cut short by ctx.
func (s *TransactionService) Parse(ctx context.Context, text string) (parser.Result, error) {
	if s.parserDelay > 0 {
		timer := time.NewTimer(s.parserDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return parser.Result{}, ctx.Err()
		case <-timer.C:
		}
	}

	res := parser.Parse(text)
	s.logger(ctx).DebugContext(ctx, "Parsed transaction text",
		"match", res.Match,
		"type", res.Transaction.Type,
		"category", res.Transaction.Category,
		"needs_review", res.NeedsReview())
	return res, nil
}

// Ready reports whether the repository is reachable.
func (s *TransactionService) Ready(ctx context.Context) error {
	p, ok := s.repo.(Pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	return nil
}

// Invalidate drops the cached copy of a user's collection so the next read
// goes to the repository.
func (s *TransactionService) Invalidate(userID string) {
	s.cache.Delete(userID)
}

func (s *TransactionService) loadLocked(ctx context.Context, userID string) ([]core.Transaction, error) {
	if txs, ok := s.cache.Get(userID); ok {
		return txs, nil
	}

	txs, found, err := s.repo.Load(ctx, userID)
	if err != nil {
		s.events.LogError(ctx, "Failed to load collection", err, applog.ErrorTypeStorage, applog.OpLoad,
			applog.NewFields().WithUser(userID))
		return nil, fmt.Errorf("%w: load collection: %w", core.ErrStorageUnavailable, err)
	}
	if !found {
		txs = core.SeedTransactions(userID)
		if err := s.repo.Save(ctx, userID, txs); err != nil {
			s.events.LogError(ctx, "Failed to save seed collection", err, applog.ErrorTypeStorage, applog.OpLoad,
				applog.NewFields().WithUser(userID))
			return nil, fmt.Errorf("%w: seed collection: %w", core.ErrStorageUnavailable, err)
		}
		s.logger(ctx).InfoContext(ctx, "Seeded collection for new user", applog.FieldUserID, userID, "count", len(txs))
	}

	s.cache.Set(userID, txs)
	return txs, nil
}

func (s *TransactionService) saveLocked(ctx context.Context, userID string, txs []core.Transaction) error {
	if err := s.repo.Save(ctx, userID, txs); err != nil {
		s.events.LogError(ctx, "Failed to save collection", err, applog.ErrorTypeStorage, applog.OpSave,
			applog.NewFields().WithUser(userID))
		return fmt.Errorf("%w: save collection: %w", core.ErrStorageUnavailable, err)
	}
	s.cache.Set(userID, txs)
	return nil
}

func (s *TransactionService) publish(ctx context.Context, kind amqp.EventKind, userID, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(kind, userID, id)); err != nil {
		s.logger(ctx).ErrorContext(ctx, "Failed to publish transaction event",
			applog.FieldEventKind, kind,
			applog.FieldUserID, userID,
			applog.FieldTransactionID, id,
			applog.FieldError, err)
	}
}

func (s *TransactionService) logChanged(ctx context.Context, op string, t core.Transaction) {
	s.events.LogTransactionChanged(ctx, op, t.UserID, t.ID, string(t.Type), string(t.Category), t.Amount.String())
}

func (s *TransactionService) logger(ctx context.Context) *applog.Logger {
	return applog.FromContextOr(ctx, s.log)
}

func (s *TransactionService) lockUser(userID string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[userID] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func indexOf(txs []core.Transaction, id string) int {
	for i, t := range txs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func checkUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return core.ErrEmptyUser
	}
	return nil
}
