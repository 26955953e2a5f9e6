package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"cardbank/internal/banking/domain"
	"cardbank/internal/common/logging"
	"cardbank/internal/common/metrics"
)

// Registry is the in-memory set of live accounts and the only owner of Account instances.
// It implements domain.AtomicExecutor and domain.AccountReader.
// Every committed change is preceded by a full save of the collection to the backing store.
// Concurrency: reads share a read lock; Atomic holds the write lock across callback and save.
type Registry struct {
	mu       sync.RWMutex
	accounts []*domain.Account
	store    domain.Store
	driver   string
}

var (
	_ domain.AtomicExecutor = (*Registry)(nil)
	_ domain.AccountReader  = (*Registry)(nil)
)

// NewRegistry creates an empty registry backed by store.
// A nil store keeps the registry purely in memory. driver labels store metrics.
func NewRegistry(store domain.Store, driver string) *Registry {
	return &Registry{
		accounts: make([]*domain.Account, 0),
		store:    store,
		driver:   driver,
	}
}

// Load replaces the registry content with the accounts held by the store.
// A missing or unreadable store (domain.ErrStoreUnreadable) leaves the registry empty and is only logged.
// Any other failure, such as an unreachable database, is returned so a later save cannot wipe live data.
// Side effects: reads the backing store and records metrics.
func (r *Registry) Load(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts = make([]*domain.Account, 0)
	metrics.SetAccountsLive(0)
	if r.store == nil {
		return 0, nil
	}

	loaded, err := r.store.Load(ctx)
	if errors.Is(err, domain.ErrStoreUnreadable) {
		metrics.RecordStoreLoadFailure()
		logging.WarnContext(ctx, "account store unreadable, starting empty",
			"driver", r.driver,
			"error", err,
		)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("loading accounts: %w", err)
	}

	cards := make(map[domain.CardNumber]bool, len(loaded))
	phones := make(map[string]bool, len(loaded))
	for _, account := range loaded {
		if cards[account.CardNumber()] {
			logging.WarnContext(ctx, "duplicate card number in store, keeping first",
				"card_number", account.CardNumber().String(),
			)
			continue
		}
		if phones[account.PhoneNumber()] {
			logging.WarnContext(ctx, "duplicate phone number in store, keeping first",
				"card_number", account.CardNumber().String(),
			)
			continue
		}
		cards[account.CardNumber()] = true
		phones[account.PhoneNumber()] = true
		r.accounts = append(r.accounts, account)
	}

	metrics.SetAccountsLive(len(r.accounts))
	logging.InfoContext(ctx, "accounts loaded",
		"driver", r.driver,
		"count", len(r.accounts),
	)
	return len(r.accounts), nil
}

// Atomic executes the callback against a staged copy of the registry.
// It locks the registry, saves the staged collection when the callback succeeds,
// and commits the staged collection only if the save succeeds.
// Side effects: writes to the backing store and records metrics.
func (r *Registry) Atomic(ctx context.Context, fn domain.AtomicCallback) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &stagedRegistry{accounts: cloneAll(r.accounts)}

	if err := fn(tx); err != nil {
		return err
	}

	if !tx.dirty {
		return nil
	}

	if r.store != nil {
		start := time.Now()
		err := r.store.Save(ctx, tx.accounts)
		metrics.RecordStoreSave(r.driver, time.Since(start), err)
		if err != nil {
			logging.ErrorContext(ctx, "saving accounts failed",
				"driver", r.driver,
				"error", err,
			)
			return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
	}

	r.accounts = tx.accounts
	metrics.SetAccountsLive(len(r.accounts))
	return nil
}

// FindByCardNumber returns a copy of the account with the given card number.
func (r *Registry) FindByCardNumber(card domain.CardNumber) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := indexByCard(r.accounts, card); i >= 0 {
		return r.accounts[i].Clone(), nil
	}
	return nil, domain.ErrCardNotFound
}

// FindByPhoneNumber returns a copy of the account with the given phone number.
func (r *Registry) FindByPhoneNumber(phone string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := indexByPhone(r.accounts, phone); i >= 0 {
		return r.accounts[i].Clone(), nil
	}
	return nil, domain.ErrAccountNotFound
}

// All returns copies of every account in insertion order.
func (r *Registry) All() []*domain.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneAll(r.accounts)
}

// SortedByBalance returns copies of every account stably sorted by balance.
// Accounts with equal balances keep their insertion order in both directions.
func (r *Registry) SortedByBalance(descending bool) []*domain.Account {
	sorted := r.All()
	slices.SortStableFunc(sorted, func(a, b *domain.Account) int {
		if descending {
			return b.Balance().Cmp(a.Balance())
		}
		return a.Balance().Cmp(b.Balance())
	})
	return sorted
}

// Len returns the number of live accounts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.accounts)
}

// stagedRegistry is the working copy handed to an atomic callback.
type stagedRegistry struct {
	accounts []*domain.Account
	dirty    bool
}

func (tx *stagedRegistry) Accounts() domain.AccountRepository {
	return tx
}

func (tx *stagedRegistry) Add(account *domain.Account) error {
	if account == nil {
		return errors.New("cannot add a nil account")
	}
	tx.accounts = append(tx.accounts, account.Clone())
	tx.dirty = true
	return nil
}

func (tx *stagedRegistry) Update(account *domain.Account) error {
	i := indexByCard(tx.accounts, account.CardNumber())
	if i < 0 {
		return domain.ErrCardNotFound
	}
	tx.accounts[i] = account.Clone()
	tx.dirty = true
	return nil
}

func (tx *stagedRegistry) Remove(card domain.CardNumber) error {
	i := indexByCard(tx.accounts, card)
	if i < 0 {
		return domain.ErrCardNotFound
	}
	tx.accounts = slices.Delete(tx.accounts, i, i+1)
	tx.dirty = true
	return nil
}

func (tx *stagedRegistry) FindByCardNumber(card domain.CardNumber) (*domain.Account, error) {
	if i := indexByCard(tx.accounts, card); i >= 0 {
		return tx.accounts[i].Clone(), nil
	}
	return nil, domain.ErrCardNotFound
}

func (tx *stagedRegistry) FindByPhoneNumber(phone string) (*domain.Account, error) {
	if i := indexByPhone(tx.accounts, phone); i >= 0 {
		return tx.accounts[i].Clone(), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (tx *stagedRegistry) Len() int {
	return len(tx.accounts)
}

func indexByCard(accounts []*domain.Account, card domain.CardNumber) int {
	return slices.IndexFunc(accounts, func(a *domain.Account) bool {
		return a.CardNumber() == card
	})
}

func indexByPhone(accounts []*domain.Account, phone string) int {
	return slices.IndexFunc(accounts, func(a *domain.Account) bool {
		return a.PhoneNumber() == phone
	})
}

func cloneAll(accounts []*domain.Account) []*domain.Account {
	out := make([]*domain.Account, len(accounts))
	for i, a := range accounts {
		out[i] = a.Clone()
	}
	return out
}
