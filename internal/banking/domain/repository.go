package domain

import "context"

// AccountRepository is the staged view of the registry handed to an atomic callback.
// Changes become visible to readers only after the callback returns nil and the store save succeeds.
type AccountRepository interface {
	// Add appends an account. Callers check phone and card uniqueness first.
	Add(account *Account) error
	// Update replaces the account with the same card number.
	// Returns ErrCardNotFound when no record exists.
	Update(account *Account) error
	// Remove deletes the account with the given card number.
	// Returns ErrCardNotFound when no record exists.
	Remove(card CardNumber) error
	// FindByCardNumber returns a copy of the matching account.
	// Returns ErrCardNotFound when no record exists.
	FindByCardNumber(card CardNumber) (*Account, error)
	// FindByPhoneNumber returns a copy of the matching account.
	// Returns ErrAccountNotFound when no record exists.
	FindByPhoneNumber(phone string) (*Account, error)
	// Len returns the number of staged accounts.
	Len() int
}

// AccountReader is the read side of the registry. Every returned account is a copy.
type AccountReader interface {
	FindByCardNumber(card CardNumber) (*Account, error)
	FindByPhoneNumber(phone string) (*Account, error)
	// All returns the accounts in insertion order.
	All() []*Account
	// SortedByBalance returns the accounts stably sorted by balance.
	SortedByBalance(descending bool) []*Account
	Len() int
}

// Repositories provides access to all repositories within an atomic operation.
type Repositories interface {
	Accounts() AccountRepository
}

// AtomicCallback is the function signature for atomic operations.
// Any error returned discards every staged change.
type AtomicCallback func(repos Repositories) error

// The service is responsible for requesting an atomic operation with a set of
// procedures defined in the callback. Persisting the whole collection and
// publishing it to readers are left for the registry to implement.
//
// Example usage:
//
//	err := executor.Atomic(ctx, func(repos Repositories) error {
//	    account, err := repos.Accounts().FindByCardNumber(card)
//	    if err != nil {
//	        return err
//	    }
//	    if err := account.Deposit(amount, BalanceBounded); err != nil {
//	        return err
//	    }
//	    return repos.Accounts().Update(account)
//	})
type AtomicExecutor interface {
	// Atomic executes the callback against a staged copy of the registry.
	// If the callback returns nil, the full collection is saved and then committed.
	// If the callback or the save fails, nothing changes.
	Atomic(ctx context.Context, fn AtomicCallback) error
}

// Store persists the complete account collection.
// Saves always overwrite the previous content in full.
type Store interface {
	// Load returns the stored accounts in order.
	// Returns (nil, nil) when nothing has been stored yet and ErrStoreUnreadable for malformed content.
	Load(ctx context.Context) ([]*Account, error)
	// Save writes every field of every account.
	Save(ctx context.Context, accounts []*Account) error
}
