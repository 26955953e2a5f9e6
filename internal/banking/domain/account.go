package domain

import (
	"fmt"

	vo "cardbank/internal/common/value_objects"
)

// BalancePolicy decides whether transactions may push a balance outside [0, MaxBalance].
type BalancePolicy int

const (
	// BalanceBounded rejects withdrawals beyond the balance and deposits beyond MaxBalance.
	BalanceBounded BalancePolicy = iota
	// BalanceUnbounded applies transactions unconditionally (legacy behavior).
	BalanceUnbounded
)

// AccountParams carries already-validated personal fields for NewAccount.
type AccountParams struct {
	Name        string
	Surname     string
	Age         int
	PhoneNumber string
	Balance     vo.Money
}

// Account is a card holder's account (aggregate root).
// Invariants:
//   - Card number, names, age and phone never change after construction
//   - Balance changes only through Deposit and Withdraw
//   - The password is held only as a hash
type Account struct {
	cardNumber   CardNumber
	name         string
	surname      string
	age          int
	phoneNumber  string
	balance      vo.Money
	passwordHash string
}

// NewAccount creates an account from validated fields and a pre-computed password hash.
// Returns error if the card number or hash is missing.
func NewAccount(cardNumber CardNumber, params AccountParams, passwordHash string) (*Account, error) {
	if cardNumber.IsEmpty() {
		return nil, fmt.Errorf("%w: card number is required", ErrInvalidField)
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("%w: password hash is required", ErrInvalidField)
	}
	return &Account{
		cardNumber:   cardNumber,
		name:         params.Name,
		surname:      params.Surname,
		age:          params.Age,
		phoneNumber:  params.PhoneNumber,
		balance:      params.Balance,
		passwordHash: passwordHash,
	}, nil
}

// ReconstructAccount reconstructs an Account from persistence.
// This bypasses validation - only use for loading from a store.
func ReconstructAccount(
	cardNumber CardNumber,
	name string,
	surname string,
	age int,
	phoneNumber string,
	balance vo.Money,
	passwordHash string,
) *Account {
	return &Account{
		cardNumber:   cardNumber,
		name:         name,
		surname:      surname,
		age:          age,
		phoneNumber:  phoneNumber,
		balance:      balance,
		passwordHash: passwordHash,
	}
}

// Deposit adds amount to the balance.
// Under BalanceBounded the deposit is rejected if the result would exceed MaxBalance.
func (a *Account) Deposit(amount vo.Money, policy BalancePolicy) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	next := a.balance.Add(amount)
	if policy == BalanceBounded && next.GreaterThan(MaxBalance) {
		return fmt.Errorf("%w: balance cannot be more than %s", ErrBalanceCeilingExceeded, MaxBalance.Display())
	}
	a.balance = next
	return nil
}

// Withdraw subtracts amount from the balance.
// Under BalanceBounded the withdrawal is rejected if it exceeds the balance.
func (a *Account) Withdraw(amount vo.Money, policy BalancePolicy) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	next := a.balance.Subtract(amount)
	if policy == BalanceBounded && next.IsNegative() {
		return fmt.Errorf("%w: balance is %s", ErrInsufficientFunds, a.balance.Display())
	}
	a.balance = next
	return nil
}

// SetPasswordHash replaces the stored hash. The value is not validated.
func (a *Account) SetPasswordHash(hash string) {
	a.passwordHash = hash
}

// Clone returns an independent copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// FullName returns "Name Surname".
func (a *Account) FullName() string {
	return a.name + " " + a.surname
}

// String renders the one-line listing form used by the account list.
func (a *Account) String() string {
	return fmt.Sprintf("[BankAccount('%s'), ('%s'), (%dyo), ('%s'), (%s)]",
		a.cardNumber, a.FullName(), a.age, a.phoneNumber, a.balance.Display())
}

// Statement renders the multi-line card holder summary.
func (a *Account) Statement() string {
	return fmt.Sprintf("Credit card number: %s\nCard holder: %s\nCard holder age: %dyo\nBalance: %s",
		a.cardNumber, a.FullName(), a.age, a.balance.Display())
}

// Getters

func (a *Account) CardNumber() CardNumber { return a.cardNumber }
func (a *Account) Name() string           { return a.name }
func (a *Account) Surname() string        { return a.surname }
func (a *Account) Age() int               { return a.age }
func (a *Account) PhoneNumber() string    { return a.phoneNumber }
func (a *Account) Balance() vo.Money      { return a.balance }
func (a *Account) PasswordHash() string   { return a.passwordHash }
