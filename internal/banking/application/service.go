package application

import (
	"context"
	"errors"
	"strings"

	"cardbank/internal/banking/domain"
	"cardbank/internal/common/logging"
	"cardbank/internal/common/metrics"
	vo "cardbank/internal/common/value_objects"
)

// maxCardNumberAttempts bounds card number regeneration on collision.
const maxCardNumberAttempts = 1000

// deletionToken is the literal a caller must type to confirm a deletion.
const deletionToken = "YES"

// Operation kinds used for metrics and logs.
const (
	kindCreate         = "create"
	kindDeposit        = "deposit"
	kindWithdraw       = "withdraw"
	kindChangePassword = "change_password"
	kindDelete         = "delete"
)

// AccountRegistry is the registry the service mutates and reads.
type AccountRegistry interface {
	domain.AtomicExecutor
	domain.AccountReader
}

// ServiceConfig tunes BankingService. Zero values give bounded balances and random card numbers.
type ServiceConfig struct {
	BalancePolicy  domain.BalancePolicy
	CardNumberFunc func() domain.CardNumber
}

// BankingService handles account creation, transactions and account maintenance.
type BankingService struct {
	registry     AccountRegistry
	hasher       domain.PasswordHasher
	policy       domain.BalancePolicy
	generateCard func() domain.CardNumber
}

// NewBankingService creates a new BankingService.
func NewBankingService(registry AccountRegistry, hasher domain.PasswordHasher, cfg ServiceConfig) *BankingService {
	generate := cfg.CardNumberFunc
	if generate == nil {
		generate = domain.GenerateCardNumber
	}
	return &BankingService{
		registry:     registry,
		hasher:       hasher,
		policy:       cfg.BalancePolicy,
		generateCard: generate,
	}
}

// CreateAccountRequest carries raw, unvalidated input for CreateAccount.
type CreateAccountRequest struct {
	Name            string
	Surname         string
	Age             string
	PhoneNumber     string
	Balance         string
	Password        string
	PasswordConfirm string
}

// AccountSummary is a read-only view of an account.
type AccountSummary struct {
	CardNumber  string
	Name        string
	Surname     string
	Age         int
	PhoneNumber string
	Balance     vo.Money
	Listing     string
	Statement   string
}

// TransactionResponse reports the balance after a deposit or withdrawal.
type TransactionResponse struct {
	CardNumber string
	Amount     vo.Money
	Balance    vo.Money
}

// CheckPhoneNumber rejects a phone number that is already registered, then validates its format.
func (s *BankingService) CheckPhoneNumber(ctx context.Context, raw string) (string, error) {
	if _, err := s.registry.FindByPhoneNumber(raw); err == nil {
		return "", domain.ErrDuplicatePhoneNumber
	}
	return domain.ValidatePhoneNumber(raw)
}

// CreateAccount validates every field, hashes the password, assigns a unique card number and persists.
func (s *BankingService) CreateAccount(ctx context.Context, req CreateAccountRequest) (AccountSummary, error) {
	summary, err := s.createAccount(ctx, req)
	metrics.RecordTransaction(kindCreate, resultOf(err))
	return summary, err
}

func (s *BankingService) createAccount(ctx context.Context, req CreateAccountRequest) (AccountSummary, error) {
	phone, err := s.CheckPhoneNumber(ctx, req.PhoneNumber)
	if err != nil {
		return AccountSummary{}, err
	}
	name, err := domain.ValidateName(req.Name)
	if err != nil {
		return AccountSummary{}, err
	}
	surname, err := domain.ValidateSurname(req.Surname)
	if err != nil {
		return AccountSummary{}, err
	}
	age, err := domain.ValidateAge(req.Age)
	if err != nil {
		return AccountSummary{}, err
	}
	balance, err := domain.ValidateBalance(req.Balance)
	if err != nil {
		return AccountSummary{}, err
	}
	password, err := domain.ValidatePassword(req.Password)
	if err != nil {
		return AccountSummary{}, err
	}
	if req.PasswordConfirm != password {
		return AccountSummary{}, domain.ErrPasswordMismatch
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return AccountSummary{}, err
	}

	var created *domain.Account
	err = s.registry.Atomic(ctx, func(repos domain.Repositories) error {
		accounts := repos.Accounts()

		// Uniqueness is rechecked under the registry lock.
		if _, err := accounts.FindByPhoneNumber(phone); err == nil {
			return domain.ErrDuplicatePhoneNumber
		}

		card, err := s.uniqueCardNumber(accounts)
		if err != nil {
			return err
		}

		account, err := domain.NewAccount(card, domain.AccountParams{
			Name:        name,
			Surname:     surname,
			Age:         age,
			PhoneNumber: phone,
			Balance:     balance,
		}, hash)
		if err != nil {
			return err
		}

		created = account
		return accounts.Add(account)
	})
	if err != nil {
		return AccountSummary{}, err
	}

	logging.InfoContext(ctx, "account created",
		"card_number", created.CardNumber().String(),
	)
	return toSummary(created), nil
}

func (s *BankingService) uniqueCardNumber(accounts domain.AccountRepository) (domain.CardNumber, error) {
	for range maxCardNumberAttempts {
		card := s.generateCard()
		if _, err := accounts.FindByCardNumber(card); errors.Is(err, domain.ErrCardNotFound) {
			return card, nil
		}
	}
	return domain.CardNumber{}, domain.ErrCardNumberExhausted
}

// Deposit adds a validated amount to the session's account and persists.
// Validation and balance errors leave the session usable so the caller can re-prompt.
func (s *BankingService) Deposit(ctx context.Context, session *Session, rawAmount string) (TransactionResponse, error) {
	resp, err := s.transact(ctx, kindDeposit, session, rawAmount, func(a *domain.Account, amount vo.Money) error {
		return a.Deposit(amount, s.policy)
	})
	metrics.RecordTransaction(kindDeposit, resultOf(err))
	return resp, err
}

// Withdraw subtracts a validated amount from the session's account and persists.
// Validation and balance errors leave the session usable so the caller can re-prompt.
func (s *BankingService) Withdraw(ctx context.Context, session *Session, rawAmount string) (TransactionResponse, error) {
	resp, err := s.transact(ctx, kindWithdraw, session, rawAmount, func(a *domain.Account, amount vo.Money) error {
		return a.Withdraw(amount, s.policy)
	})
	metrics.RecordTransaction(kindWithdraw, resultOf(err))
	return resp, err
}

func (s *BankingService) transact(
	ctx context.Context,
	kind string,
	session *Session,
	rawAmount string,
	apply func(a *domain.Account, amount vo.Money) error,
) (TransactionResponse, error) {
	if err := checkSession(session, PurposeTransaction); err != nil {
		return TransactionResponse{}, err
	}

	amount, err := domain.ValidateTransactionAmount(rawAmount)
	if err != nil {
		return TransactionResponse{}, err
	}

	var updated *domain.Account
	err = s.mutate(ctx, session, func(accounts domain.AccountRepository) error {
		account, err := accounts.FindByCardNumber(session.CardNumber())
		if err != nil {
			return err
		}
		if err := apply(account, amount); err != nil {
			return err
		}
		updated = account
		return accounts.Update(account)
	})
	if err != nil {
		return TransactionResponse{}, err
	}

	logging.InfoContext(ctx, "transaction applied",
		"kind", kind,
		"card_number", updated.CardNumber().String(),
		"amount", amount.String(),
	)
	return TransactionResponse{
		CardNumber: updated.CardNumber().String(),
		Amount:     amount,
		Balance:    updated.Balance(),
	}, nil
}

// ChangePassword replaces the session account's password.
// The new password must differ from the current one, be strong, and match its confirmation, checked in that order.
func (s *BankingService) ChangePassword(ctx context.Context, session *Session, newPassword, confirm string) error {
	err := s.changePassword(ctx, session, newPassword, confirm)
	metrics.RecordTransaction(kindChangePassword, resultOf(err))
	return err
}

// CheckNewPassword runs the reuse and strength checks of ChangePassword without changing anything.
func (s *BankingService) CheckNewPassword(ctx context.Context, session *Session, newPassword string) error {
	if err := checkSession(session, PurposeTransaction); err != nil {
		return err
	}

	current, err := s.registry.FindByCardNumber(session.CardNumber())
	if err != nil {
		return err
	}
	if s.hasher.Verify(current.PasswordHash(), newPassword) {
		return domain.ErrPasswordReused
	}
	_, err = domain.ValidatePassword(newPassword)
	return err
}

func (s *BankingService) changePassword(ctx context.Context, session *Session, newPassword, confirm string) error {
	if err := s.CheckNewPassword(ctx, session, newPassword); err != nil {
		return err
	}
	if confirm != newPassword {
		return domain.ErrPasswordMismatch
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	err = s.mutate(ctx, session, func(accounts domain.AccountRepository) error {
		account, err := accounts.FindByCardNumber(session.CardNumber())
		if err != nil {
			return err
		}
		account.SetPasswordHash(hash)
		return accounts.Update(account)
	})
	if err != nil {
		return err
	}

	logging.InfoContext(ctx, "password changed", "card_number", session.CardNumber().String())
	return nil
}

// DeleteAccount removes the session's account after an explicit "YES".
// The session must come from Authenticator.Reauthenticate. "n", "no" or "cancel" (any case)
// abort and consume the session; any other answer asks again.
func (s *BankingService) DeleteAccount(ctx context.Context, session *Session, confirmation string) error {
	err := s.deleteAccount(ctx, session, confirmation)
	metrics.RecordTransaction(kindDelete, resultOf(err))
	return err
}

func (s *BankingService) deleteAccount(ctx context.Context, session *Session, confirmation string) error {
	if err := checkSession(session, PurposeDeletion); err != nil {
		return err
	}

	answer := strings.TrimSpace(confirmation)
	switch {
	case answer == deletionToken:
	case isCancel(answer):
		if err := session.claim(); err != nil {
			return err
		}
		logging.InfoContext(ctx, "account deletion cancelled", "card_number", session.CardNumber().String())
		return domain.ErrDeletionCancelled
	default:
		return domain.ErrConfirmationRequired
	}

	err := s.mutate(ctx, session, func(accounts domain.AccountRepository) error {
		return accounts.Remove(session.CardNumber())
	})
	if err != nil {
		return err
	}

	logging.InfoContext(ctx, "account deleted", "card_number", session.CardNumber().String())
	return nil
}

// GetAccount returns the account with the given card number.
func (s *BankingService) GetAccount(ctx context.Context, rawCard string) (AccountSummary, error) {
	card, err := domain.ParseCardNumber(rawCard)
	if err != nil {
		return AccountSummary{}, domain.ErrCardNotFound
	}
	account, err := s.registry.FindByCardNumber(card)
	if err != nil {
		return AccountSummary{}, err
	}
	return toSummary(account), nil
}

// ListAccounts returns every account in creation order.
func (s *BankingService) ListAccounts(ctx context.Context) ([]AccountSummary, error) {
	return toSummaries(s.registry.All())
}

// SortByBalance returns every account ordered by balance; equal balances keep creation order.
func (s *BankingService) SortByBalance(ctx context.Context, descending bool) ([]AccountSummary, error) {
	return toSummaries(s.registry.SortedByBalance(descending))
}

func toSummaries(accounts []*domain.Account) ([]AccountSummary, error) {
	if len(accounts) == 0 {
		return nil, domain.ErrNoAccounts
	}
	out := make([]AccountSummary, len(accounts))
	for i, a := range accounts {
		out[i] = toSummary(a)
	}
	return out, nil
}

func toSummary(a *domain.Account) AccountSummary {
	return AccountSummary{
		CardNumber:  a.CardNumber().String(),
		Name:        a.Name(),
		Surname:     a.Surname(),
		Age:         a.Age(),
		PhoneNumber: a.PhoneNumber(),
		Balance:     a.Balance(),
		Listing:     a.String(),
		Statement:   a.Statement(),
	}
}

// mutate runs fn under the registry lock after claiming session.
// The claim is released when fn or the save fails, so the caller can retry.
func (s *BankingService) mutate(ctx context.Context, session *Session, fn func(accounts domain.AccountRepository) error) error {
	claimed := false
	err := s.registry.Atomic(ctx, func(repos domain.Repositories) error {
		if err := session.claim(); err != nil {
			return err
		}
		claimed = true
		return fn(repos.Accounts())
	})
	if err != nil && claimed {
		session.release()
	}
	return err
}

func checkSession(session *Session, purpose Purpose) error {
	if session == nil || session.Purpose() != purpose {
		return domain.ErrReauthenticationRequired
	}
	if session.Consumed() {
		return domain.ErrSessionConsumed
	}
	return nil
}

func isCancel(answer string) bool {
	switch strings.ToLower(answer) {
	case "n", "no", "cancel":
		return true
	default:
		return false
	}
}

// resultOf maps an operation error to a metrics result label.
func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, domain.ErrPersistence):
		return metrics.ResultFailed
	default:
		return metrics.ResultRejected
	}
}
