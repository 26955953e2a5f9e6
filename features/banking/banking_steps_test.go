package banking

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
	"golang.org/x/crypto/bcrypt"

	"cardbank/internal/banking/application"
	"cardbank/internal/banking/domain"
	"cardbank/internal/banking/infrastructure/credentials"
	"cardbank/internal/banking/infrastructure/filestore"
	"cardbank/internal/banking/infrastructure/memory"
)

const (
	correctPassword = "abc123!@"
	wrongPassword   = "nope1234!"
)

type bankingState struct {
	ctx       context.Context
	dir       string
	store     *filestore.Store
	registry  *memory.Registry
	auth      *application.Authenticator
	service   *application.BankingService
	card      string
	challenge *application.Challenge
	session   *application.Session
	validated string
	lastError error
}

func InitializeBankingScenario(ctx *godog.ScenarioContext) {
	state := &bankingState{ctx: context.Background()}

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if state.dir != "" {
			_ = os.RemoveAll(state.dir)
		}
		return ctx, nil
	})

	// Validation steps
	ctx.Step(`^I validate the name "([^"]*)"$`, state.iValidateTheName)
	ctx.Step(`^I validate the age "([^"]*)"$`, state.iValidateTheAge)
	ctx.Step(`^I validate the phone number "([^"]*)"$`, state.iValidateThePhoneNumber)
	ctx.Step(`^I validate the password "([^"]*)"$`, state.iValidateThePassword)
	ctx.Step(`^the validated value should be "([^"]*)"$`, state.theValidatedValueShouldBe)
	ctx.Step(`^validation should fail with "([^"]*)"$`, state.theRequestShouldFailWith)
	ctx.Step(`^the validation outcome should be "(valid|invalid)"$`, state.theValidationOutcomeShouldBe)

	// Account steps
	ctx.Step(`^an empty bank$`, state.anEmptyBank)
	ctx.Step(`^an account for "([^"]*)" "([^"]*)" with phone "([^"]*)" and balance "([^"]*)"$`, state.anAccountFor)
	ctx.Step(`^I open an account for "([^"]*)" "([^"]*)" aged (\d+) with phone "([^"]*)" and balance "([^"]*)"$`, state.iOpenAnAccountFor)
	ctx.Step(`^the account should be opened$`, state.theAccountShouldBeOpened)
	ctx.Step(`^the bank should hold (\d+) accounts?$`, state.theBankShouldHold)
	ctx.Step(`^the store should hold (\d+) accounts?$`, state.theStoreShouldHold)
	ctx.Step(`^the bank restarts$`, state.theBankRestarts)
	ctx.Step(`^the account with phone "([^"]*)" should have balance "([^"]*)"$`, state.theAccountWithPhoneShouldHaveBalance)
	ctx.Step(`^the account should no longer be found$`, state.theAccountShouldNoLongerBeFound)
	ctx.Step(`^the request should fail with "([^"]*)"$`, state.theRequestShouldFailWith)

	// Authentication steps
	ctx.Step(`^I am logged in$`, state.iAmLoggedIn)
	ctx.Step(`^I start a password challenge$`, state.iStartAPasswordChallenge)
	ctx.Step(`^I start a re-authentication challenge$`, state.iStartAReauthenticationChallenge)
	ctx.Step(`^I enter the wrong password (\d+) times$`, state.iEnterTheWrongPasswordTimes)
	ctx.Step(`^I enter the correct password$`, state.iEnterTheCorrectPassword)
	ctx.Step(`^I should be logged in$`, state.iShouldBeLoggedIn)
	ctx.Step(`^the challenge should be locked$`, state.theChallengeShouldBeLocked)
	ctx.Step(`^entering the correct password should be refused$`, state.enteringTheCorrectPasswordShouldBeRefused)
	ctx.Step(`^I re-authenticate with the correct password$`, state.iReauthenticateWithTheCorrectPassword)
	ctx.Step(`^I confirm the deletion with "([^"]*)"$`, state.iConfirmTheDeletionWith)

	// Transaction steps
	ctx.Step(`^I deposit "([^"]*)"$`, state.iDeposit)
	ctx.Step(`^I withdraw "([^"]*)"$`, state.iWithdraw)
	ctx.Step(`^the balance should be "([^"]*)"$`, state.theBalanceShouldBe)
}

func (s *bankingState) recordValidation(value string, err error) error {
	s.validated = value
	s.lastError = err
	return nil // Validation errors are asserted by later steps
}

func (s *bankingState) iValidateTheName(raw string) error {
	return s.recordValidation(domain.ValidateName(raw))
}

func (s *bankingState) iValidateTheAge(raw string) error {
	_, err := domain.ValidateAge(raw)
	return s.recordValidation(raw, err)
}

func (s *bankingState) iValidateThePhoneNumber(raw string) error {
	return s.recordValidation(domain.ValidatePhoneNumber(raw))
}

func (s *bankingState) iValidateThePassword(raw string) error {
	return s.recordValidation(domain.ValidatePassword(raw))
}

func (s *bankingState) theValidatedValueShouldBe(expected string) error {
	if s.lastError != nil {
		return fmt.Errorf("expected validation to pass, got error: %v", s.lastError)
	}
	if s.validated != expected {
		return fmt.Errorf("expected %q, got %q", expected, s.validated)
	}
	return nil
}

func (s *bankingState) theValidationOutcomeShouldBe(outcome string) error {
	switch {
	case outcome == "valid" && s.lastError != nil:
		return fmt.Errorf("expected value to be valid, got error: %v", s.lastError)
	case outcome == "invalid" && s.lastError == nil:
		return errors.New("expected value to be invalid")
	}
	return nil
}

func (s *bankingState) anEmptyBank() error {
	dir, err := os.MkdirTemp("", "cardbank-features-")
	if err != nil {
		return err
	}
	s.dir = dir
	s.store = filestore.New(filepath.Join(dir, "accounts.json"), filestore.FormatJSON)
	return s.wire()
}

// wire builds a fresh registry over the scenario's store and loads it.
func (s *bankingState) wire() error {
	s.registry = memory.NewRegistry(s.store, "json")
	if _, err := s.registry.Load(s.ctx); err != nil {
		return err
	}
	hasher := credentials.NewHasher(bcrypt.MinCost)
	s.auth = application.NewAuthenticator(s.registry, hasher, application.AuthConfig{})
	s.service = application.NewBankingService(s.registry, hasher, application.ServiceConfig{})
	return nil
}

func (s *bankingState) openAccount(name, surname, age, phone, balance string) {
	summary, err := s.service.CreateAccount(s.ctx, application.CreateAccountRequest{
		Name:            name,
		Surname:         surname,
		Age:             age,
		PhoneNumber:     phone,
		Balance:         balance,
		Password:        correctPassword,
		PasswordConfirm: correctPassword,
	})
	s.lastError = err
	if err == nil {
		s.card = summary.CardNumber
	}
}

func (s *bankingState) anAccountFor(name, surname, phone, balance string) error {
	s.openAccount(name, surname, "30", phone, balance)
	if s.lastError != nil {
		return fmt.Errorf("failed to open account: %w", s.lastError)
	}
	return nil
}

func (s *bankingState) iOpenAnAccountFor(name, surname string, age int, phone, balance string) error {
	s.openAccount(name, surname, fmt.Sprint(age), phone, balance)
	return nil
}

func (s *bankingState) theAccountShouldBeOpened() error {
	if s.lastError != nil {
		return fmt.Errorf("expected account to be opened, got error: %v", s.lastError)
	}
	if _, err := domain.ParseCardNumber(s.card); err != nil {
		return fmt.Errorf("expected a valid card number, got %q", s.card)
	}
	return nil
}

func (s *bankingState) theBankShouldHold(count int) error {
	if got := s.registry.Len(); got != count {
		return fmt.Errorf("expected %d accounts, got %d", count, got)
	}
	return nil
}

func (s *bankingState) theStoreShouldHold(count int) error {
	accounts, err := s.store.Load(s.ctx)
	if err != nil {
		return err
	}
	if len(accounts) != count {
		return fmt.Errorf("expected %d stored accounts, got %d", count, len(accounts))
	}
	return nil
}

func (s *bankingState) theBankRestarts() error {
	return s.wire()
}

func (s *bankingState) theAccountWithPhoneShouldHaveBalance(phone, balance string) error {
	account, err := s.registry.FindByPhoneNumber(phone)
	if err != nil {
		return err
	}
	if got := account.Balance().String(); got != balance {
		return fmt.Errorf("expected balance %s, got %s", balance, got)
	}
	return nil
}

func (s *bankingState) theAccountShouldNoLongerBeFound() error {
	if s.lastError != nil {
		return fmt.Errorf("expected deletion to succeed, got error: %v", s.lastError)
	}
	_, err := s.service.GetAccount(s.ctx, s.card)
	if !errors.Is(err, domain.ErrCardNotFound) {
		return fmt.Errorf("expected card not found, got %v", err)
	}
	return nil
}

func (s *bankingState) theRequestShouldFailWith(message string) error {
	if s.lastError == nil {
		return fmt.Errorf("expected error containing %q, got none", message)
	}
	if !strings.Contains(s.lastError.Error(), message) {
		return fmt.Errorf("expected error containing %q, got %q", message, s.lastError.Error())
	}
	return nil
}

func (s *bankingState) iAmLoggedIn() error {
	if err := s.iStartAPasswordChallenge(); err != nil {
		return err
	}
	if err := s.iEnterTheCorrectPassword(); err != nil {
		return err
	}
	return s.iShouldBeLoggedIn()
}

func (s *bankingState) iStartAPasswordChallenge() error {
	challenge, err := s.auth.Begin(s.ctx, s.card)
	if err != nil {
		return err
	}
	s.challenge = challenge
	s.session = nil
	return nil
}

func (s *bankingState) iStartAReauthenticationChallenge() error {
	challenge, err := s.auth.Reauthenticate(s.ctx, s.session)
	if err != nil {
		return err
	}
	s.challenge = challenge
	s.session = nil
	return nil
}

func (s *bankingState) iEnterTheWrongPasswordTimes(times int) error {
	for range times {
		_, s.lastError = s.challenge.Attempt(s.ctx, wrongPassword)
	}
	return nil
}

func (s *bankingState) iEnterTheCorrectPassword() error {
	s.session, s.lastError = s.challenge.Attempt(s.ctx, correctPassword)
	return nil
}

func (s *bankingState) iShouldBeLoggedIn() error {
	if s.lastError != nil {
		return fmt.Errorf("expected login to succeed, got error: %v", s.lastError)
	}
	if s.session == nil {
		return errors.New("no session")
	}
	return nil
}

func (s *bankingState) theChallengeShouldBeLocked() error {
	if !errors.Is(s.lastError, domain.ErrTooManyAttempts) {
		return fmt.Errorf("expected too many attempts, got %v", s.lastError)
	}
	if s.challenge.State() != application.ChallengeLocked {
		return fmt.Errorf("expected locked challenge, got %s", s.challenge.State())
	}
	return nil
}

func (s *bankingState) enteringTheCorrectPasswordShouldBeRefused() error {
	if _, err := s.challenge.Attempt(s.ctx, correctPassword); !errors.Is(err, domain.ErrTooManyAttempts) {
		return fmt.Errorf("expected too many attempts, got %v", err)
	}
	return nil
}

func (s *bankingState) iReauthenticateWithTheCorrectPassword() error {
	if err := s.iStartAReauthenticationChallenge(); err != nil {
		return err
	}
	if err := s.iEnterTheCorrectPassword(); err != nil {
		return err
	}
	return s.iShouldBeLoggedIn()
}

func (s *bankingState) iConfirmTheDeletionWith(answer string) error {
	s.lastError = s.service.DeleteAccount(s.ctx, s.session, answer)
	return nil
}

func (s *bankingState) iDeposit(amount string) error {
	_, s.lastError = s.service.Deposit(s.ctx, s.session, amount)
	return nil
}

func (s *bankingState) iWithdraw(amount string) error {
	_, s.lastError = s.service.Withdraw(s.ctx, s.session, amount)
	return nil
}

func (s *bankingState) theBalanceShouldBe(balance string) error {
	account, err := s.service.GetAccount(s.ctx, s.card)
	if err != nil {
		return err
	}
	if got := account.Balance.String(); got != balance {
		return fmt.Errorf("expected balance %s, got %s", balance, got)
	}
	return nil
}
