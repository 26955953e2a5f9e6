package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cardbank/internal/banking/application"
	"cardbank/internal/banking/domain"
	"cardbank/internal/common/logging"
	vo "cardbank/internal/common/value_objects"
)

// errInputClosed is returned by prompt when the input stream ends.
var errInputClosed = errors.New("input closed")

const menu = `1. Create new bank account
2. List all bank accounts
3. Deposit money
4. Withdraw money
5. Update password
6. Delete bank account
7. Sort by balance
8. Exit
`

// Shell is the interactive menu over the banking service.
// All blocking input is read here; the service and authenticator never prompt.
type Shell struct {
	service *application.BankingService
	auth    *application.Authenticator
	in      io.Reader
	out     io.Writer
	lines   <-chan string
}

// NewShell creates a new Shell reading from in and writing prompts to out.
func NewShell(service *application.BankingService, auth *application.Authenticator, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		service: service,
		auth:    auth,
		in:      in,
		out:     out,
	}
}

// Run shows the menu until the user exits, the input ends, or ctx is cancelled.
// It returns nil on exit and end of input, and ctx.Err() on cancellation.
func (s *Shell) Run(ctx context.Context) error {
	s.lines = readLines(ctx, s.in)

	for {
		s.print(menu)
		option, err := s.prompt(ctx, "Enter one option: ")
		if err != nil {
			return s.stopped(err)
		}

		switch strings.TrimSpace(option) {
		case "1":
			err = s.createAccount(s.operation(ctx, "create_account"))
		case "2":
			err = s.listAccounts(s.operation(ctx, "list_accounts"))
		case "3":
			err = s.deposit(s.operation(ctx, "deposit"))
		case "4":
			err = s.withdraw(s.operation(ctx, "withdraw"))
		case "5":
			err = s.updatePassword(s.operation(ctx, "update_password"))
		case "6":
			err = s.deleteAccount(s.operation(ctx, "delete_account"))
		case "7":
			err = s.sortByBalance(s.operation(ctx, "sort_by_balance"))
		case "8":
			s.println("Goodbye")
			return nil
		default:
			s.println("Wrong option, try again.\n")
		}
		if err != nil {
			return s.stopped(err)
		}
	}
}

func (s *Shell) stopped(err error) error {
	if errors.Is(err, errInputClosed) {
		return nil
	}
	return err
}

// operation tags ctx with a fresh correlation ID and the menu operation name.
func (s *Shell) operation(ctx context.Context, name string) context.Context {
	ctx = logging.WithCorrelationID(ctx, vo.NewCorrelationID())
	return logging.WithOperation(ctx, name)
}

func (s *Shell) createAccount(ctx context.Context) error {
	s.println("Creating new bank account...")

	name, err := s.promptValid(ctx, "Enter your name: ", domain.ValidateName)
	if err != nil {
		return err
	}
	surname, err := s.promptValid(ctx, "Enter your surname: ", domain.ValidateSurname)
	if err != nil {
		return err
	}
	age, err := s.promptValid(ctx, "Enter your age: ", func(raw string) (string, error) {
		_, err := domain.ValidateAge(raw)
		return raw, err
	})
	if err != nil {
		return err
	}
	phone, err := s.promptValid(ctx, "Enter your phone number: ", func(raw string) (string, error) {
		return s.service.CheckPhoneNumber(ctx, raw)
	})
	if err != nil {
		return err
	}
	balance, err := s.promptValid(ctx, "Enter your balance: ", func(raw string) (string, error) {
		amount, err := domain.ValidateBalance(raw)
		return amount.String(), err
	})
	if err != nil {
		return err
	}
	password, err := s.promptValid(ctx, "Enter your password: ", domain.ValidatePassword)
	if err != nil {
		return err
	}
	for {
		confirm, err := s.prompt(ctx, "Confirm password: ")
		if err != nil {
			return err
		}
		if confirm == password {
			break
		}
		s.println(describe(ctx, domain.ErrPasswordMismatch))
	}

	summary, err := s.service.CreateAccount(ctx, application.CreateAccountRequest{
		Name:            name,
		Surname:         surname,
		Age:             age,
		PhoneNumber:     phone,
		Balance:         balance,
		Password:        password,
		PasswordConfirm: password,
	})
	if err != nil {
		s.println(describe(ctx, err))
		return nil
	}

	s.println("Congratulations! You have created a bank account.")
	s.printf("Your card number is %s\n", summary.CardNumber)
	return nil
}

func (s *Shell) listAccounts(ctx context.Context) error {
	accounts, err := s.service.ListAccounts(ctx)
	if errors.Is(err, domain.ErrNoAccounts) {
		s.println("Cannot list, no accounts have been created yet.\n")
		return nil
	}
	if err != nil {
		s.println(describe(ctx, err))
		return nil
	}

	s.printf("Number of created bank accounts: %d\n", len(accounts))
	s.printAccounts(accounts)
	return nil
}

func (s *Shell) sortByBalance(ctx context.Context) error {
	if _, err := s.service.ListAccounts(ctx); errors.Is(err, domain.ErrNoAccounts) {
		s.println("No accounts have been created yet.\nCannot sort.\n")
		return nil
	}

	for {
		s.println("1. High to low")
		s.println("2. Low to high")
		option, err := s.prompt(ctx, "Choose: ")
		if err != nil {
			return err
		}

		var descending bool
		switch strings.TrimSpace(option) {
		case "1":
			descending = true
		case "2":
			descending = false
		default:
			s.println("Wrong option.")
			continue
		}

		accounts, err := s.service.SortByBalance(ctx, descending)
		if err != nil {
			s.println(describe(ctx, err))
			return nil
		}
		s.printAccounts(accounts)
		return nil
	}
}

func (s *Shell) deposit(ctx context.Context) error {
	return s.transact(ctx, "deposit", "How much money would you like to deposit into your account?: ",
		s.service.Deposit, "Successfully deposited!")
}

func (s *Shell) withdraw(ctx context.Context) error {
	return s.transact(ctx, "withdraw", "How much money would you like to withdraw from your account?: ",
		s.service.Withdraw, "Successfully withdrew!")
}

type transactFunc func(ctx context.Context, session *application.Session, rawAmount string) (application.TransactionResponse, error)

func (s *Shell) transact(ctx context.Context, verb, label string, apply transactFunc, done string) error {
	session, err := s.login(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		s.printf("Cannot %s.\n\n", verb)
		return nil
	}

	for {
		raw, err := s.prompt(ctx, label)
		if err != nil {
			return err
		}

		resp, err := apply(ctx, session, raw)
		switch {
		case err == nil:
			s.println(done)
			s.printStatement(ctx, resp.CardNumber)
			return nil
		case errors.Is(err, domain.ErrInvalidAmount):
			s.println(describe(ctx, err))
		case errors.Is(err, domain.ErrInsufficientFunds),
			errors.Is(err, domain.ErrBalanceCeilingExceeded):
			s.println(describe(ctx, err))
			s.printf("Cannot %s.\n\n", verb)
			return nil
		default:
			s.println(describe(ctx, err))
			return nil
		}
	}
}

func (s *Shell) updatePassword(ctx context.Context) error {
	session, err := s.login(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		s.println("Cannot update password.\n")
		return nil
	}

	for {
		password, err := s.prompt(ctx, "Enter new password: ")
		if err != nil {
			return err
		}
		if err := s.service.CheckNewPassword(ctx, session, password); err != nil {
			s.println(describe(ctx, err))
			continue
		}

		confirm, err := s.prompt(ctx, "Confirm new password: ")
		if err != nil {
			return err
		}

		err = s.service.ChangePassword(ctx, session, password, confirm)
		switch {
		case err == nil:
			s.println("Password successfully updated!")
			return nil
		case errors.Is(err, domain.ErrPasswordMismatch):
			s.println(describe(ctx, err))
		default:
			s.println(describe(ctx, err))
			return nil
		}
	}
}

func (s *Shell) deleteAccount(ctx context.Context) error {
	session, err := s.login(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		s.println("Cannot delete.\n")
		return nil
	}

	for {
		answer, err := s.prompt(ctx, "Do you want to delete your account (y/n): ")
		if err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return s.confirmDeletion(ctx, session)
		case "n", "no":
			s.println("Ok, bye.")
			return nil
		default:
			s.println("Wrong option.")
		}
	}
}

func (s *Shell) confirmDeletion(ctx context.Context, login *application.Session) error {
	challenge, err := s.auth.Reauthenticate(ctx, login)
	if err != nil {
		s.println(describe(ctx, err))
		return nil
	}
	session, err := s.attemptPassword(ctx, challenge, "Confirm your password: ")
	if err != nil || session == nil {
		return err
	}

	for {
		answer, err := s.prompt(ctx, "Are you sure (YES)?: ")
		if err != nil {
			return err
		}

		err = s.service.DeleteAccount(ctx, session, answer)
		switch {
		case err == nil:
			s.println("Your account has been successfully deleted.")
			return nil
		case errors.Is(err, domain.ErrDeletionCancelled):
			s.println("Deleting account cancelled.")
			return nil
		case errors.Is(err, domain.ErrConfirmationRequired):
			s.println("Wrong option.")
		default:
			s.println(describe(ctx, err))
			return nil
		}
	}
}

// login asks for a card number until one matches, then runs a password challenge.
// A nil session with a nil error means the login failed and was reported.
func (s *Shell) login(ctx context.Context) (*application.Session, error) {
	for {
		card, err := s.prompt(ctx, "Enter your credit card number: ")
		if err != nil {
			return nil, err
		}

		challenge, err := s.auth.Begin(ctx, card)
		switch {
		case err == nil:
			session, err := s.attemptPassword(ctx, challenge, "Enter your password: ")
			if err != nil || session == nil {
				return nil, err
			}
			if account, err := s.service.GetAccount(ctx, session.CardNumber().String()); err == nil {
				s.printf("Successfully logged in as %s %s\n", account.Name, account.Surname)
			}
			return session, nil
		case errors.Is(err, domain.ErrNoAccounts):
			s.println("No accounts have been created yet.")
			return nil, nil
		case errors.Is(err, domain.ErrCardNotFound):
			s.println("Error! Card number doesn't exist in our system.")
		default:
			s.println(describe(ctx, err))
			return nil, nil
		}
	}
}

func (s *Shell) attemptPassword(ctx context.Context, challenge *application.Challenge, label string) (*application.Session, error) {
	for {
		password, err := s.prompt(ctx, label)
		if err != nil {
			return nil, err
		}

		session, err := challenge.Attempt(ctx, password)
		if err == nil {
			return session, nil
		}

		var wrong *domain.WrongPasswordError
		switch {
		case errors.As(err, &wrong):
			s.printf("Wrong password. You can try %d more times.\n", wrong.Remaining)
		case errors.Is(err, domain.ErrTooManyAttempts):
			s.println("Too many failed attempts... Try again later.")
			return nil, nil
		default:
			s.println(describe(ctx, err))
			return nil, nil
		}
	}
}

// promptValid asks until validate accepts the input and returns the validated value.
func (s *Shell) promptValid(ctx context.Context, label string, validate func(string) (string, error)) (string, error) {
	for {
		raw, err := s.prompt(ctx, label)
		if err != nil {
			return "", err
		}
		value, err := validate(raw)
		if err == nil {
			return value, nil
		}
		s.println(describe(ctx, err))
	}
}

func (s *Shell) prompt(ctx context.Context, label string) (string, error) {
	s.print(label)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return "", errInputClosed
		}
		return strings.TrimRight(line, "\r"), nil
	}
}

func (s *Shell) printStatement(ctx context.Context, card string) {
	account, err := s.service.GetAccount(ctx, card)
	if err != nil {
		s.println(describe(ctx, err))
		return
	}
	s.println(account.Statement + "\n")
}

func (s *Shell) printAccounts(accounts []application.AccountSummary) {
	for i, account := range accounts {
		s.printf("%d. %s\n", i+1, account.Listing)
	}
}

func (s *Shell) print(text string) {
	fmt.Fprint(s.out, text)
}

func (s *Shell) println(text string) {
	fmt.Fprintln(s.out, text)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// readLines feeds input lines to a channel until the input ends or ctx is done.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
