package bank

import (
	"context"
	"errors"
	"fmt"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/entities"
	bankRepo "github.com/fadedpez/egmcore/pkg/repositories/bank"
)

// Service handles the cabinet's single credit account
type Service struct {
	repo      bankRepo.Repository
	accountID string
	log       *logging.Logger
}

// NewService creates a new bank service for accountID
func NewService(repo bankRepo.Repository, accountID string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default
	}
	return &Service{
		repo:      repo,
		accountID: accountID,
		log:       logger.Named("bank"),
	}
}

// AccountID returns the account this service operates on
func (s *Service) AccountID() string {
	return s.accountID
}

// EnsureAccount creates the account with zero credits if it does not exist
func (s *Service) EnsureAccount(ctx context.Context) (*entities.Account, error) {
	account, err := s.repo.GetAccount(ctx, s.accountID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, bankRepo.ErrAccountNotFound) {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to load bank account", err)
	}

	account = &entities.Account{ID: s.accountID}
	if err := s.repo.SaveAccount(ctx, account); err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to create bank account", err)
	}
	s.log.Info("Created bank account %s", s.accountID)
	return account, nil
}

// QueryBalance returns the account as currently stored
func (s *Service) QueryBalance(ctx context.Context) (*entities.Account, error) {
	return s.EnsureAccount(ctx)
}

// Credits returns the current credits
func (s *Service) Credits(ctx context.Context) (int64, error) {
	account, err := s.EnsureAccount(ctx)
	if err != nil {
		return 0, err
	}
	return account.Credits, nil
}

// IsLocked reports whether money-in is currently refused
func (s *Service) IsLocked(ctx context.Context) (bool, error) {
	account, err := s.EnsureAccount(ctx)
	if err != nil {
		return false, err
	}
	return account.Locked, nil
}

// Lock refuses money-in until Unlock
func (s *Service) Lock(ctx context.Context) error {
	return s.setLocked(ctx, true)
}

// Unlock accepts money-in again
func (s *Service) Unlock(ctx context.Context) error {
	return s.setLocked(ctx, false)
}

func (s *Service) setLocked(ctx context.Context, locked bool) error {
	account, err := s.EnsureAccount(ctx)
	if err != nil {
		return err
	}
	if account.Locked == locked {
		return nil
	}
	account.Locked = locked
	if err := s.repo.SaveAccount(ctx, account); err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to save bank account", err)
	}
	s.log.Debug("Bank locked=%t", locked)
	return nil
}

// Wager removes amount from the credits for roundID
func (s *Service) Wager(ctx context.Context, amount int64, roundID string) error {
	if amount <= 0 {
		return types.NewGameError(types.ErrInvalidArgument, "wager must be positive")
	}
	return s.apply(ctx, entities.BankTransactionWager, -amount, roundID)
}

// AddWin credits a win paid by the machine
func (s *Service) AddWin(ctx context.Context, amount int64, roundID string) error {
	if amount < 0 {
		return types.NewGameError(types.ErrInvalidArgument, "win cannot be negative")
	}
	if amount == 0 {
		return nil
	}
	return s.apply(ctx, entities.BankTransactionWin, amount, roundID)
}

// RecordHandpay records a win paid by an attendant. The credits do not change.
func (s *Service) RecordHandpay(ctx context.Context, amount int64, roundID string) error {
	if amount <= 0 {
		return types.NewGameError(types.ErrInvalidArgument, "handpay must be positive")
	}

	account, err := s.EnsureAccount(ctx)
	if err != nil {
		return err
	}
	s.log.Info("Recording handpay of %d for round %s", amount, roundID)
	return s.record(ctx, account, entities.BankTransactionHandpay, amount, roundID)
}

// CashOut empties the credits and returns the amount paid out
func (s *Service) CashOut(ctx context.Context) (int64, error) {
	account, err := s.EnsureAccount(ctx)
	if err != nil {
		return 0, err
	}
	amount := account.Credits
	if amount == 0 {
		return 0, nil
	}
	if err := s.apply(ctx, entities.BankTransactionCashOut, -amount, ""); err != nil {
		return 0, err
	}
	return amount, nil
}

// Deposit adds money-in credits. It fails while the bank is locked.
func (s *Service) Deposit(ctx context.Context, amount int64) error {
	if amount <= 0 {
		return types.NewGameError(types.ErrInvalidArgument, "deposit must be positive")
	}
	account, err := s.EnsureAccount(ctx)
	if err != nil {
		return err
	}
	if account.Locked {
		return types.NewGameError(types.ErrBankLocked, "money-in is not allowed right now")
	}
	return s.apply(ctx, entities.BankTransactionDeposit, amount, "")
}

// Transactions returns the most recent ledger entries, newest last
func (s *Service) Transactions(ctx context.Context, limit int) ([]*entities.BankTransaction, error) {
	return s.repo.GetTransactions(ctx, s.accountID, limit)
}

func (s *Service) apply(ctx context.Context, txType entities.BankTransactionType, delta int64, roundID string) error {
	account, err := s.EnsureAccount(ctx)
	if err != nil {
		return err
	}
	if account.Credits+delta < 0 {
		return types.NewGameError(types.ErrInsufficientCredits,
			fmt.Sprintf("credits %d cannot cover %d", account.Credits, -delta))
	}

	account.Credits += delta
	if err := s.repo.SaveAccount(ctx, account); err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to save bank account", err)
	}
	s.log.Debug("%s %d, credits now %d", txType, delta, account.Credits)
	return s.record(ctx, account, txType, delta, roundID)
}

func (s *Service) record(ctx context.Context, account *entities.Account, txType entities.BankTransactionType, amount int64, roundID string) error {
	transaction := &entities.BankTransaction{
		AccountID:    account.ID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: account.Credits,
		RoundID:      roundID,
	}
	if err := s.repo.AddTransaction(ctx, transaction); err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to record bank transaction", err)
	}
	return nil
}
