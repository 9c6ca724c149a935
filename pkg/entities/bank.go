package entities

import (
	"time"
)

// Account is the credit meter the player sees on the cabinet
type Account struct {
	ID        string    // Bank account identifier
	Credits   int64     // Current credits in base units
	Locked    bool      // Money-in is refused while locked
	UpdatedAt time.Time // When the account was last written
}

// BankTransactionType represents the type of bank transaction
type BankTransactionType string

const (
	BankTransactionWager   BankTransactionType = "WAGER"
	BankTransactionWin     BankTransactionType = "WIN"
	BankTransactionHandpay BankTransactionType = "HANDPAY"
	BankTransactionCashOut BankTransactionType = "CASH_OUT"
	BankTransactionDeposit BankTransactionType = "DEPOSIT"
)

// BankTransaction is a single ledger entry
type BankTransaction struct {
	ID           string              // Unique identifier
	AccountID    string              // Account the entry belongs to
	Type         BankTransactionType // Type of transaction
	Amount       int64               // Signed change applied to the credits
	BalanceAfter int64               // Credits after this transaction
	RoundID      string              // Round the entry was made for, if any
	Timestamp    time.Time           // When the transaction occurred
}

// CashOutMarker is persisted before a cash-out is attempted and removed once
// the device confirms it
type CashOutMarker struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requestedAt"`
}
