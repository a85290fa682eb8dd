package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"ledgersync/logx"
	"ledgersync/merkledb"
)

var (
	ErrEmptyAddress = errors.New("address must not be empty")
	ErrNilAmount    = errors.New("amount must not be nil")
)

// Ledger owns every mutation path to account balances. Balances live in the
// state store's data keyspace as big-endian bytes; an absent key is a zero
// balance.
type Ledger struct {
	mu    sync.RWMutex
	store *merkledb.Store
}

func NewLedger(store *merkledb.Store) *Ledger {
	return &Ledger{store: store}
}

// GetBalance returns the current balance for addr, zero for an unknown
// address.
func (l *Ledger) GetBalance(addr []byte) (*uint256.Int, error) {
	if len(addr) == 0 {
		return nil, ErrEmptyAddress
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.readBalance(addr)
}

func (l *Ledger) readBalance(addr []byte) (*uint256.Int, error) {
	data, err := l.store.Get(addr)
	if err != nil {
		return nil, fmt.Errorf("could not read balance of %s: %w", hex.EncodeToString(addr), err)
	}
	if len(data) == 0 {
		return uint256.NewInt(0), nil
	}

	return new(uint256.Int).SetBytes(data), nil
}

func (l *Ledger) writeBalance(addr []byte, balance *uint256.Int) error {
	if err := l.store.Put(addr, balance.Bytes()); err != nil {
		return fmt.Errorf("could not write balance of %s: %w", hex.EncodeToString(addr), err)
	}
	return nil
}

// SetBalance overwrites the balance for addr unconditionally. Used for
// genesis initialization.
func (l *Ledger) SetBalance(addr []byte, balance *uint256.Int) error {
	if len(addr) == 0 {
		return ErrEmptyAddress
	}
	if balance == nil {
		return ErrNilAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeBalance(addr, balance)
}

// Transfer moves amount from sender to receiver. Insufficient funds is a
// rejected operation, not an error: the ledger is left untouched and
// (false, nil) is returned.
func (l *Ledger) Transfer(sender, receiver []byte, amount *uint256.Int) (bool, error) {
	if len(sender) == 0 || len(receiver) == 0 {
		return false, ErrEmptyAddress
	}
	if amount == nil {
		return false, ErrNilAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	senderBalance, err := l.readBalance(sender)
	if err != nil {
		return false, err
	}
	if senderBalance.Lt(amount) {
		return false, nil
	}

	newSenderBalance := new(uint256.Int).Sub(senderBalance, amount)
	if err := l.writeBalance(sender, newSenderBalance); err != nil {
		return false, err
	}

	// Receiver is read after the sender write so a self-transfer nets out.
	receiverBalance, err := l.readBalance(receiver)
	if err != nil {
		return false, err
	}
	newReceiverBalance := new(uint256.Int).Add(receiverBalance, amount)
	if err := l.writeBalance(receiver, newReceiverBalance); err != nil {
		return false, err
	}

	return true, nil
}

// RootHash returns the current content digest of the balance mapping, nil
// when the mapping is empty.
func (l *Ledger) RootHash() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.Digest()
}

// Revert discards all balance and checkpoint mutations staged since the last
// flush.
func (l *Ledger) Revert() {
	l.mu.Lock()
	defer l.mu.Unlock()
	logx.Warn("LEDGER", "Reverting staged mutations")
	l.store.Revert()
}

// Flush durably persists all staged mutations.
func (l *Ledger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Flush()
}
