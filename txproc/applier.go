package txproc

import (
	"encoding/hex"
	"fmt"
	"strings"

	"ledgersync/feed"
	"ledgersync/ledger"
	"ledgersync/logx"
	"ledgersync/monitoring"
)

// Applier turns feed transactions into ledger operations. A malformed
// transaction is logged and skipped; it never aborts the subscription.
type Applier struct {
	ledger *ledger.Ledger
}

func NewApplier(ld *ledger.Ledger) *Applier {
	return &Applier{ledger: ld}
}

// Apply processes one feed transaction.
func (a *Applier) Apply(tx feed.Transaction) {
	payload, err := DecodePayload(tx.Data)
	if err != nil {
		logx.Error("APPLIER", fmt.Sprintf("Skipping undecodable transaction from %s: %v", tx.Sender, err))
		monitoring.RecordSkippedTx(monitoring.TxBadPayload)
		return
	}

	if !strings.EqualFold(payload.Action, "transfer") {
		logx.Info("APPLIER", fmt.Sprintf("Ignoring action %q from %s", payload.Action, tx.Sender))
		monitoring.RecordSkippedTx(monitoring.TxUnknownAction)
		return
	}

	a.applyTransfer(tx.Sender, payload)
}

func (a *Applier) applyTransfer(senderHex string, payload *TransferPayload) {
	if payload.Amount == nil || payload.Receiver == "" {
		logx.Error("APPLIER", fmt.Sprintf("Skipping transfer with missing fields: amount=%v receiver=%q", payload.Amount, payload.Receiver))
		monitoring.RecordSkippedTx(monitoring.TxMissingField)
		return
	}

	sender, err := decodeHexAddress(senderHex)
	if err != nil {
		logx.Error("APPLIER", fmt.Sprintf("Skipping transfer with bad sender %q: %v", senderHex, err))
		monitoring.RecordSkippedTx(monitoring.TxBadAddress)
		return
	}
	receiver, err := decodeHexAddress(payload.Receiver)
	if err != nil {
		logx.Error("APPLIER", fmt.Sprintf("Skipping transfer with bad receiver %q: %v", payload.Receiver, err))
		monitoring.RecordSkippedTx(monitoring.TxBadAddress)
		return
	}

	ok, err := a.ledger.Transfer(sender, receiver, payload.Amount)
	if err != nil {
		logx.Error("APPLIER", fmt.Sprintf("Transfer %s -> %s failed: %v", senderHex, payload.Receiver, err))
		monitoring.RecordSkippedTx(monitoring.TxBadPayload)
		return
	}
	if !ok {
		logx.Warn("APPLIER", fmt.Sprintf("Transfer rejected (insufficient funds): %s -> %s amount %s", senderHex, payload.Receiver, payload.Amount.Dec()))
		monitoring.RecordSkippedTx(monitoring.TxInsufficientFunds)
		return
	}

	logx.Info("APPLIER", fmt.Sprintf("Transfer applied: %s -> %s amount %s", senderHex, payload.Receiver, payload.Amount.Dec()))
	monitoring.IncreaseAppliedTxCount()
}

func decodeHexAddress(hexAddr string) ([]byte, error) {
	clean := strings.TrimPrefix(hexAddr, "0x")
	addr, err := hex.DecodeString(clean)
	if err != nil {
		return nil, err
	}
	if len(addr) == 0 {
		return nil, fmt.Errorf("empty address")
	}
	return addr, nil
}
