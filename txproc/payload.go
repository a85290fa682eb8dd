package txproc

import (
	"fmt"

	"github.com/holiman/uint256"

	"ledgersync/jsonx"
)

// TransferPayload is the structured record carried by a feed transaction.
// Amount accepts either a decimal string or a non-negative integer literal.
type TransferPayload struct {
	Action   string
	Amount   *uint256.Int
	Receiver string
}

// DecodePayload parses a raw feed payload. Only structural problems are
// errors here; an unknown action decodes fine and is the caller's call.
func DecodePayload(data []byte) (*TransferPayload, error) {
	var raw map[string]interface{}
	if err := jsonx.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid payload encoding: %w", err)
	}

	payload := &TransferPayload{}

	if action, ok := raw["action"].(string); ok {
		payload.Action = action
	}
	if receiver, ok := raw["receiver"].(string); ok {
		payload.Receiver = receiver
	}

	if amountRaw, exists := raw["amount"]; exists && amountRaw != nil {
		amount, err := parseAmount(amountRaw)
		if err != nil {
			return nil, err
		}
		payload.Amount = amount
	}

	return payload, nil
}

func parseAmount(raw interface{}) (*uint256.Int, error) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("empty amount string")
		}
		amount, err := uint256.FromDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("invalid amount string %q: %w", v, err)
		}
		return amount, nil
	case float64:
		if v < 0 {
			return nil, fmt.Errorf("negative amount %v", v)
		}
		return uint256.NewInt(uint64(v)), nil
	default:
		return nil, fmt.Errorf("invalid amount type: %T", raw)
	}
}
