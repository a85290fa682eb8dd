package feed

// Transaction is one entry of the upstream transaction feed. Sender comes
// from the feed envelope as a hex address; Data is the raw, already
// hex-decoded payload.
type Transaction struct {
	Position uint64
	Sender   string
	Data     []byte
}

// Handler consumes feed transactions in delivery order.
type Handler func(tx Transaction)
