package feed

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ledgersync/jsonx"
	"ledgersync/logx"
	"ledgersync/monitoring"
)

// Client talks to the upstream RPC node that serves the transaction feed.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(rpcURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(rpcURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type latestPositionResponse struct {
	BlockNumber uint64 `json:"blockNumber"`
}

type feedTransactionEnvelope struct {
	BlockNumber uint64 `json:"blockNumber"`
	Sender      string `json:"sender"`
	Data        string `json:"data"`
}

type feedTransactionsResponse struct {
	Transactions []feedTransactionEnvelope `json:"transactions"`
}

// LatestPosition returns the feed's current progress counter.
func (c *Client) LatestPosition() (uint64, error) {
	var out latestPositionResponse
	if err := c.getJSON(c.baseURL+"/blockNumber", &out); err != nil {
		return 0, fmt.Errorf("failed to fetch latest position: %w", err)
	}
	return out.BlockNumber, nil
}

// Transactions returns the feed entries for source id within [from, to],
// payloads hex-decoded. Entries whose payload hex cannot be decoded are
// logged and skipped here; payload-level validation belongs to the applier.
func (c *Client) Transactions(sourceID uint64, from, to uint64) ([]Transaction, error) {
	query := url.Values{}
	query.Set("vidaId", strconv.FormatUint(sourceID, 10))
	query.Set("startingBlock", strconv.FormatUint(from, 10))
	query.Set("endingBlock", strconv.FormatUint(to, 10))

	var out feedTransactionsResponse
	if err := c.getJSON(c.baseURL+"/vidaDataTransactions?"+query.Encode(), &out); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions %d-%d: %w", from, to, err)
	}

	txs := make([]Transaction, 0, len(out.Transactions))
	for _, envelope := range out.Transactions {
		data, err := hex.DecodeString(strings.TrimPrefix(envelope.Data, "0x"))
		if err != nil {
			logx.Error("FEED", fmt.Sprintf("Skipping transaction at position %d from %s: undecodable payload hex: %v", envelope.BlockNumber, envelope.Sender, err))
			monitoring.RecordSkippedTx(monitoring.TxBadEncoding)
			continue
		}
		txs = append(txs, Transaction{
			Position: envelope.BlockNumber,
			Sender:   envelope.Sender,
			Data:     data,
		})
	}
	return txs, nil
}

func (c *Client) getJSON(url string, out interface{}) error {
	resp, err := c.http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return jsonx.NewDecoder(resp.Body).Decode(out)
}
