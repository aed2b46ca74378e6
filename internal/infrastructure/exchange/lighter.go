package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

const (
	LighterBaseURL = "https://mainnet.zklighter.elliot.ai"

	txTypeCreateOrder    = 14
	txTypeUpdateLeverage = 21
)

// Client is a REST adapter for the Lighter exchange's public market and
// account endpoints. It also opens signed trading sessions.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = LighterBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("API error: %s", string(body))
	}

	return json.Unmarshal(body, out)
}

// GetAccount returns the snapshot of the first account registered for the
// given L1 address.
func (c *Client) GetAccount(ctx context.Context, l1Address string) (*domain.AccountSnapshot, error) {
	var result struct {
		Accounts []struct {
			AccountIndex    int64  `json:"account_index"`
			TotalAssetValue string `json:"total_asset_value"`
			Positions       []struct {
				Symbol                string `json:"symbol"`
				Position              string `json:"position"`
				Sign                  int    `json:"sign"`
				MarginMode            int    `json:"margin_mode"`
				InitialMarginFraction string `json:"initial_margin_fraction"`
			} `json:"positions"`
		} `json:"accounts"`
	}

	path := "/api/v1/account?by=l1_address&value=" + url.QueryEscape(l1Address)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	if len(result.Accounts) == 0 {
		return nil, fmt.Errorf("no account registered for address %s", l1Address)
	}

	acct := result.Accounts[0]
	totalAssetValue, err := strconv.ParseFloat(acct.TotalAssetValue, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid total asset value %q: %w", acct.TotalAssetValue, err)
	}

	snapshot := &domain.AccountSnapshot{
		AccountIndex:    acct.AccountIndex,
		TotalAssetValue: totalAssetValue,
	}
	for _, pos := range acct.Positions {
		size, err := strconv.ParseFloat(pos.Position, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid position size %q for %s: %w", pos.Position, pos.Symbol, err)
		}
		imf, err := strconv.ParseFloat(pos.InitialMarginFraction, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid initial margin fraction %q for %s: %w", pos.InitialMarginFraction, pos.Symbol, err)
		}
		sign := 1
		if pos.Sign != 1 {
			sign = -1
		}
		snapshot.Positions = append(snapshot.Positions, domain.RawPosition{
			Symbol:                pos.Symbol,
			Size:                  size,
			Sign:                  sign,
			MarginMode:            domain.MarginMode(pos.MarginMode),
			InitialMarginFraction: imf,
		})
	}

	return snapshot, nil
}

// GetOrderBooks returns the trading constraints of every listed market.
func (c *Client) GetOrderBooks(ctx context.Context) ([]domain.OrderBookRecord, error) {
	var result struct {
		OrderBooks []struct {
			Symbol                 string `json:"symbol"`
			MarketID               int    `json:"market_id"`
			MinBaseAmount          string `json:"min_base_amount"`
			MinQuoteAmount         string `json:"min_quote_amount"`
			SupportedSizeDecimals  int    `json:"supported_size_decimals"`
			SupportedPriceDecimals int    `json:"supported_price_decimals"`
		} `json:"order_books"`
	}

	if err := c.get(ctx, "/api/v1/orderBooks", &result); err != nil {
		return nil, err
	}

	records := make([]domain.OrderBookRecord, 0, len(result.OrderBooks))
	for _, ob := range result.OrderBooks {
		minBase, err := strconv.ParseFloat(ob.MinBaseAmount, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid min base amount %q for %s: %w", ob.MinBaseAmount, ob.Symbol, err)
		}
		minQuote, err := strconv.ParseFloat(ob.MinQuoteAmount, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid min quote amount %q for %s: %w", ob.MinQuoteAmount, ob.Symbol, err)
		}
		records = append(records, domain.OrderBookRecord{
			Symbol:                 ob.Symbol,
			MarketID:               ob.MarketID,
			MinBaseAmount:          minBase,
			MinQuoteAmount:         minQuote,
			SupportedSizeDecimals:  ob.SupportedSizeDecimals,
			SupportedPriceDecimals: ob.SupportedPriceDecimals,
		})
	}
	return records, nil
}

// GetLastPrices returns the last trade price per symbol.
func (c *Client) GetLastPrices(ctx context.Context) (map[string]float64, error) {
	var result struct {
		OrderBookStats []struct {
			Symbol         string `json:"symbol"`
			LastTradePrice string `json:"last_trade_price"`
		} `json:"order_book_stats"`
	}

	if err := c.get(ctx, "/api/v1/exchangeStats", &result); err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(result.OrderBookStats))
	for _, stat := range result.OrderBookStats {
		price, err := strconv.ParseFloat(stat.LastTradePrice, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid last trade price %q for %s: %w", stat.LastTradePrice, stat.Symbol, err)
		}
		prices[stat.Symbol] = price
	}
	return prices, nil
}

// NewSession resolves the account index for the credential's wallet and
// returns a signed trading session scoped to one rebalance run.
func (c *Client) NewSession(ctx context.Context, creds *domain.Credentials) (domain.TradingSession, error) {
	snapshot, err := c.GetAccount(ctx, creds.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("resolve account index: %w", err)
	}

	return &Session{
		baseURL:      c.baseURL,
		client:       &http.Client{Timeout: 10 * time.Second},
		privateKey:   creds.PrivateKey,
		apiKeyIndex:  creds.APIKeyIndex,
		accountIndex: snapshot.AccountIndex,
		nonce:        time.Now().UnixNano(),
	}, nil
}

// Session signs and submits trading transactions for one account.
type Session struct {
	baseURL      string
	client       *http.Client
	privateKey   string
	apiKeyIndex  int
	accountIndex int64
	nonce        int64
}

func (s *Session) sign(txInfo string, nonce int64) string {
	toSign := fmt.Sprintf("%d%d%d%s", s.accountIndex, s.apiKeyIndex, nonce, txInfo)
	h := hmac.New(sha256.New, []byte(s.privateKey))
	h.Write([]byte(toSign))
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Session) sendTx(ctx context.Context, txType int, txInfo map[string]interface{}) (*domain.OrderAck, error) {
	nonce := atomic.AddInt64(&s.nonce, 1)
	txInfo["account_index"] = s.accountIndex
	txInfo["api_key_index"] = s.apiKeyIndex
	txInfo["nonce"] = nonce

	info, err := json.Marshal(txInfo)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"tx_type":   txType,
		"tx_info":   string(info),
		"signature": s.sign(string(info), nonce),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/sendTx", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	// A rejected transaction still decodes; the caller inspects Code.
	var ack struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		TxHash  string `json:"tx_hash"`
	}
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, err
	}

	return &domain.OrderAck{TxHash: ack.TxHash, Code: ack.Code, Msg: ack.Message}, nil
}

// UpdateLeverage changes the leverage and margin mode for one market.
func (s *Session) UpdateLeverage(ctx context.Context, marketID int, leverage int, mode domain.MarginMode) error {
	ack, err := s.sendTx(ctx, txTypeUpdateLeverage, map[string]interface{}{
		"market_index": marketID,
		"leverage":     leverage,
		"margin_mode":  int(mode),
	})
	if err != nil {
		return err
	}
	if ack.Code != domain.AckCodeOK {
		return fmt.Errorf("update leverage rejected: %s", ack.Msg)
	}
	return nil
}

// CreateMarketOrder submits one market order transaction.
func (s *Session) CreateMarketOrder(ctx context.Context, req domain.MarketOrderRequest) (*domain.OrderAck, error) {
	reduceOnly := 0
	if req.ReduceOnly {
		reduceOnly = 1
	}
	isAsk := 0
	if req.IsAsk {
		isAsk = 1
	}
	return s.sendTx(ctx, txTypeCreateOrder, map[string]interface{}{
		"market_index":        req.MarketID,
		"client_order_index":  req.ClientOrderIndex,
		"base_amount":         req.BaseAmount,
		"avg_execution_price": req.AvgExecutionPrice,
		"is_ask":              isAsk,
		"reduce_only":         reduceOnly,
		"order_type":          "market",
		"time_in_force":       "immediate_or_cancel",
	})
}

// Close releases the session's connections.
func (s *Session) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
