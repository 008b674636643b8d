package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"paper-trader/internal/engine"
	apperrors "paper-trader/internal/errors"
	"paper-trader/internal/models"
)

// Stable error codes callers can branch on: retry on DATA_UNAVAILABLE,
// don't retry on BUSINESS_RULE.
const (
	codeValidation      = "VALIDATION_ERROR"
	codeBusinessRule    = "BUSINESS_RULE"
	codeDataUnavailable = "DATA_UNAVAILABLE"
	codeInvalidConfig   = "INVALID_CONFIG"
	codeInternal        = "INTERNAL"
)

// toolRequest is the closed set of tool invocations. Each MCP tool name
// maps to exactly one variant; dispatch is a single type switch.
type toolRequest interface {
	isToolRequest()
}

type getQuoteRequest struct {
	Symbol string `json:"symbol"`
}

type getAccountSummaryRequest struct{}

type submitOrderRequest struct {
	Symbol     string  `json:"symbol"`
	Action     string  `json:"action"`
	Quantity   int     `json:"quantity"`
	OrderType  string  `json:"order_type"`
	LimitPrice float64 `json:"limit_price"`
}

type analyzePortfolioRequest struct{}

type setupAccountRequest struct {
	Cash float64 `json:"cash"`
}

type getHistoricalRequest struct {
	Symbol   string `json:"symbol"`
	Period   string `json:"period"`
	Interval string `json:"interval"`
}

func (getQuoteRequest) isToolRequest()          {}
func (getAccountSummaryRequest) isToolRequest() {}
func (submitOrderRequest) isToolRequest()       {}
func (analyzePortfolioRequest) isToolRequest()  {}
func (setupAccountRequest) isToolRequest()      {}
func (getHistoricalRequest) isToolRequest()     {}

// parseToolRequest decodes tool arguments into the matching request
// variant. Unknown tool names are an error at this boundary, not at
// dispatch time.
func parseToolRequest(name string, args json.RawMessage) (toolRequest, error) {
	decode := func(v interface{}) error {
		if len(args) == 0 {
			return nil
		}
		return json.Unmarshal(args, v)
	}

	switch name {
	case "get_quote":
		var r getQuoteRequest
		if err := decode(&r); err != nil {
			return nil, fmt.Errorf("get_quote arguments: %w", err)
		}
		return r, nil
	case "get_account_summary":
		return getAccountSummaryRequest{}, nil
	case "submit_order":
		r := submitOrderRequest{OrderType: "MARKET"}
		if err := decode(&r); err != nil {
			return nil, fmt.Errorf("submit_order arguments: %w", err)
		}
		return r, nil
	case "analyze_portfolio":
		return analyzePortfolioRequest{}, nil
	case "setup_paper_account":
		// An absent cash argument gets the default; an explicit zero or
		// negative value is passed through so the ledger rejects it.
		var raw struct {
			Cash *float64 `json:"cash"`
		}
		if err := decode(&raw); err != nil {
			return nil, fmt.Errorf("setup_paper_account arguments: %w", err)
		}
		r := setupAccountRequest{Cash: 100000}
		if raw.Cash != nil {
			r.Cash = *raw.Cash
		}
		return r, nil
	case "get_historical_data":
		r := getHistoricalRequest{Period: "1mo", Interval: "1d"}
		if err := decode(&r); err != nil {
			return nil, fmt.Errorf("get_historical_data arguments: %w", err)
		}
		if r.Period == "" {
			r.Period = "1mo"
		}
		if r.Interval == "" {
			r.Interval = "1d"
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown tool %q", name)
	}
}

// errorPayload is the structured failure result returned inside a tool
// response.
type errorPayload struct {
	Success bool      `json:"success"`
	Error   toolError `json:"error"`
}

type toolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func failure(code, message string) errorPayload {
	return errorPayload{Success: false, Error: toolError{Code: code, Message: message}}
}

// failureFromErr maps an engine/gateway error onto a stable error code.
func failureFromErr(err error) errorPayload {
	switch {
	case apperrors.Is(err, apperrors.ErrDataUnavailable), apperrors.Is(err, apperrors.ErrTimeout):
		return failure(codeDataUnavailable, err.Error())
	case apperrors.Is(err, apperrors.ErrConfigInvalid):
		return failure(codeInvalidConfig, err.Error())
	case apperrors.Is(err, apperrors.ErrInsufficientFunds),
		apperrors.Is(err, apperrors.ErrInsufficientPosition),
		apperrors.Is(err, apperrors.ErrLimitNotSatisfied):
		return failure(codeBusinessRule, err.Error())
	default:
		var verr *apperrors.ValidationError
		if apperrors.As(err, &verr) {
			return failure(codeValidation, err.Error())
		}
		return failure(codeInternal, err.Error())
	}
}

// dispatch executes one tool request and returns the response payload.
// Engine rejections are successful tool results carrying the rejected
// order; only transport-level failures use the error payload.
func (s *Server) dispatch(ctx context.Context, req toolRequest) interface{} {
	switch r := req.(type) {
	case getQuoteRequest:
		quote, err := s.analyzer.Gateway().GetQuote(ctx, r.Symbol)
		if err != nil {
			return failureFromErr(err)
		}
		return struct {
			Success bool          `json:"success"`
			Quote   *models.Quote `json:"quote"`
		}{true, quote}

	case getAccountSummaryRequest:
		return struct {
			Success bool        `json:"success"`
			Summary interface{} `json:"summary"`
		}{true, s.analyzer.Summary(ctx)}

	case submitOrderRequest:
		order, err := s.executor.SubmitOrder(ctx, engine.OrderRequest{
			Symbol:     r.Symbol,
			Side:       models.OrderSide(r.Action),
			Type:       models.OrderType(r.OrderType),
			Quantity:   r.Quantity,
			LimitPrice: r.LimitPrice,
		})
		if err != nil {
			return failureFromErr(err)
		}
		return struct {
			Success bool          `json:"success"`
			Order   *models.Order `json:"order"`
		}{true, order}

	case analyzePortfolioRequest:
		return struct {
			Success  bool        `json:"success"`
			Analysis interface{} `json:"analysis"`
		}{true, s.analyzer.Analyze(ctx)}

	case setupAccountRequest:
		if err := s.executor.Account().Reset(r.Cash); err != nil {
			return failureFromErr(err)
		}
		return struct {
			Success bool    `json:"success"`
			Cash    float64 `json:"cash"`
		}{true, r.Cash}

	case getHistoricalRequest:
		summary, err := s.analyzer.Historical(ctx, r.Symbol, r.Period, r.Interval)
		if err != nil {
			return failureFromErr(err)
		}
		return struct {
			Success bool                      `json:"success"`
			Data    *models.HistoricalSummary `json:"data"`
		}{true, summary}

	default:
		return failure(codeInternal, "unhandled request variant")
	}
}

// toolDescriptors returns the tool metadata served by tools/list.
func toolDescriptors() []map[string]interface{} {
	obj := func(props map[string]interface{}, required ...string) map[string]interface{} {
		schema := map[string]interface{}{
			"type":       "object",
			"properties": props,
		}
		if len(required) > 0 {
			schema["required"] = required
		}
		return schema
	}

	return []map[string]interface{}{
		{
			"name":        "get_quote",
			"description": "Get current price quote for a stock.",
			"inputSchema": obj(map[string]interface{}{
				"symbol": map[string]string{"type": "string", "description": "Stock ticker symbol (e.g. AAPL, MSFT)"},
			}, "symbol"),
		},
		{
			"name":        "get_account_summary",
			"description": "Get a summary of the paper trading account including cash balance and positions.",
			"inputSchema": obj(map[string]interface{}{}),
		},
		{
			"name":        "submit_order",
			"description": "Submit a simulated order to buy or sell a stock.",
			"inputSchema": obj(map[string]interface{}{
				"symbol":      map[string]string{"type": "string", "description": "Stock ticker symbol"},
				"action":      map[string]string{"type": "string", "description": "BUY or SELL"},
				"quantity":    map[string]string{"type": "integer", "description": "Number of shares"},
				"order_type":  map[string]string{"type": "string", "description": "MARKET or LIMIT (default MARKET)"},
				"limit_price": map[string]string{"type": "number", "description": "Limit price, required for LIMIT orders"},
			}, "symbol", "action", "quantity"),
		},
		{
			"name":        "analyze_portfolio",
			"description": "Analyze portfolio composition, returns, and concentration.",
			"inputSchema": obj(map[string]interface{}{}),
		},
		{
			"name":        "setup_paper_account",
			"description": "Initialize or reset the paper trading account.",
			"inputSchema": obj(map[string]interface{}{
				"cash": map[string]string{"type": "number", "description": "Starting cash (default 100000)"},
			}),
		},
		{
			"name":        "get_historical_data",
			"description": "Get historical price data and statistics for a stock.",
			"inputSchema": obj(map[string]interface{}{
				"symbol":   map[string]string{"type": "string", "description": "Stock ticker symbol"},
				"period":   map[string]string{"type": "string", "description": "Window: 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, ytd, max"},
				"interval": map[string]string{"type": "string", "description": "Bar interval: 1m, 5m, 15m, 30m, 1h, 1d, 1wk, 1mo"},
			}, "symbol"),
		},
	}
}
