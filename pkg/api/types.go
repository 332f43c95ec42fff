package api

// Request/response types for REST endpoints and WebSocket messages.
// Amounts travel as satoshis, prices as decimal strings.

// ==============================
// REST Request Types
// ==============================

// PlaceOrderRequest is the payload for POST /api/v1/orders
type PlaceOrderRequest struct {
	ClientID   string `json:"clientId"`
	Currency   string `json:"currency"`   // ISO code, must match an open market
	Side       string `json:"side"`       // "bid" or "ask"
	AmountSats int64  `json:"amountSats"` // BTC quantity in satoshis
	Price      string `json:"price"`      // limit price in the quoted currency
}

// CancelOrderRequest is the payload for POST /api/v1/orders/cancel
type CancelOrderRequest struct {
	ClientID string `json:"clientId"`
	Currency string `json:"currency"`
}

// SubmitResponse acknowledges that a request was accepted for processing.
// Placement is fire-and-forget: whether it crossed arrives over /ws.
type SubmitResponse struct {
	Status string `json:"status"` // "accepted"
}

// ==============================
// REST Response Types
// ==============================

// MarketInfo describes one currency market served by this node
type MarketInfo struct {
	Currency string `json:"currency"`
	Exponent int32  `json:"exponent"` // minor-unit decimal places
}

// QuoteResponse reports the current market quote; nil means "no such price"
type QuoteResponse struct {
	Currency  string  `json:"currency"`
	BestBid   *string `json:"bestBid"`
	BestAsk   *string `json:"bestAsk"`
	LastPrice *string `json:"lastPrice"`
}

// TradeInfo is one executed match from the journal
type TradeInfo struct {
	Currency   string `json:"currency"`
	AmountSats int64  `json:"amountSats"`
	Price      string `json:"price"`
	BuyerID    string `json:"buyerId"`
	SellerID   string `json:"sellerId"`
	ExecutedAt int64  `json:"executedAt"` // Unix milliseconds
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ==============================
// WebSocket Message Types
// ==============================

// CrossNotification is pushed to both matched parties when their orders cross
type CrossNotification struct {
	Type       string `json:"type"` // "cross"
	Currency   string `json:"currency"`
	AmountSats int64  `json:"amountSats"`
	Price      string `json:"price"` // clearing price
	BuyerID    string `json:"buyerId"`
	SellerID   string `json:"sellerId"`
	ExecutedAt int64  `json:"executedAt"` // Unix milliseconds
}
