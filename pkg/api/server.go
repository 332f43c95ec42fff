package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/btcsuite/btcutil"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"

	"github.com/peerdex/peerdex/pkg/exchange"
	"github.com/peerdex/peerdex/pkg/exchange/broker"
	"github.com/peerdex/peerdex/pkg/storage"
)

// OrderGossip republishes locally submitted interest to the peer network so
// remote books converge. Optional; nil keeps the node standalone.
type OrderGossip interface {
	PublishOrder(o exchange.Order)
	PublishCancel(currency string, id exchange.ClientID)
}

// Server exposes the REST surface and WebSocket endpoint for one node
type Server struct {
	registry *broker.Registry
	trades   *storage.TradeStore
	gossip   OrderGossip
	router   *mux.Router
	hub      *Hub
}

// NewServer creates a new API server. gossip may be nil.
func NewServer(registry *broker.Registry, trades *storage.TradeStore, gossip OrderGossip) *Server {
	s := &Server{
		registry: registry,
		trades:   trades,
		gossip:   gossip,
		router:   mux.NewRouter(),
		hub:      NewHub(),
	}
	s.setupRoutes()
	return s
}

// Hub returns the WebSocket hub so it can join the brokers' notifier chain.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Market endpoints
	api.HandleFunc("/markets", s.handleGetMarkets).Methods("GET")
	api.HandleFunc("/markets/{currency}/quote", s.handleGetQuote).Methods("GET")
	api.HandleFunc("/markets/{currency}/trades", s.handleGetTrades).Methods("GET")

	// Order submission
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	log.Printf("[api] server starting on %s", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	currencies := s.registry.Currencies()
	response := make([]MarketInfo, len(currencies))
	for i, c := range currencies {
		response[i] = MarketInfo{Currency: c.Code, Exponent: c.Exponent}
	}
	respondJSON(w, response)
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["currency"]
	b, ok := s.registry.Get(code)
	if !ok {
		respondError(w, http.StatusNotFound, "market not found", code)
		return
	}

	q := b.Quote()
	response := QuoteResponse{Currency: code}
	if q.BestBid != nil {
		p := q.BestBid.String()
		response.BestBid = &p
	}
	if q.BestAsk != nil {
		p := q.BestAsk.String()
		response.BestAsk = &p
	}
	if q.LastPrice != nil {
		p := q.LastPrice.String()
		response.LastPrice = &p
	}
	respondJSON(w, response)
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["currency"]
	if _, ok := s.registry.Get(code); !ok {
		respondError(w, http.StatusNotFound, "market not found", code)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	matches, err := s.trades.RecentMatches(code, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "trade journal unavailable", err.Error())
		return
	}

	response := make([]TradeInfo, len(matches))
	for i, m := range matches {
		response[i] = TradeInfo{
			Currency:   m.Currency.Code,
			AmountSats: int64(m.Amount),
			Price:      m.Price.String(),
			BuyerID:    string(m.BuyerID),
			SellerID:   string(m.SellerID),
			ExecutedAt: m.ExecutedAt.UnixMilli(),
		}
	}
	respondJSON(w, response)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	o, errMsg := orderFromRequest(req)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg, "")
		return
	}

	b, ok := s.registry.Get(o.Currency.Code)
	if !ok {
		respondError(w, http.StatusNotFound, "market not found", o.Currency.Code)
		return
	}

	// Fire-and-forget into the broker's event loop; a cross, if any, comes
	// back over /ws.
	b.Place(o)
	if s.gossip != nil {
		s.gossip.PublishOrder(o)
	}

	respondAccepted(w)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.ClientID == "" {
		respondError(w, http.StatusBadRequest, "missing clientId", "")
		return
	}

	b, ok := s.registry.Get(req.Currency)
	if !ok {
		respondError(w, http.StatusNotFound, "market not found", req.Currency)
		return
	}

	b.Cancel(exchange.ClientID(req.ClientID))
	if s.gossip != nil {
		s.gossip.PublishCancel(req.Currency, exchange.ClientID(req.ClientID))
	}

	respondAccepted(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// orderFromRequest validates the wire payload and builds the domain order.
// Returns a non-empty message on rejection.
func orderFromRequest(req PlaceOrderRequest) (exchange.Order, string) {
	if req.ClientID == "" {
		return exchange.Order{}, "missing clientId"
	}
	side, err := exchange.ParseSide(req.Side)
	if err != nil {
		return exchange.Order{}, err.Error()
	}
	currency, ok := exchange.CurrencyByCode(req.Currency)
	if !ok {
		return exchange.Order{}, "unsupported currency " + req.Currency
	}
	if req.AmountSats <= 0 {
		return exchange.Order{}, "amountSats must be positive"
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || !price.IsPositive() {
		return exchange.Order{}, "price must be a positive decimal"
	}

	return exchange.Order{
		ClientID: exchange.ClientID(req.ClientID),
		Currency: currency,
		Side:     side,
		Amount:   btcutil.Amount(req.AmountSats),
		Price:    price,
	}, ""
}

// ==============================
// Helper Functions
// ==============================

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondAccepted(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(SubmitResponse{Status: "accepted"})
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
