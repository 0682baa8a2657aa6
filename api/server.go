// Package api exposes the engine over HTTP: a small REST surface for
// command submission and book inspection, Prometheus metrics, and a
// websocket stream of the event feed.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"mimir/domain/book"
	"mimir/protocol"
	"mimir/service"
)

type Server struct {
	engine *service.Engine
	router *mux.Router
	hub    *Hub
	log    *zap.Logger
}

func NewServer(engine *service.Engine, log *zap.Logger) *Server {
	s := &Server{
		engine: engine,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
	}
	s.setupRoutes()

	// Every accepted command fans out to websocket subscribers.
	engine.SetNotify(s.publish)
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/{id}", s.handleAmendOrder).Methods("PUT")
	api.HandleFunc("/orders/{id}", s.handleCancelOrder).Methods("DELETE")
	api.HandleFunc("/orders", s.handleGetOrders).Methods("GET")

	api.HandleFunc("/book", s.handleGetBook).Methods("GET")
	api.HandleFunc("/stats", s.handleGetStats).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start serves HTTP until the listener fails or ctx is canceled;
// cancellation drains in-flight requests before returning.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	srv := &http.Server{Addr: addr, Handler: c.Handler(s.router)}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info("api server starting", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) publish(ev protocol.Event) {
	s.hub.BroadcastToChannel("events", ev)
}

// ---- command handlers ----

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	cmd, err := commandFrom(protocol.KindAdd, req.OrderID, req.Side, req.Qty, req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed order", err.Error())
		return
	}
	s.respondAck(w, s.engine.Process(cmd))
}

func (s *Server) handleAmendOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad order id", err.Error())
		return
	}
	var req AmendOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	cmd, err := commandFrom(protocol.KindAmend, id, req.Side, req.Qty, req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed amend", err.Error())
		return
	}
	s.respondAck(w, s.engine.Process(cmd))
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad order id", err.Error())
		return
	}
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	cmd, err := commandFrom(protocol.KindCancel, id, req.Side, req.Qty, req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed cancel", err.Error())
		return
	}
	s.respondAck(w, s.engine.Process(cmd))
}

func (s *Server) respondAck(w http.ResponseWriter, ack protocol.Ack) {
	if ack.Err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(ack.Err, service.ErrHalted) {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(CommandResponse{Status: "rejected", Error: ack.Err.Error()})
		return
	}

	resp := CommandResponse{Status: "accepted", Seq: ack.Seq}
	for _, tr := range ack.Trades {
		resp.Trades = append(resp.Trades, TradeInfo{
			Seq:     tr.Seq,
			Qty:     tr.Qty,
			Price:   protocol.FormatPrice(tr.Price),
			MakerID: tr.MakerID,
			TakerID: tr.TakerID,
		})
	}
	respondJSON(w, resp)
}

// ---- query handlers ----

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.engine.Orders())
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	max := 0
	if v := r.URL.Query().Get("depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "bad depth", v)
			return
		}
		max = n
	}

	bids, asks := s.engine.Depth(max)
	respondJSON(w, BookSnapshot{
		Bids:      toAPILevels(bids),
		Asks:      toAPILevels(asks),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, last := s.engine.Stats()
	respondJSON(w, struct {
		service.Stats
		LastTradePrice string `json:"last_trade_price,omitempty"`
		LastTradeQty   int64  `json:"last_trade_qty,omitempty"`
		Halted         bool   `json:"halted"`
	}{
		Stats:          stats,
		LastTradePrice: formatLastPrice(last),
		LastTradeQty:   last.Qty,
		Halted:         s.engine.Halted(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.engine.Halted() {
		respondError(w, http.StatusServiceUnavailable, "halted", "")
		return
	}
	respondJSON(w, map[string]string{"status": "ok"})
}

// ---- helpers ----

func commandFrom(kind protocol.Kind, id uint64, side string, qty int64, price string) (protocol.Command, error) {
	if id == 0 {
		return protocol.Command{}, fmt.Errorf("order id must be positive")
	}
	var sd book.Side
	switch side {
	case "B":
		sd = book.Bid
	case "S":
		sd = book.Ask
	default:
		return protocol.Command{}, fmt.Errorf("bad side %q", side)
	}
	ticks, err := protocol.ParsePrice(price)
	if err != nil {
		return protocol.Command{}, err
	}
	return protocol.Command{Kind: kind, OrderID: id, Side: sd, Qty: qty, Price: ticks}, nil
}

func pathID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
}

func toAPILevels(levels []book.DepthLevel) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	for i, lvl := range levels {
		out[i] = PriceLevel{
			Price:  protocol.FormatPrice(lvl.Price),
			Qty:    lvl.Qty,
			Orders: lvl.Orders,
		}
	}
	return out
}

func formatLastPrice(last service.LastTrade) string {
	if last.Qty == 0 {
		return ""
	}
	return protocol.FormatPrice(last.Price)
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: error, Message: message})
}
