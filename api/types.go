package api

// Request/response shapes for the REST surface. Prices cross this
// boundary as decimal strings, the same form the feed uses.

type SubmitOrderRequest struct {
	OrderID uint64 `json:"order_id"`
	Side    string `json:"side"` // B | S
	Qty     int64  `json:"qty"`
	Price   string `json:"price"`
}

type AmendOrderRequest struct {
	Side  string `json:"side"`
	Qty   int64  `json:"qty"`
	Price string `json:"price"`
}

type CancelOrderRequest struct {
	Side  string `json:"side"`
	Qty   int64  `json:"qty"`
	Price string `json:"price"`
}

type CommandResponse struct {
	Status string      `json:"status"` // accepted | rejected
	Seq    uint64      `json:"seq,omitempty"`
	Error  string      `json:"error,omitempty"`
	Trades []TradeInfo `json:"trades,omitempty"`
}

type TradeInfo struct {
	Seq     uint64 `json:"seq"`
	Qty     int64  `json:"qty"`
	Price   string `json:"price"`
	MakerID uint64 `json:"maker_id"`
	TakerID uint64 `json:"taker_id"`
}

type PriceLevel struct {
	Price  string `json:"price"`
	Qty    int64  `json:"qty"`
	Orders int    `json:"orders"`
}

type BookSnapshot struct {
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"timestamp"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WSSubscribeRequest is the client's channel management frame.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // subscribe | unsubscribe
	Channels []string `json:"channels"`
}
