package wire

import "encoding/json"

// MessageHeader is the metadata included in every message. seq is
// assigned by the sender per outbound message and is monotonically
// increasing for a given client_id.
type MessageHeader struct {
	Version  int     `json:"version"`
	Type     MsgType `json:"type"`
	Seq      uint64  `json:"seq"`
	ClientID uint32  `json:"client_id"`
}

// UnmarshalJSON applies the documented defaults for missing optional
// fields: version=1, seq=0, client_id=0.
func (h *MessageHeader) UnmarshalJSON(data []byte) error {
	type alias MessageHeader
	aux := struct {
		Version *int `json:"version"`
		*alias
	}{alias: (*alias)(h)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Version == nil {
		h.Version = 1
	} else {
		h.Version = *aux.Version
	}
	return nil
}

// NewOrderRequest asks the venue to place a new order. Prices are
// integer ticks on the wire; LimitPrice is 0 for market orders.
type NewOrderRequest struct {
	ClientOrderID uint64      `json:"client_order_id"`
	Symbol        string      `json:"symbol"`
	Side          Side        `json:"side"`
	OrdType       OrdType     `json:"ord_type"`
	Qty           uint64      `json:"qty"`
	LimitPrice    int64       `json:"limit_price"`
	Tif           TimeInForce `json:"tif"`
}

// CancelRequest asks the venue to cancel an existing order. At least
// one of OrderID / ClientOrderID should be set; zero-valued ids are
// omitted from the wire form.
type CancelRequest struct {
	Symbol        string `json:"symbol"`
	OrderID       uint64 `json:"order_id,omitempty"`
	ClientOrderID uint64 `json:"client_order_id,omitempty"`
}

// Ack reports that the venue accepted an order. It is the first
// message that carries the venue-assigned order id.
type Ack struct {
	ClientOrderID uint64 `json:"client_order_id"`
	OrderID       uint64 `json:"order_id"`
	Symbol        string `json:"symbol"`
}

// RejectInfo describes why an order was rejected.
type RejectInfo struct {
	Reason string `json:"reason"`
	Code   int    `json:"code"`
}

// Reject reports that the venue rejected an order. Terminal for the
// order; no further events are expected for its client order id.
type Reject struct {
	ClientOrderID uint64     `json:"client_order_id"`
	Symbol        string     `json:"symbol"`
	Info          RejectInfo `json:"info"`
}

// Fill reports a full or partial execution. Complete marks the last
// fill for the order.
type Fill struct {
	OrderID   uint64 `json:"order_id"`
	Symbol    string `json:"symbol"`
	Side      Side   `json:"side"`
	FillQty   uint64 `json:"fill_qty"`
	FillPrice int64  `json:"fill_price"`
	Complete  bool   `json:"complete"`
}

// Envelope is a complete wire message. Body is one of the typed
// message structs, or a map[string]any for message types this client
// does not understand.
type Envelope struct {
	Header MessageHeader `json:"header"`
	Body   any           `json:"body"`
}

// NewOrderEnvelope builds a NEW_ORDER envelope with a populated header.
func NewOrderEnvelope(clientID uint32, seq uint64, req NewOrderRequest) Envelope {
	return Envelope{
		Header: MessageHeader{Version: 1, Type: MsgNewOrder, Seq: seq, ClientID: clientID},
		Body:   req,
	}
}

// CancelEnvelope builds a CANCEL envelope with a populated header.
func CancelEnvelope(clientID uint32, seq uint64, req CancelRequest) Envelope {
	return Envelope{
		Header: MessageHeader{Version: 1, Type: MsgCancel, Seq: seq, ClientID: clientID},
		Body:   req,
	}
}
