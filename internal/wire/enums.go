package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Side is the buy/sell direction of an order.
type Side uint8

const (
	SideBuy  Side = 1
	SideSell Side = 2
)

// Code returns the short wire code used in message bodies.
func (s Side) Code() string {
	if s == SideBuy {
		return "B"
	}
	return "S"
}

func (s Side) String() string {
	if s == SideBuy {
		return "BUY"
	}
	return "SELL"
}

// ParseSide converts a wire code back to a Side. It accepts the short
// code plus case-insensitive aliases used by some venue builds.
func ParseSide(code string) (Side, error) {
	switch strings.ToUpper(code) {
	case "B", "BUY", "BID":
		return SideBuy, nil
	case "S", "SELL", "ASK":
		return SideSell, nil
	}
	return 0, fmt.Errorf("%w: side %q", ErrInvalidEnumCode, code)
}

// MarshalJSON writes the short wire code.
func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Code())
}

// UnmarshalJSON accepts either the string code (with aliases) or the
// numeric enum value.
func (s *Side) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var code string
		if err := json.Unmarshal(data, &code); err != nil {
			return err
		}
		parsed, err := ParseSide(code)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("%w: side %s", ErrInvalidEnumCode, data)
	}
	switch Side(n) {
	case SideBuy, SideSell:
		*s = Side(n)
		return nil
	}
	return fmt.Errorf("%w: side %d", ErrInvalidEnumCode, n)
}

// OrdType is the order type.
type OrdType uint8

const (
	OrdTypeMarket OrdType = 1
	OrdTypeLimit  OrdType = 2
)

// Code returns the short wire code used in message bodies.
func (t OrdType) Code() string {
	if t == OrdTypeMarket {
		return "MKT"
	}
	return "LMT"
}

func (t OrdType) String() string {
	if t == OrdTypeMarket {
		return "MARKET"
	}
	return "LIMIT"
}

// ParseOrdType converts a wire code back to an OrdType.
func ParseOrdType(code string) (OrdType, error) {
	switch strings.ToUpper(code) {
	case "MKT", "MARKET":
		return OrdTypeMarket, nil
	case "LMT", "LIMIT":
		return OrdTypeLimit, nil
	}
	return 0, fmt.Errorf("%w: ord_type %q", ErrInvalidEnumCode, code)
}

// MarshalJSON writes the short wire code.
func (t OrdType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Code())
}

// UnmarshalJSON accepts the string code or the numeric enum value.
func (t *OrdType) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var code string
		if err := json.Unmarshal(data, &code); err != nil {
			return err
		}
		parsed, err := ParseOrdType(code)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("%w: ord_type %s", ErrInvalidEnumCode, data)
	}
	switch OrdType(n) {
	case OrdTypeMarket, OrdTypeLimit:
		*t = OrdType(n)
		return nil
	}
	return fmt.Errorf("%w: ord_type %d", ErrInvalidEnumCode, n)
}

// TimeInForce controls how long an order stays active.
type TimeInForce uint8

const (
	TifDay TimeInForce = 1
	TifIOC TimeInForce = 2
)

// Code returns the short wire code used in message bodies.
func (f TimeInForce) Code() string {
	if f == TifDay {
		return "DAY"
	}
	return "IOC"
}

func (f TimeInForce) String() string {
	return f.Code()
}

// ParseTimeInForce converts a wire code back to a TimeInForce.
func ParseTimeInForce(code string) (TimeInForce, error) {
	switch strings.ToUpper(code) {
	case "DAY":
		return TifDay, nil
	case "IOC":
		return TifIOC, nil
	}
	return 0, fmt.Errorf("%w: tif %q", ErrInvalidEnumCode, code)
}

// MarshalJSON writes the short wire code.
func (f TimeInForce) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Code())
}

// UnmarshalJSON accepts the string code or the numeric enum value.
func (f *TimeInForce) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var code string
		if err := json.Unmarshal(data, &code); err != nil {
			return err
		}
		parsed, err := ParseTimeInForce(code)
		if err != nil {
			return err
		}
		*f = parsed
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("%w: tif %s", ErrInvalidEnumCode, data)
	}
	switch TimeInForce(n) {
	case TifDay, TifIOC:
		*f = TimeInForce(n)
		return nil
	}
	return fmt.Errorf("%w: tif %d", ErrInvalidEnumCode, n)
}

// MsgType identifies the concrete body shape of an envelope.
type MsgType uint16

const (
	// Client → venue.
	MsgNewOrder MsgType = 1
	MsgCancel   MsgType = 2

	// Venue → client.
	MsgAck    MsgType = 100
	MsgReject MsgType = 101
	MsgFill   MsgType = 102

	// System.
	MsgHeartbeat MsgType = 900
)

func (m MsgType) String() string {
	switch m {
	case MsgNewOrder:
		return "NEW_ORDER"
	case MsgCancel:
		return "CANCEL"
	case MsgAck:
		return "ACK"
	case MsgReject:
		return "REJECT"
	case MsgFill:
		return "FILL"
	case MsgHeartbeat:
		return "HEARTBEAT"
	}
	return "UNKNOWN(" + strconv.Itoa(int(m)) + ")"
}
