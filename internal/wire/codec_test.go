package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_NewOrderRoundTrip(t *testing.T) {
	env := NewOrderEnvelope(7, 42, NewOrderRequest{
		ClientOrderID: 1001,
		Symbol:        "AAPL",
		Side:          SideBuy,
		OrdType:       OrdTypeLimit,
		Qty:           10,
		LimitPrice:    15000,
		Tif:           TifDay,
	})

	data, err := Encode(env)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, env, decoded)
}

func TestEncodeDecode_MarketOrderRoundTrip(t *testing.T) {
	env := NewOrderEnvelope(1, 1, NewOrderRequest{
		ClientOrderID: 1,
		Symbol:        "MSFT",
		Side:          SideSell,
		OrdType:       OrdTypeMarket,
		Qty:           5,
		LimitPrice:    0,
		Tif:           TifDay,
	})

	data, err := Encode(env)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, env, decoded)
}

func TestEncode_CancelOmitsZeroIDs(t *testing.T) {
	data, err := Encode(CancelEnvelope(3, 9, CancelRequest{Symbol: "AAPL", ClientOrderID: 55}))
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"order_id"`)
	assert.Contains(t, string(data), `"client_order_id":55`)

	data, err = Encode(CancelEnvelope(3, 10, CancelRequest{Symbol: "AAPL", OrderID: 77}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"order_id":77`)
	assert.NotContains(t, string(data), `"client_order_id"`)
}

func TestDecode_CancelRoundTrip(t *testing.T) {
	env := CancelEnvelope(3, 9, CancelRequest{Symbol: "GOOGL", OrderID: 12, ClientOrderID: 34})

	data, err := Encode(env)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, env, decoded)
}

func TestDecode_Ack(t *testing.T) {
	data := []byte(`{"header":{"version":1,"type":100,"seq":5,"client_id":2},` +
		`"body":{"client_order_id":10,"order_id":9001,"symbol":"AAPL"}}`)

	env, err := Decode(data)
	require.NoError(t, err)

	ack, ok := env.Body.(Ack)
	require.True(t, ok, "body should decode as Ack")
	assert.Equal(t, uint64(10), ack.ClientOrderID)
	assert.Equal(t, uint64(9001), ack.OrderID)
	assert.Equal(t, "AAPL", ack.Symbol)
}

func TestDecode_Reject(t *testing.T) {
	data := []byte(`{"header":{"type":101,"client_id":2},` +
		`"body":{"client_order_id":10,"symbol":"AAPL","info":{"reason":"price out of band","code":42}}}`)

	env, err := Decode(data)
	require.NoError(t, err)

	rej, ok := env.Body.(Reject)
	require.True(t, ok, "body should decode as Reject")
	assert.Equal(t, "price out of band", rej.Info.Reason)
	assert.Equal(t, 42, rej.Info.Code)
}

func TestDecode_FillSideAliases(t *testing.T) {
	tests := []struct {
		code string
		want Side
	}{
		{"B", SideBuy},
		{"b", SideBuy},
		{"BUY", SideBuy},
		{"buy", SideBuy},
		{"BID", SideBuy},
		{"S", SideSell},
		{"SELL", SideSell},
		{"sell", SideSell},
		{"ASK", SideSell},
		{"ask", SideSell},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			data := []byte(`{"header":{"type":102},"body":{"order_id":1,"symbol":"X","side":"` +
				tt.code + `","fill_qty":1,"fill_price":100,"complete":false}}`)

			env, err := Decode(data)
			require.NoError(t, err)
			fill, ok := env.Body.(Fill)
			require.True(t, ok)
			assert.Equal(t, tt.want, fill.Side)
		})
	}
}

func TestDecode_InvalidSideCode(t *testing.T) {
	data := []byte(`{"header":{"type":102},"body":{"order_id":1,"symbol":"X","side":"Q","fill_qty":1,"fill_price":100}}`)

	_, err := Decode(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEnumCode)
}

func TestDecode_HeaderDefaults(t *testing.T) {
	data := []byte(`{"header":{"type":100},"body":{"client_order_id":1,"order_id":2,"symbol":"A"}}`)

	env, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 1, env.Header.Version, "missing version defaults to 1")
	assert.Equal(t, uint64(0), env.Header.Seq)
	assert.Equal(t, uint32(0), env.Header.ClientID)
}

func TestDecode_UnknownTypeKeepsOpaqueBody(t *testing.T) {
	data := []byte(`{"header":{"type":555},"body":{"foo":"bar","n":3}}`)

	env, err := Decode(data)
	require.NoError(t, err)

	body, ok := env.Body.(map[string]any)
	require.True(t, ok, "unknown type keeps an opaque field mapping")
	assert.Equal(t, "bar", body["foo"])
	assert.Equal(t, float64(3), body["n"])
}

func TestDecode_HeartbeatWithoutBody(t *testing.T) {
	env, err := Decode([]byte(`{"header":{"type":900}}`))
	require.NoError(t, err)
	assert.Equal(t, MsgHeartbeat, env.Header.Type)
	assert.Nil(t, env.Body)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	require.Error(t, err)
}

func TestParseOrdTypeAndTif(t *testing.T) {
	ot, err := ParseOrdType("market")
	require.NoError(t, err)
	assert.Equal(t, OrdTypeMarket, ot)

	ot, err = ParseOrdType("LMT")
	require.NoError(t, err)
	assert.Equal(t, OrdTypeLimit, ot)

	_, err = ParseOrdType("STOP")
	assert.ErrorIs(t, err, ErrInvalidEnumCode)

	tif, err := ParseTimeInForce("ioc")
	require.NoError(t, err)
	assert.Equal(t, TifIOC, tif)

	_, err = ParseTimeInForce("GTC")
	assert.ErrorIs(t, err, ErrInvalidEnumCode)
}
