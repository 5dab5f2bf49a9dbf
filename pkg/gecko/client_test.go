package gecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"poolwatch/pkg/core"
)

const poolBody = `{
	"data": {
		"id": "hyperevm_0xabc",
		"attributes": {
			"name": "WHYPE / USDT",
			"fdv_usd": "1500000",
			"base_token_price_usd": "0.0421",
			"quote_token_price_usd": "1.0001"
		}
	}
}`

const tradesBody = `{
	"data": [
		{
			"id": "t1",
			"attributes": {
				"kind": "buy",
				"volume_in_usd": "1250.5",
				"block_timestamp": "2026-02-01T10:15:00Z"
			}
		},
		{
			"id": "t2",
			"attributes": {
				"kind": "sell",
				"volume_in_usd": "80",
				"block_timestamp": "2026-02-01T10:14:30Z"
			}
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("hyperevm", "0xabc", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
}

func TestClient_Pool(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/networks/hyperevm/pools/0xabc", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(poolBody))
	})

	snapshot, err := client.Pool(context.Background())
	require.NoError(t, err)
	require.Equal(t, core.PoolSnapshot{
		Name:               "WHYPE / USDT",
		FDVUSD:             "1500000",
		BaseTokenPriceUSD:  "0.0421",
		QuoteTokenPriceUSD: "1.0001",
	}, snapshot)
}

func TestClient_Pool_MissingFDVIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"attributes":{"name":"WHYPE / USDT"}}}`))
	})

	snapshot, err := client.Pool(context.Background())
	require.NoError(t, err)
	require.Empty(t, snapshot.FDVUSD)
}

func TestClient_Pool_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Pool(context.Background())
	require.ErrorContains(t, err, "unexpected status 429")
}

func TestClient_Pool_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":`))
	})

	_, err := client.Pool(context.Background())
	require.ErrorContains(t, err, "decode response")
}

func TestClient_Trades(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/networks/hyperevm/pools/0xabc/trades", r.URL.Path)
		_, _ = w.Write([]byte(tradesBody))
	})

	trades, err := client.Trades(context.Background())
	require.NoError(t, err)
	require.Len(t, trades, 2)

	require.Equal(t, "t1", trades[0].ID)
	require.Equal(t, core.TradeKindBuy, trades[0].Kind)
	require.Equal(t, 1250.5, trades[0].VolumeUSD)
	require.Equal(t, time.Date(2026, 2, 1, 10, 15, 0, 0, time.UTC), trades[0].Timestamp)

	require.Equal(t, core.TradeKindSell, trades[1].Kind)
}

func TestClient_Trades_MalformedVolume(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"t1","attributes":{"kind":"buy","volume_in_usd":"??","block_timestamp":"2026-02-01T10:15:00Z"}}]}`))
	})

	_, err := client.Trades(context.Background())
	require.ErrorContains(t, err, "malformed trade volume")
}
