package feeder_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/paw-oracle/feeder"
)

func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "string price", status: 200, body: `{"data":{"amount":"101.25","currency":"USD"}}`, path: "data.amount", want: "101.25"},
		{name: "number price", status: 200, body: `{"price": 99.5}`, path: "price", want: "99.5"},
		{name: "exponent", status: 200, body: `{"price": 1.5e2}`, path: "price", want: "150"},
		{name: "small exponent exact", status: 200, body: `{"price": 1.1e-7}`, path: "price", want: "0.00000011"},
		{name: "exponent string", status: 200, body: `{"price":"2.5E+3"}`, path: "price", want: "2500"},
		{name: "exponent beyond precision truncated", status: 200, body: `{"price": 123456789e-25}`, path: "price", want: "0.000000000000000012"},
		{name: "large exponent exact", status: 200, body: `{"price": 1.234567890123456789e20}`, path: "price", want: "123456789012345678900"},
		{name: "bad exponent", status: 200, body: `{"price":"1e5x"}`, path: "price", wantErr: true},
		{name: "extra digits truncated", status: 200, body: `{"price":"1.1234567890123456789"}`, path: "price", want: "1.123456789012345678"},
		{name: "missing field", status: 200, body: `{"data":{}}`, path: "data.amount", wantErr: true},
		{name: "not an object", status: 200, body: `{"data":5}`, path: "data.amount", wantErr: true},
		{name: "bool leaf", status: 200, body: `{"price":true}`, path: "price", wantErr: true},
		{name: "negative", status: 200, body: `{"price":"-3"}`, path: "price", wantErr: true},
		{name: "bad status", status: 503, body: `{}`, path: "price", wantErr: true},
		{name: "bad json", status: 200, body: `{`, path: "price", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := jsonServer(t, tt.status, tt.body)
			src := feeder.NewHTTPSource("test", srv.URL, tt.path, srv.Client())

			price, err := src.FetchPrice(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, math.LegacyMustNewDecFromStr(tt.want).Equal(price), "got %s", price)
		})
	}
}

type failingSource struct{ name string }

func (f failingSource) Name() string { return f.name }

func (f failingSource) FetchPrice(context.Context) (math.LegacyDec, error) {
	return math.LegacyDec{}, errors.New("exchange down")
}

func TestMedianSource(t *testing.T) {
	metrics := feeder.NewFeederMetrics(prometheus.NewRegistry())

	src := feeder.NewMedianSource(log.NewNopLogger(), []feeder.PriceSource{
		feeder.NewStaticSource("a", math.LegacyNewDec(100)),
		feeder.NewStaticSource("b", math.LegacyNewDec(1_000_000)),
		feeder.NewStaticSource("c", math.LegacyNewDec(102)),
		failingSource{name: "d"},
	}, time.Second, 8, metrics)

	price, err := src.FetchPrice(context.Background())
	require.NoError(t, err)
	require.True(t, math.LegacyNewDec(102).Equal(price), "got %s", price)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.SourceFailures.WithLabelValues("d")))
	require.Equal(t, 100.0, testutil.ToFloat64(metrics.SourcePrice.WithLabelValues("a")))

	// even count averages the central pair and rounds half to even
	src = feeder.NewMedianSource(log.NewNopLogger(), []feeder.PriceSource{
		feeder.NewStaticSource("a", math.LegacyMustNewDecFromStr("1.25")),
		feeder.NewStaticSource("b", math.LegacyMustNewDecFromStr("1.26")),
	}, time.Second, 2, metrics)
	price, err = src.FetchPrice(context.Background())
	require.NoError(t, err)
	require.True(t, math.LegacyMustNewDecFromStr("1.26").Equal(price), "got %s", price)

	src = feeder.NewMedianSource(log.NewNopLogger(), []feeder.PriceSource{failingSource{name: "x"}}, time.Second, 8, metrics)
	_, err = src.FetchPrice(context.Background())
	require.ErrorIs(t, err, feeder.ErrNoPrice)
}

func TestBuildSource(t *testing.T) {
	srv := jsonServer(t, 200, `{"data":{"amount":"104"}}`)

	cfg, err := feeder.ParseConfig(writeConfig(t, exampleConfig))
	require.NoError(t, err)
	cfg.Sources[1].URL = srv.URL

	src, err := feeder.BuildSource(log.NewNopLogger(), cfg, feeder.NewFeederMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)

	// median of 100.5 and 104
	price, err := src.FetchPrice(context.Background())
	require.NoError(t, err)
	require.True(t, math.LegacyMustNewDecFromStr("102.25").Equal(price), "got %s", price)
}
