package feeder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"golang.org/x/sync/errgroup"

	"github.com/paw-chain/paw-oracle/x/oracle/keeper"
)

// maxResponseBytes bounds the body read from a price source.
const maxResponseBytes = 1 << 20

// ErrNoPrice is returned when no configured source produced a price.
var ErrNoPrice = errors.New("no source returned a price")

// PriceSource defines an interface an external price source must implement.
type PriceSource interface {
	// Name identifies the source in logs and metrics.
	Name() string

	// FetchPrice returns the source's current price.
	FetchPrice(ctx context.Context) (math.LegacyDec, error)
}

var (
	_ PriceSource = StaticSource{}
	_ PriceSource = (*HTTPSource)(nil)
	_ PriceSource = (*MedianSource)(nil)
)

// StaticSource always returns the same price. It is meant for devnets.
type StaticSource struct {
	name  string
	value math.LegacyDec
}

// NewStaticSource returns a source that always reports value.
func NewStaticSource(name string, value math.LegacyDec) StaticSource {
	return StaticSource{name: name, value: value}
}

func (s StaticSource) Name() string { return s.name }

func (s StaticSource) FetchPrice(context.Context) (math.LegacyDec, error) {
	return s.value, nil
}

// HTTPSource reads a price out of a JSON document served over HTTP.
type HTTPSource struct {
	name   string
	url    string
	path   []string
	client *http.Client
}

// NewHTTPSource returns a source that GETs url and reads the value at the dot
// separated path. The value may be a JSON number or a decimal string.
func NewHTTPSource(name, url, path string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: defaultSourceTimeout}
	}
	return &HTTPSource{
		name:   name,
		url:    url,
		path:   strings.Split(path, "."),
		client: client,
	}
}

func (s *HTTPSource) Name() string { return s.name }

func (s *HTTPSource) FetchPrice(ctx context.Context) (math.LegacyDec, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return math.LegacyDec{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return math.LegacyDec{}, fmt.Errorf("%s: request failed: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return math.LegacyDec{}, fmt.Errorf("%s: unexpected status %d", s.name, resp.StatusCode)
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return math.LegacyDec{}, fmt.Errorf("%s: invalid json: %w", s.name, err)
	}

	return priceAt(doc, s.path)
}

// priceAt walks path through nested JSON objects and parses the leaf.
func priceAt(doc interface{}, path []string) (math.LegacyDec, error) {
	cur := doc
	for _, field := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return math.LegacyDec{}, fmt.Errorf("field %s: not an object", field)
		}
		if cur, ok = obj[field]; !ok {
			return math.LegacyDec{}, fmt.Errorf("field %s: missing", field)
		}
	}

	var raw string
	switch v := cur.(type) {
	case json.Number:
		raw = v.String()
	case string:
		raw = v
	default:
		return math.LegacyDec{}, fmt.Errorf("field %s: expected number or string, got %T", strings.Join(path, "."), cur)
	}

	price, err := parseDecimal(raw)
	if err != nil {
		return math.LegacyDec{}, err
	}
	if price.IsNegative() {
		return math.LegacyDec{}, fmt.Errorf("negative price %s", price)
	}
	return price, nil
}

// parseDecimal accepts plain and exponent notation, truncating digits past
// the 18 supported decimal places.
func parseDecimal(raw string) (math.LegacyDec, error) {
	if i := strings.IndexAny(raw, "eE"); i >= 0 {
		plain, err := shiftExponent(raw[:i], raw[i+1:])
		if err != nil {
			return math.LegacyDec{}, fmt.Errorf("invalid price %q: %w", raw, err)
		}
		raw = plain
	}

	if i := strings.IndexByte(raw, '.'); i >= 0 && len(raw)-i-1 > math.LegacyPrecision {
		raw = raw[:i+1+math.LegacyPrecision]
	}

	price, err := math.LegacyNewDecFromStr(raw)
	if err != nil {
		return math.LegacyDec{}, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	return price, nil
}

// maxExponent bounds exponent notation well beyond the LegacyDec range.
const maxExponent = 100

// shiftExponent rewrites mantissa×10^exponent in plain decimal notation by
// moving the decimal point, so no digit is lost.
func shiftExponent(mantissa, exponent string) (string, error) {
	exp, err := strconv.Atoi(exponent)
	if err != nil {
		return "", fmt.Errorf("invalid exponent: %w", err)
	}
	if exp > maxExponent || exp < -maxExponent {
		return "", fmt.Errorf("exponent %d out of range", exp)
	}

	sign := ""
	switch {
	case strings.HasPrefix(mantissa, "-"):
		sign, mantissa = "-", mantissa[1:]
	case strings.HasPrefix(mantissa, "+"):
		mantissa = mantissa[1:]
	}
	intPart, fracPart, _ := strings.Cut(mantissa, ".")
	digits := intPart + fracPart
	if digits == "" || strings.Trim(digits, "0123456789") != "" {
		return "", fmt.Errorf("invalid mantissa %q", mantissa)
	}

	point := len(intPart) + exp
	switch {
	case point <= 0:
		digits = strings.Repeat("0", 1-point) + digits
		point = 1
	case point > len(digits):
		digits += strings.Repeat("0", point-len(digits))
	}

	if point == len(digits) {
		return sign + digits, nil
	}
	return sign + digits[:point] + "." + digits[point:], nil
}

// MedianSource combines several sources into their median. Sources are
// queried concurrently; a failing source is logged and skipped.
type MedianSource struct {
	logger    log.Logger
	sources   []PriceSource
	timeout   time.Duration
	precision uint32
	metrics   *FeederMetrics
}

// NewMedianSource returns a source reporting the median of sources, rounded
// to precision decimal places.
func NewMedianSource(logger log.Logger, sources []PriceSource, timeout time.Duration, precision uint32, metrics *FeederMetrics) *MedianSource {
	return &MedianSource{
		logger:    logger,
		sources:   sources,
		timeout:   timeout,
		precision: precision,
		metrics:   metrics,
	}
}

func (m *MedianSource) Name() string { return "median" }

func (m *MedianSource) FetchPrice(ctx context.Context) (math.LegacyDec, error) {
	g, gctx := errgroup.WithContext(ctx)
	mtx := new(sync.Mutex)
	prices := make([]math.LegacyDec, 0, len(m.sources))

	for _, src := range m.sources {
		src := src
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, m.timeout)
			defer cancel()

			price, err := src.FetchPrice(fetchCtx)
			if err != nil {
				// If one source fails, do not fail the whole fetch.
				m.logger.Error("failed to fetch price", "source", src.Name(), "error", err)
				m.metrics.SourceFailures.WithLabelValues(src.Name()).Inc()
				return nil
			}

			m.metrics.SourcePrice.WithLabelValues(src.Name()).Set(price.MustFloat64())

			mtx.Lock()
			prices = append(prices, price)
			mtx.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return math.LegacyDec{}, err
	}
	if len(prices) == 0 {
		return math.LegacyDec{}, ErrNoPrice
	}

	return keeper.ComputeMedian(prices, m.precision)
}

// BuildSource assembles the configured sources into a single MedianSource.
func BuildSource(logger log.Logger, cfg Config, metrics *FeederMetrics) (*MedianSource, error) {
	timeout := Duration(cfg.SourceTimeout)
	client := &http.Client{Timeout: timeout}

	sources := make([]PriceSource, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		switch src.Type {
		case SourceTypeHTTP:
			sources = append(sources, NewHTTPSource(src.Name, src.URL, src.Path, client))
		case SourceTypeStatic:
			value, err := math.LegacyNewDecFromStr(src.Value)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", src.Name, err)
			}
			sources = append(sources, NewStaticSource(src.Name, value))
		default:
			return nil, fmt.Errorf("unsupported source type %s", src.Type)
		}
	}

	return NewMedianSource(logger, sources, timeout, cfg.PricePrecision, metrics), nil
}
