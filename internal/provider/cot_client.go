package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cot-dashboard/internal/domain"
	"cot-dashboard/internal/normalize"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the COT backend the dashboard was built against.
const DefaultBaseURL = "https://finance-backend-ou68.onrender.com/api/v1"

// DefaultTrendLimit is the number of trend points requested per field.
const DefaultTrendLimit = 999

// CotClient talks to the remote COT REST backend. Every method except Login
// takes the caller's session and sends its token as a bearer header.
type CotClient struct {
	client     *http.Client
	baseURL    string
	tracer     trace.Tracer
	log        logrus.FieldLogger
	normalizer *normalize.Normalizer
	limiter    *RateLimiter
}

type Option func(*CotClient)

func WithBaseURL(baseURL string) Option {
	return func(c *CotClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *CotClient) { c.client = client }
}

// WithPriceLimiter throttles historical price calls.
func WithPriceLimiter(limiter *RateLimiter) Option {
	return func(c *CotClient) { c.limiter = limiter }
}

// NewCotClient creates a client. By default price calls are limited to a
// burst of 5 with one new call every 12 seconds.
func NewCotClient(tracer trace.Tracer, log logrus.FieldLogger, opts ...Option) *CotClient {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &CotClient{
		client:     &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		tracer:     tracer,
		log:        log.WithField("component", "cot-client"),
		normalizer: normalize.New(log),
		limiter:    NewRateLimiter(5, 12*time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a session. The role comes from the
// response body when present, else from the token's "role" claim.
func (c *CotClient) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	ctx, span := c.tracer.Start(ctx, "cot-client.login")
	defer span.End()

	body := map[string]string{
		"username": creds.LoginName(),
		"password": creds.Password,
	}
	raw, err := c.do(ctx, "login", nil, http.MethodPost, "/auth/login", nil, body)
	if err != nil {
		recordError(span, err)
		return domain.Session{}, err
	}

	var resp struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
		Role        string `json:"role"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.Session{}, fmt.Errorf("decode login response: %w", err)
	}
	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	if token == "" {
		return domain.Session{}, ErrNoToken
	}

	role := resp.Role
	if role == "" {
		role = roleFromToken(token)
	}

	return domain.Session{
		ID:        uuid.NewString(),
		Username:  creds.LoginName(),
		Token:     token,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Ingest asks the backend to pull COT reports for a commodity. Empty dates
// are omitted.
func (c *CotClient) Ingest(ctx context.Context, sess domain.Session, commodity, startDate, endDate string) (domain.IngestResult, error) {
	ctx, span := c.tracer.Start(ctx, "cot-client.ingest")
	defer span.End()
	span.SetAttributes(attribute.String("commodity", commodity))

	q := url.Values{}
	q.Set("commodity_name", commodity)
	if startDate != "" {
		q.Set("start_date", startDate)
	}
	if endDate != "" {
		q.Set("end_date", endDate)
	}

	raw, err := c.do(ctx, "ingest", &sess, http.MethodPost, "/cot/ingest", q, nil)
	if err != nil {
		recordError(span, err)
		return domain.IngestResult{}, err
	}
	result, err := normalize.IngestResult(raw)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("ingest: %w", err)
	}
	return result, nil
}

// ListByCommodity returns every stored report for a commodity.
func (c *CotClient) ListByCommodity(ctx context.Context, sess domain.Session, commodity string) ([]domain.CotRecord, error) {
	ctx, span := c.tracer.Start(ctx, "cot-client.list-by-commodity")
	defer span.End()
	span.SetAttributes(attribute.String("commodity", commodity))

	raw, err := c.do(ctx, "list cot data", &sess, http.MethodGet, commodityPath(commodity), nil, nil)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	records, _ := c.normalizer.Records(raw)
	return records, nil
}

// ListByDateRange returns reports between two YYYY-MM-DD dates inclusive.
func (c *CotClient) ListByDateRange(ctx context.Context, sess domain.Session, commodity, startDate, endDate string) ([]domain.CotRecord, error) {
	ctx, span := c.tracer.Start(ctx, "cot-client.list-by-date-range")
	defer span.End()
	span.SetAttributes(
		attribute.String("commodity", commodity),
		attribute.String("start_date", startDate),
		attribute.String("end_date", endDate),
	)

	q := url.Values{}
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)

	raw, err := c.do(ctx, "list cot data by date range", &sess, http.MethodGet, commodityPath(commodity)+"/date-range", q, nil)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	records, report := c.normalizer.Records(raw)
	c.log.WithFields(logrus.Fields{
		"commodity": commodity,
		"envelope":  report.Envelope.String(),
		"records":   report.Records,
		"dropped":   report.Dropped,
	}).Debug("date range loaded")
	return records, nil
}

// Latest returns the newest report, or nil when the backend has none.
func (c *CotClient) Latest(ctx context.Context, sess domain.Session, commodity string) (*domain.CotRecord, error) {
	ctx, span := c.tracer.Start(ctx, "cot-client.latest")
	defer span.End()
	span.SetAttributes(attribute.String("commodity", commodity))

	raw, err := c.do(ctx, "fetch latest cot data", &sess, http.MethodGet, commodityPath(commodity)+"/latest", nil, nil)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	rec, _ := c.normalizer.Latest(raw)
	return rec, nil
}

// Trend returns the time series of one field. limit <= 0 uses DefaultTrendLimit.
func (c *CotClient) Trend(ctx context.Context, sess domain.Session, commodity, field string, limit int) ([]domain.TrendPoint, error) {
	ctx, span := c.tracer.Start(ctx, "cot-client.trend")
	defer span.End()
	span.SetAttributes(attribute.String("commodity", commodity), attribute.String("field", field))

	if limit <= 0 {
		limit = DefaultTrendLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	path := commodityPath(commodity) + "/trend/" + url.PathEscape(field)
	raw, err := c.do(ctx, "fetch trend data", &sess, http.MethodGet, path, q, nil)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	points, report := c.normalizer.Trend(raw, field)
	span.SetAttributes(attribute.Int("points", len(points)), attribute.Int("dropped", report.Dropped))
	return points, nil
}

// HistoricalPrices returns daily bars for a ticker. Both the legacy
// (start/end) and current (start_date/end_date) parameter names are sent. A
// rate-limited answer yields an empty slice and no error.
func (c *CotClient) HistoricalPrices(ctx context.Context, sess domain.Session, symbol, startDate, endDate, interval string) ([]domain.PricePoint, error) {
	ctx, span := c.tracer.Start(ctx, "cot-client.historical-prices")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	if interval == "" {
		interval = "1d"
	}
	q := url.Values{}
	q.Set("interval", interval)
	if startDate != "" {
		q.Set("start_date", startDate)
		q.Set("start", startDate)
	}
	if endDate != "" {
		q.Set("end_date", endDate)
		q.Set("end", endDate)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	raw, err := c.do(ctx, "fetch price data", &sess, http.MethodGet, "/prices/historical/"+url.PathEscape(symbol), q, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RateLimited() {
			c.log.WithField("symbol", symbol).Warn("price data rate limited, skipping price/volume overlay")
			span.SetAttributes(attribute.Bool("rate_limited", true))
			return []domain.PricePoint{}, nil
		}
		recordError(span, err)
		return nil, err
	}
	points, _ := c.normalizer.Prices(raw)
	return points, nil
}

func (c *CotClient) do(ctx context.Context, op string, sess *domain.Session, method, path string, query url.Values, body any) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if sess != nil {
		if !sess.Authenticated() {
			return nil, ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := normalize.ErrorMessage(data)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Op: op, Status: resp.StatusCode, Message: msg}
	}
	return data, nil
}

func commodityPath(commodity string) string {
	return "/cot/commodity/" + url.PathEscape(commodity)
}

// roleFromToken reads the "role" claim without verifying the signature; the
// backend remains the authority on what the token may do.
func roleFromToken(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
