// Package mcpserver exposes read-only COT queries as MCP tools so assistants
// can look up positions without going through the dashboard.
package mcpserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cot-dashboard/internal/domain"
	"cot-dashboard/internal/provider"

	"github.com/modelcontextprotocol/go-sdk/auth"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

const (
	serverName    = "cot-dashboard"
	serverVersion = "1.0.0"

	defaultTrendPoints = 52
	maxTrendPoints     = 999
)

type CotReader interface {
	Latest(ctx context.Context, sess domain.Session, commodity string) (*domain.CotRecord, error)
	Trend(ctx context.Context, sess domain.Session, commodity, field string, limit int) ([]domain.TrendPoint, error)
	History(ctx context.Context, sess domain.Session, commodity, startDate, endDate string) ([]domain.CotRecord, error)
}

type SessionSource interface {
	Session(ctx context.Context) (domain.Session, error)
	Invalidate()
}

type Server struct {
	cot     CotReader
	account SessionSource
	timeout time.Duration
	log     logrus.FieldLogger
	server  *mcp.Server
}

func New(cot CotReader, account SessionSource, log logrus.FieldLogger, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &Server{
		cot:     cot,
		account: account,
		timeout: timeout,
		log:     log.WithField("component", "mcp"),
		server:  mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_fields",
		Description: "List the supported commodities and the COT fields grouped by category.",
	}, s.listFields)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "latest_cot",
		Description: "Return the most recent Commitment of Traders report for a commodity.",
	}, s.latestCot)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "cot_trend",
		Description: "Return the weekly series of one COT field for a commodity, oldest first.",
	}, s.cotTrend)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "cot_history",
		Description: "Return COT reports for a commodity between two dates, newest first.",
	}, s.cotHistory)
	return s
}

// MCP returns the underlying server, for connecting custom transports.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

func (s *Server) RunStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler serves the streamable HTTP transport. A non-empty token is
// required as a bearer credential on every request.
func (s *Server) HTTPHandler(token string) http.Handler {
	h := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.server }, nil)
	if token == "" {
		return h
	}
	return auth.RequireBearerToken(StaticToken(token), nil)(h)
}

// StaticToken accepts exactly one shared bearer token. Accepted tokens are
// given a short expiry so the check runs again on every request.
func StaticToken(token string) auth.TokenVerifier {
	want := []byte(token)
	return func(ctx context.Context, got string, req *http.Request) (*auth.TokenInfo, error) {
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			return nil, auth.ErrInvalidToken
		}
		return &auth.TokenInfo{UserID: "mcp", Expiration: time.Now().Add(time.Minute)}, nil
	}
}

type FieldCategory struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

type ListFieldsInput struct{}

type ListFieldsOutput struct {
	Commodities []string        `json:"commodities"`
	Categories  []FieldCategory `json:"categories"`
}

type LatestInput struct {
	Commodity string `json:"commodity" jsonschema:"commodity name, one of SILVER, GOLD, COPPER, CRUDE OIL"`
}

type LatestOutput struct {
	Commodity string            `json:"commodity"`
	Found     bool              `json:"found"`
	Report    *domain.CotRecord `json:"report,omitempty"`
}

type TrendInput struct {
	Commodity string `json:"commodity" jsonschema:"commodity name, one of SILVER, GOLD, COPPER, CRUDE OIL"`
	Field     string `json:"field" jsonschema:"COT field name as returned by list_fields"`
	Limit     int    `json:"limit,omitempty" jsonschema:"number of most recent weeks to return, default 52"`
}

type TrendOutput struct {
	Commodity string              `json:"commodity"`
	Field     string              `json:"field"`
	Label     string              `json:"label"`
	Points    []domain.TrendPoint `json:"points"`
}

type HistoryInput struct {
	Commodity string `json:"commodity" jsonschema:"commodity name, one of SILVER, GOLD, COPPER, CRUDE OIL"`
	StartDate string `json:"start_date,omitempty" jsonschema:"inclusive start date YYYY-MM-DD"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"inclusive end date YYYY-MM-DD, defaults to today"`
}

type HistoryOutput struct {
	Commodity string             `json:"commodity"`
	Reports   []domain.CotRecord `json:"reports"`
}

func (s *Server) listFields(ctx context.Context, req *mcp.CallToolRequest, in ListFieldsInput) (*mcp.CallToolResult, ListFieldsOutput, error) {
	out := ListFieldsOutput{Commodities: domain.SupportedCommodities}
	for _, cat := range domain.FieldCategories {
		out.Categories = append(out.Categories, FieldCategory{Name: cat.Name, Fields: cat.Fields})
	}
	return nil, out, nil
}

func (s *Server) latestCot(ctx context.Context, req *mcp.CallToolRequest, in LatestInput) (*mcp.CallToolResult, LatestOutput, error) {
	commodity, err := commodityArg(in.Commodity)
	if err != nil {
		return nil, LatestOutput{}, err
	}
	var rec *domain.CotRecord
	err = s.withSession(ctx, "latest_cot", func(ctx context.Context, sess domain.Session) error {
		var err error
		rec, err = s.cot.Latest(ctx, sess, commodity)
		return err
	})
	if err != nil {
		return nil, LatestOutput{}, err
	}
	return nil, LatestOutput{Commodity: commodity, Found: rec != nil, Report: rec}, nil
}

func (s *Server) cotTrend(ctx context.Context, req *mcp.CallToolRequest, in TrendInput) (*mcp.CallToolResult, TrendOutput, error) {
	commodity, err := commodityArg(in.Commodity)
	if err != nil {
		return nil, TrendOutput{}, err
	}
	field := strings.TrimSpace(in.Field)
	if !domain.IsKnownField(field) {
		return nil, TrendOutput{}, fmt.Errorf("unknown field %q, call list_fields for valid names", in.Field)
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultTrendPoints
	}
	limit = min(limit, maxTrendPoints)

	var points []domain.TrendPoint
	err = s.withSession(ctx, "cot_trend", func(ctx context.Context, sess domain.Session) error {
		var err error
		points, err = s.cot.Trend(ctx, sess, commodity, field, limit)
		return err
	})
	if err != nil {
		return nil, TrendOutput{}, err
	}
	if points == nil {
		points = []domain.TrendPoint{}
	}
	return nil, TrendOutput{
		Commodity: commodity,
		Field:     field,
		Label:     domain.FieldDisplayName(field),
		Points:    points,
	}, nil
}

func (s *Server) cotHistory(ctx context.Context, req *mcp.CallToolRequest, in HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
	commodity, err := commodityArg(in.Commodity)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	if in.StartDate == "" && in.EndDate == "" {
		return nil, HistoryOutput{}, errors.New("start_date or end_date is required")
	}

	var records []domain.CotRecord
	err = s.withSession(ctx, "cot_history", func(ctx context.Context, sess domain.Session) error {
		var err error
		records, err = s.cot.History(ctx, sess, commodity, in.StartDate, in.EndDate)
		return err
	})
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	if records == nil {
		records = []domain.CotRecord{}
	}
	return nil, HistoryOutput{Commodity: commodity, Reports: records}, nil
}

func commodityArg(name string) (string, error) {
	commodity, ok := domain.NormalizeCommodity(name)
	if !ok {
		return "", fmt.Errorf("unsupported commodity %q, expected one of %s", name, strings.Join(domain.SupportedCommodities, ", "))
	}
	return commodity, nil
}

// withSession runs fn under the service account. A rejected token is
// dropped and fn is retried once with a fresh login.
func (s *Server) withSession(ctx context.Context, tool string, fn func(context.Context, domain.Session) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for attempt := 0; ; attempt++ {
		sess, err := s.account.Session(ctx)
		if err != nil {
			return fmt.Errorf("log in to COT backend: %w", err)
		}
		err = fn(ctx, sess)
		if err == nil {
			return nil
		}
		var apiErr *provider.APIError
		if attempt == 0 && errors.As(err, &apiErr) && apiErr.Unauthorized() {
			s.log.WithField("tool", tool).Info("service session rejected, logging in again")
			s.account.Invalidate()
			continue
		}
		s.log.WithField("tool", tool).WithError(err).Warn("tool call failed")
		return err
	}
}
