package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"cot-dashboard/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func newTestClient(t *testing.T, fn roundTripFunc) *CotClient {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewCotClient(
		trace.NewNoopTracerProvider().Tracer("test"),
		log,
		WithBaseURL("http://backend/api/v1/"),
		WithHTTPClient(&http.Client{Transport: fn}),
		WithPriceLimiter(NewRateLimiter(10, time.Millisecond)),
	)
}

var testSession = domain.Session{ID: "s1", Token: "tok"}

func TestLoginUsesTokenAndBodyRole(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/api/v1/auth/login" {
			t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
		}
		if req.Header.Get("Authorization") != "" {
			t.Fatal("login must not send a bearer header")
		}
		var body map[string]string
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body["username"] != "trader@example.com" || body["password"] != "pw" {
			t.Fatalf("unexpected body: %+v", body)
		}
		return jsonResponse(http.StatusOK, `{"access_token":"abc","role":"viewer"}`), nil
	})

	sess, err := client.Login(context.Background(), domain.Credentials{Email: "trader@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Token != "abc" || sess.Role != "viewer" || sess.ID == "" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestLoginRoleFromTokenClaims(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u", "role": "admin"}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"token":"`+token+`"}`), nil
	})

	sess, err := client.Login(context.Background(), domain.Credentials{Username: "u", Password: "pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Role != "admin" {
		t.Fatalf("expected role from claims, got %q", sess.Role)
	}
}

func TestLoginErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		wantErr error
	}{
		{"validation", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, "field required", nil},
		{"bad credentials", http.StatusUnauthorized, `{"message":"Invalid credentials"}`, "Invalid credentials", nil},
		{"no token", http.StatusOK, `{"message":"welcome"}`, "", ErrNoToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, tt.body), nil
			})
			_, err := client.Login(context.Background(), domain.Credentials{Username: "u", Password: "p"})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("expected message %q in %v", tt.wantMsg, err)
			}
		})
	}
}

func TestIngestSendsQueryAndBearer(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/v1/cot/ingest" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		q := req.URL.Query()
		if q.Get("commodity_name") != "CRUDE OIL" || q.Get("start_date") != "2024-01-01" || q.Has("end_date") {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		if req.Header.Get("Authorization") != "Bearer tok" {
			t.Fatalf("missing bearer header")
		}
		return jsonResponse(http.StatusOK, `{"data":{"inserted_count":4,"duplicate_count":1}}`), nil
	})

	result, err := client.Ingest(context.Background(), testSession, "CRUDE OIL", "2024-01-01", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.InsertedCount != 4 || result.DuplicateCount != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestIngestFailureCarriesStatus(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, `oops`), nil
	})
	_, err := client.Ingest(context.Background(), testSession, "GOLD", "", "")
	if StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500 APIError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Internal Server Error") {
		t.Fatalf("expected status text fallback, got %v", err)
	}
}

func TestUnauthenticatedSessionIsRejectedLocally(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	if _, err := client.Latest(context.Background(), domain.Session{}, "GOLD"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestTrendEscapesPathAndNormalizes(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.EscapedPath() != "/api/v1/cot/commodity/CRUDE%20OIL/trend/m_money_positions_long_all" {
			t.Fatalf("unexpected path: %s", req.URL.EscapedPath())
		}
		if req.URL.Query().Get("limit") != "999" {
			t.Fatalf("expected default limit, got %s", req.URL.RawQuery)
		}
		return jsonResponse(http.StatusOK, `{"data":[{"reportDate":"2024-01-02","value":1000},{"report_date":"2024-01-09","value":1100},{"value":5}]}`), nil
	})

	points, err := client.Trend(context.Background(), testSession, "CRUDE OIL", "m_money_positions_long_all", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []domain.TrendPoint{{ReportDate: "2024-01-02", Value: 1000}, {ReportDate: "2024-01-09", Value: 1100}}
	if len(points) != len(want) || points[0] != want[0] || points[1] != want[1] {
		t.Fatalf("unexpected points: %+v", points)
	}
}

func TestLatestAndLists(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/api/v1/cot/commodity/SILVER/latest":
			return jsonResponse(http.StatusOK, `{"data":{"report_date_as_yyyy_mm_dd":"2024-03-05","open_interest_all":150000}}`), nil
		case "/api/v1/cot/commodity/SILVER":
			return jsonResponse(http.StatusOK, `[{"report_date_as_yyyy_mm_dd":"2024-03-05"},{"report_date_as_yyyy_mm_dd":"2024-02-27"}]`), nil
		case "/api/v1/cot/commodity/SILVER/date-range":
			q := req.URL.Query()
			if q.Get("start_date") != "2024-01-01" || q.Get("end_date") != "2024-02-01" {
				t.Fatalf("unexpected range query: %s", req.URL.RawQuery)
			}
			return jsonResponse(http.StatusOK, `{"data_points":[{"report_date_as_yyyy_mm_dd":"2024-01-09"}]}`), nil
		}
		t.Fatalf("unexpected path: %s", req.URL.Path)
		return nil, nil
	})
	ctx := context.Background()

	latest, err := client.Latest(ctx, testSession, "SILVER")
	if err != nil || latest == nil || latest.ReportDate != "2024-03-05" {
		t.Fatalf("unexpected latest: %+v err=%v", latest, err)
	}
	all, err := client.ListByCommodity(ctx, testSession, "SILVER")
	if err != nil || len(all) != 2 {
		t.Fatalf("unexpected list: %+v err=%v", all, err)
	}
	ranged, err := client.ListByDateRange(ctx, testSession, "SILVER", "2024-01-01", "2024-02-01")
	if err != nil || len(ranged) != 1 {
		t.Fatalf("unexpected range list: %+v err=%v", ranged, err)
	}
}

func TestHistoricalPricesSendsBothParamNames(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.EscapedPath() != "/api/v1/prices/historical/SI=F" {
			t.Fatalf("unexpected path: %s", req.URL.EscapedPath())
		}
		q := req.URL.Query()
		if q.Get("start") != "2024-01-01" || q.Get("start_date") != "2024-01-01" || q.Get("end") != "2024-06-01" || q.Get("end_date") != "2024-06-01" || q.Get("interval") != "1d" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		return jsonResponse(http.StatusOK, `{"data":[{"Date":1704153600000,"Close":23.5,"Volume":1200}]}`), nil
	})

	points, err := client.HistoricalPrices(context.Background(), testSession, "SI=F", "2024-01-01", "2024-06-01", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 1 || points[0].Date != "2024-01-02" || points[0].Close == nil || *points[0].Close != 23.5 {
		t.Fatalf("unexpected points: %+v", points)
	}
}

func TestHistoricalPricesRateLimitedIsSoftEmpty(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"detail":"Rate limited by Yahoo Finance, try later"}`), nil
	})

	points, err := client.HistoricalPrices(context.Background(), testSession, "GC=F", "", "", "1d")
	if err != nil {
		t.Fatalf("rate limiting must not be an error: %v", err)
	}
	if points == nil || len(points) != 0 {
		t.Fatalf("expected empty non-nil slice, got %+v", points)
	}
}

func TestHistoricalPricesOtherBadRequestIsError(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"detail":"unknown symbol"}`), nil
	})

	if _, err := client.HistoricalPrices(context.Background(), testSession, "XX", "", "", "1d"); StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 error, got %v", err)
	}
}
