package domain

import "time"

// DateLayout is the canonical report/price date format.
const DateLayout = "2006-01-02"

// DefaultLookback is how far back the price overlay reaches: two years.
const DefaultLookback = 730 * 24 * time.Hour

// LookbackStart returns the earliest instant the overlay may cover. The default
// window is two calendar years, so a leap day in range does not shift the start.
func LookbackStart(now time.Time, lookback time.Duration) time.Time {
	if lookback == DefaultLookback {
		return now.AddDate(-2, 0, 0)
	}
	return now.Add(-lookback)
}

// CotRecord is one weekly Commitment of Traders report row. Fields holds the
// numeric columns that were present and non-null; Attributes holds the
// remaining string columns.
type CotRecord struct {
	ReportDate string             `json:"report_date_as_yyyy_mm_dd"`
	Commodity  string             `json:"commodity_name,omitempty"`
	Fields     map[string]float64 `json:"fields"`
	Attributes map[string]string  `json:"attributes,omitempty"`
}

// Value returns a numeric field and whether it was present.
func (r CotRecord) Value(field string) (float64, bool) {
	v, ok := r.Fields[field]
	return v, ok
}

// TrendPoint is a single (report date, value) pair for one field.
type TrendPoint struct {
	ReportDate string  `json:"reportDate"`
	Value      float64 `json:"value"`
}

// PricePoint is one daily bar for a ticker. Missing values stay nil.
type PricePoint struct {
	Date   string   `json:"date"`
	Open   *float64 `json:"open,omitempty"`
	High   *float64 `json:"high,omitempty"`
	Low    *float64 `json:"low,omitempty"`
	Close  *float64 `json:"close,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
}

// IngestResult is the backend's answer to an ingest request.
type IngestResult struct {
	InsertedCount  int    `json:"inserted_count"`
	DuplicateCount int    `json:"duplicate_count"`
	Message        string `json:"message,omitempty"`
}

// IngestRun records one ingest attempt made through this service.
type IngestRun struct {
	ID             int64     `json:"id"`
	Commodity      string    `json:"commodity"`
	StartDate      string    `json:"start_date,omitempty"`
	EndDate        string    `json:"end_date,omitempty"`
	InsertedCount  int       `json:"inserted_count"`
	DuplicateCount int       `json:"duplicate_count"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	TriggeredBy    string    `json:"triggered_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// Ingest run statuses.
const (
	IngestStatusOK     = "ok"
	IngestStatusFailed = "failed"
)
