package normalize

import (
	"io"
	"testing"

	"cot-dashboard/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietNormalizer() *Normalizer {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(log)
}

const field = "m_money_positions_long_all"

func TestTrendEnvelopesAreEquivalent(t *testing.T) {
	rows := `[{"reportDate":"2024-01-02","value":1000},{"report_date":"2024-01-09","value":1100}]`
	payloads := map[string]string{
		"array":       rows,
		"data":        `{"data":` + rows + `}`,
		"data_points": `{"data_points":` + rows + `,"count":2}`,
	}
	want := []domain.TrendPoint{
		{ReportDate: "2024-01-02", Value: 1000},
		{ReportDate: "2024-01-09", Value: 1100},
	}

	n := quietNormalizer()
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			got, report := n.Trend([]byte(payload), field)
			assert.Equal(t, want, got)
			assert.Equal(t, 2, report.Records)
			assert.Empty(t, report.Notes)
		})
	}
}

func TestTrendEnvelopePriority(t *testing.T) {
	payload := `{"data_points":[{"date":"2024-02-01","value":1}],"data":[{"date":"2024-03-01","value":2}]}`
	got, report := quietNormalizer().Trend([]byte(payload), field)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-02-01", got[0].ReportDate)
	assert.Equal(t, EnvelopeDataPoints, report.Envelope)
}

func TestTrendDateSynonymsAndValueFallback(t *testing.T) {
	payload := `[
		{"report_date_as_yyyy_mm_dd":"2024-01-02","m_money_positions_long_all":"1500.5"},
		{"Date":"2024-01-09","value":null,"m_money_positions_long_all":7},
		{"date":"2024-01-16","value":"not a number"},
		{"reportDate":"","report_date":"2024-01-23","value":3},
		{"value":99}
	]`
	got, report := quietNormalizer().Trend([]byte(payload), field)
	assert.Equal(t, []domain.TrendPoint{
		{ReportDate: "2024-01-02", Value: 1500.5},
		{ReportDate: "2024-01-09", Value: 7},
		{ReportDate: "2024-01-16", Value: 0},
		{ReportDate: "2024-01-23", Value: 3},
	}, got)
	assert.Equal(t, 1, report.Dropped)
	assert.NotEmpty(t, report.Notes)
}

func TestTrendUnrecognizedEnvelope(t *testing.T) {
	n := quietNormalizer()
	for _, payload := range []string{`{"rows":[]}`, `{"data":"oops"}`, `42`, `not json`} {
		got, report := n.Trend([]byte(payload), field)
		assert.Empty(t, got, payload)
		assert.Equal(t, EnvelopeNone, report.Envelope, payload)
		assert.NotEmpty(t, report.Notes, payload)
	}
}

func TestTrendDataObjectIsSingleton(t *testing.T) {
	got, report := quietNormalizer().Trend([]byte(`{"data":{"reportDate":"2024-05-07","value":12}}`), field)
	require.Len(t, got, 1)
	assert.Equal(t, EnvelopeDataObject, report.Envelope)
}

func TestRecordsKeepsNullRowsWithAbsentFields(t *testing.T) {
	payload := `{"data":[
		{"report_date_as_yyyy_mm_dd":"2024-01-02","commodity_name":"SILVER","open_interest_all":null,"m_money_positions_long_all":null},
		{"report_date_as_yyyy_mm_dd":"2024-01-09","commodity_name":"SILVER","open_interest_all":"150000","market_and_exchange_names":"SILVER - COMMODITY EXCHANGE INC."},
		{"commodity_name":"SILVER","open_interest_all":1}
	]}`
	got, report := quietNormalizer().Records([]byte(payload))
	require.Len(t, got, 2)
	assert.Equal(t, 1, report.Dropped)

	_, ok := got[0].Value("open_interest_all")
	assert.False(t, ok)
	assert.Empty(t, got[0].Fields)

	v, ok := got[1].Value("open_interest_all")
	assert.True(t, ok)
	assert.Equal(t, 150000.0, v)
	assert.Equal(t, "SILVER - COMMODITY EXCHANGE INC.", got[1].Attributes["market_and_exchange_names"])
	assert.Equal(t, "SILVER", got[1].Commodity)
}

func TestLatestShapes(t *testing.T) {
	n := quietNormalizer()

	rec, report := n.Latest([]byte(`{"data":{"report_date_as_yyyy_mm_dd":"2024-03-05","open_interest_all":10}}`))
	require.NotNil(t, rec)
	assert.Equal(t, EnvelopeDataObject, report.Envelope)

	rec, report = n.Latest([]byte(`{"commodity_name":"GOLD","report_date_as_yyyy_mm_dd":"2024-03-05"}`))
	require.NotNil(t, rec)
	assert.Equal(t, "GOLD", rec.Commodity)
	assert.Equal(t, EnvelopeBareRecord, report.Envelope)

	rec, _ = n.Latest([]byte(`[{"date":"2024-01-01"},{"date":"2024-03-01"},{"date":"2024-02-01"}]`))
	require.NotNil(t, rec)
	assert.Equal(t, "2024-03-01", rec.ReportDate)

	rec, _ = n.Latest([]byte(`{"detail":"not found"}`))
	assert.Nil(t, rec)
}

func TestPricesNormalizeDates(t *testing.T) {
	payload := `{"data":[
		{"date":"2024-01-02","close":23.1,"volume":1000},
		{"Date":"2024-01-03T00:00:00Z","Close":"23.4"},
		{"timestamp":1704326400000,"open":1,"high":2,"low":0.5,"close":1.5},
		{"timestamp":1704412800,"close":2},
		{"date":"someday","close":3},
		{"close":4}
	]}`
	got, report := quietNormalizer().Prices([]byte(payload))
	require.Len(t, got, 5)
	assert.Equal(t, 1, report.Dropped)

	dates := make([]string, len(got))
	for i, p := range got {
		dates[i] = p.Date
	}
	assert.Equal(t, []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "someday"}, dates)

	require.NotNil(t, got[0].Volume)
	assert.Equal(t, 1000.0, *got[0].Volume)
	assert.Nil(t, got[1].Volume)
	require.NotNil(t, got[1].Close)
	assert.Equal(t, 23.4, *got[1].Close)
	require.NotNil(t, got[2].High)
	assert.Equal(t, 2.0, *got[2].High)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-01-02", "2024-01-02T10:00:00.000", "2024-01-02 10:00:00", "Jan 2, 2024", "01/02/2024"} {
		d, ok := ParseDate(s)
		require.True(t, ok, s)
		assert.Equal(t, "2024-01-02", d.Format(domain.DateLayout), s)
	}
	_, ok := ParseDate("garbage")
	assert.False(t, ok)
}

func TestSortByDateDesc(t *testing.T) {
	records := []domain.CotRecord{{ReportDate: "2024-01-02"}, {ReportDate: "2024-03-02"}, {ReportDate: "2024-02-02"}}
	SortByDateDesc(records)
	assert.Equal(t, "2024-03-02", records[0].ReportDate)
	assert.Equal(t, "2024-01-02", records[2].ReportDate)
}
