// Package normalize turns backend JSON payloads of drifting shape into the
// canonical domain types. Nothing here returns an error for a payload it
// cannot understand; it returns an empty result and says why in the Report.
package normalize

import (
	"fmt"
	"sort"

	"cot-dashboard/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// maxDropWarnings caps per-payload warnings about dropped records.
const maxDropWarnings = 3

// Report describes what the normalizer did with a payload.
type Report struct {
	Envelope Envelope
	Records  int
	Dropped  int
	Notes    []string
}

func (r *Report) note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Normalizer decodes backend payloads. The zero value is not usable; use New.
type Normalizer struct {
	log logrus.FieldLogger
}

func New(log logrus.FieldLogger) *Normalizer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Normalizer{log: log.WithField("component", "normalize")}
}

// Trend extracts (date, value) pairs for field. The value is taken from an
// explicit "value" key, else from a key named after the field, else zero.
func (n *Normalizer) Trend(payload []byte, field string) ([]domain.TrendPoint, Report) {
	rows, report := n.begin(payload, listChain, "trend")
	points := make([]domain.TrendPoint, 0, len(rows))
	for i, row := range rows {
		fields := row.Map()
		date, ok := lookup(fields, dateKeys...)
		if !ok {
			n.drop(&report, "trend", i, row)
			continue
		}
		value := 0.0
		if v, ok := lookup(fields, "value", field); ok {
			value, _ = toFloat(v)
		}
		points = append(points, domain.TrendPoint{ReportDate: rawDate(date), Value: value})
	}
	report.Records = len(points)
	return points, report
}

// Records extracts COT rows. Null columns are left out of the record.
func (n *Normalizer) Records(payload []byte) ([]domain.CotRecord, Report) {
	rows, report := n.begin(payload, listChain, "cot")
	records := make([]domain.CotRecord, 0, len(rows))
	for i, row := range rows {
		rec, ok := toRecord(row)
		if !ok {
			n.drop(&report, "cot", i, row)
			continue
		}
		records = append(records, rec)
	}
	report.Records = len(records)
	return records, report
}

// Latest extracts a single COT row. When the payload carries a list, the row
// with the greatest report date is returned.
func (n *Normalizer) Latest(payload []byte) (*domain.CotRecord, Report) {
	rows, report := n.begin(payload, latestChain, "latest")
	var latest *domain.CotRecord
	for i, row := range rows {
		rec, ok := toRecord(row)
		if !ok {
			n.drop(&report, "latest", i, row)
			continue
		}
		if latest == nil || rec.ReportDate > latest.ReportDate {
			r := rec
			latest = &r
		}
	}
	if latest != nil {
		report.Records = 1
	}
	return latest, report
}

// Prices extracts daily bars and normalizes their dates to YYYY-MM-DD.
func (n *Normalizer) Prices(payload []byte) ([]domain.PricePoint, Report) {
	rows, report := n.begin(payload, listChain, "prices")
	points := make([]domain.PricePoint, 0, len(rows))
	for i, row := range rows {
		fields := row.Map()
		date, ok := lookup(fields, priceDateKeys...)
		if !ok {
			n.drop(&report, "prices", i, row)
			continue
		}
		points = append(points, domain.PricePoint{
			Date:   canonicalDate(date),
			Open:   optionalFloat(fields, "open", "Open"),
			High:   optionalFloat(fields, "high", "High"),
			Low:    optionalFloat(fields, "low", "Low"),
			Close:  optionalFloat(fields, "close", "Close"),
			Volume: optionalFloat(fields, "volume", "Volume"),
		})
	}
	report.Records = len(points)
	return points, report
}

func (n *Normalizer) begin(payload []byte, chain []decoder, kind string) ([]gjson.Result, Report) {
	rows, envelope, problem := unwrap(payload, chain)
	report := Report{Envelope: envelope}
	if problem != "" {
		report.note("%s", problem)
		n.log.WithFields(logrus.Fields{"kind": kind, "problem": problem}).Warn("unexpected payload shape")
	}
	return rows, report
}

func (n *Normalizer) drop(report *Report, kind string, index int, row gjson.Result) {
	report.Dropped++
	if report.Dropped <= maxDropWarnings {
		n.log.WithFields(logrus.Fields{"kind": kind, "index": index, "row": row.Raw}).Warn("dropping record without date")
	}
	if report.Dropped == 1 {
		report.note("records without a date were dropped")
	}
}

func toRecord(row gjson.Result) (domain.CotRecord, bool) {
	if !row.IsObject() {
		return domain.CotRecord{}, false
	}
	fields := row.Map()
	date, ok := lookup(fields, dateKeys...)
	if !ok {
		return domain.CotRecord{}, false
	}
	rec := domain.CotRecord{
		ReportDate: rawDate(date),
		Fields:     make(map[string]float64),
	}
	if c, ok := lookup(fields, commodityKeys...); ok {
		rec.Commodity = c.String()
	}

	skip := make(map[string]struct{}, len(dateKeys)+len(commodityKeys))
	for _, k := range dateKeys {
		skip[k] = struct{}{}
	}
	for _, k := range commodityKeys {
		skip[k] = struct{}{}
	}

	for key, v := range fields {
		if _, ok := skip[key]; ok {
			continue
		}
		switch v.Type {
		case gjson.Null, gjson.JSON:
			continue
		case gjson.Number:
			rec.Fields[key] = v.Num
		case gjson.True, gjson.False:
			setAttribute(&rec, key, v.String())
		case gjson.String:
			if f, ok := toFloat(v); ok {
				rec.Fields[key] = f
			} else {
				setAttribute(&rec, key, v.Str)
			}
		}
	}
	return rec, true
}

func setAttribute(rec *domain.CotRecord, key, value string) {
	if rec.Attributes == nil {
		rec.Attributes = make(map[string]string)
	}
	rec.Attributes[key] = value
}

// SortByDateDesc orders records newest first.
func SortByDateDesc(records []domain.CotRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ReportDate > records[j].ReportDate
	})
}
