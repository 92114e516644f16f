package normalize

import "github.com/tidwall/gjson"

// Envelope identifies which outer wrapper carried the records.
type Envelope int

const (
	EnvelopeNone Envelope = iota
	EnvelopeBareArray
	EnvelopeDataPoints
	EnvelopeData
	EnvelopeDataObject
	EnvelopeBareRecord
)

func (e Envelope) String() string {
	switch e {
	case EnvelopeBareArray:
		return "array"
	case EnvelopeDataPoints:
		return "data_points"
	case EnvelopeData:
		return "data"
	case EnvelopeDataObject:
		return "data_object"
	case EnvelopeBareRecord:
		return "record"
	default:
		return "none"
	}
}

// decoder is one step of the envelope chain. It either claims the payload and
// returns its records or reports no match.
type decoder struct {
	envelope Envelope
	match    func(root gjson.Result) ([]gjson.Result, bool)
}

var (
	bareArray = decoder{EnvelopeBareArray, func(root gjson.Result) ([]gjson.Result, bool) {
		if !root.IsArray() {
			return nil, false
		}
		return root.Array(), true
	}}
	dataPoints = decoder{EnvelopeDataPoints, func(root gjson.Result) ([]gjson.Result, bool) {
		v := root.Get("data_points")
		if !root.IsObject() || !v.IsArray() {
			return nil, false
		}
		return v.Array(), true
	}}
	dataArray = decoder{EnvelopeData, func(root gjson.Result) ([]gjson.Result, bool) {
		v := root.Get("data")
		if !root.IsObject() || !v.IsArray() {
			return nil, false
		}
		return v.Array(), true
	}}
	dataObject = decoder{EnvelopeDataObject, func(root gjson.Result) ([]gjson.Result, bool) {
		v := root.Get("data")
		if !root.IsObject() || !v.IsObject() {
			return nil, false
		}
		return []gjson.Result{v}, true
	}}
	bareRecord = decoder{EnvelopeBareRecord, func(root gjson.Result) ([]gjson.Result, bool) {
		if !root.IsObject() {
			return nil, false
		}
		if root.Get("commodity_name").Exists() || root.Get("report_date_as_yyyy_mm_dd").Exists() {
			return []gjson.Result{root}, true
		}
		return nil, false
	}}
)

// listChain is tried for every list endpoint; the data object decoder covers
// "latest" style payloads that answer with a single record.
var listChain = []decoder{bareArray, dataPoints, dataArray, dataObject}

var latestChain = []decoder{dataObject, bareRecord, bareArray, dataPoints, dataArray}

// unwrap runs the chain in order. The first decoder that matches wins.
func unwrap(payload []byte, chain []decoder) ([]gjson.Result, Envelope, string) {
	if !gjson.ValidBytes(payload) {
		return nil, EnvelopeNone, "payload is not valid JSON"
	}
	root := gjson.ParseBytes(payload)
	for _, d := range chain {
		if records, ok := d.match(root); ok {
			return records, d.envelope, ""
		}
	}
	return nil, EnvelopeNone, "unrecognized envelope"
}
