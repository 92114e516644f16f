package service

import "errors"

var (
	ErrUnsupportedCommodity = errors.New("unsupported commodity")
	ErrUnknownField         = errors.New("unknown COT field")
	ErrInvalidDate          = errors.New("dates must be YYYY-MM-DD")
	ErrHistoryUnavailable   = errors.New("ingest history is not configured")
)
