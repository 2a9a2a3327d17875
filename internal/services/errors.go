package services

import "errors"

// Service errors
var (
	// Dataset errors
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	ErrLookupUnavailable  = errors.New("lookup view unavailable")

	// Explorer errors
	ErrExplorerUnavailable = errors.New("explorer view unavailable")

	// Input errors
	ErrYearOutOfRange = errors.New("year out of range")
	ErrInvalidInput   = errors.New("invalid input")
)
