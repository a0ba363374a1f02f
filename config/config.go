package config

import (
	"github.com/letterbox/mailbox-data-api/log"
)

const (
	DefaultMaxLimit        = 500
	DefaultFilterCacheSize = 2000
)

type Config interface {
	// MaxLimit caps the page size a client may request
	MaxLimit() uint64
	FilterCacheSize() int
	FilterOperators() FilterOperators
	PrePing() bool
	Logger() log.Logger
}
