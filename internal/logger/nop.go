// Package logger provides Logger implementations for tests and silent operation.
package logger

import "github.com/arloliu/mcint/types"

// NopLogger discards every record. Fatal does not exit.
//
// Example:
//
//	engine, err := mcint.NewEngine(cfg, comm, mcint.WithLogger(logger.NewNop()))
type NopLogger struct{}

var _ types.Logger = (*NopLogger)(nil)

// NewNop returns a logger that discards everything.
func NewNop() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(_ string, _ ...any) {}

func (n *NopLogger) Info(_ string, _ ...any) {}

func (n *NopLogger) Warn(_ string, _ ...any) {}

func (n *NopLogger) Error(_ string, _ ...any) {}

// Fatal discards the message and returns; it never terminates the process.
func (n *NopLogger) Fatal(_ string, _ ...any) {}
