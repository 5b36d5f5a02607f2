package testing

import (
	"testing"

	"github.com/arloliu/mcint/internal/logger"
	"github.com/arloliu/mcint/types"
)

// NewTestLogger returns a logger that writes through t.Logf.
func NewTestLogger(t testing.TB) types.Logger {
	return logger.NewTest(t)
}
