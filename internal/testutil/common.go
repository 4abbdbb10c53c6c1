package testutil

import (
	"context"

	"github.com/somnial/somnial/internal/log"
)

// TestContext carries a noop logger so tests stay quiet
var TestContext = log.WithLogger(context.Background(), log.NewNoopLogger())
