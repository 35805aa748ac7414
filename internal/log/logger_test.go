// SPDX-License-Identifier: MIT

package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithComponent(t *testing.T) {
	l := WithComponent("presence")
	// Logger must be usable without panicking even before explicit Configure.
	l.Debug().Msg("component logger works")
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}

func TestContextWithRequestID_NilContext(t *testing.T) {
	//nolint:staticcheck // intentional nil context for robustness check
	ctx := ContextWithRequestID(nil, "req-456")
	assert.Equal(t, "req-456", RequestIDFromContext(ctx))
}
