package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCauseAndKind(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("save listing", cause)

	wrapped := fmt.Errorf("create: %w", err)
	assert.True(t, errors.Is(wrapped, cause))
	assert.Equal(t, KindUpstream, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindUpstream))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestWithFieldDoesNotMutateOriginal(t *testing.T) {
	base := Validation("title", "is required")
	extended := base.WithField("price", "too low")

	assert.Len(t, base.Fields, 1)
	assert.Equal(t, map[string]string{"title": "is required", "price": "too low"}, extended.Fields)
}
