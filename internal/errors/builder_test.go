package errors

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestBuilderWithMessagef(t *testing.T) {
	base := errors.New("stat failed")

	err := WithError(base).
		WithMessagef("template not found: %s", "/tmp/invoice.typ").
		WithHint("template error").
		Mark(ErrSystem)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "template not found: /tmp/invoice.typ")
	assert.True(t, errors.Is(err, ErrSystem))
}

func TestBuilderMarkPreservesSentinel(t *testing.T) {
	err := NewError("store not found").
		WithHintf("Store with ID %s was not found", "store_123").
		Mark(ErrNotFound)

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
}
