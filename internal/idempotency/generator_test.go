package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyIsDeterministic(t *testing.T) {
	g := NewGenerator()

	params := map[string]interface{}{
		"device_id": "device_abc",
		"sequence":  int64(42),
	}

	first := g.GenerateKey(ScopeSyncOp, params)
	second := g.GenerateKey(ScopeSyncOp, map[string]interface{}{
		"sequence":  int64(42),
		"device_id": "device_abc",
	})

	assert.Equal(t, first, second)
	assert.True(t, g.ValidateKey(ScopeSyncOp, params, first))
}

func TestGenerateKeyVariesByScopeAndParams(t *testing.T) {
	g := NewGenerator()

	params := map[string]interface{}{"device_id": "device_abc", "sequence": int64(1)}

	base := g.GenerateKey(ScopeSyncOp, params)

	assert.NotEqual(t, base, g.GenerateKey(ScopeInvoice, params))
	assert.NotEqual(t, base, g.GenerateKey(ScopeSyncOp, map[string]interface{}{
		"device_id": "device_abc",
		"sequence":  int64(2),
	}))
	assert.False(t, g.ValidateKey(ScopeSyncOp, params, "sync_op-deadbeef"))
}
