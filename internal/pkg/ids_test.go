package pkg

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSessionID(t *testing.T) {
	// When: generating a batch of ids
	for range 100 {
		id, err := GenerateSessionID()

		// Then: each one is a non-negative number below the upper bound
		require.NoError(t, err)
		n, err := strconv.Atoi(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, maxSessionID)
	}
}
