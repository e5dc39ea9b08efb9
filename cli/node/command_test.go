package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvertiseAddrFromBindAddr(t *testing.T) {
	t.Run("host", func(t *testing.T) {
		addr, err := advertiseAddrFromBindAddr("10.26.104.14:6000")
		assert.NoError(t, err)
		assert.Equal(t, "10.26.104.14:6000", addr)
	})

	t.Run("random port", func(t *testing.T) {
		_, err := advertiseAddrFromBindAddr("127.0.0.1:0")
		assert.Error(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := advertiseAddrFromBindAddr("6000")
		assert.Error(t, err)
	})
}
