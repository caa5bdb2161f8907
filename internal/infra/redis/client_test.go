package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "tradedesk:overview:M1", cacheKey("overview:M1"))
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient(Config{URL: "not a url"})
	assert.Error(t, err)
}
