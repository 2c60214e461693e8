package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_Usage(t *testing.T) {
	assert.Equal(t, 1, run(nil))
}

func TestRun_ConfigError(t *testing.T) {
	t.Setenv("SHOPIFY_SHOP_DOMAIN", "")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "")
	assert.Equal(t, 1, run([]string{"base1-4"}))
}
