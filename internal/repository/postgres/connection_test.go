package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rareport/importcenter/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "secret",
		DBName:   "importcenter",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=importcenter sslmode=disable", DSN(cfg))

	cfg.Password = "it's a secret"
	assert.Contains(t, DSN(cfg), `password='it\'s a secret' `)

	cfg.Password = ""
	assert.Contains(t, DSN(cfg), `password='' `)
}
