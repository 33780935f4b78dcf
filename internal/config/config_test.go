package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOracleModelList(t *testing.T) {
	c := &Config{OracleModels: " gpt-4o-mini, ,gpt-4o ,"}
	assert.Equal(t, []string{"gpt-4o-mini", "gpt-4o"}, c.OracleModelList())

	empty := &Config{}
	assert.Empty(t, empty.OracleModelList())
}

func TestOracleTimeoutDefaults(t *testing.T) {
	assert.Equal(t, 8*time.Second, (&Config{}).OracleTimeout())
	assert.Equal(t, 3*time.Second, (&Config{OracleTimeoutSeconds: 3}).OracleTimeout())
}
