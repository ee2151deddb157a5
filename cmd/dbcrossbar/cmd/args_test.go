package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyValueArgsPlainKey(t *testing.T) {
	m, err := parseKeyValueArgs([]string{"region=us-east1"})
	require.NoError(t, err)
	assert.Equal(t, "us-east1", m["region"])
}

func TestParseKeyValueArgsSubscriptKey(t *testing.T) {
	m, err := parseKeyValueArgs([]string{"labels[env]=prod"})
	require.NoError(t, err)
	assert.Equal(t, "prod", m["labels.env"])
}

func TestParseKeyValueArgsRejectsMissingEquals(t *testing.T) {
	_, err := parseKeyValueArgs([]string{"region"})
	assert.Error(t, err)
}

func TestParseKeyValueArgsRejectsDuplicateKey(t *testing.T) {
	_, err := parseKeyValueArgs([]string{"region=a", "region=b"})
	assert.Error(t, err)
}
