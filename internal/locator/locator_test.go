package locator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcrossbar/dbcrossbar/internal/locator"
)

func TestParseSchemeBodyFragmentQuery(t *testing.T) {
	loc, err := locator.Parse("dbcrossbar-ts:schema.ts#Widget?strict=true")
	require.NoError(t, err)
	assert.Equal(t, "dbcrossbar-ts", loc.Scheme)
	assert.Equal(t, "schema.ts", loc.Body)
	assert.Equal(t, "Widget", loc.Fragment)
	assert.Equal(t, "true", loc.Query.Get("strict"))
}

func TestParseMissingSchemeIsError(t *testing.T) {
	_, err := locator.Parse("not-a-locator")
	assert.Error(t, err)
}

func TestRegistryOpenDispatchesToFactory(t *testing.T) {
	r := locator.NewRegistry()
	var captured locator.Locator
	r.Register("csv", func(l locator.Locator) (any, error) {
		captured = l
		return "csv-driver", nil
	})

	got, err := r.Open("csv:/tmp/data.csv")
	require.NoError(t, err)
	assert.Equal(t, "csv-driver", got)
	assert.Equal(t, "/tmp/data.csv", captured.Body)
}

func TestRegistryOpenUnknownScheme(t *testing.T) {
	r := locator.NewRegistry()
	_, err := r.Open("nope:whatever")
	assert.Error(t, err)
}

func TestRegisterTwicePanics(t *testing.T) {
	r := locator.NewRegistry()
	r.Register("csv", func(locator.Locator) (any, error) { return nil, nil })
	assert.Panics(t, func() {
		r.Register("csv", func(locator.Locator) (any, error) { return nil, nil })
	})
}
