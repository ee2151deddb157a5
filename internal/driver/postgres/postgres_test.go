package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dbcrossbar/dbcrossbar/internal/locator"
)

func TestSelectQueryWithoutWhere(t *testing.T) {
	d := &Driver{table: "widgets"}
	assert.Equal(t, `SELECT * FROM "widgets"`, d.selectQuery(""))
}

func TestSelectQueryWithWhere(t *testing.T) {
	d := &Driver{table: "widgets"}
	assert.Equal(t, `SELECT * FROM "widgets" WHERE price > 10`, d.selectQuery("price > 10"))
}

func TestQuoteIdentList(t *testing.T) {
	assert.Equal(t, `"a", "b", "c"`, quoteIdentList([]string{"a", "b", "c"}))
	assert.Equal(t, "", quoteIdentList(nil))
}

func TestContains(t *testing.T) {
	assert.True(t, contains([]string{"a", "b"}, "b"))
	assert.False(t, contains([]string{"a", "b"}, "c"))
	assert.False(t, contains(nil, "a"))
}

func TestOpenRequiresFragment(t *testing.T) {
	_, err := Open(locator.Locator{Raw: "postgres://host/db", Body: "//host/db"})
	assert.Error(t, err)
}
