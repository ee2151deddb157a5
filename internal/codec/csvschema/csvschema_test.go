package csvschema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcrossbar/dbcrossbar/internal/codec/csvschema"
	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
)

func TestSniffAllTextNullable(t *testing.T) {
	s, err := csvschema.Sniff("rows", []byte("id,name,email\n"))
	require.NoError(t, err)

	cols := s.Table().Columns
	require.Len(t, cols, 3)
	names := []string{"id", "name", "email"}
	for i, c := range cols {
		assert.Equal(t, names[i], c.Name)
		assert.True(t, c.IsNullable)
		assert.True(t, dbtype.Equal(dbtype.TextType{}, c.DataType))
	}
}
