package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBucketPrefix(t *testing.T) {
	bucket, prefix, err := parseBucketPrefix("//my-bucket/some/prefix/")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "some/prefix/", prefix)
}

func TestParseBucketPrefixNoPrefix(t *testing.T) {
	bucket, prefix, err := parseBucketPrefix("//my-bucket")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "", prefix)
}

func TestParseBucketPrefixRejectsEmptyBucket(t *testing.T) {
	_, _, err := parseBucketPrefix("///prefix")
	assert.Error(t, err)
}
