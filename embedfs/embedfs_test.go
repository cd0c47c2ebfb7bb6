package embedfs

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"assets/banner.txt":   {Data: []byte("hello")},
		"assets/sub/deep.txt": {Data: []byte("deep")},
		"secret.txt":          {Data: []byte("secret")},
	}
}

func TestReadText(t *testing.T) {
	b := New(testFS())

	value, ok, err := b.ReadText(context.Background(), "assets/banner.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", value)
}

func TestReadText_WithSubdir(t *testing.T) {
	b := New(testFS(), WithSubdir("assets"))

	value, ok, err := b.ReadText(context.Background(), "banner.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", value)

	value, ok, err = b.ReadText(context.Background(), "sub/deep.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "deep", value)
}

func TestReadText_NotFound(t *testing.T) {
	b := New(testFS(), WithSubdir("assets"))

	_, ok, err := b.ReadText(context.Background(), "missing.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadBinary(t *testing.T) {
	b := New(testFS(), WithSubdir("assets"))

	data, ok, err := b.ReadBinary(context.Background(), "banner.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), data)
}

func TestInvalidKeys(t *testing.T) {
	b := New(testFS(), WithSubdir("assets"))

	tests := []string{
		"../secret.txt",
		"../../etc/passwd",
		"/secret.txt",
		"sub/../../secret.txt",
		"",
	}

	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			_, ok, err := b.ReadText(context.Background(), key)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}
