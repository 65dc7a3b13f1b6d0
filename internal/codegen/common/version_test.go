package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVersion(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = ""
	v, err := GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "0.0.1-dev", v)

	Version = "v1.2.3"
	v, err = GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v)

	Version = "1.2.3-dirty"
	v, err = GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3-dirty", v)

	Version = "garbage"
	_, err = GetVersion()
	require.Error(t, err)
}
