package apikey_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filecrate/filecrate/pkg/apikey"
)

func TestNew(t *testing.T) {
	t.Parallel()

	k1 := apikey.New()
	k2 := apikey.New()

	require.Len(t, k1, 43)
	require.NotEqual(t, k1, k2)
	require.NotContains(t, k1, "+")
	require.NotContains(t, k1, "/")
	require.NotContains(t, k1, "=")
}
