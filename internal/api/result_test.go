package api

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFailureClassifiesTimeouts(t *testing.T) {
	t.Parallel()

	timeout := &TimeoutError{Op: "add source", Budget: 2 * time.Minute}
	res := Failure(fmt.Errorf("adding url: %w", timeout))
	require.Equal(t, StatusTimeout, res.Status)
	require.Contains(t, res.Message, "may have succeeded")

	res = Failure(errors.New("plain failure"))
	require.Equal(t, StatusError, res.Status)
	require.Equal(t, "plain failure", res.Message)
}

func TestSuccessCarriesData(t *testing.T) {
	t.Parallel()

	res := Success(map[string]string{"id": "nb-1"})
	require.Equal(t, StatusSuccess, res.Status)
	require.Empty(t, res.Message)
	require.NotNil(t, res.Data)
}
