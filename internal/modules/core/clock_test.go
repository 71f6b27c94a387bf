package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_SystemClock_Sleep_Returns_After_Duration(t *testing.T) {
	// Arrange
	clock := SystemClock{}

	// Act
	err := clock.Sleep(context.Background(), time.Millisecond)

	// Assert
	require.NoError(t, err)
}

func Test_SystemClock_Sleep_Aborts_On_Canceled_Context(t *testing.T) {
	// Arrange
	clock := SystemClock{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	start := time.Now()
	err := clock.Sleep(ctx, time.Hour)

	// Assert
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}
