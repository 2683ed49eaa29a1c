package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSmoke(t *testing.T) {
	require := require.New(t)

	report := &Report{}
	require.NoError(runSmoke(context.Background(), report))
	require.Len(report.Steps, 8)
	for _, step := range report.Steps {
		require.True(step.Pass, step.Name)
	}
	require.Equal(uint64(7), report.Summary.CurrentSupply)
	require.Equal(uint64(3), report.Summary.Burned)
}
