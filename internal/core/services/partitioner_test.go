package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repotrawl/repotrawl/internal/core/domain"
	"github.com/repotrawl/repotrawl/internal/logger"
)

// TestNewPartitioner_CapValidation tests cap bounds checking
func TestNewPartitioner_CapValidation(t *testing.T) {
	client := &fixedCountClient{}

	tests := []struct {
		name    string
		max     int
		wantCap int
		wantErr bool
	}{
		{name: "zero selects the default", max: 0, wantCap: DefaultCap},
		{name: "one is the smallest usable cap", max: 1, wantCap: 1},
		{name: "the page ceiling is allowed", max: 100, wantCap: 100},
		{name: "negative caps are rejected", max: -1, wantErr: true},
		{name: "caps above the page ceiling are rejected", max: 101, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPartitioner(client, tt.max)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrCapOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCap, p.Cap())
		})
	}
}

// TestPartitioner_SinglePartition tests that a root under the cap needs
// no further probes
func TestPartitioner_SinglePartition(t *testing.T) {
	start, end := yearWindow()
	oracle := &proportionalOracle{t: t, rootStart: start, rootEnd: end, total: 80}
	p, err := NewPartitioner(oracle, 100)
	require.NoError(t, err)

	filter := domain.Filter{Languages: []string{"go"}, Created: domain.During(start, end)}
	parts, err := p.Partition(context.Background(), filter)

	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, 80, parts[0].Count)
	assert.True(t, parts[0].Start.Equal(start))
	assert.True(t, parts[0].End.Equal(end))
	assert.Equal(t, 1, oracle.countCalls, "the initial measurement is the only probe")
	assert.Equal(t, 0, oracle.fetchCalls, "partitioning never fetches pages")
}

// TestPartitioner_Bisection tests the over-cap root end to end: 250
// results against a cap of 100 under a uniform oracle.
func TestPartitioner_Bisection(t *testing.T) {
	start, end := yearWindow()
	oracle := &proportionalOracle{t: t, rootStart: start, rootEnd: end, total: 250}
	p, err := NewPartitioner(oracle, 100)
	require.NoError(t, err)

	filter := domain.Filter{Created: domain.During(start, end)}
	parts, err := p.Partition(context.Background(), filter)
	require.NoError(t, err)

	t.Run("yields four leaves", func(t *testing.T) {
		require.Len(t, parts, 4)
	})

	t.Run("every leaf fits under the cap", func(t *testing.T) {
		for _, part := range parts {
			assert.LessOrEqual(t, part.Count, 100, "partition %s", part)
			assert.Positive(t, part.Count)
		}
	})

	t.Run("leaf counts sum to the root count", func(t *testing.T) {
		sum := 0
		for _, part := range parts {
			sum += part.Count
		}
		assert.Equal(t, 250, sum)
	})

	t.Run("leaves tile the window chronologically", func(t *testing.T) {
		assert.True(t, parts[0].Start.Equal(start))
		assert.True(t, parts[len(parts)-1].End.Equal(end))
		for i := 1; i < len(parts); i++ {
			assert.True(t, parts[i].Start.Equal(parts[i-1].End),
				"gap or overlap between %s and %s", parts[i-1], parts[i])
		}
	})

	t.Run("probes once per node of the bisection tree", func(t *testing.T) {
		// Root, two halves, four quarters.
		assert.Equal(t, 7, oracle.countCalls)
		assert.Equal(t, 0, oracle.fetchCalls)
	})
}

// TestPartitioner_UnboundedWindow tests the pre-network configuration gate
func TestPartitioner_UnboundedWindow(t *testing.T) {
	start, end := yearWindow()

	tests := []struct {
		name   string
		filter domain.Filter
	}{
		{name: "no created range at all", filter: domain.Filter{Languages: []string{"go"}}},
		{name: "lower bound only", filter: domain.Filter{Created: domain.Since(start)}},
		{name: "upper bound only", filter: domain.Filter{Created: domain.Until(end)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fixedCountClient{count: 10}
			p, err := NewPartitioner(client, 100)
			require.NoError(t, err)

			_, err = p.Partition(context.Background(), tt.filter)

			assert.ErrorIs(t, err, domain.ErrCreatedUnbounded)
			assert.Equal(t, 0, client.countCalls, "configuration errors precede any remote call")
		})
	}
}

// TestPartitioner_EmptyWindow tests zero-width windows
func TestPartitioner_EmptyWindow(t *testing.T) {
	start, _ := yearWindow()
	client := &fixedCountClient{count: 10}
	p, err := NewPartitioner(client, 100)
	require.NoError(t, err)

	_, err = p.Partition(context.Background(), domain.Filter{Created: domain.During(start, start)})

	assert.ErrorIs(t, err, domain.ErrCreatedEmpty)
	assert.Equal(t, 0, client.countCalls)
}

// TestPartitioner_DenseWindow tests the fatal sub-millisecond case
func TestPartitioner_DenseWindow(t *testing.T) {
	t.Run("one millisecond window over the cap cannot split", func(t *testing.T) {
		start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		client := &fixedCountClient{count: 150}
		p, err := NewPartitioner(client, 100)
		require.NoError(t, err)

		_, err = p.Partition(context.Background(), domain.Filter{
			Created: domain.During(start, start.Add(time.Millisecond)),
		})

		require.Error(t, err)
		var dense *domain.DenseWindowError
		require.ErrorAs(t, err, &dense)
		assert.Equal(t, 150, dense.Count)
		assert.Equal(t, 100, dense.Cap)
		assert.True(t, dense.Start.Equal(start))
	})

	t.Run("dense leaf is reached through bisection", func(t *testing.T) {
		start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		client := &fixedCountClient{count: 150}
		p, err := NewPartitioner(client, 100)
		require.NoError(t, err)

		// Two milliseconds wide: the root splits once and the left
		// millisecond still reports 150.
		_, err = p.Partition(context.Background(), domain.Filter{
			Created: domain.During(start, start.Add(2*time.Millisecond)),
		})

		assert.True(t, domain.IsDenseWindow(err))
	})
}

// TestPartitioner_CountErrorPropagates tests transport error passthrough
func TestPartitioner_CountErrorPropagates(t *testing.T) {
	start, end := yearWindow()
	sentinel := errors.New("search exploded")
	oracle := &proportionalOracle{
		t: t, rootStart: start, rootEnd: end, total: 250,
		failOnCount: 3, countErr: sentinel,
	}
	p, err := NewPartitioner(oracle, 100)
	require.NoError(t, err)

	_, err = p.Partition(context.Background(), domain.Filter{Created: domain.During(start, end)})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, oracle.countCalls, "probing stops at the first failure")
}

// TestPartitioner_LogsEstimate tests the informational cost estimate
func TestPartitioner_LogsEstimate(t *testing.T) {
	defer func() {
		logger.SetVerbose(false)
		logger.SetOutput(os.Stderr)
	}()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)

	start, end := yearWindow()
	oracle := &proportionalOracle{t: t, rootStart: start, rootEnd: end, total: 250}
	p, err := NewPartitioner(oracle, 100)
	require.NoError(t, err)

	_, err = p.Partition(context.Background(), domain.Filter{Created: domain.During(start, end)})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "expecting ~7 count probes")
}
