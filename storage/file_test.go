package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/aml-oracle-backend/audit"
)

func TestFileBackendAppendRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	backend, err := NewFileBackend(dir, logger)
	require.NoError(t, err)
	assert.True(t, backend.Available(context.Background()))

	ev1 := audit.New(audit.KindDeposited, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), common.HexToAddress("0x01"))
	ev1.Amount = big.NewInt(500)
	ev2 := audit.New(audit.KindStatusFetched, time.Date(2025, 3, 1, 12, 1, 0, 0, time.UTC), common.HexToAddress("0x01"))
	ev2.Fee = big.NewInt(123)
	ev2.Target = "account-7"

	require.NoError(t, backend.Append(context.Background(), ev1))
	require.NoError(t, backend.Append(context.Background(), ev2))

	f, err := os.Open(filepath.Join(dir, "trail.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var got []audit.Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev audit.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		got = append(got, ev)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, got, 2)
	assert.Equal(t, ev1.ID, got[0].ID)
	assert.Equal(t, audit.KindDeposited, got[0].Kind)
	assert.Equal(t, int64(500), got[0].Amount.Int64())
	assert.Equal(t, ev2.ID, got[1].ID)
	assert.Equal(t, "account-7", got[1].Target)
	assert.Equal(t, int64(123), got[1].Fee.Int64())
}

func TestFileBackendUnavailableAfterRemoval(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	backend, err := NewFileBackend(filepath.Join(dir, "trail"), logger)
	require.NoError(t, err)
	require.True(t, backend.Available(context.Background()))

	require.NoError(t, os.RemoveAll(filepath.Join(dir, "trail")))
	assert.False(t, backend.Available(context.Background()))
}

func TestTrailFactory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := NewTrailFactory(logger)

	t.Run("file backend", func(t *testing.T) {
		dir := t.TempDir()
		backend, err := factory.BackendFor("file://" + dir)
		require.NoError(t, err)
		assert.Contains(t, backend.Name(), "file-")
	})

	t.Run("s3 backend", func(t *testing.T) {
		backend, err := factory.BackendFor("s3://audit-bucket/oracle/?region=us-west-2")
		require.NoError(t, err)
		assert.Equal(t, "s3-audit-bucket", backend.Name())
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := factory.BackendFor("ftp://somewhere/else")
		assert.Error(t, err)
	})

	t.Run("multi backend skips invalid", func(t *testing.T) {
		dir := t.TempDir()
		multi, err := factory.CreateMultiBackend([]string{"ftp://nope", "file://" + dir})
		require.NoError(t, err)
		assert.True(t, multi.Available(context.Background()))
	})

	t.Run("multi backend all invalid", func(t *testing.T) {
		_, err := factory.CreateMultiBackend([]string{"ftp://nope"})
		assert.Error(t, err)
	})
}
