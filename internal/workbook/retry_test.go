package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockedErr() error {
	return &os.PathError{Op: "open", Path: "CONTROL PAGOS.xlsx", Err: os.ErrPermission}
}

func TestRetryPolicy_RetriesUntilUnlocked(t *testing.T) {
	t.Parallel()

	calls := 0
	var prompts []int
	p := RetryPolicy{OnLocked: func(_ context.Context, _ string, attempt int) bool {
		prompts = append(prompts, attempt)
		return true
	}}
	err := p.Do(context.Background(), "CONTROL PAGOS.xlsx", func() error {
		calls++
		if calls < 3 {
			return lockedErr()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, prompts)
}

func TestRetryPolicy_GivesUp(t *testing.T) {
	t.Parallel()

	calls := 0
	err := RetryPolicy{MaxAttempts: 2}.Do(context.Background(), "x.xlsx", func() error {
		calls++
		return lockedErr()
	})
	assert.ErrorIs(t, err, ErrFileLocked)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicy_OperatorCancels(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{OnLocked: func(context.Context, string, int) bool { return false }}
	err := p.Do(context.Background(), "x.xlsx", lockedErr)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestRetryPolicy_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryPolicy{}.Do(ctx, "x.xlsx", func() error {
		calls++
		cancel()
		return lockedErr()
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_OtherErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	boom := errors.New("zip: not a valid zip file")
	calls := 0
	err := RetryPolicy{}.Do(context.Background(), "x.xlsx", func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestIsLocked(t *testing.T) {
	t.Parallel()

	assert.True(t, IsLocked("x", lockedErr()))
	assert.True(t, IsLocked("x", fmt.Errorf("save: %w", ErrFileLocked)))
	assert.True(t, IsLocked("x", errors.New("The process cannot access the file because it is being used by another process.")))
	assert.False(t, IsLocked("x", nil))
	assert.False(t, IsLocked("x", os.ErrNotExist))
}

func TestCheckUnlocked(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	short := filepath.Join(dir, "a.xlsx")
	require.NoError(t, os.WriteFile(short, []byte("x"), 0o644))
	assert.NoError(t, CheckUnlocked(short))
	assert.NoError(t, CheckUnlocked(filepath.Join(dir, "missing.xlsx")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$a.xlsx"), nil, 0o644))
	assert.ErrorIs(t, CheckUnlocked(short), ErrFileLocked)

	assert.Equal(t, []string{
		filepath.Join(dir, "~$CONTROL PAGOS.xlsx"),
		filepath.Join(dir, "~$NTROL PAGOS.xlsx"),
	}, OwnerFiles(filepath.Join(dir, "CONTROL PAGOS.xlsx")))
}
