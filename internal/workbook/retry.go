package workbook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrFileLocked means another process holds the workbook open.
	ErrFileLocked = errors.New("file is locked by another process")
	// ErrCancelled means the operator gave up waiting for a locked file.
	ErrCancelled = errors.New("operation cancelled")
)

// LockHandler is consulted after every failed attempt on a locked file.
// Returning false cancels the operation.
type LockHandler func(ctx context.Context, path string, attempt int) bool

// RetryPolicy controls how workbook opens and saves react to lock contention.
type RetryPolicy struct {
	MaxAttempts int // 0 retries until ctx is done or OnLocked declines
	Delay       time.Duration
	OnLocked    LockHandler
}

// NoRetry fails on the first lock.
var NoRetry = RetryPolicy{MaxAttempts: 1}

// Do runs op, retrying while path is locked.
func (p RetryPolicy) Do(ctx context.Context, path string, op func() error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		err := op()
		if err == nil {
			return nil
		}
		if !IsLocked(path, err) {
			return err
		}
		log.Printf("[Workbook] %s is locked (attempt %d): %v", filepath.Base(path), attempt, err)
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return fmt.Errorf("%w: %s", ErrFileLocked, path)
		}
		if p.OnLocked != nil && !p.OnLocked(ctx, path, attempt) {
			return fmt.Errorf("%w: %s left locked", ErrCancelled, filepath.Base(path))
		}
		if p.Delay > 0 {
			t := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			case <-t.C:
			}
		}
	}
}

// IsLocked reports whether err (raised while touching path) looks like lock
// contention rather than a real failure.
func IsLocked(path string, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrFileLocked) || errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"being used by another process", "sharing violation", "resource busy", "text file busy"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// OwnerFiles returns the candidate names of the "~$" owner file Excel keeps
// next to an open workbook. Long names lose their first two characters.
func OwnerFiles(path string) []string {
	dir, name := filepath.Split(path)
	out := []string{filepath.Join(dir, "~$"+name)}
	if r := []rune(name); len(r) > 2 {
		out = append(out, filepath.Join(dir, "~$"+string(r[2:])))
	}
	return out
}

// CheckUnlocked returns ErrFileLocked when path is open in Excel or cannot be
// opened for writing. A missing file is not locked.
func CheckUnlocked(path string) error {
	for _, owner := range OwnerFiles(path) {
		if _, err := os.Stat(owner); err == nil {
			return fmt.Errorf("%w: %s is open in Excel", ErrFileLocked, filepath.Base(path))
		}
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if IsLocked(path, err) {
			return fmt.Errorf("%w: %v", ErrFileLocked, err)
		}
		return err
	}
	return f.Close()
}
