package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// FileSink appends rows as JSON lines. Concurrent writers, including other
// processes, are serialized through an advisory lock file next to the target.
type FileSink struct {
	path string
	lock *flock.Flock
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, lock: flock.New(path + ".lock")}
}

func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Write(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.path, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", s.path)
	}
	defer func() { _ = s.lock.Unlock() }()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open results file: %w", err)
	}
	enc := json.NewEncoder(f)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			return fmt.Errorf("write results file: %w", err)
		}
	}
	return f.Close()
}

func (s *FileSink) Close() error {
	return s.lock.Close()
}
