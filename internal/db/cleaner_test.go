package db

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type fakePurger struct {
	calls   atomic.Int32
	removed int64
	err     error
}

func (f *fakePurger) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.calls.Add(1)
	return f.removed, f.err
}

// syncBuffer guards a bytes.Buffer written by the cleaner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newBufferLogger(buf *syncBuffer, level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(buf),
		level,
	)
	return zap.New(core)
}

func TestStartSessionCleaner_Success(t *testing.T) {
	purger := &fakePurger{removed: 3}
	var buf syncBuffer

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartSessionCleaner(ctx, purger, 10*time.Millisecond, newBufferLogger(&buf, zapcore.InfoLevel))

	time.Sleep(200 * time.Millisecond)
	cancel()

	if purger.calls.Load() == 0 {
		t.Fatal("expected DeleteExpired to be called")
	}
	if !strings.Contains(buf.String(), "cleaned expired sessions") {
		t.Errorf("expected info log, got:\n%s", buf.String())
	}
}

func TestStartSessionCleaner_ErrorLogged(t *testing.T) {
	purger := &fakePurger{err: fmt.Errorf("db fail")}
	var buf syncBuffer

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartSessionCleaner(ctx, purger, 10*time.Millisecond, newBufferLogger(&buf, zapcore.ErrorLevel))

	time.Sleep(200 * time.Millisecond)
	cancel()

	if !strings.Contains(buf.String(), "failed to clean expired sessions") {
		t.Errorf("expected error log, got:\n%s", buf.String())
	}
}

func TestStartSessionCleaner_CancelBeforeTicker(t *testing.T) {
	purger := &fakePurger{}
	ctx, cancel := context.WithCancel(context.Background())

	StartSessionCleaner(ctx, purger, 100*time.Millisecond, zap.NewNop())
	cancel()

	time.Sleep(150 * time.Millisecond)

	if n := purger.calls.Load(); n != 0 {
		t.Errorf("expected no purge calls, got %d", n)
	}
}

func TestStartSessionCleaner_Disabled(t *testing.T) {
	purger := &fakePurger{}
	StartSessionCleaner(context.Background(), purger, 0, zap.NewNop())

	time.Sleep(20 * time.Millisecond)

	if n := purger.calls.Load(); n != 0 {
		t.Errorf("expected no purge calls, got %d", n)
	}
}
