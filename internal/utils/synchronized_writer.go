package utils

import (
	"errors"
	"io"
	"sync"
	"syscall"
)

type flusher interface {
	Flush() error
}

type syncer interface {
	Sync() error
}

// SynchronizedWriter lets repository workers share one log destination. Each entry is written
// and flushed under a lock so lines from different repositories never interleave.
type SynchronizedWriter struct {
	destination io.Writer
	guard       sync.Mutex
}

// NewSynchronizedWriter wraps destination for concurrent use.
func NewSynchronizedWriter(destination io.Writer) *SynchronizedWriter {
	return &SynchronizedWriter{destination: destination}
}

// Write writes one complete entry and flushes buffered destinations.
func (writer *SynchronizedWriter) Write(entry []byte) (int, error) {
	writer.guard.Lock()
	defer writer.guard.Unlock()

	if writer.destination == nil {
		return len(entry), nil
	}
	writtenCount, writeError := writer.destination.Write(entry)
	if writeError != nil {
		return writtenCount, writeError
	}
	if bufferedDestination, buffered := writer.destination.(flusher); buffered {
		return writtenCount, bufferedDestination.Flush()
	}
	return writtenCount, nil
}

// Sync satisfies zapcore.WriteSyncer by forwarding to destinations that can sync.
// Terminals and pipes reject fsync with ENOTSUP or EINVAL; those are not failures.
func (writer *SynchronizedWriter) Sync() error {
	writer.guard.Lock()
	defer writer.guard.Unlock()

	syncingDestination, syncs := writer.destination.(syncer)
	if !syncs {
		return nil
	}
	syncError := syncingDestination.Sync()
	if errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL) {
		return nil
	}
	return syncError
}
