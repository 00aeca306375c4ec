package crawler

import (
	"errors"
	"fmt"
	"os"
	"sync"

	bloom "github.com/bits-and-blooms/bloom/v3"
	"github.com/edsrzf/mmap-go"
)

// hostFilterEstimate sizes the filter for one million hosts at a 0.1%
// false-positive rate.
const hostFilterEstimate = 1_000_000

// hostFilterSyncEvery flushes the filter to disk every N additions.
const hostFilterSyncEvery = 1000

// HostFilter is a disk-backed bloom filter of hosts admitted in prior runs.
// A hit discards the URL before the host gate, so re-running against an
// updated URL list skips sites already visited. The filter is approximate:
// a false positive skips a never-seen host, which is acceptable for this
// cross-run politeness use; the in-run gates stay exact.
type HostFilter struct {
	mu      sync.Mutex
	filter  *bloom.BloomFilter
	file    *os.File
	mapped  mmap.MMap
	pending uint64
	lastErr error
}

// OpenHostFilter opens or creates the filter file at path. An existing file
// of the expected size is loaded; anything else is reinitialized empty.
func OpenHostFilter(path string) (*HostFilter, error) {
	filter := bloom.NewWithEstimates(hostFilterEstimate, 0.001)
	data, err := filter.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal bloom filter: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open seen file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat seen file: %w", err)
	}

	existing := info.Size() == int64(len(data))
	if !existing {
		if err := f.Truncate(int64(len(data))); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("size seen file: %w", err)
		}
	}

	mapped, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap seen file: %w", err)
	}

	if existing {
		if err := filter.UnmarshalBinary(mapped); err != nil {
			// Unreadable contents: start over with an empty filter.
			copy(mapped, data)
		}
	} else {
		copy(mapped, data)
	}

	return &HostFilter{filter: filter, file: f, mapped: mapped}, nil
}

// Contains reports whether host may have been admitted before.
func (h *HostFilter) Contains(host string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.filter.TestString(host)
}

// Add records an admitted host, flushing to disk periodically.
func (h *HostFilter) Add(host string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.filter.AddString(host)
	h.pending++
	if h.pending >= hostFilterSyncEvery {
		if err := h.syncLocked(); err != nil {
			h.lastErr = err
		}
	}
}

// syncLocked persists the filter into the mapped file. Must be called with
// mu held.
func (h *HostFilter) syncLocked() error {
	data, err := h.filter.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal bloom filter: %w", err)
	}
	if len(data) <= len(h.mapped) {
		copy(h.mapped, data)
	}
	if err := h.mapped.Flush(); err != nil {
		return fmt.Errorf("flush seen file: %w", err)
	}
	h.pending = 0
	return nil
}

// Close syncs pending additions and releases the mapping and file.
func (h *HostFilter) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	if h.lastErr != nil {
		errs = append(errs, h.lastErr)
	}
	if h.mapped != nil {
		if h.pending > 0 {
			if err := h.syncLocked(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := h.mapped.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("unmap seen file: %w", err))
		}
		h.mapped = nil
	}
	if h.file != nil {
		if err := h.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close seen file: %w", err))
		}
		h.file = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close host filter: %w", errors.Join(errs...))
	}
	return nil
}
