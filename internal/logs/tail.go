package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const maxLineBytes = 1024 * 1024

// Last returns up to limit of the newest entries matching filter and the
// byte offset of the end of the file. Undecodable lines are skipped. A
// missing file yields no entries.
func Last(path string, filter Filter, limit int) ([]Entry, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, offset, nil
	}

	ring := make([]Entry, limit)
	count, idx := 0, 0
	offset, err := scanEntries(file, filter, func(e Entry) {
		ring[idx] = e
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]Entry, count)
	if count == limit {
		for i := 0; i < count; i++ {
			out[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(out, ring[:count])
	}
	return out, offset, nil
}

// ReadFrom returns matching entries written after offset and the new offset.
// An offset beyond the file size (the file was truncated) restarts at zero.
func ReadFrom(path string, filter Filter, offset int64) ([]Entry, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}
	var out []Entry
	read, err := scanEntries(file, filter, func(e Entry) { out = append(out, e) })
	if err != nil {
		return nil, 0, err
	}
	return out, offset + read, nil
}

// Follow polls path every interval and hands new matching entries to fn
// until ctx is done.
func Follow(ctx context.Context, path string, filter Filter, offset int64, interval time.Duration, fn func(Entry)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		entries, next, err := ReadFrom(path, filter, offset)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fn(e)
		}
		offset = next
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// scanEntries consumes complete lines from r and returns the number of bytes
// they spanned. A trailing partial line is left for the next read.
func scanEntries(r io.Reader, filter Filter, fn func(Entry)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		if len(line) > maxLineBytes {
			continue
		}
		entry, perr := ParseEntry(line[:len(line)-1])
		if perr != nil || !filter.Match(entry) {
			continue
		}
		fn(entry)
	}
}
