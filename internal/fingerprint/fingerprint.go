package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"mediadupe/internal/config"
	"mediadupe/internal/throttle"
)

// Sampling is the quick-hash window layout.
type Sampling struct {
	// Window is the byte length of each window.
	Window int64
	// Windows is the number of evenly spaced windows. With 3 windows the
	// samples are the first, centred middle, and last Window bytes.
	Windows int
}

// DefaultSampling returns the configured default layout (3 x 1 MiB).
func DefaultSampling() Sampling {
	return SamplingFromConfig(nil)
}

// SamplingFromConfig reads the [detect] window settings.
func SamplingFromConfig(cfg *config.Config) Sampling {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	return Sampling{Window: cfg.Detect.QuickHashWindow, Windows: cfg.Detect.QuickHashWindows}.normalized()
}

func (s Sampling) normalized() Sampling {
	def := config.Default()
	if s.Window <= 0 {
		s.Window = def.Detect.QuickHashWindow
	}
	if s.Windows <= 0 {
		s.Windows = def.Detect.QuickHashWindows
	}
	return s
}

// Offsets returns the start offset of every window for a file of size bytes.
// Files no larger than the combined windows are covered by a single read of
// the whole file.
func (s Sampling) Offsets(size int64) []int64 {
	s = s.normalized()
	if size <= s.Window*int64(s.Windows) {
		return []int64{0}
	}
	if s.Windows == 1 {
		return []int64{0}
	}
	offsets := make([]int64, s.Windows)
	span := size - s.Window
	for i := range offsets {
		offsets[i] = span * int64(i) / int64(s.Windows-1)
	}
	return offsets
}

func (s Sampling) windowLength(size int64) int64 {
	if size <= s.Window*int64(s.Windows) {
		return size
	}
	return s.Window
}

// Hasher computes fingerprints under a throttle limiter.
type Hasher struct {
	limiter  *throttle.Limiter
	sampling Sampling
}

// New constructs a Hasher. A nil limiter uses the default policy.
func New(limiter *throttle.Limiter, sampling Sampling) *Hasher {
	if limiter == nil {
		limiter = throttle.New(throttle.DefaultPolicy())
	}
	return &Hasher{limiter: limiter, sampling: sampling.normalized()}
}

// Sampling returns the quick-hash layout in use.
func (h *Hasher) Sampling() Sampling {
	return h.sampling
}

// Stat performs a single stat call on path.
func Stat(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, accessError("stat", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, accessError("stat", path, errors.New("not a regular file"))
	}
	return info, nil
}

// SizeOf returns the size of path after observing the inter-operation delay.
func (h *Hasher) SizeOf(ctx context.Context, path string) (int64, error) {
	if err := h.limiter.Wait(ctx, throttle.OpOpen); err != nil {
		return 0, cancelled(err)
	}
	info, err := Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// QuickHash returns the xxHash64 digest of the concatenated sample windows,
// as 16 hex characters. size is the inventoried length; a file that no
// longer has that many bytes fails with a FileAccessError. The digest of an
// empty file is the digest of the empty byte sequence.
func (h *Hasher) QuickHash(ctx context.Context, path string, size int64) (string, error) {
	if size < 0 {
		return "", accessError("quick_hash", path, fmt.Errorf("negative size %d", size))
	}
	release, err := h.limiter.AcquireHandle(ctx)
	if err != nil {
		return "", cancelled(err)
	}
	defer release()

	file, err := os.Open(path)
	if err != nil {
		return "", accessError("open", path, err)
	}
	defer file.Close()

	digest := xxhash.New()
	length := h.sampling.windowLength(size)
	buf := make([]byte, min(length, h.limiter.ChunkSize()))
	first := true
	for _, offset := range h.sampling.Offsets(size) {
		// Each window is read in chunk-sized pieces with the inter-chunk
		// delay and a cancellation check between pieces.
		for done := int64(0); done < length; {
			if !first {
				if err := h.limiter.Wait(ctx, throttle.OpReadChunk); err != nil {
					return "", cancelled(err)
				}
			}
			first = false
			piece := buf[:min(int64(len(buf)), length-done)]
			if _, err := file.ReadAt(piece, offset+done); err != nil {
				if errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}
				return "", accessError("read", path, err)
			}
			_, _ = digest.Write(piece)
			done += int64(len(piece))
		}
	}
	return fmt.Sprintf("%016x", digest.Sum64()), nil
}

// FullHash streams the whole file through SHA-256 in throttle-sized chunks
// and returns the hex digest.
func (h *Hasher) FullHash(ctx context.Context, path string) (string, error) {
	release, err := h.limiter.AcquireHandle(ctx)
	if err != nil {
		return "", cancelled(err)
	}
	defer release()

	file, err := os.Open(path)
	if err != nil {
		return "", accessError("open", path, err)
	}
	defer file.Close()

	digest := sha256.New()
	buf := make([]byte, h.limiter.ChunkSize())
	for {
		n, readErr := file.Read(buf)
		if n > 0 {
			_, _ = digest.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", accessError("read", path, readErr)
		}
		if err := h.limiter.Wait(ctx, throttle.OpReadChunk); err != nil {
			return "", cancelled(err)
		}
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// Coverage returns the fraction of a size-byte file read by the quick hash.
func (s Sampling) Coverage(size int64) float64 {
	s = s.normalized()
	if size <= 0 {
		return 1
	}
	sampled := s.Window * int64(s.Windows)
	if sampled >= size {
		return 1
	}
	return float64(sampled) / float64(size)
}

// CollisionNote describes the quick-hash coverage for a file of size bytes.
// Quick-hash matches are candidates, not proof: bytes outside the windows
// are never compared.
func (s Sampling) CollisionNote(size int64) string {
	s = s.normalized()
	coverage := s.Coverage(size)
	if coverage >= 1 {
		return "quick hash covers the whole file"
	}
	pct := strconv.FormatFloat(coverage*100, 'f', 2, 64)
	return fmt.Sprintf("quick hash samples %d windows of %s (%s%% of %s); unsampled bytes are not compared",
		s.Windows, formatBytes(s.Window), pct, formatBytes(size))
}
