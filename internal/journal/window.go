package journal

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	lru "github.com/hashicorp/golang-lru/v2/simplelru"

	journalerrors "github.com/netdata/go-journalfile/pkg/errors"
)

// windowSize is the fixed byte length W of every live mapping, chosen large
// enough that any single object header or body fits inside one window
// (spec.md §4.1: "W ≥ max_object_size + alignment"). It must be a multiple
// of 8 so window-aligned offsets stay object-aligned.
const windowSize = 4 << 20 // 4 MiB

// windowCount is the fixed number of windows K the manager keeps resident.
const windowCount = 32

// window is one live mmap mapping, anchored at a window-aligned file
// offset.
type window struct {
	start  int64
	region mmap.MMap
}

// windowManager maps arbitrary (offset, length) requests onto a fixed-size
// LRU set of mmap windows over one open file, per spec.md §4.1. It never
// grows past windowCount live mappings; a miss evicts the least-recently
// used window and replaces it.
type windowManager struct {
	file      *os.File
	writable  bool
	w         uint64
	cache     *lru.LRU[int64, *window]
}

// newWindowManager opens a windowed view over f. writable selects whether
// windows are mapped RDWR (and may grow the file on a miss past EOF) or
// read-only.
func newWindowManager(f *os.File, writable bool) *windowManager {
	wm := &windowManager{file: f, writable: writable, w: windowSize}
	cache, _ := lru.NewLRU[int64, *window](windowCount, func(_ int64, w *window) {
		_ = w.region.Unmap()
	})
	wm.cache = cache
	return wm
}

func (wm *windowManager) alignedStart(offset int64) int64 {
	w := int64(wm.w)
	return (offset / w) * w
}

// acquire returns the window covering [ws, ws+W), mapping it fresh on a
// cache miss and growing the backing file first if writable and ws+W
// exceeds the current file length.
func (wm *windowManager) acquire(ws int64) (*window, error) {
	if w, ok := wm.cache.Get(ws); ok {
		return w, nil
	}

	if wm.writable {
		info, err := wm.file.Stat()
		if err != nil {
			return nil, journalerrors.ClassifySyncError(err, wm.file.Name(), wm.file.Name(), ws)
		}
		need := ws + int64(wm.w)
		if info.Size() < need {
			if err := wm.file.Truncate(need); err != nil {
				return nil, journalerrors.ClassifySyncError(err, wm.file.Name(), wm.file.Name(), need)
			}
		}
	}

	flag := mmap.RDONLY
	if wm.writable {
		flag = mmap.RDWR
	}

	region, err := mmap.MapRegion(wm.file, int(wm.w), flag, 0, ws)
	if err != nil {
		return nil, journalerrors.ClassifySyncError(err, wm.file.Name(), wm.file.Name(), ws)
	}

	w := &window{start: ws, region: region}
	wm.cache.Add(ws, w)
	return w, nil
}

// GetSlice returns a read-only view into [offset, offset+length), which
// must not straddle a window boundary and must satisfy length ≤ W.
func (wm *windowManager) GetSlice(offset int64, length int) ([]byte, error) {
	return wm.slice(offset, length)
}

// GetSliceMut returns a mutable view into [offset, offset+length). The
// manager must have been constructed with writable = true.
func (wm *windowManager) GetSliceMut(offset int64, length int) ([]byte, error) {
	if !wm.writable {
		return nil, journalerrors.NewBaseError(nil, journalerrors.ErrorCodeInvalidInput, "window manager is read-only")
	}
	return wm.slice(offset, length)
}

func (wm *windowManager) slice(offset int64, length int) ([]byte, error) {
	if length > int(wm.w) {
		return nil, newZerocopyFailure(offset, fmt.Sprintf("request length %d exceeds window size %d", length, wm.w))
	}

	ws := wm.alignedStart(offset)
	if offset+int64(length) > ws+int64(wm.w) {
		return nil, newZerocopyFailure(offset, "request straddles window boundary")
	}

	w, err := wm.acquire(ws)
	if err != nil {
		return nil, err
	}

	lo := offset - ws
	return w.region[lo : lo+int64(length)], nil
}

// Sync flushes every dirty window's mapping to disk.
func (wm *windowManager) Sync() error {
	for _, ws := range wm.cache.Keys() {
		w, ok := wm.cache.Peek(ws)
		if !ok {
			continue
		}
		if err := w.region.Flush(); err != nil {
			return journalerrors.ClassifySyncError(err, wm.file.Name(), wm.file.Name(), w.start)
		}
	}
	return nil
}

// Close unmaps every live window. The underlying file is closed by the
// caller.
func (wm *windowManager) Close() error {
	wm.cache.Purge()
	return nil
}
