package sink

import "sync"

// MemorySink keeps serialized frames in memory, keyed by file name. Farm
// workers serialize into one to ship frames back as bytes, and tests use it
// to inspect output without touching the filesystem.
type MemorySink struct {
	mutex   sync.Mutex
	frames  map[string][]byte
	quality int
}

func NewMemorySink(quality int) *MemorySink {
	return &MemorySink{
		frames:  make(map[string][]byte),
		quality: quality,
	}
}

func (ms *MemorySink) Allocate(width int, height int) Frame {
	return newRGBAFrame(width, height)
}

func (ms *MemorySink) Serialize(frame Frame, fileName string) error {
	if _, err := checkLength(fileName); err != nil {
		return err
	}

	data, err := Encode(frame, fileName, ms.quality)
	if err != nil {
		return err
	}

	ms.mutex.Lock()
	ms.frames[fileName] = data
	ms.mutex.Unlock()
	return nil
}

func (ms *MemorySink) Release(frame Frame) {}

// Frame returns the serialized bytes stored under fileName.
func (ms *MemorySink) Frame(fileName string) ([]byte, bool) {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()
	data, ok := ms.frames[fileName]
	return data, ok
}

// Count returns how many frames the sink holds.
func (ms *MemorySink) Count() int {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()
	return len(ms.frames)
}

// FileNames returns the stored frame names in no particular order.
func (ms *MemorySink) FileNames() []string {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()
	names := make([]string, 0, len(ms.frames))
	for name := range ms.frames {
		names = append(names, name)
	}
	return names
}
