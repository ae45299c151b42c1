package task

import "fmt"

// Range is a contiguous half open [Start, End) run of indices. The same type
// carries both the frame indices handed to a range worker and the rows of a
// single frame handed to a render thread.
type Range struct {
	Start int
	End   int
}

func (r Range) Count() int {
	return r.End - r.Start
}

func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// Partition splits [0, total) into count contiguous ranges that cover every
// index exactly once. Each range gets total/count indices and the last range
// also absorbs the remainder. When count exceeds total the leading ranges
// come back empty and the last one carries everything.
func Partition(total int, count int) []Range {
	if count < 1 {
		count = 1
	}

	per := total / count
	ranges := make([]Range, count)
	for i := range ranges {
		ranges[i].Start = i * per
		ranges[i].End = (i + 1) * per
	}
	ranges[count-1].End = total
	return ranges
}

// Chunk splits [0, total) into consecutive ranges of at most size indices.
// The coordinator leases these out to workers one at a time.
func Chunk(total int, size int) []Range {
	if size < 1 {
		size = 1
	}

	ranges := make([]Range, 0, (total+size-1)/size)
	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}
