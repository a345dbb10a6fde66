package wire

import (
	"fmt"
	"sync/atomic"
)

// Stats accumulates the record/byte counters the replayer CLI prints
// at end-of-stream, supplementing the distilled spec with
// original_source's printer.cpp/test.cpp end-of-run summary. Safe for
// concurrent use by multiple encoders writing the same trace.
type Stats struct {
	records           atomic.Uint64
	bytes             atomic.Uint64
	memoryUpdateBytes atomic.Uint64
}

func (s *Stats) addRecord(n uint64) {
	if s == nil {
		return
	}
	s.records.Add(1)
	s.bytes.Add(n)
}

// AddMemoryUpdate counts bytes a memory-update record (a dirty-page
// flush from internal/memtrack) contributed, tracked separately from
// ordinary call records since it dominates trace size in practice.
func (s *Stats) AddMemoryUpdate(n uint64) {
	if s == nil {
		return
	}
	s.memoryUpdateBytes.Add(n)
}

func (s *Stats) Records() uint64           { return s.records.Load() }
func (s *Stats) Bytes() uint64             { return s.bytes.Load() }
func (s *Stats) MemoryUpdateBytes() uint64 { return s.memoryUpdateBytes.Load() }

// String renders the one-line summary cmd/replayer prints on clean
// end-of-stream.
func (s *Stats) String() string {
	return fmt.Sprintf("%d records, %d bytes (%d bytes memory updates)",
		s.Records(), s.Bytes(), s.MemoryUpdateBytes())
}
