package occache

import "sync/atomic"

// stats mirrors CacheSkipListStats from the source: monotonic counters fed
// to the telemetry sink (telemetry.go), all named under the /oc/skiplist/
// prefix.
type stats struct {
	length         atomic.Uint64
	sentinelCount  atomic.Uint64
	keySize        atomic.Uint64
	valueSize      atomic.Uint64
	insertCount    atomic.Uint64
	appendCount    atomic.Uint64
	evictCount     atomic.Uint64
	evictLength    atomic.Uint64
	findCount      atomic.Uint64
	findIterCount  atomic.Uint64
	levelLength    [MaxLevel]atomic.Uint64
}

func (s *stats) onLink(n *node) {
	if n.sentinel {
		s.sentinelCount.Add(1)
	} else {
		s.length.Add(1)
		s.keySize.Add(uint64(len(n.key)))
		s.valueSize.Add(uint64(len(n.value)))
	}
	s.levelLength[n.height-1].Add(1)
}

func (s *stats) onUnlink(n *node) {
	if n.sentinel {
		s.sentinelCount.Add(^uint64(0))
	} else {
		s.length.Add(^uint64(0))
		s.keySize.Add(^uint64(len(n.key) - 1))
		s.valueSize.Add(^uint64(len(n.value) - 1))
	}
	s.levelLength[n.height-1].Add(^uint64(0))
}

func (s *stats) onUpdate(oldLen, newLen int) {
	delta := int64(newLen - oldLen)
	if delta >= 0 {
		s.valueSize.Add(uint64(delta))
	} else {
		s.valueSize.Add(^uint64(-delta - 1))
	}
}

func (s *stats) onInsert()  { s.insertCount.Add(1) }
func (s *stats) onAppend()  { s.appendCount.Add(1) }
func (s *stats) onEvict(n uint64) {
	s.evictCount.Add(1)
	s.evictLength.Add(n)
}
func (s *stats) onFind()     { s.findCount.Add(1) }
func (s *stats) onFindIter() { s.findIterCount.Add(1) }

// register wires every counter into the telemetry Sink under the
// /oc/skiplist/ prefix, including the per-level length_ counters.
func (s *stats) register(sink Sink) {
	const prefix = "/oc/skiplist/"
	sink.RegisterMetric(prefix+"length_", func() float64 { return float64(s.length.Load()) })
	sink.RegisterMetric(prefix+"keySize_", func() float64 { return float64(s.keySize.Load()) })
	sink.RegisterMetric(prefix+"valueSize_", func() float64 { return float64(s.valueSize.Load()) })
	sink.RegisterMetric(prefix+"insertCount_", func() float64 { return float64(s.insertCount.Load()) })
	sink.RegisterMetric(prefix+"appendCount_", func() float64 { return float64(s.appendCount.Load()) })
	sink.RegisterMetric(prefix+"evictCount_", func() float64 { return float64(s.evictCount.Load()) })
	sink.RegisterMetric(prefix+"evictLength_", func() float64 { return float64(s.evictLength.Load()) })
	sink.RegisterMetric(prefix+"sentinelCount_", func() float64 { return float64(s.sentinelCount.Load()) })
	sink.RegisterMetric(prefix+"findCount_", func() float64 { return float64(s.findCount.Load()) })
	sink.RegisterMetric(prefix+"findIterCount_", func() float64 { return float64(s.findIterCount.Load()) })
	for i := range s.levelLength {
		level := i
		sink.RegisterMetric(prefix+"levelLength_"+itoa(level), func() float64 {
			return float64(s.levelLength[level].Load())
		})
	}
}

// itoa avoids pulling in strconv just for metric-name suffixes in a hot
// registration path that only ever runs once at construction; kept tiny
// and local rather than exported.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [8]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}
