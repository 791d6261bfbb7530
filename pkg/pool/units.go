package pool

// UnitLog is the append-only record of every unit literal broadcast so
// far, deduplicated by literal identifier. Callers hold a private
// watermark into the log marking how much of it they have already
// drained.
type UnitLog struct {
	seen  map[uint32]struct{}
	units []uint32
}

func NewUnitLog() *UnitLog {
	return &UnitLog{seen: make(map[uint32]struct{})}
}

// RecordAndDrain returns every literal recorded at or past the
// caller's watermark, folds in the caller's new units (dropping any
// identifier already present), and moves the watermark to the end of
// the log. The result can include literals the caller itself
// contributed on an earlier call but has not drained yet.
func (l *UnitLog) RecordAndDrain(in []uint32, watermark *int) []uint32 {
	var out []uint32
	if *watermark < len(l.units) {
		out = append(out, l.units[*watermark:]...)
	}
	for _, u := range in {
		if _, ok := l.seen[u]; ok {
			continue
		}
		l.seen[u] = struct{}{}
		l.units = append(l.units, u)
	}
	*watermark = len(l.units)
	return out
}

// Len reports how many distinct units have been recorded.
func (l *UnitLog) Len() int {
	return len(l.units)
}
