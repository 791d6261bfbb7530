package parallel

// ShouldShare reports whether a learned clause of the given size and
// glue is worth broadcasting to the rest of the portfolio. The bounds
// follow the plingeling/glucose heuristic: compact clauses of decent
// quality, or any clause of exceptional quality, keep broadcast volume
// proportional to usefulness.
func ShouldShare(size, glue int) bool {
	return (size <= 40 && glue <= 8) || glue <= 2
}
