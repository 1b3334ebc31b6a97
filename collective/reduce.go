package collective

// SumInt64s returns the element-wise sum of parts.
func SumInt64s(parts [][]int64) []int64 {
	if len(parts) == 0 {
		return nil
	}
	out := make([]int64, len(parts[0]))
	for _, p := range parts {
		for i, v := range p {
			out[i] += v
		}
	}
	return out
}

// Concat joins segments in rank order.
func Concat(parts [][]int32) []int32 {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]int32, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
