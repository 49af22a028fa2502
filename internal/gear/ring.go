package gear

// ring does index arithmetic on a circular sequence of length n.
type ring int

// wrap maps any integer onto 0..n-1.
func (r ring) wrap(i int) int {
	n := int(r)
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func (r ring) next(i int) int {
	return r.wrap(i + 1)
}

// span visits every index from -> to inclusive, moving forward and wrapping.
func (r ring) span(from, to int, visit func(i int)) {
	i := r.wrap(from)
	to = r.wrap(to)
	for {
		visit(i)
		if i == to {
			return
		}
		i = r.next(i)
	}
}
