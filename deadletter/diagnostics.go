package deadletter

// Diagnostics is a set of arbitrary key/value pairs that accumulate
// information about the handling attempts made for a dead letter.
type Diagnostics map[string]string

// Merge returns a new diagnostics map containing the entries of d overlaid
// with the entries of x.
//
// Neither d nor x is modified. Keys present in both maps take the value from
// x.
func (d Diagnostics) Merge(x Diagnostics) Diagnostics {
	if len(x) == 0 {
		return d.clone()
	}

	merged := make(Diagnostics, len(d)+len(x))

	for k, v := range d {
		merged[k] = v
	}

	for k, v := range x {
		merged[k] = v
	}

	return merged
}

// clone returns a shallow copy of d, or nil if d is empty.
func (d Diagnostics) clone() Diagnostics {
	if len(d) == 0 {
		return nil
	}

	c := make(Diagnostics, len(d))
	for k, v := range d {
		c[k] = v
	}

	return c
}
