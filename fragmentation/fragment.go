package fragmentation

// fragment is one received slice of a datagram's payload, positioned at
// [offset, end) in the reconstructed stream. The flow owns the backing
// array; a caller's buffer is never retained (spec.md §4.1).
type fragment struct {
	offset uint16
	end    uint16
	data   []byte
}

// insertFragment inserts a newly-received [offset, end) payload into the
// ordered, non-overlapping fragment list, following the classic BSD
// reassembly overlap rule (spec.md §4.1): where the new fragment starts
// inside a preceding fragment, the preceding fragment's bytes win and
// the new fragment's start is advanced; following fragments that the
// new one covers are dropped, and one that overlaps its tail is trimmed
// to its non-overlapping suffix. data must have length end-offset; it
// is copied, never retained.
//
// It returns the updated list along with the number of payload bytes
// physically removed from (or trimmed off) prior fragments and the
// number of bytes freshly allocated for the new fragment, for memory
// accounting.
func insertFragment(fragments []fragment, data []byte, offset, end uint16) ([]fragment, int, int) {
	origOffset := offset

	// i is the index of the first existing fragment whose offset is
	// past the new fragment's (untrimmed) start; fragments[i-1], if it
	// exists, is the only candidate for a leading overlap since the
	// list is sorted and pairwise non-overlapping.
	i := 0
	for i < len(fragments) && fragments[i].offset <= offset {
		i++
	}
	if i > 0 && fragments[i-1].end > offset {
		offset = fragments[i-1].end
	}
	if offset >= end {
		// The new fragment's entire range was already covered by an
		// earlier fragment; nothing changes.
		return fragments, 0, 0
	}

	bytesRemoved := 0

	// j walks forward over fragments fully contained in [offset, end);
	// they are dropped outright.
	j := i
	for j < len(fragments) && fragments[j].end <= end {
		bytesRemoved += int(fragments[j].end - fragments[j].offset)
		j++
	}
	// If the next surviving fragment overlaps the new fragment's tail,
	// trim its leading (now-redundant) bytes instead of dropping it.
	if j < len(fragments) && fragments[j].offset < end {
		overlap := end - fragments[j].offset
		bytesRemoved += int(overlap)
		fragments[j].data = fragments[j].data[overlap:]
		fragments[j].offset = end
	}

	newData := make([]byte, end-offset)
	copy(newData, data[offset-origOffset:])

	out := make([]fragment, 0, len(fragments)-(j-i)+1)
	out = append(out, fragments[:i]...)
	out = append(out, fragment{offset: offset, end: end, data: newData})
	out = append(out, fragments[j:]...)

	return out, bytesRemoved, len(newData)
}

// allContiguous reports whether fragments form an unbroken train
// starting at offset 0 (spec.md §4.1). fragments must be sorted and
// non-overlapping, which insertFragment guarantees.
func allContiguous(fragments []fragment) bool {
	if len(fragments) == 0 || fragments[0].offset != 0 {
		return false
	}
	for i := 1; i < len(fragments); i++ {
		if fragments[i-1].end != fragments[i].offset {
			return false
		}
	}
	return true
}

// compact copies fragment payloads in order into out and returns the
// last fragment's end if the walk covers [0, expectedLen) without a
// hole, or -1 if it does not (a caller-detectable protocol error,
// spec.md §4.1).
func compact(fragments []fragment, out []byte, expectedLen uint16) int {
	var want uint16
	pos := 0
	for _, f := range fragments {
		if f.offset != want {
			return -1
		}
		pos += copy(out[pos:], f.data)
		want = f.end
	}
	if want != expectedLen {
		return -1
	}
	return int(want)
}
