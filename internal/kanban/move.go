package kanban

// Reorder returns a copy of ids with the element at from moved to index to.
// The target index is measured against the slice after the element has been
// removed, so Reorder(ids, i, i) leaves the order unchanged. A target past the
// end appends and a negative target inserts at the front. When from is out of
// range the copy is returned as is.
func Reorder(ids []string, from, to int) []string {
	out := append(make([]string, 0, len(ids)), ids...)
	if from < 0 || from >= len(out) {
		return out
	}
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	return insertAt(out, clampIndex(to, len(out)), moved)
}

// Transfer removes the element at srcIndex from src and inserts it into dst
// at dstIndex. Neither input is modified. When srcIndex is out of range both
// copies are returned unchanged.
func Transfer(src, dst []string, srcIndex, dstIndex int) (newSrc, newDst []string) {
	newSrc = append(make([]string, 0, len(src)), src...)
	newDst = append(make([]string, 0, len(dst)+1), dst...)
	if srcIndex < 0 || srcIndex >= len(newSrc) {
		return newSrc, newDst
	}
	moved := newSrc[srcIndex]
	newSrc = append(newSrc[:srcIndex], newSrc[srcIndex+1:]...)
	newDst = insertAt(newDst, clampIndex(dstIndex, len(newDst)), moved)
	return newSrc, newDst
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func insertAt(ids []string, i int, id string) []string {
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
