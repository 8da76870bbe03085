// Package page windows ordered id sequences newest-first.
//
// Pages are 1-indexed. Page 1 holds the pageSize most recent entries, page 2
// the next pageSize, and so on. Out-of-range requests yield an empty window;
// callers always report the total alongside it.
package page

// Window returns the half-open range [start, end) into the reversed
// sequence of total entries. start == end means the page is empty.
func Window(pageNumber, pageSize, total uint64) (start, end uint64) {
	if pageNumber == 0 || pageSize == 0 || total == 0 {
		return 0, 0
	}
	// Guard the multiplication: a page this far out is past any real total.
	if pageNumber-1 > total/pageSize {
		return 0, 0
	}
	start = (pageNumber - 1) * pageSize
	if start >= total {
		return 0, 0
	}
	end = start + pageSize
	if end > total || end < start {
		end = total
	}
	return start, end
}

// Reverse returns the entries of ids for the window, newest (last) first.
func Reverse[T any](ids []T, pageNumber, pageSize uint64) []T {
	total := uint64(len(ids))
	start, end := Window(pageNumber, pageSize, total)
	out := make([]T, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, ids[total-1-i])
	}
	return out
}

// Result is one page of items plus the total they were drawn from.
type Result[T any] struct {
	Items []T    `json:"items"`
	Total uint64 `json:"total"`
}
