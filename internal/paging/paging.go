// Package paging slices the filtered mission list into pages and computes
// the compact page-selector token list.
package paging

import "strconv"

// DefaultPageSize is the number of missions rendered per page.
const DefaultPageSize = 10

// Ellipsis is the non-interactive token standing in for collapsed page runs.
const Ellipsis = "…"

// Pager tracks the current window over a list of TotalItems entries.
type Pager struct {
	PageSize   int `json:"pageSize"`
	Current    int `json:"currentPage"`
	TotalItems int `json:"totalItems"`
}

// New returns a pager positioned on page 1.
func New(totalItems int) Pager {
	return Pager{PageSize: DefaultPageSize, Current: 1, TotalItems: totalItems}
}

// TotalPages returns ceil(TotalItems / PageSize).
func (p Pager) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.TotalItems + p.PageSize - 1) / p.PageSize
}

// Bounds returns the half-open slice window [start, end) for the current
// page, clamped to the item count.
func (p Pager) Bounds() (start, end int) {
	start = (p.Current - 1) * p.PageSize
	if start < 0 {
		start = 0
	}
	if start > p.TotalItems {
		start = p.TotalItems
	}
	end = start + p.PageSize
	if end > p.TotalItems {
		end = p.TotalItems
	}
	return start, end
}

// GoTo moves to the given page. Out-of-range targets are rejected silently
// and leave the pager unchanged.
func (p *Pager) GoTo(page int) bool {
	if page < 1 || page > p.TotalPages() {
		return false
	}
	p.Current = page
	return true
}

// Reset re-seats the pager on page 1 with a new item count, used after every
// filter change.
func (p *Pager) Reset(totalItems int) {
	p.TotalItems = totalItems
	p.Current = 1
}

// VisiblePages returns the page-selector tokens. Up to 7 pages are listed
// literally; longer ranges always show the first and last page and collapse
// the rest around the current page with ellipsis tokens.
func (p Pager) VisiblePages() []string {
	total := p.TotalPages()
	if total <= 7 {
		out := make([]string, 0, total)
		for i := 1; i <= total; i++ {
			out = append(out, strconv.Itoa(i))
		}
		return out
	}

	switch {
	case p.Current <= 3:
		return []string{"1", "2", "3", "4", "5", Ellipsis, strconv.Itoa(total)}
	case p.Current >= total-2:
		return []string{
			"1", Ellipsis,
			strconv.Itoa(total - 4), strconv.Itoa(total - 3), strconv.Itoa(total - 2),
			strconv.Itoa(total - 1), strconv.Itoa(total),
		}
	default:
		return []string{
			"1", Ellipsis,
			strconv.Itoa(p.Current - 1), strconv.Itoa(p.Current), strconv.Itoa(p.Current + 1),
			Ellipsis, strconv.Itoa(total),
		}
	}
}
