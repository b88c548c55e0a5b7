// Package pager keeps the page position of a document listing.
package pager

import "fmt"

// DefaultPageSize is used when a Pager has no positive page size.
const DefaultPageSize = 50

// Pager tracks a 1-based page over Total documents.
type Pager struct {
	PageSize int
	Page     int
	Total    int64
}

// New returns a Pager at the first page.
func New(pageSize int) *Pager {
	return &Pager{PageSize: pageSize, Page: 1}
}

func (p *Pager) size() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	return p.PageSize
}

// TotalPages returns the number of pages. An empty listing still has one.
func (p *Pager) TotalPages() int {
	if p.Total <= 0 {
		return 1
	}
	size := int64(p.size())
	return int((p.Total + size - 1) / size)
}

func (p *Pager) current() int {
	return min(max(p.Page, 1), p.TotalPages())
}

// HasNext reports whether a page follows the current one.
func (p *Pager) HasNext() bool {
	return p.current() < p.TotalPages()
}

// HasPrev reports whether a page precedes the current one.
func (p *Pager) HasPrev() bool {
	return p.current() > 1
}

// Skip returns how many documents precede the current page.
func (p *Pager) Skip() int {
	return (p.current() - 1) * p.size()
}

// Limit returns the page size in effect.
func (p *Pager) Limit() int {
	return p.size()
}

// Next moves to the following page and reports whether it moved.
func (p *Pager) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.Page = p.current() + 1
	return true
}

// Prev moves to the preceding page and reports whether it moved.
func (p *Pager) Prev() bool {
	if !p.HasPrev() {
		return false
	}
	p.Page = p.current() - 1
	return true
}

// Goto moves to page when it exists.
func (p *Pager) Goto(page int) bool {
	if page < 1 || page > p.TotalPages() {
		return false
	}
	p.Page = page
	return true
}

// Reset returns to the first page with a new total.
func (p *Pager) Reset(total int64) {
	p.Page = 1
	p.Total = total
}

// Info returns the position as "Page 2 of 5".
func (p *Pager) Info() string {
	return fmt.Sprintf("Page %d of %d", p.current(), p.TotalPages())
}
