// Package pagination splits a result of n rows into fixed-size pages.
package pagination

import (
	"errors"
	"fmt"
)

// ErrInvalidPageSize is returned for a page size outside Sizes
var ErrInvalidPageSize = errors.New("invalid page size")

// Sizes are the page sizes a client may ask for
var Sizes = []int{10, 20, 50, 100}

// DefaultSize is used when no page size is given
const DefaultSize = 20

// Params are the requested page (1-based) and page size
type Params struct {
	Page     int
	PageSize int
}

// Metadata describes one page of a result
type Metadata struct {
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
	From       int    `json:"from"`
	To         int    `json:"to"`
	Caption    string `json:"caption"`
}

// Normalize fills defaults and checks the page size
func (p Params) Normalize() (Params, error) {
	if p.PageSize == 0 {
		p.PageSize = DefaultSize
	}
	if !validSize(p.PageSize) {
		return p, fmt.Errorf("%w: %d, allowed %v", ErrInvalidPageSize, p.PageSize, Sizes)
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p, nil
}

func validSize(size int) bool {
	for _, s := range Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// CalculateOffset returns the index of the first row of a 1-based page
func CalculateOffset(page, size int) int {
	return (page - 1) * size
}

// CalculateTotalPages returns (total-1)/size+1, and 0 for an empty result
func CalculateTotalPages(total, size int) int {
	if total <= 0 {
		return 0
	}
	return (total-1)/size + 1
}

// Paginate computes the metadata of the requested page. Pages past the end
// are clamped to the last page.
func Paginate(total int, p Params) Metadata {
	m := Metadata{
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: CalculateTotalPages(total, p.PageSize),
	}
	if m.TotalPages == 0 {
		m.Page = 1
		m.Caption = "no rows"
		return m
	}
	if m.Page > m.TotalPages {
		m.Page = m.TotalPages
	}
	if m.Page < 1 {
		m.Page = 1
	}

	start := CalculateOffset(m.Page, m.PageSize)
	end := start + m.PageSize
	if end > total {
		end = total
	}
	m.From = start + 1
	m.To = end
	m.Caption = fmt.Sprintf("page %d/%d, showing rows %d-%d of %d", m.Page, m.TotalPages, m.From, m.To, total)
	return m
}

// Bounds returns the half-open row range [start, end) of the page
func (m Metadata) Bounds() (int, int) {
	if m.TotalPages == 0 {
		return 0, 0
	}
	return m.From - 1, m.To
}
