package resource

// PageState is the requested window over a filtered collection.
type PageState struct {
	Page     int
	PageSize int
}

// PageView is one computed page.
type PageView struct {
	Items      Collection
	Page       int // clamped
	PageSize   int
	TotalItems int
	TotalPages int
	StartIndex int
	EndIndex   int
}

// HasNext reports whether a later page exists.
func (v PageView) HasNext() bool { return v.Page < v.TotalPages }

// HasPrev reports whether an earlier page exists.
func (v PageView) HasPrev() bool { return v.Page > 1 }

// Paginate slices c according to state.
// The page is clamped into [1, max(1, TotalPages)]; a non-positive size falls back to DefaultPageSize.
func Paginate(c Collection, state PageState) PageView {
	size := state.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	total := len(c)
	pages := total / size
	if total%size != 0 {
		pages++
	}

	page := state.Page
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := total
	if size < total-start {
		end = start + size
	}

	return PageView{
		Items:      c[start:end:end],
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: pages,
		StartIndex: start,
		EndIndex:   end,
	}
}
