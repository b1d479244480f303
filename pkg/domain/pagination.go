package domain

// PageStats describes a bounded result window over a matching set
type PageStats struct {
	ItemsCount         int64 `json:"itemsCount"`         // Total matches before pagination
	PagesCount         int64 `json:"pagesCount"`         // ceil(itemsCount/limit), 1 when unbounded
	FirstIndexReturned int64 `json:"firstIndexReturned"` // Zero-based, equals skip
	LastIndexReturned  int64 `json:"lastIndexReturned"`
	ItemsReturned      int64 `json:"itemsReturned"`
}

// ComputePageStats derives page statistics for a window of returned items.
// A limit of zero means the window is unbounded.
func ComputePageStats(total, skip, limit, returned int64) PageStats {
	total = clampNonNegative(total)
	skip = clampNonNegative(skip)
	limit = clampNonNegative(limit)
	returned = clampNonNegative(returned)

	pages := int64(1)
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	last := skip
	if returned > 0 {
		last = skip + returned - 1
	}

	return PageStats{
		ItemsCount:         total,
		PagesCount:         pages,
		FirstIndexReturned: skip,
		LastIndexReturned:  last,
		ItemsReturned:      returned,
	}
}

func clampNonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// Page is a list result, optionally carrying page statistics
type Page struct {
	Items []Document `json:"items"`
	Stats *PageStats `json:"stats,omitempty"`
}
