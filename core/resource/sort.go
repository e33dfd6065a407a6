package resource

import "sort"

// SortByNewest orders c in place, most recent field first.
// The sort is stable, so equal timestamps keep fetch order, and entities
// without a parsable timestamp go after every dated one.
func SortByNewest(c Collection, field string) {
	sort.SliceStable(c, func(i, j int) bool {
		ti, tj := c[i].Time(field), c[j].Time(field)
		switch {
		case ti.IsZero():
			return false
		case tj.IsZero():
			return true
		default:
			return ti.After(tj)
		}
	})
}
