package ordered

import (
	"blockstore/pkg/record"
	"blockstore/pkg/types"
)

type keyed struct {
	key int64
	rec record.Record
}

// sortByKey returns records ordered by their integer primary key using a
// stable top-down merge sort. Every key must parse as an integer.
func sortByKey(records []record.Record) ([]record.Record, error) {
	items := make([]keyed, len(records))
	for i, rec := range records {
		k, err := types.ParseKey(rec.Key())
		if err != nil {
			return nil, err
		}
		items[i] = keyed{key: k, rec: rec}
	}

	sorted := mergeSort(items)
	out := make([]record.Record, len(sorted))
	for i, it := range sorted {
		out[i] = it.rec
	}
	return out, nil
}

func mergeSort(items []keyed) []keyed {
	if len(items) <= 1 {
		return items
	}
	mid := (len(items) + 1) / 2
	return merge(mergeSort(items[:mid]), mergeSort(items[mid:]))
}

func merge(left, right []keyed) []keyed {
	out := make([]keyed, 0, len(left)+len(right))
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		if left[i].key <= right[j].key {
			out = append(out, left[i])
			i++
		} else {
			out = append(out, right[j])
			j++
		}
	}
	out = append(out, left[i:]...)
	return append(out, right[j:]...)
}
