package domain

// MergeResult counts what a reconciliation changed.
type MergeResult struct {
	Inserted int
	Updated  int
	Skipped  int
	// Collapsed counts later local records dropped because a remote record
	// took over their natural key.
	Collapsed int
}

// Changes is the number of records inserted or replaced.
func (r MergeResult) Changes() int {
	return r.Inserted + r.Updated
}

// Reconcile merges a remote batch into local using last-writer-wins on the
// natural key. The remote record replaces a local record with the same key in
// place; unknown keys are appended in batch order. Local-only records are kept.
//
// Duplicate keys inside one batch are applied in order, so the last one wins.
// When several local records share a key the remote record matches, the first
// slot is replaced and the rest are dropped, so no key is held twice afterwards.
// Remote records are normalized first; those with blank text are skipped. Neither input is modified.
func Reconcile(local, remote []Quote) ([]Quote, MergeResult) {
	merged := make([]Quote, len(local), len(local)+len(remote))
	copy(merged, local)

	var res MergeResult
	if len(remote) == 0 {
		return merged, res
	}

	index := make(map[string]int, len(merged))
	for i, q := range merged {
		if _, ok := index[q.NaturalKey()]; !ok {
			index[q.NaturalKey()] = i
		}
	}

	matched := make(map[string]struct{})

	for _, r := range remote {
		r = r.Normalize()
		if r.Text == "" {
			res.Skipped++
			continue
		}

		key := r.NaturalKey()
		if i, ok := index[key]; ok {
			merged[i] = r
			matched[key] = struct{}{}
			res.Updated++

			continue
		}

		index[key] = len(merged)
		merged = append(merged, r)
		res.Inserted++
	}

	if len(matched) == 0 {
		return merged, res
	}

	kept := merged[:0]
	for i, q := range merged {
		key := q.NaturalKey()
		if _, ok := matched[key]; ok && index[key] != i {
			res.Collapsed++
			continue
		}

		kept = append(kept, q)
	}

	return kept, res
}
