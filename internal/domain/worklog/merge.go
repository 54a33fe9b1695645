package worklog

// MergeResult describes the outcome of folding duplicate records.
type MergeResult struct {
	Base       *WorkRecord
	DeletedIDs []string
}

// Merged reports whether any fold actually happened.
func (m MergeResult) Merged() bool { return len(m.DeletedIDs) > 0 }

// MergeDuplicates folds every incomplete, non-deleted record sharing the
// given identity into one canonical record. The base is the candidate with
// the earliest (date, start_time); its session list becomes the id-deduped,
// chronologically sorted union of all candidates' sessions, and its
// aggregates are recomputed. Non-base candidates are removed from the
// returned collection.
//
// The operation is idempotent: merging an already-merged collection
// returns it unchanged.
func MergeDuplicates(records []WorkRecord, id Identity) ([]WorkRecord, MergeResult) {
	var candidates []int
	for i := range records {
		if records[i].Active() && records[i].Identity() == id {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) < 2 {
		out := make([]WorkRecord, len(records))
		copy(out, records)
		var res MergeResult
		if len(candidates) == 1 {
			res.Base = &out[candidates[0]]
		}
		return out, res
	}

	baseIdx := candidates[0]
	for _, i := range candidates[1:] {
		if earlierRecord(records[i], records[baseIdx]) {
			baseIdx = i
		}
	}

	seen := make(map[string]bool)
	var sessions []WorkSession
	for _, i := range candidates {
		for _, s := range records[i].Sessions {
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			sessions = append(sessions, s)
		}
	}

	base := records[baseIdx]
	base.Sessions = sessions
	base = Normalize(base)

	var deleted []string
	out := make([]WorkRecord, 0, len(records))
	for i := range records {
		switch {
		case i == baseIdx:
			out = append(out, base)
		case isCandidate(candidates, i):
			deleted = append(deleted, records[i].ID)
		default:
			out = append(out, records[i])
		}
	}

	var basePtr *WorkRecord
	for i := range out {
		if out[i].ID == base.ID {
			basePtr = &out[i]
		}
	}
	return out, MergeResult{Base: basePtr, DeletedIDs: deleted}
}

// earlierRecord orders records by (date, start_time); empty fields sort
// last so a record that already has sessions wins over an empty shell.
func earlierRecord(a, b WorkRecord) bool {
	ad, bd := sortKey(a.Date), sortKey(b.Date)
	if ad != bd {
		return ad < bd
	}
	return sortKey(a.StartTime) < sortKey(b.StartTime)
}

func sortKey(v string) string {
	if v == "" {
		return "￿"
	}
	return v
}

func isCandidate(candidates []int, i int) bool {
	for _, c := range candidates {
		if c == i {
			return true
		}
	}
	return false
}
