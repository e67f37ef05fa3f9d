package ranking

// Key is the pair a leaderboard position is decided by. Two rows with the
// same Key are tied and share a rank; display name only orders them, it
// never separates them.
type Key struct {
	Points int
	Tasks  int
}

// Assign computes competition ranks for a window of leaderboard rows.
//
// keys must already be sorted by (points desc, tasks desc, name asc); the
// database query owns the ordering, Assign does not re-check it. skip is the
// number of higher-ranked rows that precede this window (page offset), so a
// full snapshot passes skip=0.
//
// Tied rows all get the rank of the first row in their tie group, and the
// following distinct row resumes at its positional rank, e.g. two leaders
// produce ranks 1, 1, 3.
func Assign(keys []Key, skip int) []int {
	ranks := make([]int, len(keys))
	groupStart := 0
	for i, k := range keys {
		if i > 0 && k != keys[i-1] {
			groupStart = i
		}
		ranks[i] = skip + groupStart + 1
	}
	return ranks
}
