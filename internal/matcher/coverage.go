package matcher

// Coverage scores how much of the candidate's rune multiset the query
// supplies, from 0 to 100. Occurrences count: a candidate with two 預 runes
// needs two in the query to cover both. Order does not matter and extra
// query runes are free, so a query that is a reordered superset of the
// candidate still scores 100.
func Coverage(query, candidate string) int {
	candidateRunes := []rune(candidate)
	if len(candidateRunes) == 0 {
		return 0
	}

	available := make(map[rune]int)
	for _, r := range query {
		available[r]++
	}

	covered := 0
	for _, r := range candidateRunes {
		if available[r] > 0 {
			available[r]--
			covered++
		}
	}
	return covered * 100 / len(candidateRunes)
}
