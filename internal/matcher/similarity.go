package matcher

// Similarity scores two strings from 0 to 100 using the longest common
// subsequence: 200*lcs/(len(a)+len(b)), rounded down. Unlike Coverage it is
// order-sensitive, so transposed phrases score lower than reordered runs of
// the same runes.
func Similarity(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	// Single-row LCS table; prev holds dp[i-1][j-1].
	row := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		prev := 0
		for j := 1; j <= len(rb); j++ {
			cur := row[j]
			if ra[i-1] == rb[j-1] {
				row[j] = prev + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prev = cur
		}
	}

	lcs := row[len(rb)]
	return 200 * lcs / (len(ra) + len(rb))
}
