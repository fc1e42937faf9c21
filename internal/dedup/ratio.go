package dedup

import (
	"sort"
	"strings"
)

// TokenSetRatio scores the similarity of a and b on a 0–100 scale, ignoring
// token order and repeated tokens. Tokens are whitespace-separated; no case
// folding or punctuation stripping is applied.
//
// Both strings are split into token sets. The shared tokens (the
// intersection) are compared against the intersection plus each side's
// remaining tokens, and the remainders are compared against each other; the
// best of the three normalised Indel similarities wins.
func TokenSetRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var sect, diffAB, diffBA []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			sect = append(sect, tok)
		} else {
			diffAB = append(diffAB, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			diffBA = append(diffBA, tok)
		}
	}

	// One set contains the other.
	if len(sect) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	diffABJoined := joinSorted(diffAB)
	diffBAJoined := joinSorted(diffBA)
	abLen := runeLen(diffABJoined)
	baLen := runeLen(diffBAJoined)
	sectLen := runeLen(joinSorted(sect))

	sep := 0
	if sectLen > 0 {
		sep = 1
	}
	sectABLen := sectLen + sep + abLen
	sectBALen := sectLen + sep + baLen

	// sect+ab vs sect+ba differ exactly where the remainders differ.
	result := normSimilarity(indelDistance(diffABJoined, diffBAJoined), sectABLen+sectBALen)
	if sectLen == 0 {
		return result
	}

	// sect vs sect+ab (and sect+ba) differ only by the appended remainder.
	sectABRatio := normSimilarity(sep+abLen, sectLen+sectABLen)
	sectBARatio := normSimilarity(sep+baLen, sectLen+sectBALen)

	return max(result, sectABRatio, sectBARatio)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func joinSorted(tokens []string) string {
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func runeLen(s string) int {
	return len([]rune(s))
}

func normSimilarity(dist, lenSum int) float64 {
	if lenSum == 0 {
		return 100
	}
	return 100 * (1 - float64(dist)/float64(lenSum))
}

// indelDistance is the edit distance allowing only insertions and deletions,
// computed over runes as len(a)+len(b)-2*LCS(a,b).
func indelDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return len(ra) + len(rb)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	lcs := prev[len(rb)]
	return len(ra) + len(rb) - 2*lcs
}
