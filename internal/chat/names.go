package chat

import (
	"sort"
	"strings"
	"unicode"

	"github.com/EmpoweredVote/Barangay-Backend/internal/residents"
)

// nameCues introduce a person's name in a question.
var nameCues = []string{
	"resident named", "named", "name is", "called", "look for", "find", "search for",
	"search", "who is", "is there", "hanapin", "sino si", "si",
}

// ExtractNames pulls the words after a name cue in the raw text, keeping
// capitalised words when no cue is present. Returned names are normalized.
func ExtractNames(text string) []string {
	normalized := Normalize(text)
	padded := " " + normalized + " "
	for _, cue := range nameCues {
		i := strings.Index(padded, " "+cue+" ")
		if i < 0 {
			continue
		}
		var out []string
		for _, w := range strings.Fields(padded[i+len(cue)+2:]) {
			if stopWords[w] || dbKeyword[w] {
				break
			}
			out = append(out, w)
		}
		if len(out) > 0 {
			return out
		}
	}

	var out []string
	for i, w := range strings.Fields(text) {
		r := []rune(w)
		if i == 0 || len(r) == 0 || !unicode.IsUpper(r[0]) {
			continue
		}
		if n := Normalize(w); n != "" && !stopWords[n] && !dbKeyword[n] {
			out = append(out, n)
		}
	}
	return out
}

// dbKeyword words end a name and are never names themselves.
var dbKeyword = map[string]bool{
	"resident": true, "residents": true, "residente": true, "in": true, "from": true,
	"barangay": true, "brgy": true, "purok": true, "household": true, "record": true,
	"records": true, "living": true, "who": true, "with": true,
}

// nameOverlap sums, over each search name, the longest common substring
// with the resident's normalized full name.
func nameOverlap(r residents.Resident, names []string) int {
	full := Normalize(r.FullName())
	total := 0
	for _, n := range names {
		total += longestCommonSubstring(full, n)
	}
	return total
}

// RankResidents orders candidates by overlap, highest first. Ties keep
// their input order.
func RankResidents(candidates []residents.Resident, names []string) []residents.Resident {
	scores := make([]int, len(candidates))
	idx := make([]int, len(candidates))
	for i, c := range candidates {
		scores[i] = nameOverlap(c, names)
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	out := make([]residents.Resident, len(candidates))
	for i, j := range idx {
		out[i] = candidates[j]
	}
	return out
}

func longestCommonSubstring(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	best := 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return best
}
