package report

import "strings"

// maxDiffLines caps the rendered diff; anything longer is a rewrite,
// not a drift, and the similarity ratio already tells that story.
const maxDiffLines = 20

// lineDiff renders a minimal line diff between expected and actual
// text: "-" for expected-only lines, "+" for actual-only, two spaces
// for common ones. Built on a longest-common-subsequence table; bodies
// are short so the quadratic table is fine.
func lineDiff(expected, actual string) []string {
	a := strings.Split(expected, "\n")
	b := strings.Split(actual, "\n")

	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var out []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, "  "+a[i])
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			out = append(out, "- "+a[i])
			i++
		default:
			out = append(out, "+ "+b[j])
			j++
		}
	}
	for ; i < len(a); i++ {
		out = append(out, "- "+a[i])
	}
	for ; j < len(b); j++ {
		out = append(out, "+ "+b[j])
	}

	if len(out) > maxDiffLines {
		out = append(out[:maxDiffLines], "... (diff truncated)")
	}
	return out
}
