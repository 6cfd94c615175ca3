package builtin

import (
	"strconv"
	"strings"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/term"
)

// jsonPath walks a dotted path through Objects and Lists. An empty path
// selects the document itself.
func jsonPath(doc term.Term, path string) (term.Term, bool) {
	if path == "" {
		return doc, true
	}
	node := doc
	for _, seg := range strings.Split(path, ".") {
		switch x := node.(type) {
		case term.Object:
			child, ok := x[seg]
			if !ok {
				return nil, false
			}
			node = child
		case term.List:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(x) {
				return nil, false
			}
			node = x[idx]
		default:
			return nil, false
		}
	}
	return node, true
}
