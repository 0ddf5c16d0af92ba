package lemmy

import (
	"fmt"
	"strconv"
	"strings"
)

// pathRoot is the synthetic first segment of every materialized path.
const pathRoot = "0"

// ParsePath resolves a materialized comment path such as "0.5.12" to the
// comment's parent id. The path must start with the synthetic root, every
// other segment must be a positive id, and the last segment must be id
// itself. A path of just "0.<id>" means the comment has no parent.
func ParsePath(id int64, path string) (*int64, error) {
	segs := strings.Split(path, ".")
	if len(segs) < 2 || segs[0] != pathRoot {
		return nil, fmt.Errorf("malformed path %q", path)
	}

	ids := make([]int64, 0, len(segs)-1)
	for _, s := range segs[1:] {
		if !isID(s) {
			return nil, fmt.Errorf("malformed path %q: bad segment %q", path, s)
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed path %q: bad segment %q", path, s)
		}
		ids = append(ids, n)
	}

	if ids[len(ids)-1] != id {
		return nil, fmt.Errorf("path %q does not end in comment id %d", path, id)
	}
	if len(ids) == 1 {
		return nil, nil
	}
	parent := ids[len(ids)-2]
	return &parent, nil
}

// isID reports whether s is a canonical positive decimal: digits only, no
// sign, no leading zero.
func isID(s string) bool {
	if s == "" || s[0] == '0' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
