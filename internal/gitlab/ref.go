package gitlab

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var mrRefPattern = regexp.MustCompile(`/merge_requests/(\d+)`)

// ParseMRRef accepts a bare MR number or a full MR URL and returns the iid.
func ParseMRRef(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if iid, err := strconv.Atoi(ref); err == nil && iid > 0 {
		return iid, nil
	}
	if m := mrRefPattern.FindStringSubmatch(ref); m != nil {
		return strconv.Atoi(m[1])
	}
	return 0, fmt.Errorf("cannot extract a merge request id from %q", ref)
}
