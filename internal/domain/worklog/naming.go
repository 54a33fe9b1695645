package worklog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var sequenceSuffix = regexp.MustCompile(`^(.*?)\s*\((\d+)\)$`)

// SequentialDealName returns a deal name derived from base that does not
// collide with any active record of the same work name. If the base label
// is free it is returned as-is; otherwise a " (N)" suffix is appended,
// where N is one past the highest suffix already in use (a bare base label
// counts as 1).
func SequentialDealName(base, workName string, records []WorkRecord) string {
	base = strings.TrimSpace(base)
	taken := false
	highest := 1
	for _, r := range records {
		if !r.Active() || r.WorkName != workName {
			continue
		}
		name := r.DealName
		if name == base {
			taken = true
			continue
		}
		if m := sequenceSuffix.FindStringSubmatch(name); m != nil && m[1] == base {
			if n, err := strconv.Atoi(m[2]); err == nil && n > highest {
				highest = n
			}
		}
	}
	if !taken {
		return base
	}
	return fmt.Sprintf("%s (%d)", base, highest+1)
}

// TimestampDealName appends an MMDD_HHMMSS_xxx token to base, where xxx is
// a zero-padded value in [0, 1000). Guarantees uniqueness without suffix
// numbering at the cost of readability.
func TimestampDealName(base string, now time.Time, entropy int) string {
	token := fmt.Sprintf("%s_%s_%03d", now.Format("0102"), now.Format("150405"), entropy%1000)
	base = strings.TrimSpace(base)
	if base == "" {
		return token
	}
	return base + "_" + token
}
