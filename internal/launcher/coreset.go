package launcher

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCoreSet parses the --cores flag syntax of spec.md §6: `"1,2-4,6"`,
// `"all"`, or `"none"`. "all" expands to [0, numCPU). "none" and "" both
// yield an empty set (no pinning).
func ParseCoreSet(spec string, numCPU int) ([]int, error) {
	spec = strings.TrimSpace(spec)
	switch spec {
	case "", "none":
		return nil, nil
	case "all":
		cores := make([]int, numCPU)
		for i := range cores {
			cores[i] = i
		}
		return cores, nil
	}

	var cores []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			loN, err := strconv.Atoi(lo)
			if err != nil {
				return nil, fmt.Errorf("launcher: invalid core range %q: %w", part, err)
			}
			hiN, err := strconv.Atoi(hi)
			if err != nil {
				return nil, fmt.Errorf("launcher: invalid core range %q: %w", part, err)
			}
			for c := loN; c <= hiN; c++ {
				cores = append(cores, c)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("launcher: invalid core %q: %w", part, err)
		}
		cores = append(cores, n)
	}
	return cores, nil
}
