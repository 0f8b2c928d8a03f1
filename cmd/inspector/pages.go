package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// maxPageSpan bounds a single page range. Real documents are far shorter,
// and pages past the document's count are rejected once the folder is open.
const maxPageSpan = 10000

// parsePages parses page arguments such as "3", "1,2" and "4-7" into a
// sorted list of distinct page numbers.
func parsePages(args []string) ([]int, error) {
	seen := make(map[int]bool)
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			first, last, err := pageRange(part)
			if err != nil {
				return nil, err
			}
			for n := first; n <= last; n++ {
				seen[n] = true
			}
		}
	}
	if len(seen) == 0 {
		return nil, errNoPages
	}

	pages := make([]int, 0, len(seen))
	for n := range seen {
		pages = append(pages, n)
	}
	sort.Ints(pages)
	return pages, nil
}

func pageRange(s string) (int, int, error) {
	lo, hi, isRange := strings.Cut(s, "-")
	first, err := pageNumber(lo)
	if err != nil {
		return 0, 0, err
	}
	if !isRange {
		return first, first, nil
	}
	last, err := pageNumber(hi)
	if err != nil {
		return 0, 0, err
	}
	if last < first {
		return 0, 0, fmt.Errorf("invalid page range %q", s)
	}
	if last-first >= maxPageSpan {
		return 0, 0, fmt.Errorf("page range %q spans more than %d pages", s, maxPageSpan)
	}
	return first, last, nil
}

func pageNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid page number %q", s)
	}
	return n, nil
}
