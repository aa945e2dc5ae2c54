package matching

import "fmt"

// Pluralize formats a count with the matching noun form, e.g. "3 products".
func Pluralize(singular string, plural string, count int) string {
	var s string
	if count == 1 {
		s = singular
	} else {
		s = plural
	}
	return fmt.Sprintf("%d %s", count, s)
}
