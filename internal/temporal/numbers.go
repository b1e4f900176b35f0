package temporal

import (
	"regexp"
	"strconv"
	"strings"
)

var units = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
	"eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
	"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18,
	"nineteen": 19, "couple": 2, "couple of": 2,
}

var tens = map[string]int{"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50, "sixty": 60}

var (
	compoundRe = regexp.MustCompile(`\b(twenty|thirty|forty|fifty)[- ](one|two|three|four|five|six|seven|eight|nine)\b`)
	tensRe     = regexp.MustCompile(`\b(twenty|thirty|forty|fifty|sixty)\b`)
	unitsRe    = regexp.MustCompile(`\b(a couple of|couple of|zero|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen)\b`)
)

// normalizeNumbers rewrites number words as digits so "two hours ago" and
// "2 hours ago" take the same path.
func normalizeNumbers(s string) string {
	s = compoundRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := strings.FieldsFunc(m, func(r rune) bool { return r == '-' || r == ' ' })
		return strconv.Itoa(tens[parts[0]] + units[parts[1]])
	})
	s = tensRe.ReplaceAllStringFunc(s, func(m string) string { return strconv.Itoa(tens[m]) })
	return unitsRe.ReplaceAllStringFunc(s, func(m string) string {
		return strconv.Itoa(units[strings.TrimPrefix(m, "a ")])
	})
}
