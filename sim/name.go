package sim

import (
	"strconv"
	"strings"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// NameMustBeValid panics if the name does not follow the naming convention.
// There are several rules that a name must follow.
//  1. It must be organized in a hierarchical structure. For example, a name
//     "Net.Pop1" is valid, but "Net.Pop1." is not.
//  2. Individual tokens must not be empty. For example, "Net..Pop1" is not
//     valid.
//  3. Individual tokens must be capitalized CamelCase. For example, "Net.n1"
//     is not valid.
//  4. Elements in a series must use square-bracket notation, as in
//     "Net.Exc[3]".
func NameMustBeValid(name string) {
	defer func() {
		if r := recover(); r != nil {
			panic("Name " + name + " is not valid: " + r.(string))
		}
	}()

	tokens := strings.Split(name, ".")
	for _, token := range tokens {
		nameTokenMustBeValid(token)
	}
}

func nameTokenMustBeValid(token string) {
	bracketMustMatch(token)

	elem := token
	if i := strings.Index(token, "["); i >= 0 {
		elem = token[:i]
		indexPartMustBeValid(token[i:])
	}

	if elem == "" {
		panic("name token must not be empty")
	}

	if elem[0] < 'A' || elem[0] > 'Z' {
		panic("name token must start with a capital letter")
	}

	for _, c := range elem {
		if !isAlphaNumeric(c) {
			panic("name token must be alphanumeric")
		}
	}
}

func indexPartMustBeValid(part string) {
	for _, seg := range strings.Split(part, "[") {
		if seg == "" {
			continue
		}

		if !strings.HasSuffix(seg, "]") {
			panic("name bracket must match")
		}

		if _, err := strconv.Atoi(seg[:len(seg)-1]); err != nil {
			panic("name index must be integer")
		}
	}
}

func bracketMustMatch(name string) {
	open := 0
	for _, c := range name {
		if c == '[' {
			open++
		} else if c == ']' {
			open--
			if open < 0 {
				panic("name bracket must match")
			}
		}
	}

	if open != 0 {
		panic("name bracket must match")
	}
}

func isAlphaNumeric(c rune) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9'
}
