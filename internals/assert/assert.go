package assert

import "fmt"

// Assert panics with msg when condition does not hold.
func Assert(condition bool, msg string, other ...any) {
	if !condition {
		if len(other) > 0 {
			panic(fmt.Sprint(append([]any{msg, " "}, other...)...))
		}
		panic(msg)
	}
}

func AssertNil(value any, msg string, other ...any) {
	if value != nil {
		Assert(false, msg, append([]any{value}, other...)...)
	}
}
