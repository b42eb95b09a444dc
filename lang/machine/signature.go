package machine

import (
	"fmt"
	"unicode"

	"github.com/corvid-lang/corvid/lang/object"
)

// checkSignature implements the native signature mini-language (§6 "Native
// signature mini-language"): one character per parameter, uppercase
// required / lowercase optional (trailing only), arity checked as
// minCount <= len(args) <= maxCount, then each provided argument's type
// letter checked against its Value kind.
func checkSignature(sig string, args []object.Value) error {
	minCount := 0
	for _, r := range sig {
		if unicode.IsUpper(r) {
			minCount++
		}
	}
	maxCount := len([]rune(sig))
	if len(args) < minCount || len(args) > maxCount {
		if minCount == maxCount {
			return fmt.Errorf("expected %d arguments but got %d", minCount, len(args))
		}
		return fmt.Errorf("expected %d to %d arguments but got %d", minCount, maxCount, len(args))
	}

	letters := []rune(sig)
	for i, arg := range args {
		letter := unicode.ToUpper(letters[i])
		if !matchesKind(letter, arg) {
			return fmt.Errorf("argument %d: expected %s, got %s", i+1, kindLetterName(letter), object.KindName(arg))
		}
	}
	return nil
}

func matchesKind(letter rune, v object.Value) bool {
	switch letter {
	case 'A':
		return true
	case 'N':
		_, isInt := v.(object.Int)
		_, isReal := v.(*object.Real)
		return isInt || isReal
	case 'S':
		_, ok := v.(*object.String)
		return ok
	case 'L':
		_, ok := v.(*object.List)
		return ok
	case 'Q':
		_, isStr := v.(*object.String)
		_, isList := v.(*object.List)
		return isStr || isList
	case 'B':
		_, ok := v.(object.Bool)
		return ok
	case 'I':
		_, ok := v.(*object.Instance)
		return ok
	default:
		return false
	}
}

func kindLetterName(letter rune) string {
	switch letter {
	case 'A':
		return "any"
	case 'N':
		return "number"
	case 'S':
		return "string"
	case 'L':
		return "list"
	case 'Q':
		return "string or list"
	case 'B':
		return "bool"
	case 'I':
		return "instance"
	default:
		return "unknown"
	}
}
