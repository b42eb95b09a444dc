package machine

import (
	"fmt"

	"github.com/corvid-lang/corvid/lang/object"
)

// displayString renders v the way PRINT/PRINTLN/PRINTQ do: no quoting of
// top-level strings, matching object.Value's own String() convention (§6
// "Printing").
func displayString(v object.Value) string { return v.String() }

// PrintFlag selects printValue's rendering mode (§6 "Printing").
type PrintFlag uint8

const (
	// FlagMachine quotes strings, producing output that round-trips as a
	// source literal.
	FlagMachine PrintFlag = 1 << iota
	// FlagCompact elides instance fields and list contents, useful for
	// trace/debug output where a deep structure would otherwise flood it.
	FlagCompact
)

// FormatValue implements printValue(value, flags): the general-purpose
// renderer used by the --trace output, as distinct from the
// plain PRINT/PRINTLN opcodes' displayString.
func FormatValue(v object.Value, flags PrintFlag) string {
	switch o := v.(type) {
	case *object.String:
		if flags&FlagMachine != 0 {
			return fmt.Sprintf("%q", o.Val)
		}
		return o.Val
	case *object.List:
		if flags&FlagCompact != 0 {
			return "[...]"
		}
		s := "["
		for i, item := range o.Items {
			if i > 0 {
				s += ", "
			}
			s += FormatValue(item, flags)
		}
		return s + "]"
	case *object.Instance:
		if flags&FlagCompact != 0 {
			return fmt.Sprintf("<%s instance>", o.Class.Name)
		}
		s := fmt.Sprintf("<%s instance {", o.Class.Name)
		first := true
		o.Fields.ForEach(func(k string, fv object.Value) bool {
			if !first {
				s += ", "
			}
			first = false
			s += k + ": " + FormatValue(fv, flags)
			return true
		})
		return s + "}>"
	default:
		return v.String()
	}
}
