package machine

// Config tunes the virtual machine's bounded resources. The env tags name
// environment variables, but nothing in this module parses them: the
// commands in internal/maincmd start from DefaultConfig and set Trace from
// the --trace flag.
type Config struct {
	// StackMax is the operand stack's hard capacity; exceeding it is a
	// runtime "stack overflow" error.
	StackMax int `env:"CORVID_VM_STACK_MAX" envDefault:"4096"`
	// FramesMax is the call-frame array's hard capacity.
	FramesMax int `env:"CORVID_VM_FRAMES_MAX" envDefault:"256"`
	// Trace, when set, prints every instruction and the operand stack to
	// stderr before it executes (the --trace CLI flag).
	Trace bool `env:"CORVID_VM_TRACE" envDefault:"false"`
}

// DefaultConfig returns Config populated with its envDefault values.
func DefaultConfig() Config {
	return Config{StackMax: 4096, FramesMax: 256}
}
