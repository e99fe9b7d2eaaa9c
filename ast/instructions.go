package ast

// Built-in runtime instructions. These names compile directly to runtime
// calls; the parser classifies a bare identifier matching one of them as an
// Instruction node rather than an Identifier.
var builtinInstructions = []string{
	// Comparison operators (also available as symbols)
	"!=", "<", "<=", "==", ">", ">=",
	// Arithmetic operators (also available as symbols)
	"%", "*", "+", "-", ".", "/",
	// Arithmetic instructions
	"add", "dec", "div", "inc", "mod", "mul", "neg", "sub",
	// Logical operations
	"eq", "gt", "gte", "lt", "lte", "neq", "within",
	// Stack operations
	"call", "clear", "depth", "drop", "drop2", "dup", "dup2", "dupd",
	"nip", "nipd", "over", "over2", "overd", "pick", "roll", "rot",
	"swap", "swap2", "swapd", "tuck",
	// Type casting
	"castf", "casti", "casts",
	// I/O
	"nl", "print", "prints", "printsv", "printv", "read",
	// Threading
	"detach", "spawn", "wait",
	// Error handling
	"error",
}

// Extended instruction list for semantic validation: builtins plus commonly
// imported library functions, so validating standard library modules does not
// produce false "undefined function" reports.
var validatorInstructions = append([]string{
	// Math library functions
	"abs", "acos", "asin", "atan", "cb", "cbrt", "ceil", "cos", "fac",
	"floor", "inv", "ln", "log10", "max", "min", "pow", "round", "sin",
	"sq", "sqrt", "tan",
	// Logical/bitwise operations
	"and", "lshift", "not", "or", "rshift", "xor",
}, builtinInstructions...)

var builtinSet = toSet(builtinInstructions)
var validatorSet = toSet(validatorInstructions)

func toSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// IsBuiltinInstruction reports whether name is a built-in runtime
// instruction (used by the parser).
func IsBuiltinInstruction(name string) bool {
	_, ok := builtinSet[name]
	return ok
}

// IsKnownInstruction reports whether name is a builtin or a known library
// function (used by the semantic validator).
func IsKnownInstruction(name string) bool {
	_, ok := validatorSet[name]
	return ok
}

// BuiltinInstructions returns the built-in instruction names.
func BuiltinInstructions() []string {
	out := make([]string, len(builtinInstructions))
	copy(out, builtinInstructions)
	return out
}
