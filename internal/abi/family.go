package abi

import "runtime"

// Family is a platform calling convention.
type Family int

const (
	// SystemV is the System V AMD64 ABI used by Linux, macOS and the BSDs.
	SystemV Family = iota
	// Win64 is the Microsoft x64 convention used by Windows and UEFI.
	Win64
)

// ActiveFamily returns the convention in force for the running process.
func ActiveFamily() Family {
	if runtime.GOOS == "windows" {
		return Win64
	}
	return SystemV
}

func (f Family) String() string {
	switch f {
	case SystemV:
		return "System V AMD64"
	case Win64:
		return "Microsoft x64"
	default:
		return "unknown"
	}
}

// IntegerArgs lists the registers carrying the leading integer and pointer
// arguments. Further arguments go on the stack.
func (f Family) IntegerArgs() []string {
	if f == Win64 {
		return []string{"rcx", "rdx", "r8", "r9"}
	}
	return []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}
}

// FloatArgs lists the registers carrying the leading floating point
// arguments.
func (f Family) FloatArgs() []string {
	if f == Win64 {
		return []string{"xmm0", "xmm1", "xmm2", "xmm3"}
	}
	return []string{"xmm0", "xmm1", "xmm2", "xmm3", "xmm4", "xmm5", "xmm6", "xmm7"}
}

// CalleeSaved lists the registers a routine must restore before returning.
func (f Family) CalleeSaved() []string {
	if f == Win64 {
		return []string{"rbx", "rbp", "rdi", "rsi", "rsp", "r12", "r13", "r14", "r15"}
	}
	return []string{"rbx", "rbp", "r12", "r13", "r14", "r15"}
}

// IntegerResult is the register holding integer and pointer results;
// floating point results are returned in xmm0.
func (f Family) IntegerResult() string { return "rax" }
