package testutil

import "runtime"

// Hand-encoded x86-64 routines for the calling convention of the running
// platform. Windows passes the first integer arguments in RCX, RDX while
// System V uses RDI, RSI.

// AddInt32 returns machine code for int32 add(int32 a, int32 b).
func AddInt32() []byte {
	if runtime.GOOS == "windows" {
		return []byte{
			0x89, 0xc8, // mov eax, ecx
			0x01, 0xd0, // add eax, edx
			0xc3, // ret
		}
	}
	return []byte{
		0x89, 0xf8, // mov eax, edi
		0x01, 0xf0, // add eax, esi
		0xc3, // ret
	}
}

// AddInt32Source returns Intel-syntax GNU assembler source equivalent to
// AddInt32.
func AddInt32Source() string {
	if runtime.GOOS == "windows" {
		return ".intel_syntax noprefix\nmov eax, ecx\nadd eax, edx\nret\n"
	}
	return ".intel_syntax noprefix\nmov eax, edi\nadd eax, esi\nret\n"
}

// AddFloat64 returns machine code for double add(double a, double b). Both
// conventions pass the first two doubles in XMM0 and XMM1.
func AddFloat64() []byte {
	return []byte{
		0xf2, 0x0f, 0x58, 0xc1, // addsd xmm0, xmm1
		0xc3, // ret
	}
}

// StoreUint32 returns machine code for void store(uint32_t *p, uint32_t v).
func StoreUint32() []byte {
	if runtime.GOOS == "windows" {
		return []byte{
			0x89, 0x11, // mov [rcx], edx
			0xc3, // ret
		}
	}
	return []byte{
		0x89, 0x37, // mov [rdi], esi
		0xc3, // ret
	}
}
