// Package testutil holds helpers shared by tests: synthetic object files,
// external tool lookup and hand-encoded x86-64 routines.
package testutil

import "encoding/binary"

const (
	// MachineX86_64 is the ELF e_machine value for AMD64.
	MachineX86_64 = 62
	// MachineAArch64 is the ELF e_machine value for AArch64.
	MachineAArch64 = 183
)

// ELFObject wraps code in a minimal relocatable ELF64 object with a .text
// section followed by a .data section holding data, so extractors can be
// checked for picking the right section.
func ELFObject(code, data []byte, machine uint16) []byte {
	const (
		elfHeaderSize = 64
		sectionCount  = 4 // null, .text, .data, .shstrtab
		secHeaderSize = 64
		textAlign     = 16
	)

	shstr := []byte("\x00.text\x00.data\x00.shstrtab\x00")
	const (
		textName  = 1
		dataName  = 7
		shstrName = 13
	)

	textOffset := elfHeaderSize
	dataOffset := align(textOffset+len(code), textAlign)
	shstrOffset := align(dataOffset+len(data), 8)
	sectionOffset := align(shstrOffset+len(shstr), 8)
	totalSize := sectionOffset + sectionCount*secHeaderSize

	buf := make([]byte, totalSize)
	copy(buf[textOffset:], code)
	copy(buf[dataOffset:], data)
	copy(buf[shstrOffset:], shstr)

	ident := buf[:16]
	copy(ident, "\x7fELF")
	ident[4] = 2 // 64-bit
	ident[5] = 1 // little endian
	ident[6] = 1 // current version

	binary.LittleEndian.PutUint16(buf[16:], 1) // ET_REL
	binary.LittleEndian.PutUint16(buf[18:], machine)
	binary.LittleEndian.PutUint32(buf[20:], 1)
	binary.LittleEndian.PutUint64(buf[40:], uint64(sectionOffset)) // e_shoff
	binary.LittleEndian.PutUint16(buf[52:], elfHeaderSize)
	binary.LittleEndian.PutUint16(buf[58:], secHeaderSize)
	binary.LittleEndian.PutUint16(buf[60:], sectionCount)
	binary.LittleEndian.PutUint16(buf[62:], 3) // e_shstrndx

	shdr := buf[sectionOffset:]
	putSection(shdr[1*secHeaderSize:], textName, 1, 0x6, textOffset, len(code), textAlign) // SHT_PROGBITS, AX
	putSection(shdr[2*secHeaderSize:], dataName, 1, 0x3, dataOffset, len(data), 8)         // SHT_PROGBITS, WA
	putSection(shdr[3*secHeaderSize:], shstrName, 3, 0, shstrOffset, len(shstr), 1)        // SHT_STRTAB

	return buf
}

func putSection(sh []byte, name, typ uint32, flags uint64, offset, size int, alignment uint64) {
	binary.LittleEndian.PutUint32(sh[0:], name)
	binary.LittleEndian.PutUint32(sh[4:], typ)
	binary.LittleEndian.PutUint64(sh[8:], flags)
	binary.LittleEndian.PutUint64(sh[24:], uint64(offset))
	binary.LittleEndian.PutUint64(sh[32:], uint64(size))
	binary.LittleEndian.PutUint64(sh[48:], alignment)
}

func align(value int, boundary int) int {
	if boundary <= 0 {
		return value
	}
	rem := value % boundary
	if rem == 0 {
		return value
	}
	return value + boundary - rem
}
