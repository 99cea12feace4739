package abi

import (
	"errors"
	"math"
	"reflect"
	"runtime"
	"testing"
	"unsafe"

	"github.com/tinyrange/il/internal/execmem"
	"github.com/tinyrange/il/internal/testutil"
)

func TestPrototypeString(t *testing.T) {
	p := Proto(Int32, Int32, Int32)
	if got, want := p.String(), "int32(int32, int32)"; got != want {
		t.Fatalf("String=%q, want %q", got, want)
	}
	if got, want := Proto(Void).String(), "void()"; got != want {
		t.Fatalf("String=%q, want %q", got, want)
	}
}

func TestPrototypeFuncType(t *testing.T) {
	ft, err := Proto(Float64, Pointer, Uint8).FuncType()
	if err != nil {
		t.Fatal(err)
	}
	want := reflect.TypeFor[func(unsafe.Pointer, uint8) float64]()
	if ft != want {
		t.Fatalf("FuncType=%v, want %v", ft, want)
	}

	ft, err = Proto(Void, Int64).FuncType()
	if err != nil {
		t.Fatal(err)
	}
	if ft != reflect.TypeFor[func(int64)]() {
		t.Fatalf("FuncType=%v, want func(int64)", ft)
	}
}

func TestPrototypeValidate(t *testing.T) {
	for _, p := range []Prototype{
		Proto(Int32, Void),
		Proto(Kind(200)),
		{Result: Int32, Params: make([]Kind, maxParams+1)},
	} {
		if err := p.Validate(); !errors.Is(err, ErrUnsupportedPrototype) {
			t.Fatalf("Validate(%v)=%v, want ErrUnsupportedPrototype", p, err)
		}
	}
}

func TestPrototypeOf(t *testing.T) {
	p, err := PrototypeOf(reflect.TypeFor[func(int32, *uint64, float32) uintptr]())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.String(), "uintptr(int32, pointer, float32)"; got != want {
		t.Fatalf("PrototypeOf=%q, want %q", got, want)
	}

	for _, ft := range []reflect.Type{
		reflect.TypeFor[int](),
		reflect.TypeFor[func(string)](),
		reflect.TypeFor[func() (int32, int32)](),
		reflect.TypeFor[func(...int32)](),
	} {
		if _, err := PrototypeOf(ft); !errors.Is(err, ErrUnsupportedPrototype) {
			t.Fatalf("PrototypeOf(%v)=%v, want ErrUnsupportedPrototype", ft, err)
		}
	}
}

func TestConvertArg(t *testing.T) {
	v, err := convertArg(-2, Int32)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.Interface(); got != int32(-2) {
		t.Fatalf("convertArg=%#v, want int32(-2)", got)
	}

	for _, tc := range []struct {
		arg  any
		kind Kind
		want any
	}{
		{uint8(200), Int16, int16(200)},
		{int64(math.MinInt32), Int32, int32(math.MinInt32)},
		{uint(math.MaxUint32), Uint32, uint32(math.MaxUint32)},
		{3, Float64, float64(3)},
		{1.5, Float32, float32(1.5)},
	} {
		v, err := convertArg(tc.arg, tc.kind)
		if err != nil {
			t.Fatalf("convertArg(%#v, %v) failed: %v", tc.arg, tc.kind, err)
		}
		if got := v.Interface(); got != tc.want {
			t.Fatalf("convertArg(%#v, %v)=%#v, want %#v", tc.arg, tc.kind, got, tc.want)
		}
	}

	x := uint32(7)
	v, err = convertArg(&x, Pointer)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.Interface().(unsafe.Pointer); got != unsafe.Pointer(&x) {
		t.Fatalf("pointer argument changed address")
	}

	for _, tc := range []struct {
		arg  any
		kind Kind
	}{
		{"1", Int32},
		{nil, Int64},
		{1, Bool},
		{true, Float64},
		{3, Pointer},
		{1.9, Int32},
		{float32(2), Uint8},
		{int64(1<<32 + 5), Int32},
		{-1, Uint32},
		{uint64(math.MaxUint64), Int64},
		{300, Uint8},
		{math.MaxFloat64, Float32},
	} {
		if _, err := convertArg(tc.arg, tc.kind); !errors.Is(err, ErrArgument) {
			t.Fatalf("convertArg(%#v, %v)=%v, want ErrArgument", tc.arg, tc.kind, err)
		}
	}
}

func TestFamilyRegisters(t *testing.T) {
	if got := Win64.IntegerArgs()[0]; got != "rcx" {
		t.Fatalf("Win64 first argument=%s, want rcx", got)
	}
	if got := SystemV.IntegerArgs()[0]; got != "rdi" {
		t.Fatalf("SystemV first argument=%s, want rdi", got)
	}
	want := SystemV
	if runtime.GOOS == "windows" {
		want = Win64
	}
	if got := ActiveFamily(); got != want {
		t.Fatalf("ActiveFamily=%v, want %v", got, want)
	}
}

func loadCode(t *testing.T, code []byte) uintptr {
	t.Helper()
	block, err := execmem.Load(code)
	if errors.Is(err, execmem.ErrUnsupportedPlatform) {
		t.Skip(err)
	}
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return block.Addr
}

func TestBindZeroEntry(t *testing.T) {
	if _, err := Bind(0, Proto(Void)); !errors.Is(err, ErrUnsupportedPrototype) {
		t.Fatalf("Bind(0)=%v, want ErrUnsupportedPrototype", err)
	}
}

func TestBindAddInt32(t *testing.T) {
	entry := loadCode(t, testutil.AddInt32())

	fn, err := Bind(entry, Proto(Int32, Int32, Int32))
	if errors.Is(err, ErrUnsupportedPlatform) {
		t.Skip(err)
	}
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if fn.Entry() != entry {
		t.Fatalf("Entry=0x%x, want 0x%x", fn.Entry(), entry)
	}

	got, err := fn.Call(int32(1), int32(-2))
	if err != nil {
		t.Fatal(err)
	}
	if got != int32(-1) {
		t.Fatalf("add(1, -2)=%#v, want int32(-1)", got)
	}

	got, err = fn.Call(43, -1)
	if err != nil {
		t.Fatal(err)
	}
	if got != int32(42) {
		t.Fatalf("add(43, -1)=%#v, want int32(42)", got)
	}

	typed := fn.Interface().(func(int32, int32) int32)
	if got := typed(math.MaxInt32, 1); got != math.MinInt32 {
		t.Fatalf("add(MaxInt32, 1)=%d, want wraparound", got)
	}

	if _, err := fn.Call(1); !errors.Is(err, ErrArgument) {
		t.Fatalf("Call with one argument err=%v, want ErrArgument", err)
	}
	if got, err := fn.Call(int64(1<<32+5), 1.9); !errors.Is(err, ErrArgument) {
		t.Fatalf("Call(1<<32+5, 1.9)=%v, %v, want ErrArgument", got, err)
	}
}

func TestBindToTypedFunc(t *testing.T) {
	entry := loadCode(t, testutil.AddInt32())

	var add func(int32, int32) int32
	err := BindTo(&add, entry)
	if errors.Is(err, ErrUnsupportedPlatform) {
		t.Skip(err)
	}
	if err != nil {
		t.Fatalf("BindTo failed: %v", err)
	}
	if got := add(43, -1); got != 42 {
		t.Fatalf("add(43, -1)=%d, want 42", got)
	}

	var bad int
	if err := BindTo(&bad, entry); !errors.Is(err, ErrUnsupportedPrototype) {
		t.Fatalf("BindTo(*int)=%v, want ErrUnsupportedPrototype", err)
	}
}

func TestBindFloat64(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("floating point arguments are not marshalled on windows")
	}
	entry := loadCode(t, testutil.AddFloat64())

	fn, err := Bind(entry, Proto(Float64, Float64, Float64))
	if errors.Is(err, ErrUnsupportedPlatform) {
		t.Skip(err)
	}
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	got, err := fn.Call(1.5, 2.25)
	if err != nil {
		t.Fatal(err)
	}
	if got != 3.75 {
		t.Fatalf("addsd(1.5, 2.25)=%#v, want 3.75", got)
	}
}

func TestBindPointerArgument(t *testing.T) {
	entry := loadCode(t, testutil.StoreUint32())

	fn, err := Bind(entry, Proto(Void, Pointer, Uint32))
	if errors.Is(err, ErrUnsupportedPlatform) {
		t.Skip(err)
	}
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	var target uint32
	got, err := fn.Call(&target, uint32(0xfeedbead))
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("void routine returned %#v", got)
	}
	if target != 0xfeedbead {
		t.Fatalf("target=0x%x, want 0xfeedbead", target)
	}

	buf := make([]uint32, 4)
	if _, err := fn.Call(buf, uint32(9)); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 9 {
		t.Fatalf("buf[0]=%d, want 9", buf[0])
	}
}
