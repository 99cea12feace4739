package abi

import (
	"fmt"
	"math"
	"reflect"
	"runtime"
	"unsafe"
)

// Func is a native routine bound to a prototype.
type Func struct {
	entry uintptr
	proto Prototype
	fn    reflect.Value
}

// Bind returns a Func that calls the routine at entry with proto.
func Bind(entry uintptr, proto Prototype) (*Func, error) {
	if entry == 0 {
		return nil, fmt.Errorf("%w: zero entry address", ErrUnsupportedPrototype)
	}
	ft, err := proto.FuncType()
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(ft)
	if err := register(ptr.Interface(), entry); err != nil {
		return nil, fmt.Errorf("bind %v at 0x%x: %w", proto, entry, err)
	}
	return &Func{
		entry: entry,
		proto: Proto(proto.Result, proto.Params...),
		fn:    ptr.Elem(),
	}, nil
}

// BindTo makes the func variable fptr points to call the routine at entry,
// using the variable's Go type as the prototype.
func BindTo(fptr any, entry uintptr) error {
	if entry == 0 {
		return fmt.Errorf("%w: zero entry address", ErrUnsupportedPrototype)
	}
	if _, err := FuncPrototype(fptr); err != nil {
		return err
	}
	return register(fptr, entry)
}

// FuncPrototype returns the prototype of the func variable fptr points to.
func FuncPrototype(fptr any) (Prototype, error) {
	v := reflect.ValueOf(fptr)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Func {
		return Prototype{}, fmt.Errorf("%w: %T is not a pointer to a func", ErrUnsupportedPrototype, fptr)
	}
	return PrototypeOf(v.Elem().Type())
}

// Call invokes the routine. Arguments are converted to the declared
// parameter kinds and rejected when that would narrow them; the result has the Go type of the declared result kind,
// or is nil for Void.
func (f *Func) Call(args ...any) (any, error) {
	if f == nil || !f.fn.IsValid() {
		panic("abi.Func: call on zero value")
	}
	if len(args) != len(f.proto.Params) {
		return nil, fmt.Errorf("%w: %v takes %d arguments, got %d", ErrArgument, f.proto, len(f.proto.Params), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := convertArg(arg, f.proto.Params[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}

	out := f.fn.Call(in)
	runtime.KeepAlive(args)

	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// Entry returns the address of the routine.
func (f *Func) Entry() uintptr { return f.entry }

// Prototype returns the prototype the routine was bound with.
func (f *Func) Prototype() Prototype { return Proto(f.proto.Result, f.proto.Params...) }

// Interface returns the typed Go func value, suitable for a type assertion
// such as fn.Interface().(func(int32, int32) int32).
func (f *Func) Interface() any { return f.fn.Interface() }

func convertArg(arg any, k Kind) (reflect.Value, error) {
	if k == Pointer {
		p, err := pointerArg(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(p), nil
	}

	v := reflect.ValueOf(arg)
	if !v.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: nil for %v parameter", ErrArgument, k)
	}
	if k == Bool {
		if v.Kind() != reflect.Bool {
			return reflect.Value{}, fmt.Errorf("%w: %T for bool parameter", ErrArgument, arg)
		}
		return v.Convert(k.Type()), nil
	}
	if err := checkRange(v, k); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrArgument, err)
	}
	return v.Convert(k.Type()), nil
}

// checkRange rejects numbers that would be narrowed when passed as k.
// Floats are never accepted for integer kinds.
func checkRange(v reflect.Value, k Kind) error {
	target := reflect.New(k.Type()).Elem()
	switch {
	case v.CanInt():
		x := v.Int()
		switch {
		case target.CanInt():
			if target.OverflowInt(x) {
				return fmt.Errorf("%d overflows %v", x, k)
			}
		case target.CanUint():
			if x < 0 || target.OverflowUint(uint64(x)) {
				return fmt.Errorf("%d overflows %v", x, k)
			}
		}
		return nil
	case v.CanUint():
		x := v.Uint()
		switch {
		case target.CanInt():
			if x > math.MaxInt64 || target.OverflowInt(int64(x)) {
				return fmt.Errorf("%d overflows %v", x, k)
			}
		case target.CanUint():
			if target.OverflowUint(x) {
				return fmt.Errorf("%d overflows %v", x, k)
			}
		}
		return nil
	case v.CanFloat():
		if !target.CanFloat() {
			return fmt.Errorf("%v for %v parameter", v.Type(), k)
		}
		if target.OverflowFloat(v.Float()) {
			return fmt.Errorf("%v overflows %v", v.Float(), k)
		}
		return nil
	}
	return fmt.Errorf("%v for %v parameter", v.Type(), k)
}

func pointerArg(arg any) (unsafe.Pointer, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case unsafe.Pointer:
		return v, nil
	case uintptr:
		return unsafe.Pointer(v), nil
	}

	val := reflect.ValueOf(arg)
	switch val.Kind() {
	case reflect.Pointer, reflect.UnsafePointer:
		return val.UnsafePointer(), nil
	case reflect.Slice:
		if val.Len() == 0 {
			return nil, nil
		}
		return val.UnsafePointer(), nil
	}
	return nil, fmt.Errorf("%w: %T for pointer parameter", ErrArgument, arg)
}
