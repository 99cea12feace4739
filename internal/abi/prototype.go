// Package abi binds loaded machine code to Go function values.
//
// Arguments are marshalled with the C calling convention of the running
// platform (see Family). The code being called must already follow that
// convention; nothing here checks it.
package abi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unsafe"
)

var (
	// ErrUnsupportedPrototype is returned for a prototype that cannot be bound.
	ErrUnsupportedPrototype = errors.New("unsupported prototype")
	// ErrArgument is returned by Func.Call for arguments the prototype
	// cannot accept.
	ErrArgument = errors.New("invalid call argument")
	// ErrUnsupportedPlatform is returned where native calls are not available.
	ErrUnsupportedPlatform = errors.New("native calls are not supported on this platform")
)

// maxParams is the largest argument count the native call path accepts.
const maxParams = 15

// Kind is the type of a parameter or return value.
type Kind uint8

const (
	Void Kind = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Uintptr
	Float32
	Float64
	Pointer
)

var kindInfo = [...]struct {
	name string
	typ  reflect.Type
}{
	Void:    {"void", nil},
	Bool:    {"bool", reflect.TypeFor[bool]()},
	Int8:    {"int8", reflect.TypeFor[int8]()},
	Int16:   {"int16", reflect.TypeFor[int16]()},
	Int32:   {"int32", reflect.TypeFor[int32]()},
	Int64:   {"int64", reflect.TypeFor[int64]()},
	Uint8:   {"uint8", reflect.TypeFor[uint8]()},
	Uint16:  {"uint16", reflect.TypeFor[uint16]()},
	Uint32:  {"uint32", reflect.TypeFor[uint32]()},
	Uint64:  {"uint64", reflect.TypeFor[uint64]()},
	Uintptr: {"uintptr", reflect.TypeFor[uintptr]()},
	Float32: {"float32", reflect.TypeFor[float32]()},
	Float64: {"float64", reflect.TypeFor[float64]()},
	Pointer: {"pointer", reflect.TypeFor[unsafe.Pointer]()},
}

func (k Kind) valid() bool { return int(k) < len(kindInfo) }

func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindInfo[k].name
}

// Type returns the Go type values of this kind are passed as.
func (k Kind) Type() reflect.Type {
	if !k.valid() {
		return nil
	}
	return kindInfo[k].typ
}

// KindOf returns the Kind for a Go type.
func KindOf(t reflect.Type) (Kind, bool) {
	for k, info := range kindInfo {
		if info.typ == t {
			return Kind(k), true
		}
	}
	if t.Kind() == reflect.Pointer {
		return Pointer, true
	}
	return Void, false
}

// Prototype declares the parameters and result of a native routine.
type Prototype struct {
	Result Kind
	Params []Kind
}

// Proto builds a prototype with the result first, in the order of a C
// function type.
func Proto(result Kind, params ...Kind) Prototype {
	return Prototype{Result: result, Params: append([]Kind(nil), params...)}
}

// PrototypeOf derives a prototype from a Go func type.
func PrototypeOf(fnType reflect.Type) (Prototype, error) {
	if fnType == nil || fnType.Kind() != reflect.Func {
		return Prototype{}, fmt.Errorf("%w: %v is not a func type", ErrUnsupportedPrototype, fnType)
	}
	if fnType.IsVariadic() {
		return Prototype{}, fmt.Errorf("%w: variadic %v", ErrUnsupportedPrototype, fnType)
	}
	var p Prototype
	for i := 0; i < fnType.NumIn(); i++ {
		k, ok := KindOf(fnType.In(i))
		if !ok {
			return Prototype{}, fmt.Errorf("%w: parameter %d has type %v", ErrUnsupportedPrototype, i, fnType.In(i))
		}
		p.Params = append(p.Params, k)
	}
	switch fnType.NumOut() {
	case 0:
	case 1:
		k, ok := KindOf(fnType.Out(0))
		if !ok {
			return Prototype{}, fmt.Errorf("%w: result has type %v", ErrUnsupportedPrototype, fnType.Out(0))
		}
		p.Result = k
	default:
		return Prototype{}, fmt.Errorf("%w: %d results", ErrUnsupportedPrototype, fnType.NumOut())
	}
	return p, p.Validate()
}

// Validate reports whether the prototype can be bound.
func (p Prototype) Validate() error {
	if !p.Result.valid() {
		return fmt.Errorf("%w: result %v", ErrUnsupportedPrototype, p.Result)
	}
	if len(p.Params) > maxParams {
		return fmt.Errorf("%w: %d parameters, at most %d", ErrUnsupportedPrototype, len(p.Params), maxParams)
	}
	for i, k := range p.Params {
		if !k.valid() || k == Void {
			return fmt.Errorf("%w: parameter %d is %v", ErrUnsupportedPrototype, i, k)
		}
	}
	return nil
}

// FuncType returns the Go func type matching the prototype.
func (p Prototype) FuncType() (reflect.Type, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	in := make([]reflect.Type, len(p.Params))
	for i, k := range p.Params {
		in[i] = k.Type()
	}
	var out []reflect.Type
	if p.Result != Void {
		out = []reflect.Type{p.Result.Type()}
	}
	return reflect.FuncOf(in, out, false), nil
}

func (p Prototype) String() string {
	params := make([]string, len(p.Params))
	for i, k := range p.Params {
		params[i] = k.String()
	}
	return fmt.Sprintf("%s(%s)", p.Result, strings.Join(params, ", "))
}
