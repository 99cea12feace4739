package cache

import (
	"runtime"
	"strings"
)

// OriginSuffix is appended to a caller's source file to form its default
// library path.
const OriginSuffix = ".il"

const modulePath = "github.com/tinyrange/il"

// CallerOrigin returns the default library path for the first caller outside
// this module: that caller's source file with OriginSuffix appended. Test
// files of this module count as callers.
func CallerOrigin() string {
	return callerOrigin(modulePath)
}

func callerOrigin(internalPrefix string) string {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var last string
	for {
		frame, more := frames.Next()
		if frame.File != "" {
			last = frame.File
			if !isInternalFrame(frame, internalPrefix) {
				return frame.File + OriginSuffix
			}
		}
		if !more {
			break
		}
	}
	return last + OriginSuffix
}

func isInternalFrame(frame runtime.Frame, prefix string) bool {
	if strings.HasSuffix(frame.File, "_test.go") {
		return false
	}
	fn := frame.Function
	if fn == prefix || strings.HasPrefix(fn, prefix+".") || strings.HasPrefix(fn, prefix+"/") {
		return true
	}
	return false
}
