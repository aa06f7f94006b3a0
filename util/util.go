package util

import (
	"fmt"
	"log/slog"
)

// Debug is the current verbosity; DPrintf emits messages at or below it.
var Debug uint64 = 1

func DPrintf(level uint64, format string, a ...interface{}) {
	if level <= Debug {
		slog.Debug(fmt.Sprintf(format, a...))
	}
}

func RoundUp(n int32, sz int32) int32 {
	return (n + sz - 1) / sz
}

func Min(n int32, m int32) int32 {
	if n < m {
		return n
	} else {
		return m
	}
}
