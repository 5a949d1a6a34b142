package appstate

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID parses the current goroutine's id from its stack header,
// "goroutine 42 [running]:". It tells re-entrant commits from concurrent ones.
func goroutineID() uint64 {
	var buf [64]byte
	header := buf[:runtime.Stack(buf[:], false)]
	header = bytes.TrimPrefix(header, []byte("goroutine "))
	if i := bytes.IndexByte(header, ' '); i >= 0 {
		header = header[:i]
	}
	id, err := strconv.ParseUint(string(header), 10, 64)
	if err != nil {
		panic("appstate: cannot parse goroutine id: " + err.Error())
	}
	return id
}
