//go:build windows

package enum

import (
	"syscall"

	"github.com/corvidsec/eventsleuth/record"
	"github.com/corvidsec/eventsleuth/winapi"
)

// Windows enumerates every channel registered with the Event Log
// service, grounded on the libbeat wineventlog package's Channels()
// (other_examples/…njcx-libbeat_v8…wineventlog_windows.go): open an
// enumerator handle, pull paths with a growable UTF-16 buffer, stop at
// ERROR_NO_MORE_ITEMS.
type Windows struct{}

func (Windows) Enumerate() ([]string, error) {
	handle, err := winapi.EvtOpenChannelEnum(winapi.NilHandle)
	if err != nil {
		return nil, &record.ChannelEnumError{Context: "EvtOpenChannelEnum", Cause: err}
	}
	guard := winapi.NewGuard(handle)
	defer guard.Close()

	var channels []string
	buf := make([]uint16, 512)
	for {
		var used uint32
		err := winapi.EvtNextChannelPath(handle, buf, &used)
		if err != nil {
			errno, ok := err.(syscall.Errno)
			if ok && errno == winapi.ErrorInsufficientBuffer {
				newLen := len(buf) * 2
				if int(used) > newLen {
					newLen = int(used)
				}
				buf = make([]uint16, newLen)
				continue
			}
			if ok && errno == winapi.ErrorNoMoreItems {
				break
			}
			return nil, &record.ChannelEnumError{Context: "EvtNextChannelPath", Cause: err}
		}
		channels = append(channels, syscall.UTF16ToString(buf[:used]))
	}

	return normalize(channels), nil
}
