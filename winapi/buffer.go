//go:build windows

package winapi

import (
	"syscall"

	"golang.org/x/text/encoding/unicode"
)

// utf16Decoder turns little-endian UTF-16 (what every Evt* render call
// emits) into UTF-8. Grounded on the kolide-launcher power event
// watcher's use of golang.org/x/text/encoding/unicode for the same
// purpose.
var utf16Decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// DecodeUTF16 converts a raw UTF-16LE byte buffer (as returned by
// EvtRender/EvtFormatMessage) to a UTF-8 string, trimming any trailing
// NUL padding left over from a buffer that was larger than the content.
func DecodeUTF16(buf []byte) (string, error) {
	trimmed := buf
	for len(trimmed) >= 2 && trimmed[len(trimmed)-2] == 0 && trimmed[len(trimmed)-1] == 0 {
		trimmed = trimmed[:len(trimmed)-2]
	}
	out, err := utf16Decoder.Bytes(trimmed)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// RenderEventXML renders eventHandle to XML, growing the scratch buffer
// on ERROR_INSUFFICIENT_BUFFER up to record.MaxBufferGrowAttempts times.
// This mirrors the grow-and-retry shape of libbeat's renderXML and the
// teacher's fixed-size w.buf, generalized to never truncate silently.
func RenderEventXML(eventHandle EvtHandle, initialSize int, maxGrowAttempts int) (string, error) {
	buf := make([]byte, initialSize*2)
	for attempt := 0; attempt <= maxGrowAttempts; attempt++ {
		var used, propertyCount uint32
		err := EvtRender(NilHandle, eventHandle, EvtRenderEventXml, buf, &used, &propertyCount)
		if err == nil {
			return DecodeUTF16(buf[:used])
		}
		if errno, ok := err.(syscall.Errno); ok && errno == ErrorInsufficientBuffer {
			buf = growBuffer(buf, int(used))
			continue
		}
		return "", err
	}
	return "", syscall.Errno(ErrorInsufficientBuffer)
}

// FormatEventMessage renders eventHandle's full message text using
// publisherHandle's metadata, growing the buffer the same way
// RenderEventXML does.
func FormatEventMessage(publisherHandle, eventHandle EvtHandle, initialSize int, maxGrowAttempts int) (string, error) {
	buf := make([]byte, initialSize*2)
	for attempt := 0; attempt <= maxGrowAttempts; attempt++ {
		var used uint32
		err := EvtFormatMessage(publisherHandle, eventHandle, 0, 0, EvtFormatMessageEvent, buf, &used)
		if err == nil {
			return DecodeUTF16(buf[:used*2])
		}
		if errno, ok := err.(syscall.Errno); ok && errno == ErrorInsufficientBuffer {
			buf = growBuffer(buf, int(used)*2)
			continue
		}
		return "", err
	}
	return "", syscall.Errno(ErrorInsufficientBuffer)
}

func growBuffer(buf []byte, required int) []byte {
	next := len(buf) * 2
	if required > next {
		next = required
	}
	return make([]byte, next)
}
