//go:build windows

package winapi

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modwevtapi = windows.NewLazySystemDLL("wevtapi.dll")

	procEvtQuery                 = modwevtapi.NewProc("EvtQuery")
	procEvtNext                  = modwevtapi.NewProc("EvtNext")
	procEvtRender                = modwevtapi.NewProc("EvtRender")
	procEvtClose                 = modwevtapi.NewProc("EvtClose")
	procEvtFormatMessage         = modwevtapi.NewProc("EvtFormatMessage")
	procEvtOpenPublisherMetadata = modwevtapi.NewProc("EvtOpenPublisherMetadata")
	procEvtOpenChannelEnum       = modwevtapi.NewProc("EvtOpenChannelEnum")
	procEvtNextChannelPath       = modwevtapi.NewProc("EvtNextChannelPath")
)

// EvtQuery opens a query against a channel or a .evtx file.
func EvtQuery(session EvtHandle, path, query *uint16, flags EvtQueryFlag) (EvtHandle, error) {
	r, _, err := procEvtQuery.Call(
		uintptr(session),
		uintptr(unsafe.Pointer(path)),
		uintptr(unsafe.Pointer(query)),
		uintptr(flags),
	)
	if r == 0 {
		return NilHandle, err
	}
	return EvtHandle(r), nil
}

// EvtNext fetches up to len(handles) event handles from resultSet.
func EvtNext(resultSet EvtHandle, handles []EvtHandle, timeoutMS uint32, returned *uint32) error {
	r, _, err := procEvtNext.Call(
		uintptr(resultSet),
		uintptr(len(handles)),
		uintptr(unsafe.Pointer(&handles[0])),
		uintptr(timeoutMS),
		0,
		uintptr(unsafe.Pointer(returned)),
	)
	if r == 0 {
		return err
	}
	return nil
}

// EvtRender renders an event's XML into buf.
func EvtRender(context EvtHandle, fragment EvtHandle, flags EvtRenderFlag, buf []byte, used, propertyCount *uint32) error {
	var bufPtr unsafe.Pointer
	if len(buf) > 0 {
		bufPtr = unsafe.Pointer(&buf[0])
	}
	r, _, err := procEvtRender.Call(
		uintptr(context),
		uintptr(fragment),
		uintptr(flags),
		uintptr(len(buf)),
		uintptr(bufPtr),
		uintptr(unsafe.Pointer(used)),
		uintptr(unsafe.Pointer(propertyCount)),
	)
	if r == 0 {
		return err
	}
	return nil
}

// EvtClose releases any handle returned by this package.
func EvtClose(h EvtHandle) error {
	if h == NilHandle {
		return nil
	}
	r, _, err := procEvtClose.Call(uintptr(h))
	if r == 0 {
		return err
	}
	return nil
}

// EvtFormatMessage renders an event's message text using a publisher's
// metadata.
func EvtFormatMessage(publisher, event EvtHandle, messageID uint32, values uintptr, flag uint32, buf []byte, used *uint32) error {
	var bufPtr unsafe.Pointer
	if len(buf) > 0 {
		bufPtr = unsafe.Pointer(&buf[0])
	}
	r, _, err := procEvtFormatMessage.Call(
		uintptr(publisher),
		uintptr(event),
		uintptr(messageID),
		0,
		values,
		uintptr(flag),
		uintptr(len(buf)/2),
		uintptr(bufPtr),
		uintptr(unsafe.Pointer(used)),
	)
	if r == 0 {
		return err
	}
	return nil
}

// EvtOpenPublisherMetadata opens a handle to a publisher's metadata,
// used to format localized message strings.
func EvtOpenPublisherMetadata(session EvtHandle, publisherID *uint16, logFilePath *uint16, locale uint32) (EvtHandle, error) {
	r, _, err := procEvtOpenPublisherMetadata.Call(
		uintptr(session),
		uintptr(unsafe.Pointer(publisherID)),
		uintptr(unsafe.Pointer(logFilePath)),
		uintptr(locale),
		0,
	)
	if r == 0 {
		return NilHandle, err
	}
	return EvtHandle(r), nil
}

// EvtOpenChannelEnum begins enumeration of registered channels.
func EvtOpenChannelEnum(session EvtHandle) (EvtHandle, error) {
	r, _, err := procEvtOpenChannelEnum.Call(uintptr(session), 0)
	if r == 0 {
		return NilHandle, err
	}
	return EvtHandle(r), nil
}

// EvtNextChannelPath advances a channel enumerator, writing the next
// channel path (UTF-16, NUL-terminated) into buf.
func EvtNextChannelPath(enum EvtHandle, buf []uint16, used *uint32) error {
	var bufPtr unsafe.Pointer
	if len(buf) > 0 {
		bufPtr = unsafe.Pointer(&buf[0])
	}
	r, _, err := procEvtNextChannelPath.Call(
		uintptr(enum),
		uintptr(len(buf)),
		uintptr(bufPtr),
		uintptr(unsafe.Pointer(used)),
	)
	if r == 0 {
		return err
	}
	return nil
}
