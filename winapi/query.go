//go:build windows

package winapi

import "syscall"

// Query opens an EvtQuery result set against either a live channel or an
// .evtx file, depending on flags. path is the channel name or file path;
// xpath is the XPath predicate (see reader.BuildXPath).
func Query(path, xpath string, flags EvtQueryFlag) (EvtHandle, error) {
	pathPtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return NilHandle, err
	}
	var xpathPtr *uint16
	if xpath != "" {
		xpathPtr, err = syscall.UTF16PtrFromString(xpath)
		if err != nil {
			return NilHandle, err
		}
	}
	return EvtQuery(NilHandle, pathPtr, xpathPtr, flags)
}

// OpenPublisherMetadata opens (and the caller must Close) a handle to a
// publisher's metadata, used to format localized message text.
func OpenPublisherMetadata(publisherName string, locale uint32) (EvtHandle, error) {
	p, err := syscall.UTF16PtrFromString(publisherName)
	if err != nil {
		return NilHandle, err
	}
	return EvtOpenPublisherMetadata(NilHandle, p, nil, locale)
}
