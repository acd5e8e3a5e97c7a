//go:build windows

package reader

import "syscall"

func unwrapErrno(err error) error {
	if _, ok := err.(syscall.Errno); ok {
		return err
	}
	type unwrapper interface{ Unwrap() error }
	for {
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}
		inner := u.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}
