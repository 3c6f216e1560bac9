// Package memzero wipes secret key material held in byte slices.
package memzero

import "runtime"

// Zero overwrites b with zeros. It is safe to defer on a nil slice.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// ZeroAll wipes every slice in bs.
func ZeroAll(bs ...[]byte) {
	for _, b := range bs {
		Zero(b)
	}
}
