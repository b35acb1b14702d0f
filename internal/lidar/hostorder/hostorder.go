// Package hostorder reports the byte order of the host running the driver.
//
// Converted point clouds carry their records in host byte order, so the
// outgoing message must advertise which order that is. Detection happens
// once per process and never changes afterwards.
package hostorder

import (
	"encoding/binary"
	"sync"
	"unsafe"
)

var isBigEndian = sync.OnceValue(func() bool {
	dummy := uint16(0x1)
	return probe(*(*[2]byte)(unsafe.Pointer(&dummy)))
})

// probe classifies a 2-byte memory image of the value 0x0001. The host is
// little-endian when the low-order byte sits at the lowest address.
func probe(b [2]byte) bool {
	return b[0] != 0x1
}

// IsBigEndian returns true when the host stores the high-order byte of a
// multi-byte integer at the lowest address.
func IsBigEndian() bool {
	return isBigEndian()
}

// ByteOrder returns the host byte order.
func ByteOrder() binary.ByteOrder {
	if IsBigEndian() {
		return binary.BigEndian
	}
	return binary.LittleEndian
}
