package set

import "sync/atomic"

// Store the concurrent state.
type flagBits struct {
	bits uint32
}

// Bit flag set from 0 to 1.
func (f *flagBits) atomicSet(bits uint32) {
	for {
		old := atomic.LoadUint32(&f.bits)
		if old&bits == bits {
			return
		}
		if atomic.CompareAndSwapUint32(&f.bits, old, old|bits) {
			return
		}
	}
}

func (f *flagBits) atomicIsSet(bit uint32) bool {
	return (atomic.LoadUint32(&f.bits) & bit) != 0
}

func (f *flagBits) set(bits uint32) {
	f.bits = f.bits | bits
}

func (f *flagBits) isSet(bit uint32) bool {
	return (f.bits & bit) != 0
}
