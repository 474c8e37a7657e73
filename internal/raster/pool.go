package raster

import "sync"

// bufPools maps a buffer length to a *sync.Pool of byte slices of that
// length. In practice only one or two distinct canvas sizes are reassembled
// per process run, so the map stays small.
var bufPools sync.Map

// getBuf returns a zeroed []byte of length n from the pool, or allocates a
// new one.
func getBuf(n int) []byte {
	if p, ok := bufPools.Load(n); ok {
		if v := p.(*sync.Pool).Get(); v != nil {
			buf := v.([]byte)
			clear(buf)
			return buf
		}
	}
	return make([]byte, n)
}

// putBuf returns a []byte obtained from getBuf to its pool for reuse.
func putBuf(buf []byte) {
	if buf == nil {
		return
	}
	p, _ := bufPools.LoadOrStore(len(buf), &sync.Pool{})
	p.(*sync.Pool).Put(buf)
}
