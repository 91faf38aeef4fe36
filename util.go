package reactor

import (
	"hash/fnv"
	"time"
)

// Check panics if the given error is not nil. Reserved for construction
// paths that are documented as infallible under normal use.
func Check(e error) {
	if e != nil {
		panic(e)
	}
}

// NowNano returns UnixNano in UTC.
func NowNano() int64 {
	return time.Now().UTC().UnixNano()
}

// HashCode computes an FNV-1a hash of b.
func HashCode(b []byte) uint32 {
	h := fnv.New32a()
	h.Write(b)
	return h.Sum32()
}
