package livecache

import (
	"net/url"
	"time"
)

// Descriptor identifies a logical resource: where it lives on the
// backend, how often it should be re-fetched, and how its payload is
// decoded. Many views may share one descriptor's cached value; two
// descriptors with the same path and query resolve to the same entry no
// matter who constructed them.
type Descriptor struct {
	Path     string
	Query    url.Values
	Interval time.Duration // 0 means on-demand only, no polling
	Decode   func(data []byte) (any, error)
}

// Key is the stable cache key: path plus canonically encoded query.
// url.Values.Encode sorts by key, so construction order does not matter.
func (d Descriptor) Key() string {
	if len(d.Query) == 0 {
		return d.Path
	}
	return d.Path + "?" + d.Query.Encode()
}
