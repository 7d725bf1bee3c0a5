// Package arbitration decides which master owns the shared bus. It holds the
// request scanner and the IDLE/WRITE/READ state machine of the interconnect.
package arbitration

import "github.com/sarchlab/axilite/axi"

// Kind is the operation a master requests.
type Kind int

// Request kinds.
const (
	KindNone Kind = iota
	KindWrite
	KindRead
)

func (k Kind) String() string {
	switch k {
	case KindWrite:
		return "write"
	case KindRead:
		return "read"
	}

	return "none"
}

// A Grant is the outcome of a scan. Master is len(requests) when no master
// requests the bus.
type Grant struct {
	Master int
	Kind   Kind
}

// Scan looks for the master that should be granted the bus. Masters are
// visited from index 0 upwards and the first one with a pending request
// wins. A master that asserts both ARVALID and AWVALID is granted a read.
func Scan(reqs []axi.Request) Grant {
	for i, req := range reqs {
		switch {
		case req.ARValid:
			return Grant{Master: i, Kind: KindRead}
		case req.AWValid:
			return Grant{Master: i, Kind: KindWrite}
		}
	}

	return Grant{Master: len(reqs), Kind: KindNone}
}
