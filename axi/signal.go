// Package axi defines the five-channel VALID/READY signal bundles exchanged
// between bus masters, the interconnect and bus slaves.
package axi

// Resp is the 2-bit status code carried by the write-response and read-data
// channels.
type Resp uint8

// Response codes. Only RespOkay is produced by the interconnect.
const (
	RespOkay   Resp = 0b00
	RespExOkay Resp = 0b01
	RespSlvErr Resp = 0b10
	RespDecErr Resp = 0b11
)

func (r Resp) String() string {
	switch r {
	case RespOkay:
		return "OKAY"
	case RespExOkay:
		return "EXOKAY"
	case RespSlvErr:
		return "SLVERR"
	case RespDecErr:
		return "DECERR"
	}

	return "UNKNOWN"
}

// Request is the initiator-driven half of a connection. A master drives it
// towards the interconnect and the interconnect drives it towards a slave.
//
// The zero value is the idle value of every signal.
type Request struct {
	AWValid bool
	AWAddr  uint64

	WValid bool
	WData  uint64
	WStrb  uint8

	BReady bool

	ARValid bool
	ARAddr  uint64

	RReady bool
}

// Response is the target-driven half of a connection. A slave drives it
// towards the interconnect and the interconnect drives it towards a master.
//
// The zero value is the idle value of every signal.
type Response struct {
	AWReady bool
	WReady  bool

	BValid bool
	BResp  Resp

	ARReady bool

	RValid bool
	RResp  Resp
	RData  uint64
}

// WriteAddrDone reports whether the write-address handshake completes when
// req and rsp are seen together on one connection.
func WriteAddrDone(req Request, rsp Response) bool {
	return req.AWValid && rsp.AWReady
}

// WriteDataDone reports whether the write-data handshake completes.
func WriteDataDone(req Request, rsp Response) bool {
	return req.WValid && rsp.WReady
}

// WriteRespDone reports whether the write-response handshake completes.
func WriteRespDone(req Request, rsp Response) bool {
	return rsp.BValid && req.BReady
}

// ReadAddrDone reports whether the read-address handshake completes.
func ReadAddrDone(req Request, rsp Response) bool {
	return req.ARValid && rsp.ARReady
}

// ReadDataDone reports whether the read-data handshake completes.
func ReadDataDone(req Request, rsp Response) bool {
	return rsp.RValid && req.RReady
}
