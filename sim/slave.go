package sim

import (
	"github.com/sarchlab/axilite/axi"
	"github.com/sarchlab/axilite/memory"
)

// A Slave is a memory-backed bus target. It accepts one write address, one
// write data or one read address at a time and answers from the next cycle.
// Accesses that fall outside its storage answer SLVERR.
type Slave struct {
	name    string
	index   int
	storage *memory.Storage
	width   int

	out axi.Response

	awAddr   uint64
	haveAddr bool
	wData    uint64
	wStrb    uint8
	haveData bool

	reads  uint64
	writes uint64
}

func newSlave(name string, index int, storage *memory.Storage, dataWidth int) *Slave {
	s := &Slave{
		name:    name,
		index:   index,
		storage: storage,
		width:   dataWidth / 8,
	}
	s.reset()

	return s
}

// Name returns the name of the slave.
func (s *Slave) Name() string {
	return s.name
}

// Index returns the port index of the slave on the interconnect.
func (s *Slave) Index() int {
	return s.index
}

// Storage returns the memory behind the slave.
func (s *Slave) Storage() *memory.Storage {
	return s.storage
}

// Reads returns the number of reads served from the storage.
func (s *Slave) Reads() uint64 {
	return s.reads
}

// Writes returns the number of writes committed to the storage.
func (s *Slave) Writes() uint64 {
	return s.writes
}

// Outputs returns the signals driven during the current cycle.
func (s *Slave) Outputs() axi.Response {
	return s.out
}

// Busy tells whether the slave holds a partial request or a response.
func (s *Slave) Busy() bool {
	return s.haveAddr || s.haveData || s.out.BValid || s.out.RValid
}

func (s *Slave) sample(req axi.Request) {
	cur := s.out

	if axi.WriteRespDone(req, cur) || axi.ReadDataDone(req, cur) {
		s.reset()
	}

	if axi.WriteAddrDone(req, cur) {
		s.awAddr = req.AWAddr
		s.haveAddr = true
		s.out.AWReady = false
		s.out.ARReady = false
	}

	if axi.WriteDataDone(req, cur) {
		s.wData = req.WData
		s.wStrb = req.WStrb
		s.haveData = true
		s.out.WReady = false
		s.out.ARReady = false
	}

	if axi.ReadAddrDone(req, cur) {
		s.out = axi.Response{RValid: true}

		data, err := s.storage.ReadWord(req.ARAddr, s.width)
		if err != nil {
			s.out.RResp = axi.RespSlvErr
		} else {
			s.out.RData = data
			s.reads++
		}
	}

	if s.haveAddr && s.haveData {
		s.commit()
	}
}

func (s *Slave) commit() {
	s.out = axi.Response{BValid: true}

	err := s.storage.WriteWord(s.awAddr, s.wData, s.wStrb, s.width)
	if err != nil {
		s.out.BResp = axi.RespSlvErr
	} else {
		s.writes++
	}

	s.haveAddr = false
	s.haveData = false
}

// reset returns the slave to its idle state. The storage keeps its content.
func (s *Slave) reset() {
	s.out = axi.Response{AWReady: true, WReady: true, ARReady: true}
	s.haveAddr = false
	s.haveData = false
	s.wData = 0
	s.wStrb = 0
}
