package stimulus

import (
	"errors"
	"fmt"
	"math"
	"os"

	log "github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/sarchlab/axilite/addrmap"
	"github.com/sarchlab/axilite/arbitration"
	"github.com/sarchlab/axilite/sim"
)

// ErrScript is returned when a stimulus script fails.
var ErrScript = errors.New("stimulus script failed")

// MaxScriptValue bounds the addresses and data a script can pass. Lua
// numbers are float64, so larger integers are not exact.
const MaxScriptValue = uint64(1)<<53 - 1

// checkValue returns argument n as an exact non-negative integer.
func checkValue(L *lua.LState, n int) uint64 {
	v := float64(L.CheckNumber(n))
	if v < 0 || v > float64(MaxScriptValue) || v != math.Trunc(v) {
		L.ArgError(n, fmt.Sprintf("%v is not an integer in [0, 2^53)", v))
	}

	return uint64(v)
}

// LoadScript runs the Lua script at path. See RunScript.
func LoadScript(path string, masters int, amap *addrmap.Map) (Workload, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Workload{}, err
	}

	return RunScript(path, string(src), masters, amap)
}

// RunScript runs a Lua script that describes a workload. Besides the Lua
// standard library the script sees:
//
//	write(m, addr, data [, strb])  queue a write on master m
//	read(m, addr [, expect])       queue a read on master m
//	masters()                      number of masters
//	slaves()                       number of slaves
//	range(j)                       low and high address of slave j
//
// Masters and slaves are numbered from 0. Addresses and data must be
// integers below 2^53.
func RunScript(name, src string, masters int, amap *addrmap.Map) (Workload, error) {
	w := NewWorkload(masters)

	L := lua.NewState()
	defer L.Close()

	master := func(L *lua.LState) int {
		m := L.CheckInt(1)
		if m < 0 || m >= masters {
			L.ArgError(1, fmt.Sprintf("master %d out of [0, %d)", m, masters))
		}

		return m
	}

	L.SetGlobal("write", L.NewFunction(func(L *lua.LState) int {
		m := master(L)
		op := sim.Op{
			Kind:   arbitration.KindWrite,
			Addr:   checkValue(L, 2),
			Data:   checkValue(L, 3),
			Strobe: uint8(L.OptInt(4, 0)),
		}
		w.Add(m, op)

		return 0
	}))

	L.SetGlobal("read", L.NewFunction(func(L *lua.LState) int {
		m := master(L)
		op := sim.Read(checkValue(L, 2))
		if L.GetTop() >= 3 {
			op = sim.ReadExpect(op.Addr, checkValue(L, 3))
		}
		w.Add(m, op)

		return 0
	}))

	L.SetGlobal("masters", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(masters))
		return 1
	}))

	L.SetGlobal("slaves", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(amap.Len()))
		return 1
	}))

	L.SetGlobal("range", L.NewFunction(func(L *lua.LState) int {
		j := L.CheckInt(1)
		if j < 0 || j >= amap.Len() {
			L.ArgError(1, fmt.Sprintf("slave %d out of [0, %d)", j, amap.Len()))
		}

		rng := amap.Range(j)
		if rng.High > MaxScriptValue {
			L.RaiseError("slave %d ends at 0x%x, beyond 2^53", j, rng.High)
		}

		L.Push(lua.LNumber(rng.Low))
		L.Push(lua.LNumber(rng.High))

		return 2
	}))

	if err := L.DoString(src); err != nil {
		return Workload{}, fmt.Errorf("%w: %s: %v", ErrScript, name, err)
	}

	log.WithFields(log.Fields{
		"script": name,
		"ops":    w.Len(),
	}).Debug("stimulus script loaded")

	return w, nil
}
