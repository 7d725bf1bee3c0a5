// Package monitoring turns a running simulation into a web server that
// reports its progress and lets a user pause and resume it.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	log "github.com/sirupsen/logrus"
	"github.com/syifan/goseth"

	"github.com/sarchlab/axilite/axi"
	"github.com/sarchlab/axilite/sim"
)

// Monitor serves the state of a simulated system over HTTP.
type Monitor struct {
	system      *sim.System
	engine      sim.Engine
	portNumber  int
	openBrowser bool

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server   *http.Server
	listener net.Listener
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor. Zero and privileged
// ports select a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		log.WithField("port", portNumber).
			Warn("port not allowed for the monitoring server, using a random port")

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor in a web browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterSystem registers the system to monitor together with its engine.
func (m *Monitor) RegisterSystem(s *sim.System) {
	m.system = s
	m.engine = s.Engine()
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.NewXIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the list.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the routes served by the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/state", m.state)
	r.HandleFunc("/api/transactions", m.transactions)
	r.HandleFunc("/api/agent/{name}", m.agentDetails)
	r.HandleFunc("/api/ports", m.ports)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts serving in the background and returns the URL of the
// monitor.
func (m *Monitor) StartServer() (string, error) {
	if m.system == nil {
		return "", errors.New("no system registered to the monitor")
	}

	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", err
	}

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("monitoring server stopped")
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			log.WithError(err).Warn("cannot open a browser")
		}
	}

	return url, nil
}

// StopServer shuts the server down.
func (m *Monitor) StopServer() error {
	if m.server == nil {
		return nil
	}

	return m.server.Close()
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"cycle\":%d}", m.engine.CurrentCycle())
}

type stateRsp struct {
	Name      string `json:"name"`
	Cycle     uint64 `json:"cycle"`
	Reset     bool   `json:"reset"`
	Phase     string `json:"phase"`
	Master    int    `json:"master"`
	Slave     int    `json:"slave"`
	Pending   []int  `json:"pending"`
	Completed uint64 `json:"completed"`
	Aborted   uint64 `json:"aborted"`
}

func (m *Monitor) state(w http.ResponseWriter, _ *http.Request) {
	snap := m.system.Snapshot()

	writeJSON(w, stateRsp{
		Name:      snap.Name,
		Cycle:     snap.Cycle,
		Reset:     snap.Reset,
		Phase:     snap.State.Phase.String(),
		Master:    snap.State.Selection.Master,
		Slave:     snap.State.Selection.Slave,
		Pending:   snap.Pending,
		Completed: snap.Completed,
		Aborted:   snap.Aborted,
	})
}

type transactionRsp struct {
	ID         string `json:"id"`
	Master     int    `json:"master"`
	Slave      int    `json:"slave"`
	Miss       bool   `json:"miss"`
	Kind       string `json:"kind"`
	Addr       string `json:"addr"`
	Data       string `json:"data"`
	RData      string `json:"rdata"`
	Resp       string `json:"resp"`
	Aborted    bool   `json:"aborted"`
	StartCycle uint64 `json:"start_cycle"`
	EndCycle   uint64 `json:"end_cycle"`
}

func (m *Monitor) transactions(w http.ResponseWriter, r *http.Request) {
	limit := 0

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Error: invalid limit %q", s)

			return
		}

		limit = n
	}

	txs := m.system.Transactions()
	if limit > 0 && len(txs) > limit {
		txs = txs[len(txs)-limit:]
	}

	rsp := make([]transactionRsp, 0, len(txs))
	for _, tx := range txs {
		rsp = append(rsp, transactionRsp{
			ID:         tx.ID,
			Master:     tx.Master,
			Slave:      tx.Slave,
			Miss:       tx.Miss,
			Kind:       tx.Op.Kind.String(),
			Addr:       fmt.Sprintf("0x%x", tx.Op.Addr),
			Data:       fmt.Sprintf("0x%x", tx.Op.Data),
			RData:      fmt.Sprintf("0x%x", tx.RData),
			Resp:       tx.Resp.String(),
			Aborted:    tx.Aborted,
			StartCycle: tx.StartCycle,
			EndCycle:   tx.EndCycle,
		})
	}

	writeJSON(w, rsp)
}

type portsRsp struct {
	Masters []axi.MasterPort `json:"masters"`
	Slaves  []axi.SlavePort  `json:"slaves"`
}

func (m *Monitor) ports(w http.ResponseWriter, _ *http.Request) {
	rsp := portsRsp{
		Masters: make([]axi.MasterPort, m.system.NumMasters()),
		Slaves:  make([]axi.SlavePort, m.system.NumSlaves()),
	}

	for i := range rsp.Masters {
		rsp.Masters[i] = m.system.MasterPort(i)
	}

	for j := range rsp.Slaves {
		rsp.Slaves[j] = m.system.SlavePort(j)
	}

	writeJSON(w, rsp)
}

// findAgent resolves "master{i}" or "slave{j}".
func (m *Monitor) findAgent(name string) any {
	for prefix, n := range map[string]int{
		"master": m.system.NumMasters(),
		"slave":  m.system.NumSlaves(),
	} {
		if !strings.HasPrefix(name, prefix) {
			continue
		}

		i, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
		if err != nil || i < 0 || i >= n {
			return nil
		}

		if prefix == "master" {
			return m.system.Master(i)
		}

		return m.system.Slave(i)
	}

	return nil
}

func (m *Monitor) agentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	agent := m.findAgent(name)
	if agent == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Agent not found"))
		dieOnErr(err)

		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(agent)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]progressBarRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(data)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
