package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/orchestra/monitoring/web"
	"github.com/sarchlab/orchestra/network"
	"github.com/sarchlab/orchestra/sim"
)

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	engine      sim.Engine
	network     *network.Network
	metrics     *Metrics
	portNumber  int
	openBrowser bool

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes the monitor open the dashboard in a browser once the
// server is up.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.engine = e
}

// RegisterNetwork registers the network to be monitored.
func (m *Monitor) RegisterNetwork(n *network.Network) {
	m.network = n
}

// RegisterMetrics sets the metrics served at /metrics.
func (m *Monitor) RegisterMetrics(metrics *Metrics) {
	m.metrics = metrics
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
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

// Handler returns the router that serves the monitoring API and the
// dashboard.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/nodes", m.listNodes)
	r.HandleFunc("/api/node/{name}", m.nodeDetails)
	r.HandleFunc("/api/node/{name}/links", m.nodeLinks)
	r.HandleFunc("/api/summary/{name}", m.nodeSummary)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/report", m.report)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	if m.metrics != nil {
		r.Handle("/metrics",
			promhttp.HandlerFor(m.metrics.Gatherer(), promhttp.HandlerOpts{}))
	}

	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server with a custom port if wanted.
func (m *Monitor) StartServer() {
	http.Handle("/", m.Handler())

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}
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
	now := m.engine.CurrentTime()
	fmt.Fprintf(w, "{\"now\":%d}", now)
}

func (m *Monitor) listNodes(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0)
	if m.network != nil {
		for _, n := range m.network.Nodes() {
			names = append(names, n.Name())
		}
	}

	writeJSON(w, names)
}

// nodeState is the part of a node that the dashboard can browse.
type nodeState struct {
	Name      string
	Addr      string
	Parent    string
	Class     uint16
	Epoch     uint16
	Extra     int
	Queue     int
	Links     []string
	Energy    any
	Stats     any
	Generated int
	NoRoute   int
}

func (m *Monitor) stateOf(n *network.Node) *nodeState {
	s := &nodeState{
		Name:      n.Name(),
		Addr:      n.Addr.String(),
		Parent:    n.Unicast.Parent().String(),
		Class:     n.Unicast.Class(),
		Epoch:     n.Unicast.Epoch(),
		Extra:     n.Unicast.ExtraSlots(),
		Queue:     n.MAC.Queue().GlobalPacketCount(),
		Energy:    n.MAC.Energy(),
		Stats:     n.MAC.Stats(),
		Generated: n.Generated(),
		NoRoute:   n.NoRoute(),
	}

	for _, sf := range n.MAC.Schedule().Slotframes() {
		for _, l := range sf.Links() {
			s.Links = append(s.Links, l.String())
		}
	}

	return s
}

func (m *Monitor) nodeDetails(w http.ResponseWriter, r *http.Request) {
	node := m.findNodeOr404(w, mux.Vars(r)["name"])
	if node == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.stateOf(node))
	serializer.SetMaxDepth(2)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type linkRsp struct {
	Slotframe     uint16 `json:"slotframe"`
	Timeslot      uint16 `json:"timeslot"`
	ChannelOffset uint16 `json:"channel_offset"`
	Options       string `json:"options"`
	Peer          string `json:"peer"`
}

func (m *Monitor) nodeLinks(w http.ResponseWriter, r *http.Request) {
	node := m.findNodeOr404(w, mux.Vars(r)["name"])
	if node == nil {
		return
	}

	links := make([]linkRsp, 0)
	for _, sf := range node.MAC.Schedule().Slotframes() {
		for _, l := range sf.Links() {
			links = append(links, linkRsp{
				Slotframe:     sf.Handle,
				Timeslot:      l.Timeslot,
				ChannelOffset: l.ChannelOffset,
				Options:       l.Options.String(),
				Peer:          l.Addr.String(),
			})
		}
	}

	writeJSON(w, links)
}

type summaryRsp struct {
	Name        string  `json:"name"`
	Parent      string  `json:"parent"`
	Class       uint16  `json:"class"`
	ExtraSlots  int     `json:"extra_slots"`
	Epoch       uint16  `json:"epoch"`
	QueueLength int     `json:"queue_length"`
	DutyCycle   float64 `json:"duty_cycle"`
}

func (m *Monitor) nodeSummary(w http.ResponseWriter, r *http.Request) {
	node := m.findNodeOr404(w, mux.Vars(r)["name"])
	if node == nil {
		return
	}

	writeJSON(w, summaryRsp{
		Name:        node.Name(),
		Parent:      node.Unicast.Parent().String(),
		Class:       node.Unicast.Class(),
		ExtraSlots:  node.Unicast.ExtraSlots(),
		Epoch:       node.Unicast.Epoch(),
		QueueLength: node.MAC.Queue().GlobalPacketCount(),
		DutyCycle:   node.MAC.Energy().DutyCycle(),
	})
}

type fieldReq struct {
	NodeName  string `json:"node_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	node := m.findNodeOr404(w, req.NodeName)
	if node == nil {
		return
	}

	elem, err := m.walkFields(m.stateOf(node), req.FieldName)
	if err != nil || !elem.IsValid() {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: cannot find field %s", req.FieldName)

		return
	}

	writeJSON(w, elem.Interface())
}

type reportRsp struct {
	network.Report

	PDR float64 `json:"PDR"`
}

func (m *Monitor) report(w http.ResponseWriter, _ *http.Request) {
	if m.network == nil {
		writeJSON(w, reportRsp{})
		return
	}

	report := m.network.Report()
	writeJSON(w, reportRsp{Report: report, PDR: report.PDR()})
}

type fieldFormatError struct {
}

func (e fieldFormatError) Error() string {
	return "fieldFormatError"
}

func (m *Monitor) walkFields(
	comp interface{},
	fields string,
) (reflect.Value, error) {
	elem := reflect.ValueOf(comp)

	fieldNames := strings.Split(fields, ".")

	for len(fieldNames) > 0 {
		switch elem.Kind() {
		case reflect.Ptr, reflect.Interface:
			elem = elem.Elem()
		case reflect.Struct:
			elem = elem.FieldByName(fieldNames[0])
			fieldNames = fieldNames[1:]
		case reflect.Slice:
			index, err := strconv.Atoi(fieldNames[0])
			if err != nil || index < 0 || index >= elem.Len() {
				return elem, fieldFormatError{}
			}

			elem = elem.Index(index)
			fieldNames = fieldNames[1:]
		default:
			return elem, fieldFormatError{}
		}
	}

	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	return elem, nil
}

func (m *Monitor) findNodeOr404(
	w http.ResponseWriter,
	name string,
) *network.Node {
	var node *network.Node
	if m.network != nil {
		node = m.network.NodeByName(name)
	}

	if node == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Node not found"))
		dieOnErr(err)
	}

	return node
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	writeJSON(w, m.progressBars)
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
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
