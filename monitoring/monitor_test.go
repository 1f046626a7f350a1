package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmcore/mem/vm"
	"github.com/sarchlab/vmcore/mem/vm/vmm"
)

type fakeManager struct {
	stats     vmm.Stats
	frames    []vmm.FrameInfo
	processes []vmm.ProcessInfo
	pages     map[vm.PID][]vmm.PageInfo
	swap      vmm.SwapInfo
}

func (f *fakeManager) Stats() vmm.Stats             { return f.stats }
func (f *fakeManager) Frames() []vmm.FrameInfo      { return f.frames }
func (f *fakeManager) Processes() []vmm.ProcessInfo { return f.processes }
func (f *fakeManager) Swap() vmm.SwapInfo           { return f.swap }
func (f *fakeManager) Pages(pid vm.PID) ([]vmm.PageInfo, bool) {
	pages, found := f.pages[pid]
	return pages, found
}

var _ = Describe("Monitor", func() {
	var (
		manager *fakeManager
		monitor *Monitor
		server  *httptest.Server
	)

	get := func(path string) *http.Response {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		return rsp
	}

	decode := func(rsp *http.Response, v any) {
		defer rsp.Body.Close()
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
		Expect(json.NewDecoder(rsp.Body).Decode(v)).To(Succeed())
	}

	BeforeEach(func() {
		manager = &fakeManager{
			stats: vmm.Stats{Faults: 3, SwapOuts: 1},
			frames: []vmm.FrameInfo{
				{
					PAddr:  0x1000,
					Owners: []vmm.OwnerInfo{{PID: 1, VAddr: 0x08048000}},
				},
			},
			processes: []vmm.ProcessInfo{{PID: 1, NumPages: 2, NumResident: 1}},
			pages: map[vm.PID][]vmm.PageInfo{
				1: {{VAddr: 0x08048000, Kind: "anonymous", Resident: true}},
			},
			swap: vmm.SwapInfo{TotalSlots: 8, UsedSlots: 1},
		}

		monitor = NewMonitor()
		monitor.RegisterManager(manager)
		server = httptest.NewServer(monitor.Router())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should report the counters", func() {
		stats := vmm.Stats{}
		decode(get("/api/stats"), &stats)

		Expect(stats.Faults).To(Equal(uint64(3)))
		Expect(stats.SwapOuts).To(Equal(uint64(1)))
	})

	It("should list frames and their owners", func() {
		frames := []vmm.FrameInfo{}
		decode(get("/api/frames"), &frames)

		Expect(frames).To(HaveLen(1))
		Expect(frames[0].Owners[0].VAddr).To(Equal(uint64(0x08048000)))
	})

	It("should list processes", func() {
		processes := []vmm.ProcessInfo{}
		decode(get("/api/processes"), &processes)

		Expect(processes).To(ConsistOf(manager.processes[0]))
	})

	It("should list the pages of a process", func() {
		pages := []vmm.PageInfo{}
		decode(get("/api/process/1/pages"), &pages)

		Expect(pages).To(HaveLen(1))
		Expect(pages[0].Kind).To(Equal("anonymous"))
	})

	It("should answer 404 for an unknown process", func() {
		rsp := get("/api/process/7/pages")
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("should report the swap occupation", func() {
		swap := vmm.SwapInfo{}
		decode(get("/api/swap"), &swap)

		Expect(swap).To(Equal(vmm.SwapInfo{TotalSlots: 8, UsedSlots: 1}))
	})

	It("should reject a malformed field request", func() {
		rsp := get("/api/field/notjson")
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("should track progress bars", func() {
		bar := monitor.CreateProgressBar("Accesses", 10)
		bar.IncrementInProgress(4)
		bar.MoveInProgressToFinished(3)
		bar.IncrementFinished(2)

		bars := []*ProgressBar{}
		decode(get("/api/progress"), &bars)

		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("Accesses"))
		Expect(bars[0].Total).To(Equal(uint64(10)))
		Expect(bars[0].Finished).To(Equal(uint64(5)))
		Expect(bars[0].InProgress).To(Equal(uint64(1)))

		monitor.CompleteProgressBar(bar)

		bars = []*ProgressBar{}
		decode(get("/api/progress"), &bars)
		Expect(bars).To(BeEmpty())
	})

	It("should serve the dashboard", func() {
		rsp := get("/")
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})

	It("should ignore privileged port numbers", func() {
		monitor.WithPortNumber(80)

		Expect(monitor.portNumber).To(Equal(0))
	})
})
