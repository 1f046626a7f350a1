package simulation

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/vmcore/mem/vm"
)

var _ = Describe("Workload", func() {
	var simulation *Simulation

	BeforeEach(func() {
		simulation = MakeBuilder().
			WithoutMonitoring().
			WithNumFrame(8).
			WithNumSwapSlot(256).
			WithOutputFileName(filepath.Join(GinkgoT().TempDir(), "out")).
			Build()
	})

	AfterEach(func() {
		simulation.Terminate()
	})

	It("should keep memory consistent under pressure", func() {
		w := Workload{
			NumProcess:  3,
			NumCodePage: 2,
			NumHeapPage: 8,
			NumFilePage: 4,
			NumAccess:   500,
			WriteRatio:  0.4,
			Seed:        42,
		}

		report, err := w.Run(simulation)

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Accesses).To(Equal(uint64(1500)))
		Expect(report.Writes).To(BeNumerically(">", 0))
		Expect(report.Mismatches).To(BeZero())
		Expect(report.Kills).To(BeZero())

		stats := simulation.Manager().Stats()
		Expect(stats.Evictions).To(BeNumerically(">", 0))
		Expect(stats.SwapOuts).To(BeNumerically(">", 0))
		Expect(simulation.Manager().Processes()).To(BeEmpty())
		Expect(simulation.Manager().Swap().UsedSlots).To(BeZero())
		Expect(simulation.FramePool().NumFree()).To(Equal(8))
	})

	It("should run a workload with only a heap", func() {
		w := Workload{NumProcess: 1, NumHeapPage: 16, NumAccess: 200, WriteRatio: 1}

		report, err := w.Run(simulation)

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Writes).To(Equal(uint64(200)))
	})

	It("should stop every process on the first kernel panic", func() {
		halting := MakeBuilder().
			WithoutMonitoring().
			WithNumFrame(2).
			WithNumSwapSlot(1).
			WithOutputFileName(filepath.Join(GinkgoT().TempDir(), "halt")).
			Build()
		defer halting.Terminate()

		w := Workload{NumProcess: 2, NumHeapPage: 8, NumAccess: 200, WriteRatio: 1}

		_, err := w.Run(halting)

		var kp *vm.KernelPanic
		Expect(err).To(BeAssignableToTypeOf(kp))
		Expect(err.Error()).To(ContainSubstring("swap device is full"))

		m := halting.Manager()
		Expect(m.Halted()).To(BeIdenticalTo(err))
		Expect(m.Processes()).NotTo(BeEmpty())
		Expect(m.Frames()).To(HaveLen(2))
	})

	DescribeTable("invalid workloads",
		func(w Workload) {
			Expect(w.Validate()).To(HaveOccurred())

			_, err := w.Run(simulation)
			Expect(err).To(HaveOccurred())
		},
		Entry("no process", Workload{NumHeapPage: 1}),
		Entry("no memory", Workload{NumProcess: 1}),
		Entry("negative accesses", Workload{NumProcess: 1, NumHeapPage: 1, NumAccess: -1}),
		Entry("write ratio", Workload{NumProcess: 1, NumHeapPage: 1, WriteRatio: 2}),
		Entry("heap too large", Workload{NumProcess: 1, NumHeapPage: 1 << 20}),
	)

	It("should produce deterministic content", func() {
		Expect(fill(64, 3)).To(Equal(fill(64, 3)))
		Expect(fill(64, 3)).NotTo(Equal(fill(64, 4)))
	})
})
