package vmm

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmcore/filesys"
	"github.com/sarchlab/vmcore/mem/vm"
)

var _ = Describe("Process lifecycle", func() {
	var (
		env testEnv
		m   *Manager
	)

	BeforeEach(func() {
		env = newTestEnv(4, 8)
		m = env.m
	})

	It("should halt on duplicated pids", func() {
		m.NewProcess(1)

		Expect(func() { m.NewProcess(1) }).To(PanicWith(Satisfy(isKernelPanic)))
	})

	It("should reject zero pages over existing pages", func() {
		p := m.NewProcess(1)
		Expect(m.MapZero(p, zeroAddr, true)).To(Succeed())

		Expect(m.MapZero(p, zeroAddr, true)).To(MatchError(ErrOverlap))
		Expect(m.MapZero(p, zeroAddr+1, true)).To(MatchError(ErrMisaligned))
		Expect(m.MapZero(p, vm.UserTop, true)).To(MatchError(ErrInvalidAddress))
	})

	Context("when loading segments", func() {
		var (
			p       *Process
			content []byte
			file    *filesys.MemFile
		)

		BeforeEach(func() {
			p = m.NewProcess(1)
			content = pattern(6000, 5)
			file = filesys.NewMemFile("prog", append([]byte(nil), content...))
		})

		It("should map file bytes followed by zeros", func() {
			Expect(m.LoadSegment(p, file, 0, segAddr, 6000, 2*vm.PageSize-6000,
				true)).To(Succeed())

			pages := p.Pages.Pages()
			Expect(pages).To(HaveLen(2))
			Expect(pages[0].Private).To(BeTrue())
			Expect(pages[1].Length).To(Equal(6000 - vm.PageSize))

			data, err := m.Load(p, segAddr, 2*vm.PageSize)
			Expect(err).NotTo(HaveOccurred())
			Expect(data[:6000]).To(Equal(content))
			Expect(data[6000:]).To(Equal(make([]byte, 2*vm.PageSize-6000)))
		})

		It("should create zero pages past the file bytes", func() {
			Expect(m.LoadSegment(p, file, vm.PageSize, segAddr,
				6000-vm.PageSize, 2*vm.PageSize-(6000-vm.PageSize), true)).
				To(Succeed())

			Expect(mustFind(p, segAddr).Kind).To(Equal(vm.PageFile))
			Expect(mustFind(p, segAddr).Offset).To(Equal(int64(vm.PageSize)))
			Expect(mustFind(p, segAddr+vm.PageSize).Kind).To(Equal(vm.PageZero))
		})

		It("should swap modified pages instead of writing the file", func() {
			env = newTestEnv(1, 4)
			m = env.m
			p = m.NewProcess(1)

			Expect(m.LoadSegment(p, file, 0, segAddr, 6000, 2*vm.PageSize-6000,
				true)).To(Succeed())

			Expect(m.Store(p, segAddr, []byte("private"))).To(Succeed())
			_, err := m.Load(p, segAddr+vm.PageSize, 1)
			Expect(err).NotTo(HaveOccurred())

			Expect(mustFind(p, segAddr).Kind).To(Equal(vm.PageSwapped))
			Expect(file.Bytes()).To(Equal(content))

			data, err := m.Load(p, segAddr, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("private")))
			Expect(m.Stats().Drops).To(Equal(uint64(1)))
		})

		It("should reject misaligned segments", func() {
			err := m.LoadSegment(p, file, 0, segAddr, 100, 100, true)
			Expect(err).To(MatchError(ErrMisaligned))

			err = m.LoadSegment(p, file, 10, segAddr, vm.PageSize, 0, true)
			Expect(err).To(MatchError(ErrMisaligned))

			Expect(p.Pages.Len()).To(BeZero())
		})
	})

	Context("when frames are shared", func() {
		var (
			a, b *Process
			data []byte
		)

		BeforeEach(func() {
			a = m.NewProcess(1)
			b = m.NewProcess(2)
			data = pattern(64, 1)

			Expect(m.MapZero(a, zeroAddr, true)).To(Succeed())
			Expect(m.Store(a, zeroAddr, data)).To(Succeed())
		})

		It("should let both processes see the same bytes", func() {
			Expect(m.Share(a, zeroAddr, b, mapAddr)).To(Succeed())

			Expect(m.Store(b, mapAddr, []byte("shared"))).To(Succeed())

			loaded, err := m.Load(a, zeroAddr, 6)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal([]byte("shared")))
		})

		It("should refuse pages that are not resident and anonymous", func() {
			Expect(m.MapZero(a, zeroAddr+vm.PageSize, true)).To(Succeed())

			Expect(m.Share(a, zeroAddr+vm.PageSize, b, mapAddr)).
				To(MatchError(ErrNotShareable))
			Expect(m.Share(a, mapAddr, b, mapAddr)).
				To(MatchError(ErrNotShareable))
		})

		It("should keep the frame for the surviving process", func() {
			Expect(m.Share(a, zeroAddr, b, mapAddr)).To(Succeed())
			Expect(m.Share(a, zeroAddr, a, zeroAddr+vm.PageSize)).To(Succeed())

			pAddr := mustFind(a, zeroAddr).PAddr
			numFree := env.pool.NumFree()

			m.TeardownProcess(a)

			f, found := m.frames.Find(pAddr)
			Expect(found).To(BeTrue())
			Expect(f.Owners).To(HaveLen(1))
			Expect(f.Owners[0].PID).To(Equal(vm.PID(2)))
			Expect(f.Owners[0].VAddr).To(Equal(mapAddr))
			Expect(env.pool.NumFree()).To(Equal(numFree))

			loaded, err := m.Load(b, mapAddr, len(data))
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(data))

			m.TeardownProcess(b)

			Expect(m.frames.Len()).To(BeZero())
			Expect(env.pool.NumFree()).To(Equal(env.pool.NumFrame()))
		})

		It("should give each owner its own swap slot on eviction", func() {
			Expect(m.Share(a, zeroAddr, b, mapAddr)).To(Succeed())
			pAddr := mustFind(a, zeroAddr).PAddr

			m.lock.Lock()
			Expect(m.evict(a)).To(Equal(pAddr))
			m.lock.Unlock()

			Expect(mustFind(a, zeroAddr).Kind).To(Equal(vm.PageSwapped))
			Expect(mustFind(b, mapAddr).Kind).To(Equal(vm.PageSwapped))
			Expect(mustFind(a, zeroAddr).Slot).
				NotTo(Equal(mustFind(b, mapAddr).Slot))

			loaded, err := m.Load(b, mapAddr, len(data))
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(data))
		})
	})

	It("should release everything a process owns", func() {
		env = newTestEnv(1, 8)
		m = env.m
		p := m.NewProcess(1)

		file := filesys.NewMemFile("data", make([]byte, 100))
		fd := m.Open(p, file)
		other := m.Open(p, filesys.NewMemFile("other", nil))

		Expect(m.MapZero(p, zeroAddr, true)).To(Succeed())
		Expect(m.MapZero(p, zeroAddr+vm.PageSize, true)).To(Succeed())
		_, err := m.Mmap(p, fd, mapAddr)
		Expect(err).NotTo(HaveOccurred())

		Expect(m.Store(p, zeroAddr, []byte{1})).To(Succeed())
		Expect(m.Store(p, zeroAddr+vm.PageSize, []byte{2})).To(Succeed())
		Expect(m.Store(p, mapAddr, []byte("bye"))).To(Succeed())
		Expect(m.Swap().UsedSlots).To(Equal(uint64(2)))

		m.TeardownProcess(p)

		Expect(file.Bytes()[:3]).To(Equal([]byte("bye")))
		Expect(m.Swap().UsedSlots).To(BeZero())
		Expect(env.pool.NumFree()).To(Equal(1))
		Expect(m.frames.Len()).To(BeZero())
		Expect(p.Pages.Len()).To(BeZero())
		Expect(p.Files.Descriptors()).To(BeEmpty())
		Expect(p.HasExited()).To(BeTrue())

		_, found := m.Process(1)
		Expect(found).To(BeFalse())
		Expect(m.ResolveFault(p, zeroAddr)).To(Equal(Kill))
		Expect(m.Close(p, other)).To(MatchError(ErrBadDescriptor))
	})

	It("should describe processes, pages and frames", func() {
		p := m.NewProcess(3)
		Expect(m.MapZero(p, zeroAddr, true)).To(Succeed())
		Expect(m.MapZero(p, zeroAddr+vm.PageSize, false)).To(Succeed())
		Expect(m.Store(p, zeroAddr, []byte{1})).To(Succeed())

		Expect(m.Processes()).To(Equal([]ProcessInfo{
			{PID: 3, NumPages: 2, NumResident: 1},
		}))

		pages, found := m.Pages(3)
		Expect(found).To(BeTrue())
		Expect(pages).To(HaveLen(2))
		Expect(pages[0].Kind).To(Equal("anonymous"))
		Expect(pages[1].Kind).To(Equal("zero"))
		Expect(pages[1].Writable).To(BeFalse())

		frames := m.Frames()
		Expect(frames).To(HaveLen(1))
		Expect(frames[0].Accessed).To(BeTrue())
		Expect(frames[0].Owners).To(Equal([]OwnerInfo{{PID: 3, VAddr: zeroAddr}}))

		Expect(m.Swap()).To(Equal(SwapInfo{TotalSlots: 8}))

		_, found = m.Pages(4)
		Expect(found).To(BeFalse())
	})
})
