package memory_test

import (
	"bytes"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/vmcore/mem/vm"
	"github.com/sarchlab/vmcore/memory"
)

var _ = Describe("Disks", func() {
	sector := bytes.Repeat([]byte{0xab}, vm.SectorSize)

	Context("MemDisk", func() {
		It("should read back written sectors", func() {
			disk := memory.NewMemDisk(8)
			buf := make([]byte, vm.SectorSize)

			Expect(disk.WriteSector(3, sector)).To(Succeed())
			Expect(disk.ReadSector(3, buf)).To(Succeed())

			Expect(buf).To(Equal(sector))
			Expect(disk.SectorCount()).To(Equal(uint64(8)))
		})

		It("should read zeros from untouched sectors", func() {
			disk := memory.NewMemDisk(8)
			buf := bytes.Repeat([]byte{1}, vm.SectorSize)

			Expect(disk.ReadSector(0, buf)).To(Succeed())

			Expect(buf).To(Equal(make([]byte, vm.SectorSize)))
		})

		It("should reject sectors out of range", func() {
			disk := memory.NewMemDisk(8)

			Expect(disk.WriteSector(8, sector)).NotTo(Succeed())
			Expect(disk.ReadSector(0, make([]byte, 10))).NotTo(Succeed())
		})
	})

	Context("FileDisk", func() {
		It("should read back written sectors", func() {
			path := filepath.Join(GinkgoT().TempDir(), "swap.dsk")
			disk, err := memory.OpenFileDisk(path, 16)
			Expect(err).NotTo(HaveOccurred())
			defer disk.Close()

			buf := make([]byte, vm.SectorSize)
			Expect(disk.WriteSector(15, sector)).To(Succeed())
			Expect(disk.ReadSector(15, buf)).To(Succeed())

			Expect(buf).To(Equal(sector))
			Expect(disk.WriteSector(16, sector)).NotTo(Succeed())
		})
	})
})
