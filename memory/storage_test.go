package memory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/vmcore/memory"
)

var _ = Describe("Storage", func() {
	It("should read and write in single frame", func() {
		storage := memory.NewStorage(4096)
		Expect(storage.Write(0, []byte{1, 2, 3, 4})).To(Succeed())

		res, _ := storage.Read(0, 2)
		Expect(res).To(Equal([]byte{1, 2}))

		res, _ = storage.Read(1, 2)
		Expect(res).To(Equal([]byte{2, 3}))
	})

	It("should read and write across frames", func() {
		storage := memory.NewStorage(8192)
		Expect(storage.Write(4094, []byte{1, 2, 3, 4})).To(Succeed())

		res, _ := storage.Read(4094, 4)
		Expect(res).To(Equal([]byte{1, 2, 3, 4}))
		Expect(storage.Frame(4096)[:2]).To(Equal([]byte{3, 4}))
	})

	It("should return error if accessing over the capacity", func() {
		storage := memory.NewStorage(4096)

		err := storage.Write(4097, []byte{1})
		Expect(err).To(MatchError(memory.ErrOutOfRange))

		_, err = storage.Read(4097, 1)
		Expect(err).To(MatchError(memory.ErrOutOfRange))
	})

	It("should alias frames", func() {
		storage := memory.NewStorage(8192)

		storage.Frame(4096)[10] = 42

		res, _ := storage.Read(4106, 1)
		Expect(res).To(Equal([]byte{42}))
	})
})
