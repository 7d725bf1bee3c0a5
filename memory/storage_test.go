package memory

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Storage", func() {
	It("should read and write in a single page", func() {
		storage := NewStorage(4096)
		Expect(storage.Write(0, []byte{1, 2, 3, 4})).To(Succeed())

		res, err := storage.Read(0, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{1, 2}))

		res, err = storage.Read(1, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{2, 3}))
	})

	It("should read and write across pages", func() {
		storage := NewStorage(8192)
		Expect(storage.Write(4094, []byte{1, 2, 3, 4})).To(Succeed())

		res, err := storage.Read(4094, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{1, 2, 3, 4}))
	})

	It("should read zeros from untouched memory", func() {
		storage := NewStorage(1 << 32)

		word, err := storage.ReadWord(0x8000_0000, 4)

		Expect(err).NotTo(HaveOccurred())
		Expect(word).To(BeZero())
	})

	It("should refuse accesses over the capacity", func() {
		storage := NewStorage(4096)

		Expect(storage.Write(4095, []byte{1, 2})).To(MatchError(ErrOutOfRange))

		_, err := storage.Read(4097, 1)
		Expect(err).To(MatchError(ErrOutOfRange))
	})

	It("should store words little-endian", func() {
		storage := NewStorage(256)
		Expect(storage.WriteWord(4, 0xDEADBEEF, 0xF, 4)).To(Succeed())

		res, err := storage.Read(4, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{0xEF, 0xBE, 0xAD, 0xDE}))

		word, err := storage.ReadWord(4, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(word).To(Equal(uint64(0xDEADBEEF)))
	})

	It("should only write the strobed bytes", func() {
		storage := NewStorage(256)
		Expect(storage.WriteWord(0, 0x11223344, 0xF, 4)).To(Succeed())
		Expect(storage.WriteWord(0, 0xAABBCCDD, 0b0101, 4)).To(Succeed())

		word, err := storage.ReadWord(0, 4)

		Expect(err).NotTo(HaveOccurred())
		Expect(word).To(Equal(uint64(0x11BB33DD)))
	})
})
