package memory

import (
	"fmt"
	"os"
	"sync"

	"github.com/sarchlab/vmcore/mem/vm"
)

func sectorMustBeValid(sector, count uint64, buf []byte) error {
	if sector >= count {
		return fmt.Errorf("sector %d beyond the device of %d sectors",
			sector, count)
	}

	if len(buf) != vm.SectorSize {
		return fmt.Errorf("buffer of %d bytes, want %d", len(buf), vm.SectorSize)
	}

	return nil
}

// A MemDisk is a block device held in memory.
type MemDisk struct {
	sync.Mutex
	sectors [][]byte
}

// NewMemDisk creates a disk with numSector sectors.
func NewMemDisk(numSector uint64) *MemDisk {
	return &MemDisk{sectors: make([][]byte, numSector)}
}

// ReadSector copies a sector into buf. Sectors never written read as zeros.
func (d *MemDisk) ReadSector(sector uint64, buf []byte) error {
	d.Lock()
	defer d.Unlock()

	err := sectorMustBeValid(sector, uint64(len(d.sectors)), buf)
	if err != nil {
		return err
	}

	if d.sectors[sector] == nil {
		clear(buf)
		return nil
	}

	copy(buf, d.sectors[sector])

	return nil
}

// WriteSector copies buf into a sector.
func (d *MemDisk) WriteSector(sector uint64, buf []byte) error {
	d.Lock()
	defer d.Unlock()

	err := sectorMustBeValid(sector, uint64(len(d.sectors)), buf)
	if err != nil {
		return err
	}

	if d.sectors[sector] == nil {
		d.sectors[sector] = make([]byte, vm.SectorSize)
	}

	copy(d.sectors[sector], buf)

	return nil
}

// SectorCount returns the capacity of the disk in sectors.
func (d *MemDisk) SectorCount() uint64 {
	return uint64(len(d.sectors))
}

// A FileDisk is a block device stored in a host file.
type FileDisk struct {
	file      *os.File
	numSector uint64
}

// OpenFileDisk creates, or truncates, the file at path and uses it as a disk
// of numSector sectors.
func OpenFileDisk(path string, numSector uint64) (*FileDisk, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening swap file %s: %w", path, err)
	}

	err = f.Truncate(int64(numSector * vm.SectorSize))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sizing swap file %s: %w", path, err)
	}

	return &FileDisk{file: f, numSector: numSector}, nil
}

// ReadSector copies a sector into buf.
func (d *FileDisk) ReadSector(sector uint64, buf []byte) error {
	err := sectorMustBeValid(sector, d.numSector, buf)
	if err != nil {
		return err
	}

	_, err = d.file.ReadAt(buf, int64(sector*vm.SectorSize))

	return err
}

// WriteSector copies buf into a sector.
func (d *FileDisk) WriteSector(sector uint64, buf []byte) error {
	err := sectorMustBeValid(sector, d.numSector, buf)
	if err != nil {
		return err
	}

	_, err = d.file.WriteAt(buf, int64(sector*vm.SectorSize))

	return err
}

// SectorCount returns the capacity of the disk in sectors.
func (d *FileDisk) SectorCount() uint64 {
	return d.numSector
}

// Close closes the backing file.
func (d *FileDisk) Close() error {
	return d.file.Close()
}
