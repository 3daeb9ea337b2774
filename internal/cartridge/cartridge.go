// Package cartridge implements ROM loading and parsing for NES cartridges.
package cartridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	headerSize  = 16
	trainerSize = 512

	// PRGBankSize is the size of one PRG ROM bank.
	PRGBankSize = 16384
	// CHRBankSize is the size of one CHR ROM bank.
	CHRBankSize = 8192

	flag6Vertical   = 0x01
	flag6Battery    = 0x02
	flag6Trainer    = 0x04
	flag6FourScreen = 0x08
)

var magic = [4]uint8{'N', 'E', 'S', 0x1A}

// Cartridge represents a loaded iNES image
type Cartridge struct {
	// ROM data
	prgROM []uint8
	chrROM []uint8

	// Header information
	mapperID   uint8
	mirror     MirrorMode
	hasBattery bool
	hasTrainer bool
}

// MirrorMode represents nametable mirroring mode
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorFourScreen
)

func (m MirrorMode) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorFourScreen:
		return "four-screen"
	default:
		return fmt.Sprintf("MirrorMode(%d)", uint8(m))
	}
}

// iNES header structure
type iNESHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8 // in 16KB units
	CHRROMSize uint8 // in 8KB units
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TVSystem1  uint8
	TVSystem2  uint8
	Padding    [5]uint8
}

// LoadFromFile loads a cartridge from an iNES file
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromBytes loads a cartridge from an in-memory iNES image
func LoadFromBytes(data []byte) (*Cartridge, error) {
	if len(data) < headerSize {
		return nil, invalidImage(fmt.Sprintf("image is %d bytes, header needs %d", len(data), headerSize), nil)
	}
	return LoadFromReader(bytes.NewReader(data))
}

// LoadFromReader loads a cartridge from an io.Reader
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	// Read iNES header
	var header iNESHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, invalidImage("short header", err)
	}

	// Validate magic number
	if header.Magic != magic {
		return nil, invalidImage(fmt.Sprintf("bad magic % X", header.Magic[:]), nil)
	}

	if header.PRGROMSize == 0 {
		return nil, invalidImage("PRG ROM size cannot be zero", nil)
	}

	cart := &Cartridge{
		mapperID:   (header.Flags6 >> 4) | (header.Flags7 & 0xF0),
		hasBattery: (header.Flags6 & flag6Battery) != 0,
		hasTrainer: (header.Flags6 & flag6Trainer) != 0,
	}

	// Set mirroring mode
	if (header.Flags6 & flag6FourScreen) != 0 {
		cart.mirror = MirrorFourScreen
	} else if (header.Flags6 & flag6Vertical) != 0 {
		cart.mirror = MirrorVertical
	} else {
		cart.mirror = MirrorHorizontal
	}

	// Skip trainer if present
	if cart.hasTrainer {
		if _, err := io.CopyN(io.Discard, r, trainerSize); err != nil {
			return nil, invalidImage("truncated trainer", err)
		}
	}

	// Read PRG ROM
	cart.prgROM = make([]uint8, int(header.PRGROMSize)*PRGBankSize)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, invalidImage(fmt.Sprintf("truncated PRG ROM, want %d bytes", len(cart.prgROM)), err)
	}

	// Read CHR ROM
	cart.chrROM = make([]uint8, int(header.CHRROMSize)*CHRBankSize)
	if _, err := io.ReadFull(r, cart.chrROM); err != nil {
		return nil, invalidImage(fmt.Sprintf("truncated CHR ROM, want %d bytes", len(cart.chrROM)), err)
	}

	return cart, nil
}

// PRG returns the PRG ROM. Ownership passes to the caller; the cartridge
// does not touch the slice again.
func (c *Cartridge) PRG() []uint8 {
	return c.prgROM
}

// CHR returns the CHR ROM, empty when the board uses CHR RAM
func (c *Cartridge) CHR() []uint8 {
	return c.chrROM
}

// MapperID returns the iNES mapper number
func (c *Cartridge) MapperID() uint8 {
	return c.mapperID
}

// GetMirrorMode returns the cartridge's mirroring mode
func (c *Cartridge) GetMirrorMode() MirrorMode {
	return c.mirror
}

// HasBattery reports whether the header flags battery-backed PRG RAM
func (c *Cartridge) HasBattery() bool {
	return c.hasBattery
}

// HasTrainer reports whether the image carried a 512 byte trainer
func (c *Cartridge) HasTrainer() bool {
	return c.hasTrainer
}

// String summarises the header for logs.
func (c *Cartridge) String() string {
	summary := fmt.Sprintf("mapper %d, PRG %dKB, CHR %dKB, %s mirroring",
		c.MapperID(), len(c.PRG())/1024, len(c.CHR())/1024, c.GetMirrorMode())
	if c.HasBattery() {
		summary += ", battery"
	}
	if c.HasTrainer() {
		summary += ", trainer"
	}
	return summary
}

func invalidImage(reason string, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &ImageError{Reason: reason, Err: err}
}
