package cartridge

// ImageBuilder assembles iNES images in memory. Tests across the module use
// it to produce cartridges around small hand-assembled programs.
type ImageBuilder struct {
	prgBanks  uint8
	chrBanks  uint8
	mapperID  uint8
	mirroring MirrorMode
	battery   bool
	trainer   []uint8
	program   map[uint16]uint8
	reset     uint16
	chrData   []uint8
	truncate  int
}

// NewImageBuilder returns a builder for a one bank NROM image with one CHR
// bank and the reset vector at $8000.
func NewImageBuilder() *ImageBuilder {
	return &ImageBuilder{
		prgBanks: 1,
		chrBanks: 1,
		program:  make(map[uint16]uint8),
		reset:    0x8000,
	}
}

// WithPRGBanks sets the PRG ROM size in 16KB units
func (b *ImageBuilder) WithPRGBanks(n uint8) *ImageBuilder {
	b.prgBanks = n
	return b
}

// WithCHRBanks sets the CHR ROM size in 8KB units (0 = CHR RAM)
func (b *ImageBuilder) WithCHRBanks(n uint8) *ImageBuilder {
	b.chrBanks = n
	return b
}

// WithMapper sets the mapper number
func (b *ImageBuilder) WithMapper(id uint8) *ImageBuilder {
	b.mapperID = id
	return b
}

// WithMirroring sets the nametable mirroring flags
func (b *ImageBuilder) WithMirroring(mode MirrorMode) *ImageBuilder {
	b.mirroring = mode
	return b
}

// WithBattery sets the battery flag
func (b *ImageBuilder) WithBattery() *ImageBuilder {
	b.battery = true
	return b
}

// WithTrainer adds a 512 byte trainer block
func (b *ImageBuilder) WithTrainer(data []uint8) *ImageBuilder {
	b.trainer = make([]uint8, trainerSize)
	copy(b.trainer, data)
	return b
}

// WithProgram places code at a CPU address in $8000-$FFFF.
func (b *ImageBuilder) WithProgram(origin uint16, code ...uint8) *ImageBuilder {
	for i, value := range code {
		b.program[origin+uint16(i)] = value
	}
	return b
}

// WithResetVector sets the reset vector
func (b *ImageBuilder) WithResetVector(address uint16) *ImageBuilder {
	b.reset = address
	return b
}

// WithCHRData sets the start of CHR ROM
func (b *ImageBuilder) WithCHRData(data []uint8) *ImageBuilder {
	b.chrData = append([]uint8(nil), data...)
	return b
}

// Truncated drops n bytes from the end of the built image.
func (b *ImageBuilder) Truncated(n int) *ImageBuilder {
	b.truncate = n
	return b
}

// Build generates the image bytes
func (b *ImageBuilder) Build() []byte {
	header := make([]byte, headerSize)
	copy(header, magic[:])
	header[4] = b.prgBanks
	header[5] = b.chrBanks

	flags6 := (b.mapperID & 0x0F) << 4
	switch b.mirroring {
	case MirrorVertical:
		flags6 |= flag6Vertical
	case MirrorFourScreen:
		flags6 |= flag6FourScreen
	}
	if b.battery {
		flags6 |= flag6Battery
	}
	if b.trainer != nil {
		flags6 |= flag6Trainer
	}
	header[6] = flags6
	header[7] = b.mapperID & 0xF0

	image := append([]byte{}, header...)
	image = append(image, b.trainer...)
	image = append(image, b.buildPRG()...)

	chr := make([]byte, int(b.chrBanks)*CHRBankSize)
	copy(chr, b.chrData)
	image = append(image, chr...)

	if b.truncate > 0 {
		if b.truncate > len(image) {
			return image[:0]
		}
		image = image[:len(image)-b.truncate]
	}
	return image
}

// BuildCartridge generates and loads the image
func (b *ImageBuilder) BuildCartridge() (*Cartridge, error) {
	return LoadFromBytes(b.Build())
}

func (b *ImageBuilder) buildPRG() []byte {
	size := int(b.prgBanks) * PRGBankSize
	if size == 0 {
		return nil
	}
	prg := make([]byte, size)

	// CPU addresses fold onto the ROM the same way reads do, so a 16KB image
	// accepts code written for $C000-$FFFF
	place := func(address uint16, value uint8) {
		prg[int(address-0x8000)%size] = value
	}
	for address, value := range b.program {
		if address >= 0x8000 {
			place(address, value)
		}
	}
	place(0xFFFC, uint8(b.reset&0xFF))
	place(0xFFFD, uint8(b.reset>>8))
	return prg
}
