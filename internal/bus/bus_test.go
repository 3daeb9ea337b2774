package bus

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nescore/internal/cartridge"
	"nescore/internal/cpu"
)

// newTestBus builds a one-bank cartridge with code at $8000
func newTestBus(t *testing.T, code ...uint8) *Bus {
	t.Helper()

	cart, err := cartridge.NewImageBuilder().
		WithProgram(0x8000, code...).
		WithResetVector(0x8000).
		BuildCartridge()
	require.NoError(t, err)

	return New(cart)
}

var endToEndProgram = []uint8{
	0xA9, 0x05, // LDA #$05
	0x85, 0x10, // STA $10
	0xA9, 0x00, // LDA #$00
	0x69, 0x05, // ADC #$05
	0x65, // unsupported ADC zp, never reached
}

func TestNew_ResetsThroughVector(t *testing.T) {
	b := newTestBus(t, 0xEA)

	regs := b.Registers()
	assert.Equal(t, uint16(0x8000), regs.PC)
	assert.Equal(t, uint8(0xFD), regs.SP)
	assert.Equal(t, uint8(0x24), regs.Status)
	assert.Equal(t, uint64(0), b.Steps())
	assert.False(t, b.Halted())
}

func TestBusCartridgeIntegration(t *testing.T) {
	b := newTestBus(t, 0xA9, 0x42)

	t.Run("CPU ROM Access", func(t *testing.T) {
		assert.Equal(t, uint8(0xA9), b.Peek(0x8000))
		assert.Equal(t, uint8(0x42), b.Peek(0x8001))
	})

	t.Run("16KB Mirror", func(t *testing.T) {
		assert.Equal(t, uint8(0xA9), b.Peek(0xC000))
		assert.Equal(t, uint8(0x42), b.Peek(0xC001))
	})

	t.Run("Reset Vector Access", func(t *testing.T) {
		vector := uint16(b.Peek(0xFFFC)) | uint16(b.Peek(0xFFFD))<<8
		assert.Equal(t, uint16(0x8000), vector)
	})
}

func TestRun_EndToEnd(t *testing.T) {
	b := newTestBus(t,
		0xA9, 0x05, // LDA #$05
		0x85, 0x10, // STA $10
		0xA9, 0x00, // LDA #$00
		0x69, 0x05, // ADC #$05
		0xA2, 0xAB, // LDX #$AB
		0x00, // BRK
	)

	steps, reason, err := b.RunUntil(-1, nil)

	require.NoError(t, err)
	assert.Equal(t, 6, steps)
	assert.Equal(t, cpu.StopHalt, reason)
	assert.True(t, b.Halted())

	snapshot := b.Snapshot()
	assert.Equal(t, "A=05 X=AB Y=00 SP=FD PC=800B STATUS=B4", snapshot.Registers.String())
	assert.Equal(t, uint8(0x05), snapshot.ZeroPage[0x10])
	assert.Equal(t, uint64(6), snapshot.Steps)
	assert.Equal(t, uint64(2+3+2+2+2+7), snapshot.Cycles)
	assert.Equal(t, cpu.StopHalt, snapshot.Reason)
}

func TestRun_UnsupportedOpcodeAfterProgram(t *testing.T) {
	b := newTestBus(t, endToEndProgram...)

	steps, err := b.Run(-1)

	assert.ErrorIs(t, err, cpu.ErrUnsupportedOpcode)
	assert.Equal(t, 4, steps)
	assert.Equal(t, uint8(0x05), b.Registers().A)
	assert.Equal(t, uint8(0x05), b.Peek(0x0010))
	assert.Equal(t, cpu.StopError, b.Snapshot().Reason)
}

func TestRun_Budget(t *testing.T) {
	b := newTestBus(t, 0x4C, 0x00, 0x80) // JMP $8000

	steps, reason, err := b.RunUntil(10, nil)

	require.NoError(t, err)
	assert.Equal(t, 10, steps)
	assert.Equal(t, cpu.StopBudget, reason)
	assert.False(t, b.Halted())
}

func TestRunUntil_StopSeesBus(t *testing.T) {
	b := newTestBus(t, endToEndProgram...)

	steps, reason, err := b.RunUntil(-1, func(b *Bus) (bool, error) {
		return b.Peek(0x0010) == 0x05, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, steps)
	assert.Equal(t, cpu.StopCondition, reason)
	assert.Equal(t, uint64(2), b.Steps())
}

func TestRunUntil_StopError(t *testing.T) {
	b := newTestBus(t, endToEndProgram...)
	boom := errors.New("boom")

	_, reason, err := b.RunUntil(-1, func(*Bus) (bool, error) { return false, boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, cpu.StopError, reason)
}

func TestStep(t *testing.T) {
	b := newTestBus(t, 0xA9, 0x01, 0x00)

	cycles, err := b.Step()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cycles)
	assert.False(t, b.Halted())

	cycles, err = b.Step()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cycles)
	assert.True(t, b.Halted())
	assert.Equal(t, cpu.StopHalt, b.Snapshot().Reason)
}

func TestStep_UnsupportedOpcode(t *testing.T) {
	b := newTestBus(t, 0xFF)

	_, err := b.Step()

	var opErr *cpu.UnsupportedOpcodeError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, uint16(0x8000), opErr.PC)
	assert.Equal(t, uint16(0x8001), b.Registers().PC)
}

func TestReset_KeepsRAM(t *testing.T) {
	b := newTestBus(t, endToEndProgram...)
	_, err := b.Run(4)
	require.NoError(t, err)

	b.Reset()

	assert.Equal(t, uint16(0x8000), b.Registers().PC)
	assert.Equal(t, uint8(0x05), b.Peek(0x0010))
	assert.Equal(t, uint8(0x05), b.Registers().A)
}

func TestSnapshot(t *testing.T) {
	b := newTestBus(t,
		0xA9, 0x77, // LDA #$77
		0x48, // PHA
		0xEA, // NOP
	)
	_, err := b.Run(2)
	require.NoError(t, err)

	snapshot := b.Snapshot()

	assert.Equal(t, "NOP", snapshot.Instruction)
	assert.Equal(t, uint8(0x77), snapshot.Stack[0xFD])
	assert.Equal(t, uint8(0xFC), snapshot.Registers.SP)
	assert.Equal(t, "-----I--", snapshot.Flags)
}

func TestMemoryWatchpoints(t *testing.T) {
	b := newTestBus(t,
		0xA9, 0x05, // LDA #$05
		0x85, 0x10, // STA $10
		0x85, 0x10, // STA $10 again, no change
		0x8D, 0x11, 0x08, // STA $0811, mirror of $0011
		0x00,
	)
	var buf bytes.Buffer
	b.SetLogger(log.New(&buf, "", 0))
	b.AddMemoryWatchpoint(0x0011)
	b.AddMemoryWatchpoint(0x0010)
	b.EnableWatchpointLogging(true)

	_, err := b.Run(-1)
	require.NoError(t, err)

	assert.Equal(t, []uint16{0x0010, 0x0011}, b.Watchpoints())
	assert.Equal(t,
		"[MEMORY_WATCH] Step 2: $0010 changed from $00 to $05 (zero page)\n"+
			"[MEMORY_WATCH] Step 4: $0011 changed from $00 to $05 (zero page)\n",
		buf.String())
}

func TestMemoryWatchpoints_DisabledByDefault(t *testing.T) {
	b := newTestBus(t, 0xA9, 0x05, 0x85, 0x10, 0x00)
	var buf bytes.Buffer
	b.SetLogger(log.New(&buf, "", 0))
	b.AddMemoryWatchpoint(0x0010)

	_, err := b.Run(-1)
	require.NoError(t, err)

	assert.Empty(t, buf.String())
}

func TestDescribeAddress(t *testing.T) {
	assert.Equal(t, "zero page", describeAddress(0x0010))
	assert.Equal(t, "stack", describeAddress(0x01FD))
	assert.Equal(t, "RAM", describeAddress(0x0300))
	assert.Equal(t, "RAM mirror", describeAddress(0x0900))
	assert.Equal(t, "unmapped", describeAddress(0x4016))
	assert.Equal(t, "PRG ROM", describeAddress(0xFFFC))
}

func TestEnableCPUDebug(t *testing.T) {
	b := newTestBus(t, 0xEA, 0x00)
	var buf bytes.Buffer
	b.SetLogger(log.New(&buf, "", 0))
	b.EnableCPUDebug(true, false)

	_, err := b.Run(-1)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "[CPU_TRACE] PC=$8000: NOP")
	assert.Contains(t, buf.String(), "[CPU_TRACE] PC=$8001: BRK")
}

func TestEnableCPUDebug_LoopsOnly(t *testing.T) {
	b := newTestBus(t, 0x4C, 0x00, 0x80) // JMP $8000
	var buf bytes.Buffer
	b.SetLogger(log.New(&buf, "", 0))
	b.EnableCPUDebug(false, true)

	_, err := b.Run(150)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "[CPU_LOOP]")
	assert.NotContains(t, buf.String(), "[CPU_TRACE]")
}

func TestStep_ErrorAfterBRKClearsHalted(t *testing.T) {
	b := newTestBus(t,
		0x00, // BRK
		0xFF, // not implemented
	)

	_, err := b.Step()
	require.NoError(t, err)
	require.True(t, b.Halted())

	_, err = b.Step()

	assert.ErrorIs(t, err, cpu.ErrUnsupportedOpcode)
	assert.False(t, b.Halted())
	snapshot := b.Snapshot()
	assert.Equal(t, cpu.StopError, snapshot.Reason)
	assert.False(t, snapshot.Halted)
}
