package cpu

import (
	"testing"
	"time"
)

// CPUPerformanceHelper provides CPU-specific performance testing utilities
type CPUPerformanceHelper struct {
	*CPUTestHelper
	cycleCounter uint64
	startTime    time.Time
}

// NewCPUPerformanceHelper creates a CPU performance test helper
func NewCPUPerformanceHelper() *CPUPerformanceHelper {
	return &CPUPerformanceHelper{
		CPUTestHelper: NewCPUTestHelper(),
		startTime:     time.Now(),
	}
}

// StepWithProfiling executes one CPU step while tracking the cycle total
func (h *CPUPerformanceHelper) StepWithProfiling(b *testing.B) uint64 {
	cycles, err := h.CPU.Step()
	if err != nil {
		b.Fatal(err)
	}
	h.cycleCounter += cycles
	return cycles
}

// GetCyclesPerSecond calculates current cycle execution rate
func (h *CPUPerformanceHelper) GetCyclesPerSecond() float64 {
	elapsed := time.Since(h.startTime)
	if elapsed.Seconds() == 0 {
		return 0
	}
	return float64(h.cycleCounter) / elapsed.Seconds()
}

// BenchmarkBasicInstructions benchmarks small loops of supported instructions
func BenchmarkBasicInstructions(b *testing.B) {
	programs := map[string][]uint8{
		"NOP": {
			0xEA,             // NOP
			0x4C, 0x00, 0x80, // JMP $8000
		},
		"Register Transfers": {
			0xA2, 0x80, // LDX #$80
			0x9A,             // TXS
			0xBA,             // TSX
			0xE8,             // INX
			0xCA,             // DEX
			0x4C, 0x00, 0x80, // JMP $8000
		},
		"Stack": {
			0xA9, 0x42, // LDA #$42
			0x48,             // PHA
			0x68,             // PLA
			0x20, 0x0A, 0x80, // JSR $800A
			0x4C, 0x00, 0x80, // JMP $8000
			0x60, // RTS
		},
	}

	for name, program := range programs {
		b.Run(name, func(b *testing.B) {
			helper := NewCPUPerformanceHelper()
			helper.Boot(0x8000, program...)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				helper.StepWithProfiling(b)
			}

			b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "instructions/sec")
		})
	}
}

// BenchmarkCPUEmulationSpeed measures CPU emulation speed vs real hardware
func BenchmarkCPUEmulationSpeed(b *testing.B) {
	helper := NewCPUPerformanceHelper()
	helper.Boot(0x8000,
		0xA9, 0x00, // LDA #$00
		0x85, 0x00, // STA $00
		0xA2, 0x10, // LDX #$10
		0xA5, 0x00, // LDA $00
		0x69, 0x01, // ADC #$01
		0x85, 0x00, // STA $00
		0xCA,             // DEX
		0x4C, 0x00, 0x80, // JMP $8000
	)

	// Real NES CPU runs at 1.789773 MHz
	realCPUFrequency := 1789773.0

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		helper.StepWithProfiling(b)
	}

	emulatedFrequency := helper.GetCyclesPerSecond()
	b.ReportMetric(emulatedFrequency, "cycles/sec")
	b.ReportMetric(emulatedFrequency/realCPUFrequency, "speed_ratio")
}
