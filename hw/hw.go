// SPDX-License-Identifier: EPL-2.0

package hw

import "fmt"

// MaskAll selects every bit of a register on write.
const MaskAll uint32 = 0xffffffff

// Register names a hardware register.
type Register int

const (
	RegDL1Base Register = iota
	RegDL1End
	RegDL1Cur
	RegDL1Rate
	RegDL1Channels
	RegMemIfFormat
	RegMemPathEnable
	RegIRQEnable
	RegIRQ1Counter
	RegIRQ1SampleRate
	RegIRQ1MCUCntMon
	RegI2SCon
	RegAFEEnable
	RegTickLow
	RegTickHigh
)

var registerNames = [...]string{
	RegDL1Base:        "AFE_DL1_BASE",
	RegDL1End:         "AFE_DL1_END",
	RegDL1Cur:         "AFE_DL1_CUR",
	RegDL1Rate:        "AFE_DL1_RATE",
	RegDL1Channels:    "AFE_DL1_CH",
	RegMemIfFormat:    "AFE_MEMIF_FMT",
	RegMemPathEnable:  "AFE_MEMPATH_EN",
	RegIRQEnable:      "AFE_IRQ_EN",
	RegIRQ1Counter:    "AFE_IRQ1_MCU_CNT",
	RegIRQ1SampleRate: "AFE_IRQ1_MCU_RATE",
	RegIRQ1MCUCntMon:  "AFE_IRQ1_MCU_CNT_MON",
	RegI2SCon:         "AFE_I2S_CON3",
	RegAFEEnable:      "AFE_DAC_CON0",
	RegTickLow:        "GPT6_CNT_L",
	RegTickHigh:       "GPT6_CNT_H",
}

func (r Register) String() string {
	if r >= 0 && int(r) < len(registerNames) {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", int(r))
}

// Bits of RegMemPathEnable.
const (
	PathDL1    uint32 = 1 << 0
	PathI2SOut uint32 = 1 << 1
	PathDAC    uint32 = 1 << 2
)

// Bits of RegIRQEnable.
const (
	IRQ1 uint32 = 1 << 0
)

// Values of RegMemIfFormat.
const (
	FetchFormat16Bit uint32 = 0
	FetchFormat32Bit uint32 = 3
)

// Fields of RegI2SCon.
const (
	I2SEnable        uint32 = 1 << 0
	I2SWordLen32     uint32 = 1 << 1
	I2SFormatI2S     uint32 = 1 << 3
	I2SRateShift            = 8
	I2SLowJitterMode uint32 = 1 << 12
)

// Registers is single-word register access. Each call is atomic with
// respect to the hardware.
type Registers interface {
	Read(reg Register) uint32
	// Write replaces the bits selected by mask with the same bits of value.
	Write(reg Register, value, mask uint32)
}

// Input is an interconnect matrix input.
type Input int

// Output is an interconnect matrix output.
type Output int

const (
	InputI05 Input = 5
	InputI06 Input = 6
)

const (
	OutputO00 Output = 0
	OutputO01 Output = 1
	OutputO03 Output = 3
	OutputO04 Output = 4
)

func (i Input) String() string  { return fmt.Sprintf("I%02d", int(i)) }
func (o Output) String() string { return fmt.Sprintf("O%02d", int(o)) }

// Route is one input to output connection.
type Route struct {
	In  Input
	Out Output
}

func (r Route) String() string { return r.In.String() + "->" + r.Out.String() }

// OutputFormat is the sample width an interconnect output emits.
type OutputFormat int

const (
	OutputFormat16Bit OutputFormat = iota
	OutputFormat24Bit
)

// Router drives the digital interconnect matrix. Connect and Disconnect
// are idempotent.
type Router interface {
	Connect(in Input, out Output) error
	Disconnect(in Input, out Output) error
	SetOutputFormat(out Output, f OutputFormat) error
}

// Clock names a clock or power domain.
type Clock int

const (
	ClockAFE Clock = iota
	ClockAnalog
	ClockEMI
	ClockAPLL
	ClockAPLLTuner
	ClockI2SDiv2
	ClockI2SDiv4
)

var clockNames = [...]string{
	ClockAFE:       "afe",
	ClockAnalog:    "analog",
	ClockEMI:       "emi",
	ClockAPLL:      "apll",
	ClockAPLLTuner: "apll_tuner",
	ClockI2SDiv2:   "i2s_div2",
	ClockI2SDiv4:   "i2s_div4",
}

func (c Clock) String() string {
	if c >= 0 && int(c) < len(clockNames) {
		return clockNames[c]
	}
	return fmt.Sprintf("Clock(%d)", int(c))
}

// Clocks enables and disables clocks. Reference counting is the
// implementation's business; every Enable is paired with one Disable.
type Clocks interface {
	Enable(c Clock) error
	Disable(c Clock)
}

// Region is a block of memory visible to the DMA engine.
type Region struct {
	// Phys is the physical base address the hardware sees.
	Phys uint32
	// Mem is the CPU view of the same memory.
	Mem []byte
}

// Size of the region in bytes.
func (r Region) Size() int { return len(r.Mem) }

// Memory hands out DMA-visible memory.
type Memory interface {
	Allocate(size int) (Region, error)
	Free(r Region) error
	// FastRegion is the fixed on-chip buffer.
	FastRegion() Region
}

// Platform is everything the engine needs from the hardware.
type Platform interface {
	Registers
	Router
	Clocks
	Memory
}
