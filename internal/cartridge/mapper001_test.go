package cartridge

import "testing"

// writeMMC1 feeds a full 5-bit MMC1 register value through the serial port
// one bit at a time, least significant bit first, matching real hardware
// CPU write sequences. Each bit write is stamped several cycles apart, as a
// real STA/write instruction would be, so the consecutive-cycle suppression
// in WritePRG never drops one of these writes.
func writeMMC1(cart *Cartridge, m *Mapper001, baseCycle uint64, address uint16, value uint8) {
	for i := 0; i < 5; i++ {
		cart.SetCPUCycle(baseCycle + uint64(i)*4)
		m.WritePRG(address, (value>>i)&1)
	}
}

func newMMC1Cartridge(prgBanks, chrBanks int, hasCHRRAM bool) (*Cartridge, *Mapper001) {
	cart := &Cartridge{
		prgROM:    make([]uint8, prgBanks*0x4000),
		chrROM:    make([]uint8, chrBanks*0x2000),
		mapperID:  1,
		hasCHRRAM: hasCHRRAM,
	}
	if hasCHRRAM {
		cart.chrROM = make([]uint8, 0x2000)
	}
	for i := range cart.prgROM {
		cart.prgROM[i] = uint8((i / 0x4000) + 1) // bank index + 1
	}
	for i := range cart.chrROM {
		cart.chrROM[i] = uint8((i / 0x1000) + 1)
	}
	mapper := NewMapper001(cart)
	cart.mapper = mapper
	return cart, mapper
}

// TestMapper001_PowerOnState verifies PRG mode 3 (fix last bank at $C000) on
// power-up, per hardware reset behaviour.
func TestMapper001_PowerOnState(t *testing.T) {
	_, mapper := newMMC1Cartridge(4, 2, false)

	if mapper.prgMode() != 3 {
		t.Fatalf("expected power-on PRG mode 3, got %d", mapper.prgMode())
	}

	// $C000 should read the last bank (bank index 3, value 4) regardless of
	// prgBank register contents before any writes.
	value := mapper.ReadPRG(0xC000)
	if value != 4 {
		t.Errorf("expected last bank fixed at $C000 to read 4, got %d", value)
	}
}

// TestMapper001_SerialShiftRegister verifies that a write with bit 7 set
// resets the shift register and forces PRG mode 3, discarding in-progress
// writes.
func TestMapper001_SerialShiftRegister(t *testing.T) {
	cart, mapper := newMMC1Cartridge(4, 2, false)

	cart.SetCPUCycle(0)
	mapper.WritePRG(0x8000, 0) // one bit shifted in
	cart.SetCPUCycle(100)      // far enough from cycle 0 to be accepted
	mapper.WritePRG(0x8000, 0x80)

	if mapper.shiftCount != 0 {
		t.Errorf("reset write should clear shiftCount, got %d", mapper.shiftCount)
	}
	if mapper.prgMode() != 3 {
		t.Errorf("reset write should force PRG mode 3, got %d", mapper.prgMode())
	}
}

// TestMapper001_PRGBankSwitching_Mode3 exercises the power-on PRG banking
// mode: $8000-$BFFF switches, $C000-$FFFF is fixed to the last bank.
func TestMapper001_PRGBankSwitching_Mode3(t *testing.T) {
	cart, mapper := newMMC1Cartridge(4, 2, false)

	writeMMC1(cart, mapper, 0, 0xE000, 1) // select PRG bank 1 at $8000

	if got := mapper.ReadPRG(0x8000); got != 2 { // bank 1 -> value 2
		t.Errorf("expected bank 1 at $8000, got %d", got)
	}
	if got := mapper.ReadPRG(0xC000); got != 4 { // last bank (3) fixed
		t.Errorf("expected last bank fixed at $C000, got %d", got)
	}
}

// TestMapper001_PRGBankSwitching_32KMode verifies mode 0/1 ignores the low
// bank-select bit and switches a full 32KB window.
func TestMapper001_PRGBankSwitching_32KMode(t *testing.T) {
	cart, mapper := newMMC1Cartridge(4, 2, false)

	writeMMC1(cart, mapper, 0, 0x8000, 0x02)   // control: mirror=0, prgMode=0, chrMode=0
	writeMMC1(cart, mapper, 100, 0xE000, 0x02) // bank select 2 -> masked to bank 2 (even)

	if got := mapper.ReadPRG(0x8000); got != 3 { // bank pair starting at 2 -> value 3
		t.Errorf("expected bank 2 at $8000 in 32K mode, got %d", got)
	}
	if got := mapper.ReadPRG(0xC000); got != 4 {
		t.Errorf("expected bank 3 at $C000 in 32K mode, got %d", got)
	}
}

// TestMapper001_CHRBankSwitching_4K verifies independent 4KB CHR banks when
// chrMode is 1.
func TestMapper001_CHRBankSwitching_4K(t *testing.T) {
	cart, mapper := newMMC1Cartridge(2, 4, false)

	writeMMC1(cart, mapper, 0, 0x8000, 0x10) // control: chrMode=1
	writeMMC1(cart, mapper, 100, 0xA000, 2)  // CHR bank 0 register -> bank 2
	writeMMC1(cart, mapper, 200, 0xC000, 3)  // CHR bank 1 register -> bank 3

	if got := mapper.ReadCHR(0x0000); got != 3 { // bank 2 -> value bank+1
		t.Errorf("expected CHR bank 2 at $0000, got %d", got)
	}
	if got := mapper.ReadCHR(0x1000); got != 4 { // bank 3 -> value bank+1
		t.Errorf("expected CHR bank 3 at $1000, got %d", got)
	}
}

// TestMapper001_CHRBankSwitching_8K verifies a single 8KB CHR bank switch
// when chrMode is 0; the low bit of the bank-0 register is ignored.
func TestMapper001_CHRBankSwitching_8K(t *testing.T) {
	cart, mapper := newMMC1Cartridge(2, 4, false)

	writeMMC1(cart, mapper, 0, 0x8000, 0x00)   // chrMode=0
	writeMMC1(cart, mapper, 100, 0xA000, 0x03) // bank select 3, masked to 2 (even)

	if got := mapper.ReadCHR(0x0000); got != 3 {
		t.Errorf("expected 8K CHR bank pair starting at 2, got %d", got)
	}
	if got := mapper.ReadCHR(0x1000); got != 4 {
		t.Errorf("expected second half of 8K CHR bank pair, got %d", got)
	}
}

// TestMapper001_Mirroring verifies the control register's low 2 bits select
// nametable mirroring.
func TestMapper001_Mirroring(t *testing.T) {
	cart, mapper := newMMC1Cartridge(2, 2, false)

	writeMMC1(cart, mapper, 0, 0x8000, 0x00)
	if cart.mirror != MirrorSingleScreen0 {
		t.Errorf("expected single-screen-0 mirroring, got %d", cart.mirror)
	}

	writeMMC1(cart, mapper, 100, 0x8000, 0x02)
	if cart.mirror != MirrorVertical {
		t.Errorf("expected vertical mirroring, got %d", cart.mirror)
	}

	writeMMC1(cart, mapper, 200, 0x8000, 0x03)
	if cart.mirror != MirrorHorizontal {
		t.Errorf("expected horizontal mirroring, got %d", cart.mirror)
	}
}

// TestMapper001_PRGRAM_EnableDisable verifies bit 4 of the PRG bank register
// gates PRG RAM access.
func TestMapper001_PRGRAM_EnableDisable(t *testing.T) {
	cart, mapper := newMMC1Cartridge(2, 2, false)

	mapper.WritePRG(0x6000, 0x42)
	if got := mapper.ReadPRG(0x6000); got != 0x42 {
		t.Errorf("expected PRG RAM enabled by default, got %d", got)
	}

	writeMMC1(cart, mapper, 0, 0xE000, 0x10) // bit 4 set -> RAM disabled

	mapper.WritePRG(0x6000, 0x99)
	if got := mapper.ReadPRG(0x6000); got != 0 {
		t.Errorf("expected disabled PRG RAM to read 0, got %d", got)
	}
}

// TestMapper001_ConsecutiveCycleWriteDropped verifies that a second serial
// write landing on the same CPU cycle as the first is ignored, matching a
// real RMW instruction's dummy write immediately followed by its real write.
func TestMapper001_ConsecutiveCycleWriteDropped(t *testing.T) {
	cart, mapper := newMMC1Cartridge(4, 2, false)

	cart.SetCPUCycle(10)
	mapper.WritePRG(0x8000, 1) // accepted, shiftCount -> 1
	mapper.WritePRG(0x8000, 1) // same cycle, dropped

	if mapper.shiftCount != 1 {
		t.Fatalf("expected same-cycle write to be dropped, shiftCount = %d", mapper.shiftCount)
	}
}

// TestMapper001_NextCycleWriteDropped verifies that a write landing on the
// very next CPU cycle after the last accepted one is also dropped.
func TestMapper001_NextCycleWriteDropped(t *testing.T) {
	cart, mapper := newMMC1Cartridge(4, 2, false)

	cart.SetCPUCycle(10)
	mapper.WritePRG(0x8000, 1) // accepted, shiftCount -> 1
	cart.SetCPUCycle(11)
	mapper.WritePRG(0x8000, 1) // next cycle, dropped

	if mapper.shiftCount != 1 {
		t.Fatalf("expected next-cycle write to be dropped, shiftCount = %d", mapper.shiftCount)
	}
}

// TestMapper001_NonConsecutiveCycleWriteAccepted verifies that writes spaced
// at least two CPU cycles apart are both accepted.
func TestMapper001_NonConsecutiveCycleWriteAccepted(t *testing.T) {
	cart, mapper := newMMC1Cartridge(4, 2, false)

	cart.SetCPUCycle(10)
	mapper.WritePRG(0x8000, 1) // accepted, shiftCount -> 1
	cart.SetCPUCycle(12)
	mapper.WritePRG(0x8000, 1) // two cycles later, accepted

	if mapper.shiftCount != 2 {
		t.Fatalf("expected both writes to be accepted, shiftCount = %d", mapper.shiftCount)
	}
}

// TestMapper001_CHRRAM verifies CHR RAM cartridges bypass bank switching
// entirely and are writable.
func TestMapper001_CHRRAM(t *testing.T) {
	_, mapper := newMMC1Cartridge(2, 0, true)

	mapper.WriteCHR(0x0100, 0xAB)
	if got := mapper.ReadCHR(0x0100); got != 0xAB {
		t.Errorf("expected CHR RAM write to persist, got 0x%02X", got)
	}
}
