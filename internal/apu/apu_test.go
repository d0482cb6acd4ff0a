package apu

import "testing"

func TestNewAPUInitialState(t *testing.T) {
	a := New()
	if a.cycles != 0 {
		t.Errorf("expected cycles=0, got %d", a.cycles)
	}
	if a.frameIRQFlag {
		t.Error("frame IRQ flag should start clear")
	}
	if a.noise.shiftRegister != 1 {
		t.Errorf("expected noise LFSR seeded to 1, got %d", a.noise.shiftRegister)
	}
}

func TestResetClearsChannelsAndFlags(t *testing.T) {
	a := New()
	a.pulse1.volume = 15
	a.frameIRQFlag = true
	a.channelEnable[0] = true
	a.cycles = 1000

	a.Reset()

	if a.pulse1.volume != 0 {
		t.Error("expected pulse1 cleared on reset")
	}
	if a.frameIRQFlag {
		t.Error("expected frame IRQ flag cleared on reset")
	}
	if a.channelEnable[0] {
		t.Error("expected channel enables cleared on reset")
	}
	if a.noise.shiftRegister != 1 {
		t.Error("expected noise LFSR reseeded to 1 on reset")
	}
}

func TestWritePulseControlSetsDutyAndVolume(t *testing.T) {
	a := New()
	a.WriteRegister(0x4000, 0xBF) // duty=10, halt, constant volume, vol=15

	if a.pulse1.dutyCycle != 2 {
		t.Errorf("expected duty cycle 2, got %d", a.pulse1.dutyCycle)
	}
	if !a.pulse1.lengthHalt {
		t.Error("expected length halt set")
	}
	if !a.pulse1.envelopeDisable {
		t.Error("expected constant volume flag set")
	}
	if a.pulse1.volume != 15 {
		t.Errorf("expected volume 15, got %d", a.pulse1.volume)
	}
}

func TestPulseTimerHighLoadsLengthAndResetsDuty(t *testing.T) {
	a := New()
	a.pulse1.dutyIndex = 5
	a.WriteRegister(0x4002, 0x55)
	a.WriteRegister(0x4003, 0x08) // length index 1 -> lengthTable[1] = 254

	if a.pulse1.timer != 0x055 {
		t.Errorf("expected timer 0x055, got %03X", a.pulse1.timer)
	}
	if a.pulse1.lengthCounter != lengthTable[1] {
		t.Errorf("expected length counter %d, got %d", lengthTable[1], a.pulse1.lengthCounter)
	}
	if a.pulse1.dutyIndex != 0 {
		t.Error("expected duty index reset on timer-high write")
	}
}

func TestWriteChannelEnableClearsLengthCounters(t *testing.T) {
	a := New()
	a.pulse1.lengthCounter = 10
	a.triangle.lengthCounter = 10

	a.WriteRegister(0x4015, 0x00)

	if a.pulse1.lengthCounter != 0 {
		t.Error("expected pulse1 length counter cleared when channel disabled")
	}
	if a.triangle.lengthCounter != 0 {
		t.Error("expected triangle length counter cleared when channel disabled")
	}
}

func TestWriteChannelEnableArmsDMC(t *testing.T) {
	a := New()
	a.WriteRegister(0x4012, 0x10) // sample address = 0xC000 + (0x10<<6)
	a.WriteRegister(0x4013, 0x01) // sample length = (1<<4)+1 = 17

	a.WriteRegister(0x4015, 0x10) // enable DMC

	if a.dmc.currentAddress != a.dmc.sampleAddress {
		t.Error("expected DMC current address armed from sample address")
	}
	if a.dmc.bytesRemaining != a.dmc.sampleLength {
		t.Error("expected DMC bytes remaining armed from sample length")
	}
}

func TestReadStatusReflectsLengthCountersAndClearsFrameIRQ(t *testing.T) {
	a := New()
	a.pulse1.lengthCounter = 1
	a.frameIRQFlag = true
	a.dmc.irqFlag = true

	status := a.ReadStatus()

	if status&0x01 == 0 {
		t.Error("expected pulse1 status bit set")
	}
	if status&0x40 == 0 {
		t.Error("expected frame IRQ status bit set in the read value")
	}
	if status&0x80 == 0 {
		t.Error("expected DMC IRQ status bit set in the read value")
	}
	if a.frameIRQFlag {
		t.Error("expected frame IRQ flag cleared by the status read")
	}
}

func TestDMCFetchesThroughCPUReaderAndStalls(t *testing.T) {
	a := New()
	a.SetRegion(RegionNTSC)

	mem := map[uint16]uint8{0xC000: 0xFF}
	a.SetCPUReader(func(addr uint16) uint8 { return mem[addr] })

	a.WriteRegister(0x4012, 0x00) // sample address 0xC000
	a.WriteRegister(0x4013, 0x00) // sample length 1
	a.WriteRegister(0x4015, 0x10) // enable DMC, arms fetch

	a.dmc.sampleBufferEmpty = true
	a.dmc.sampleBufferBits = 0

	rate := a.dmcRateTable()[a.dmc.rateIndex]
	for i := uint16(0); i < rate; i++ {
		a.stepDMCTimer(&a.dmc)
	}

	if a.dmc.sampleBuffer != 0xFF {
		t.Errorf("expected sample buffer loaded via CPU reader, got %02X", a.dmc.sampleBuffer)
	}
	if a.TakeDMCStall() == 0 {
		t.Error("expected a nonzero DMC stall after a sample fetch")
	}
}

func TestSetRegionSelectsRateTables(t *testing.T) {
	a := New()
	a.SetRegion(RegionPAL)
	if a.dmcRateTable()[0] != dmcRateTablePAL[0] {
		t.Error("expected PAL DMC rate table selected")
	}
	if a.noisePeriodTable()[0] != noisePeriodTablePAL[0] {
		t.Error("expected PAL noise period table selected")
	}

	a.SetRegion(RegionNTSC)
	if a.dmcRateTable()[0] != dmcRateTableNTSC[0] {
		t.Error("expected NTSC DMC rate table selected")
	}
}

func TestMixChannelsStaysInSignedRange(t *testing.T) {
	a := New()
	sample := a.mixChannels(15, 15, 15, 15, 127)
	if sample < -1.0 || sample > 1.0 {
		t.Errorf("mixed sample out of [-1,1] range: %f", sample)
	}

	silence := a.mixChannels(0, 0, 0, 0, 0)
	if silence != 0 {
		t.Errorf("expected silence to mix to exactly 0, got %f", silence)
	}
}

func TestGetSamplesDrainsBuffer(t *testing.T) {
	a := New()
	a.channelEnable[0] = true
	for i := 0; i < 200; i++ {
		a.Step()
	}

	samples := a.GetSamples()
	if len(samples) == 0 {
		t.Error("expected Step to accumulate audio samples")
	}
	if len(a.GetSamples()) != 0 {
		t.Error("expected GetSamples to drain the buffer")
	}
}

func TestSetLoggerDoesNotPanicOnNil(t *testing.T) {
	a := New()
	a.SetLogger(nil)
	a.log.Infof("still usable after nil SetLogger")
}
