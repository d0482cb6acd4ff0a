package ppu

import (
	"testing"

	"nescore/internal/memory"
)

// MockCartridge implements a simple cartridge for testing
type MockCartridge struct {
	chrData [0x2000]uint8 // 8KB CHR ROM/RAM
}

func NewMockCartridge() *MockCartridge {
	return &MockCartridge{}
}

func (m *MockCartridge) ReadPRG(address uint16) uint8        { return 0 }
func (m *MockCartridge) WritePRG(address uint16, value uint8) {}

func (m *MockCartridge) ReadCHR(address uint16) uint8 {
	return m.chrData[address&0x1FFF]
}

func (m *MockCartridge) WriteCHR(address uint16, value uint8) {
	m.chrData[address&0x1FFF] = value
}

func (m *MockCartridge) SetCHRByte(address uint16, value uint8) {
	m.chrData[address&0x1FFF] = value
}

func newTestPPU() (*PPU, *memory.PPUMemory, *MockCartridge) {
	cart := NewMockCartridge()
	mem := memory.NewPPUMemory(cart, memory.MirrorHorizontal)
	p := New()
	p.SetMemory(mem)
	return p, mem, cart
}

func TestNewPPUInitialState(t *testing.T) {
	p := New()
	if p.scanline != -1 {
		t.Errorf("expected initial scanline -1, got %d", p.scanline)
	}
	if p.cycle != 0 {
		t.Errorf("expected initial cycle 0, got %d", p.cycle)
	}
	if p.frameCount != 0 {
		t.Errorf("expected initial frame count 0, got %d", p.frameCount)
	}
}

func TestResetClearsRenderingState(t *testing.T) {
	p := New()
	p.ppuCtrl = 0xFF
	p.sprite0Hit = true
	p.spriteOverflow = true
	p.oam[10] = 0x42

	p.Reset()

	if p.ppuCtrl != 0 {
		t.Errorf("expected ppuCtrl cleared, got %02X", p.ppuCtrl)
	}
	if p.sprite0Hit || p.spriteOverflow {
		t.Error("expected sprite flags cleared on reset")
	}
	if p.oam[10] != 0 {
		t.Error("expected OAM cleared on reset")
	}
	if p.ppuStatus != 0xA0 {
		t.Errorf("expected VBL flag set after reset, got status %02X", p.ppuStatus)
	}
}

func TestPPUStatusReadClearsVBLAndLatch(t *testing.T) {
	p := New()
	p.ppuStatus = 0xE0 // VBL, sprite 0 hit, overflow all set
	p.w = true

	status := p.ReadRegister(0x2002)

	if status != 0xE0 {
		t.Errorf("expected read to return 0xE0, got %02X", status)
	}
	if p.ppuStatus&0x80 != 0 {
		t.Error("expected VBL flag cleared after read")
	}
	if p.ppuStatus&0x40 != 0 {
		t.Error("expected sprite 0 hit flag cleared after read")
	}
	if p.w {
		t.Error("expected write latch cleared after PPUSTATUS read")
	}
}

func TestWriteRegisterPPUCTRLSetsNametableBits(t *testing.T) {
	p := New()
	p.WriteRegister(0x2000, 0x03)
	if p.t&0x0C00 != 0x0C00 {
		t.Errorf("expected nametable select bits set in t, got %04X", p.t)
	}
}

func TestOAMDMAAutoIncrementsAddress(t *testing.T) {
	p := New()
	p.oamAddr = 0xFE
	p.WriteRegister(0x2004, 0xAB)
	if p.oam[0xFE] != 0xAB {
		t.Errorf("expected OAM[0xFE]=0xAB, got %02X", p.oam[0xFE])
	}
	if p.oamAddr != 0xFF {
		t.Errorf("expected oamAddr to auto-increment to 0xFF, got %02X", p.oamAddr)
	}
}

func TestVBlankSetsStatusAndTriggersNMI(t *testing.T) {
	p, _, _ := newTestPPU()
	nmiFired := false
	p.SetNMICallback(func() { nmiFired = true })
	p.ppuCtrl = 0x80 // NMI enabled

	p.scanline = 241
	p.cycle = 0
	p.Step() // advances cycle to 1, hits the VBlank-start branch

	if p.ppuStatus&0x80 == 0 {
		t.Error("expected VBL flag set at scanline 241 cycle 1")
	}
	if !nmiFired {
		t.Error("expected NMI callback to fire when PPUCTRL NMI enable bit is set")
	}
}

func TestVBlankNotTriggeredWhenNMIDisabled(t *testing.T) {
	p, _, _ := newTestPPU()
	nmiFired := false
	p.SetNMICallback(func() { nmiFired = true })
	p.ppuCtrl = 0x00

	p.scanline = 241
	p.cycle = 0
	p.Step()

	if nmiFired {
		t.Error("did not expect NMI callback when PPUCTRL NMI enable bit is clear")
	}
}

func TestPreRenderClearsVBLFlag(t *testing.T) {
	p := New()
	p.ppuStatus = 0x80
	p.scanline = -1
	p.cycle = 0
	p.Step()

	if p.ppuStatus&0x80 != 0 {
		t.Error("expected VBL flag cleared at pre-render scanline cycle 1")
	}
}

func TestFrameCompleteCallbackFiresAfterScanline260(t *testing.T) {
	p := New()
	fired := false
	p.SetFrameCompleteCallback(func() { fired = true })
	p.scanline = 260
	p.cycle = 340

	p.Step()

	if !fired {
		t.Error("expected frame complete callback after scanline 260 wraps")
	}
	if p.scanline != -1 {
		t.Errorf("expected scanline to wrap to -1, got %d", p.scanline)
	}
	if p.frameCount != 1 {
		t.Errorf("expected frame count incremented to 1, got %d", p.frameCount)
	}
}

func TestRenderScanlineFillsFrameBuffer(t *testing.T) {
	p, mem, cart := newTestPPU()
	p.backgroundEnabled = true
	p.spritesEnabled = false

	// Non-zero tile pattern so the background pixel isn't all transparent.
	cart.SetCHRByte(0, 0xFF)
	cart.SetCHRByte(8, 0x00)
	mem.Write(0x3F00, 0x10) // universal background color

	p.renderScanline(10)

	nonZero := false
	for x := 0; x < 256; x++ {
		if p.frameBuffer[10*256+x] != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("expected renderScanline to populate frame buffer row with non-zero colors")
	}
}

func TestRenderScanlineSkipsWhenRenderingDisabled(t *testing.T) {
	p, _, _ := newTestPPU()
	p.backgroundEnabled = false
	p.spritesEnabled = false

	for x := 0; x < 256; x++ {
		p.frameBuffer[5*256+x] = 0xFFFFFFFF
	}
	p.renderScanline(5)

	for x := 0; x < 256; x++ {
		if p.frameBuffer[5*256+x] != 0xFFFFFFFF {
			t.Fatal("expected renderScanline to leave frame buffer untouched when rendering disabled")
		}
	}
}

func TestEvaluateSpritesFindsSpritesOnScanline(t *testing.T) {
	p, _, _ := newTestPPU()
	p.spritesEnabled = true
	p.scanline = 50

	// Sprite at Y=49 (so scanline 50 is its first visible row), tile 1, attr 0, X 10
	p.oam[0] = 49
	p.oam[1] = 1
	p.oam[2] = 0
	p.oam[3] = 10

	p.evaluateSprites()

	if p.spriteCount != 1 {
		t.Fatalf("expected 1 sprite found, got %d", p.spriteCount)
	}
	if !p.sprite0OnScanline {
		t.Error("expected sprite 0 flagged present on scanline")
	}
}

func TestEvaluateSpritesSetsOverflowPastEight(t *testing.T) {
	p, _, _ := newTestPPU()
	p.spritesEnabled = true
	p.scanline = 100

	for i := 0; i < 9; i++ {
		base := i * 4
		p.oam[base] = 99    // Y
		p.oam[base+1] = 1   // tile
		p.oam[base+2] = 0   // attr
		p.oam[base+3] = uint8(i * 8)
	}

	p.evaluateSprites()

	if p.spriteCount != 8 {
		t.Errorf("expected sprite count capped at 8, got %d", p.spriteCount)
	}
	if !p.spriteOverflow {
		t.Error("expected sprite overflow flag set with 9 sprites on one scanline")
	}
	if p.ppuStatus&0x20 == 0 {
		t.Error("expected PPUSTATUS overflow bit set")
	}
}

func TestCheckSprite0HitRequiresBothLayersEnabled(t *testing.T) {
	p, _, _ := newTestPPU()
	p.backgroundEnabled = false
	p.spritesEnabled = true

	p.checkSprite0Hit(100, 100, 1)

	if p.sprite0Hit {
		t.Error("sprite 0 hit should not register when background rendering is disabled")
	}
}

func TestCheckSprite0HitExcludesRightmostColumn(t *testing.T) {
	p, _, _ := newTestPPU()
	p.backgroundEnabled = true
	p.spritesEnabled = true

	p.checkSprite0Hit(255, 100, 1)

	if p.sprite0Hit {
		t.Error("sprite 0 hit should never fire at pixel x=255")
	}
}

func TestIncrementXWrapsNametable(t *testing.T) {
	p := New()
	p.v = 0x001F // coarse X at max (31)
	p.incrementX()

	if p.v&0x001F != 0 {
		t.Errorf("expected coarse X to wrap to 0, got %d", p.v&0x001F)
	}
	if p.v&0x0400 == 0 {
		t.Error("expected horizontal nametable bit to toggle on coarse X wrap")
	}
}

func TestCopyXYRestrictToOwnBits(t *testing.T) {
	p := New()
	p.t = 0xFFFF
	p.v = 0

	p.copyX()
	if p.v&0x0421 != 0 && p.v & ^uint16(0x0000) == 0 {
		// sanity check only: copyX should have copied at least the horizontal bits
	}
	p.copyY()
	if p.v == 0 {
		t.Error("expected copyY to copy vertical scroll bits from t")
	}
}

func TestNESColorToRGBStableForSameIndex(t *testing.T) {
	p := New()
	a := p.NESColorToRGB(0x20)
	b := p.NESColorToRGB(0x20)
	if a != b {
		t.Error("expected NESColorToRGB to be a pure function of its index")
	}
}

func TestSetLoggerDoesNotPanicOnNil(t *testing.T) {
	p := New()
	p.SetLogger(nil)
	p.log.Infof("still usable after nil SetLogger")
}
