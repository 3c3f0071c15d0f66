package cart

import (
	"errors"
	"testing"
)

// buildROM makes a synthetic GB image with a valid header checksum.
func buildROM(title string, cgb byte, cartType byte, size int) []byte {
	rom := make([]byte, size)
	copy(rom[0x0104:], nintendoLogo[:])
	t := []byte(title)
	if len(t) > 16 {
		t = t[:16]
	}
	copy(rom[0x0134:0x0144], t)
	if cgb != 0 {
		rom[0x0143] = cgb
	}
	rom[0x0147] = cartType
	rom[0x014B] = 0x33

	var hsum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		hsum = hsum - rom[addr] - 1
	}
	rom[0x014D] = hsum
	return rom
}

func TestIdentify_GB(t *testing.T) {
	rom := buildROM("TETRIS", 0, 0x03, 32*1024)
	info, err := Identify(rom)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if info.Kind != GB || info.Title != "TETRIS" || !info.Battery || !info.Valid {
		t.Fatalf("got %+v", info)
	}
}

func TestIdentify_CGBTitleStopsBeforeFlag(t *testing.T) {
	rom := buildROM("POKEMON CRYSTAL", 0xC0, 0x10, 64*1024)
	info, err := Identify(rom)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if info.Kind != CGB {
		t.Fatalf("Kind got %v, want cgb", info.Kind)
	}
	if info.Title != "POKEMON CRYSTAL" {
		t.Fatalf("Title got %q", info.Title)
	}
}

func TestIdentify_NES(t *testing.T) {
	rom := make([]byte, 16+16*1024)
	copy(rom, []byte{'N', 'E', 'S', 0x1A, 1, 1, 0x12, 0x00})
	info, err := Identify(rom)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if info.Kind != NES || info.Mapper != 1 || !info.Battery {
		t.Fatalf("got %+v", info)
	}
}

func TestIdentify_Errors(t *testing.T) {
	if _, err := Identify(make([]byte, 40)); !errors.Is(err, ErrTooSmall) {
		t.Fatalf("short image err = %v, want ErrTooSmall", err)
	}
	junk := make([]byte, 0x8000)
	junk[0x014D] = 0x55
	if _, err := Identify(junk); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("junk image err = %v, want ErrUnknownFormat", err)
	}
}

func TestHeaderChecksum_DetectsCorruption(t *testing.T) {
	rom := buildROM("ABC", 0, 0, 32*1024)
	if !HeaderChecksumOK(rom) {
		t.Fatalf("fresh header failed its checksum")
	}
	rom[0x0140] ^= 0xFF
	if HeaderChecksumOK(rom) {
		t.Fatalf("corrupted header passed its checksum")
	}
}
