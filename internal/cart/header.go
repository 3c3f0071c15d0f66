// Package cart identifies ROM images so the frontend can pick a core and a
// save key before anything runs.
package cart

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTooSmall      = errors.New("cart: image too small")
	ErrUnknownFormat = errors.New("cart: unknown image format")
)

// Kind is the platform a ROM targets.
type Kind uint8

const (
	Unknown Kind = iota
	GB
	CGB
	NES
)

func (k Kind) String() string {
	switch k {
	case GB:
		return "gb"
	case CGB:
		return "cgb"
	case NES:
		return "nes"
	default:
		return "unknown"
	}
}

const (
	gbHeaderEnd = 0x014F
	gbTitle     = 0x0134
	gbCGBFlag   = 0x0143
	gbCartType  = 0x0147
	inesHeader  = 16
)

var inesMagic = []byte{'N', 'E', 'S', 0x1A}

// Info is what the frontend needs to know about a ROM.
type Info struct {
	Kind    Kind
	Title   string // trimmed ASCII; empty for NES images
	Mapper  int    // NES mapper number, GB cartridge type byte
	Battery bool
	Valid   bool // GB header checksum matched; always true for NES
}

// Identify inspects rom and reports its platform.
func Identify(rom []byte) (Info, error) {
	if len(rom) >= inesHeader && bytes.Equal(rom[:4], inesMagic) {
		return identifyNES(rom), nil
	}
	if len(rom) < gbHeaderEnd+1 {
		return Info{}, fmt.Errorf("%w: %d bytes", ErrTooSmall, len(rom))
	}
	if !HeaderChecksumOK(rom) && !hasLogo(rom) {
		return Info{}, ErrUnknownFormat
	}
	return identifyGB(rom), nil
}

func identifyNES(rom []byte) Info {
	ctrl1, ctrl2 := rom[6], rom[7]
	return Info{
		Kind:    NES,
		Mapper:  int(ctrl1>>4) | int(ctrl2&0xF0),
		Battery: ctrl1&0x02 != 0,
		Valid:   true,
	}
}

func identifyGB(rom []byte) Info {
	// 0x0143 doubles as the last title byte on DMG carts.
	flag := rom[gbCGBFlag]
	end := gbCGBFlag + 1
	kind := GB
	if flag == 0x80 || flag == 0xC0 {
		kind = CGB
		end = gbCGBFlag
	}
	title := strings.TrimRight(string(rom[gbTitle:end]), "\x00 ")
	ct := rom[gbCartType]
	return Info{
		Kind:    kind,
		Title:   title,
		Mapper:  int(ct),
		Battery: gbBattery(ct),
		Valid:   HeaderChecksumOK(rom),
	}
}

func gbBattery(code byte) bool {
	switch code {
	case 0x03, 0x06, 0x09, 0x0D, 0x0F, 0x10, 0x13, 0x1B, 0x1E, 0x22, 0xFF:
		return true
	}
	return false
}

var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

func hasLogo(rom []byte) bool {
	return bytes.Equal(rom[0x0104:0x0104+len(nintendoLogo)], nintendoLogo[:])
}

// HeaderChecksumOK runs the boot ROM's check over 0x0134-0x014C.
func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < 0x014E {
		return false
	}
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum == rom[0x014D]
}
