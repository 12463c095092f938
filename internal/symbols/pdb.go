package symbols

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	debugTypeCodeView = 2
	debugEntrySize    = 28
	codeViewMinSize   = 24
)

var codeViewMagic = []byte("RSDS")

// Ident identifies the PDB matching one compositor module build.
type Ident struct {
	PDB  string
	GUID [16]byte
	Age  uint32
}

// Key returns the symbol store key: the GUID in registry byte order without
// dashes followed by the age, both uppercase hex.
func (i Ident) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%08X%04X%04X",
		binary.LittleEndian.Uint32(i.GUID[0:4]),
		binary.LittleEndian.Uint16(i.GUID[4:6]),
		binary.LittleEndian.Uint16(i.GUID[6:8]))
	for _, c := range i.GUID[8:] {
		fmt.Fprintf(&b, "%02X", c)
	}
	fmt.Fprintf(&b, "%X", i.Age)
	return b.String()
}

// readIdent reads the CodeView record from the debug directory of the PE
// image at path.
func readIdent(path string) (Ident, error) {
	f, err := pe.Open(path)
	if err != nil {
		return Ident{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var dir pe.DataDirectory
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		if oh.NumberOfRvaAndSizes <= pe.IMAGE_DIRECTORY_ENTRY_DEBUG {
			return Ident{}, fmt.Errorf("%s: no debug directory", path)
		}
		dir = oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_DEBUG]
	case *pe.OptionalHeader64:
		if oh.NumberOfRvaAndSizes <= pe.IMAGE_DIRECTORY_ENTRY_DEBUG {
			return Ident{}, fmt.Errorf("%s: no debug directory", path)
		}
		dir = oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_DEBUG]
	default:
		return Ident{}, fmt.Errorf("%s: missing optional header", path)
	}
	if dir.Size == 0 {
		return Ident{}, fmt.Errorf("%s: no debug directory", path)
	}

	entries, err := readRVA(f, dir.VirtualAddress, dir.Size)
	if err != nil {
		return Ident{}, fmt.Errorf("%s: reading debug directory: %w", path, err)
	}
	for off := 0; off+debugEntrySize <= len(entries); off += debugEntrySize {
		e := entries[off : off+debugEntrySize]
		if binary.LittleEndian.Uint32(e[12:16]) != debugTypeCodeView {
			continue
		}
		size := binary.LittleEndian.Uint32(e[16:20])
		rva := binary.LittleEndian.Uint32(e[20:24])
		data, err := readRVA(f, rva, size)
		if err != nil {
			return Ident{}, fmt.Errorf("%s: reading CodeView record: %w", path, err)
		}
		ident, err := parseCodeView(data)
		if err != nil {
			return Ident{}, fmt.Errorf("%s: %w", path, err)
		}
		return ident, nil
	}
	return Ident{}, fmt.Errorf("%s: no CodeView debug entry", path)
}

// readRVA reads size bytes at the relative virtual address rva.
func readRVA(f *pe.File, rva, size uint32) ([]byte, error) {
	for _, s := range f.Sections {
		if rva < s.VirtualAddress || rva >= s.VirtualAddress+s.VirtualSize {
			continue
		}
		buf := make([]byte, size)
		if _, err := s.ReadAt(buf, int64(rva-s.VirtualAddress)); err != nil {
			return nil, err
		}
		return buf, nil
	}
	return nil, fmt.Errorf("rva %#x is outside every section", rva)
}

// parseCodeView decodes an RSDS record: magic, GUID, age and the
// NUL-terminated PDB path.
func parseCodeView(data []byte) (Ident, error) {
	if len(data) < codeViewMinSize || !bytes.Equal(data[:4], codeViewMagic) {
		return Ident{}, errors.New("unsupported CodeView record")
	}
	var id Ident
	copy(id.GUID[:], data[4:20])
	id.Age = binary.LittleEndian.Uint32(data[20:24])

	name := data[codeViewMinSize:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	pdb := string(name)
	if i := strings.LastIndexAny(pdb, `\/`); i >= 0 {
		pdb = pdb[i+1:]
	}
	if pdb == "" {
		return Ident{}, errors.New("CodeView record has no PDB name")
	}
	id.PDB = pdb
	return id, nil
}
