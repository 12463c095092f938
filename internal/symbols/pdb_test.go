package symbols

import (
	"encoding/binary"
	"testing"
)

func codeView(guid [16]byte, age uint32, name string) []byte {
	data := append([]byte("RSDS"), guid[:]...)
	data = binary.LittleEndian.AppendUint32(data, age)
	data = append(data, name...)
	return append(data, 0, 0xCC, 0xCC)
}

var testGUID = [16]byte{
	0x78, 0x56, 0x34, 0x12, // Data1 0x12345678
	0xCD, 0xAB, // Data2 0xABCD
	0x01, 0xEF, // Data3 0xEF01
	0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF,
}

func TestParseCodeView(t *testing.T) {
	id, err := parseCodeView(codeView(testGUID, 3, `d:\os\obj\amd64fre\windows\dwm\udwm.pdb`))
	if err != nil {
		t.Fatal(err)
	}
	if id.PDB != "udwm.pdb" {
		t.Errorf("PDB = %q, want udwm.pdb", id.PDB)
	}
	if id.Age != 3 {
		t.Errorf("Age = %d, want 3", id.Age)
	}
	if got, want := id.Key(), "12345678ABCDEF010123456789ABCDEF3"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestParseCodeView_Invalid(t *testing.T) {
	tests := map[string][]byte{
		"short":     []byte("RSDS"),
		"bad magic": codeView(testGUID, 1, "x.pdb")[4:],
		"no name":   codeView(testGUID, 1, ""),
		"nb10":      append([]byte("NB10"), make([]byte, 30)...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseCodeView(data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIdentKey_AgeIsHex(t *testing.T) {
	id := Ident{PDB: "dwmcore.pdb", Age: 0x1A}
	if got, want := id.Key(), "000000000000000000000000000000001A"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}
