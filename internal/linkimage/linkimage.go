// Package linkimage serializes a compiled SecreC linking unit — the
// BIND, PDBIND, RODATA, and TEXT sections described by spec §4.6 — to
// a binary form handed to the external assembler (§6: without `-S`,
// `scc`'s output is "binary bytecode image produced by the external
// assembler").
//
// Grounded directly on the teacher's internal/buildutil.BytecodeFile:
// the same magic-number/version header and length-prefixed section
// framing via encoding/binary, carrying SecreC's four text sections
// instead of Sentra's Code/Constants/Lines chunk triple — the framing
// idiom transfers, the payload's meaning does not.
package linkimage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Version is bumped whenever the section layout below changes.
	Version = 1
	// MagicNumber identifies a SecreC linking-unit file ("SCRC").
	MagicNumber uint32 = 0x53435243
)

// LinkUnit is the serializable form of one compiled program's output:
// the syscall/privacy-domain binding tables, the interned string
// table, and the assembled TEXT section body.
type LinkUnit struct {
	Bind   []string
	PDBind []string
	Rodata []string
	Text   string
}

// Serialize writes u to w in the framed binary format described above.
func Serialize(w io.Writer, u *LinkUnit) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, MagicNumber); err != nil {
		return fmt.Errorf("linkimage: write magic: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(Version)); err != nil {
		return fmt.Errorf("linkimage: write version: %w", err)
	}
	if err := writeStringSlice(bw, u.Bind); err != nil {
		return fmt.Errorf("linkimage: write BIND: %w", err)
	}
	if err := writeStringSlice(bw, u.PDBind); err != nil {
		return fmt.Errorf("linkimage: write PDBIND: %w", err)
	}
	if err := writeStringSlice(bw, u.Rodata); err != nil {
		return fmt.Errorf("linkimage: write RODATA: %w", err)
	}
	if err := writeString(bw, u.Text); err != nil {
		return fmt.Errorf("linkimage: write TEXT: %w", err)
	}
	return bw.Flush()
}

// Deserialize reads a LinkUnit previously written by Serialize.
func Deserialize(r io.Reader) (*LinkUnit, error) {
	br := bufio.NewReader(r)
	var magic, version uint32
	if err := binary.Read(br, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("linkimage: read magic: %w", err)
	}
	if magic != MagicNumber {
		return nil, fmt.Errorf("linkimage: bad magic number %#x", magic)
	}
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("linkimage: read version: %w", err)
	}
	if version > Version {
		return nil, fmt.Errorf("linkimage: unsupported version %d", version)
	}

	u := &LinkUnit{}
	var err error
	if u.Bind, err = readStringSlice(br); err != nil {
		return nil, fmt.Errorf("linkimage: read BIND: %w", err)
	}
	if u.PDBind, err = readStringSlice(br); err != nil {
		return nil, fmt.Errorf("linkimage: read PDBIND: %w", err)
	}
	if u.Rodata, err = readStringSlice(br); err != nil {
		return nil, fmt.Errorf("linkimage: read RODATA: %w", err)
	}
	if u.Text, err = readString(br); err != nil {
		return nil, fmt.Errorf("linkimage: read TEXT: %w", err)
	}
	return u, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeStringSlice(w io.Writer, items []string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(items))); err != nil {
		return err
	}
	for _, s := range items {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func readStringSlice(r io.Reader) ([]string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
