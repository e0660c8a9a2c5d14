package universal

import (
	"context"
	"debug/macho"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/oshokin/app-packager/internal/platform"
)

const (
	// fatAlignBits is the log2 alignment of each slice: amd64 needs 12 bits, arm64 needs 14.
	fatAlignBits = 14
	// fatAlign is the slice alignment in bytes.
	fatAlign = 1 << fatAlignBits
	// machoHeaderPrefix is magic + cputype + cpusubtype.
	machoHeaderPrefix = 12
	// fatExecutableMode is applied to the merged executable.
	fatExecutableMode os.FileMode = 0o755
)

var (
	// ErrNotMachO is returned when an input is not a thin little-endian Mach-O file.
	ErrNotMachO = errors.New("input is not a Mach-O executable")
	// ErrFatTooLarge is returned when slices do not fit the 32-bit fat header.
	ErrFatTooLarge = errors.New("inputs too large for a fat binary")
	// errNoInputs is returned when Merge is called without inputs.
	errNoInputs = errors.New("no inputs to merge")
)

// BuiltinMerger writes fat Mach-O executables in-process, so it works on any host.
type BuiltinMerger struct{}

// fatSlice is one architecture inside the fat file.
type fatSlice struct {
	// data is the whole thin executable.
	data []byte
	// cpu is the Mach-O cputype.
	cpu uint32
	// subCPU is the Mach-O cpusubtype.
	subCPU uint32
	// offset is where the slice starts in the fat file.
	offset uint64
}

// NewBuiltinMerger returns the in-process merger.
func NewBuiltinMerger() *BuiltinMerger {
	return &BuiltinMerger{}
}

// Name returns "builtin".
func (*BuiltinMerger) Name() string {
	return "builtin"
}

// Available is true on every host.
func (*BuiltinMerger) Available(platform.Host) bool {
	return true
}

// Merge reads the thin executables and writes a fat binary to output.
func (*BuiltinMerger) Merge(_ context.Context, output string, inputs ...string) error {
	if len(inputs) == 0 {
		return errNoInputs
	}

	slices := make([]fatSlice, 0, len(inputs))
	seen := make(map[uint32]string, len(inputs))
	offset := uint64(fatAlign)

	for _, input := range inputs {
		slice, err := readThin(input)
		if err != nil {
			return err
		}

		if first, ok := seen[slice.cpu]; ok {
			return fmt.Errorf("%s and %s share cpu type %#x: %w", first, input, slice.cpu, ErrArchitectureMismatch)
		}

		seen[slice.cpu] = input

		slice.offset = offset
		slices = append(slices, slice)

		offset += uint64(len(slice.data))
		offset = (offset + fatAlign - 1) / fatAlign * fatAlign
	}

	last := slices[len(slices)-1]
	if last.offset+uint64(len(last.data)) > math.MaxUint32 {
		return ErrFatTooLarge
	}

	return writeFat(output, slices)
}

// readThin loads one input and validates its Mach-O magic.
func readThin(path string) (fatSlice, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fatSlice{}, fmt.Errorf("read %s: %w", path, err)
	}

	if len(data) < machoHeaderPrefix {
		return fatSlice{}, fmt.Errorf("%s: %w", path, ErrNotMachO)
	}

	// Every supported macOS architecture is little-endian.
	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != macho.Magic32 && magic != macho.Magic64 {
		return fatSlice{}, fmt.Errorf("%s (magic %#x): %w", path, magic, ErrNotMachO)
	}

	return fatSlice{
		data:   data,
		cpu:    binary.LittleEndian.Uint32(data[4:8]),
		subCPU: binary.LittleEndian.Uint32(data[8:12]),
	}, nil
}

// writeFat writes the big-endian fat header followed by the aligned slices.
func writeFat(output string, slices []fatSlice) error {
	header := make([]uint32, 0, 2+5*len(slices))
	header = append(header, macho.MagicFat, uint32(len(slices))) //nolint:gosec // Two inputs.

	for _, slice := range slices {
		header = append(header,
			slice.cpu,
			slice.subCPU,
			uint32(slice.offset),    //nolint:gosec // Checked against MaxUint32.
			uint32(len(slice.data)), //nolint:gosec // Checked against MaxUint32.
			fatAlignBits,
		)
	}

	out, err := os.OpenFile(filepath.Clean(output), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fatExecutableMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}

	if err = writeFatBody(out, header, slices); err != nil {
		_ = out.Close()

		return fmt.Errorf("write %s: %w", output, err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", output, err)
	}

	return platform.Chmod(output, fatExecutableMode)
}

// writeFatBody streams the header and pads each slice to its offset.
func writeFatBody(w io.Writer, header []uint32, slices []fatSlice) error {
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return err
	}

	written := uint64(4 * len(header))

	for _, slice := range slices {
		if written < slice.offset {
			if _, err := w.Write(make([]byte, slice.offset-written)); err != nil {
				return err
			}

			written = slice.offset
		}

		if _, err := w.Write(slice.data); err != nil {
			return err
		}

		written += uint64(len(slice.data))
	}

	return nil
}
