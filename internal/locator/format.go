package locator

import (
	"fmt"
	"io"
	"os"

	"github.com/h2non/filetype"
	ftypes "github.com/h2non/filetype/types"

	"gnconf/internal/platform"
)

// BinaryFormat is the executable container detected from a file header.
type BinaryFormat string

const (
	FormatUnknown BinaryFormat = "unknown"
	FormatELF     BinaryFormat = "elf"
	FormatPE      BinaryFormat = "pe"
	FormatMachO   BinaryFormat = "macho"
)

// headerSize is what filetype needs to classify a file.
const headerSize = 261

// filetypeMatchFunc is the matcher used by Inspect; tests may replace it.
var filetypeMatchFunc func([]byte) (ftypes.Type, error) = filetype.Match

// ExpectedFormat returns the container a native generator on host uses.
func ExpectedFormat(host platform.Host) BinaryFormat {
	switch host {
	case platform.Linux:
		return FormatELF
	case platform.Windows:
		return FormatPE
	case platform.MacOS:
		return FormatMachO
	default:
		return FormatUnknown
	}
}

// Inspect sniffs the executable format of the file at path. Scripts and
// anything filetype cannot classify report FormatUnknown without error.
func Inspect(path string) (BinaryFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("inspect %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, fmt.Errorf("inspect %s: read header: %w", path, err)
	}
	if n == 0 {
		return FormatUnknown, nil
	}
	kind, err := filetypeMatchFunc(head[:n])
	if err != nil {
		return FormatUnknown, fmt.Errorf("inspect %s: %w", path, err)
	}
	switch kind.Extension {
	case "elf":
		return FormatELF, nil
	case "exe":
		return FormatPE, nil
	case "macho":
		return FormatMachO, nil
	}
	return FormatUnknown, nil
}
