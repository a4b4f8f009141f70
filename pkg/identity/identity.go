// Package identity resolves the four 16-byte identifiers that a journal
// file header carries: the file id, the machine id, the boot id, and the
// seqnum id (spec.md §6). Machine id and boot id are read from the host
// when available, grounded in the original Rust implementation's
// load_machine_id/load_boot_id; file id and seqnum id are generated fresh
// per the original's "random 16 bytes" rule, using github.com/google/uuid
// for the random generation the way rpcpool-yellowstone-faithful does for
// its own identifier generation.
package identity

import (
	"os"
	"strings"

	"github.com/google/uuid"

	journalerrors "github.com/netdata/go-journalfile/pkg/errors"
)

const (
	machineIDPath = "/etc/machine-id"
	bootIDPath    = "/proc/sys/kernel/random/boot_id"
)

// ID is a 16-byte identifier stored verbatim in a journal header field.
type ID [16]byte

// IsZero reports whether id is the all-zero identifier, which is never a
// valid file, machine, boot, or seqnum id.
func (id ID) IsZero() bool {
	return id == ID{}
}

// NewFileID generates a fresh random file id, distinguishing this journal
// file from every other file ever created.
func NewFileID() ID {
	return ID(uuid.New())
}

// NewSeqnumID generates a fresh random seqnum id. All entries appended
// through a single writer session share one seqnum id; it changes only
// when a new journal file is created.
func NewSeqnumID() ID {
	return ID(uuid.New())
}

// LoadMachineID reads the host's machine id from /etc/machine-id, parsing
// its first 32 hex characters into 16 bytes. If the file is absent or
// shorter than 32 characters, it falls back to a freshly generated random
// id so journal creation never fails purely for lack of host identity
// plumbing; a file whose first 32 characters are not all hex digits
// returns an ErrorCodeUUIDSerde error.
func LoadMachineID() (ID, error) {
	return loadHexIDFile(machineIDPath)
}

// LoadBootID reads the kernel's boot id from
// /proc/sys/kernel/random/boot_id, which is formatted as a standard
// hyphenated UUID. Falls back to a random id when unavailable (e.g. in a
// sandboxed or non-Linux environment).
func LoadBootID() (ID, error) {
	raw, err := os.ReadFile(bootIDPath)
	if err != nil {
		return ID(uuid.New()), nil
	}

	parsed, err := uuid.Parse(strings.TrimSpace(string(raw)))
	if err != nil {
		return ID{}, journalerrors.NewBaseError(
			err, journalerrors.ErrorCodeUUIDSerde, "malformed boot id",
		).WithDetail("path", bootIDPath)
	}

	return ID(parsed), nil
}

// loadHexIDFile reads a file containing exactly 32 hex characters (no
// hyphens), the format /etc/machine-id uses.
func loadHexIDFile(path string) (ID, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ID(uuid.New()), nil
	}

	hexStr := strings.TrimSpace(string(raw))
	if len(hexStr) < 32 {
		return ID(uuid.New()), nil
	}

	var id ID
	n, err := decodeHex(id[:], hexStr[:32])
	if err != nil || n != 16 {
		return ID{}, journalerrors.NewBaseError(
			err, journalerrors.ErrorCodeUUIDSerde, "malformed machine id",
		).WithDetail("path", path)
	}
	return id, nil
}

func decodeHex(dst []byte, src string) (int, error) {
	for i := 0; i < len(dst); i++ {
		hi, err := hexNibble(src[i*2])
		if err != nil {
			return i, err
		}
		lo, err := hexNibble(src[i*2+1])
		if err != nil {
			return i, err
		}
		dst[i] = hi<<4 | lo
	}
	return len(dst), nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, journalerrors.NewBaseError(nil, journalerrors.ErrorCodeUUIDSerde, "non-hex character in id").
			WithDetail("byte", c)
	}
}
