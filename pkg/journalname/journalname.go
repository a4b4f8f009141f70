// Package journalname provides filename conventions and cross-file ordering
// for rotated journal files, adapted from the teacher's pkg/seginfo (which
// named/discovered Bitcask segment files by zero-padded sequence number).
// Journal files are not segmented the way Bitcask segments are — the core
// journal engine treats each file as a standalone, independently writable
// container — but the rotation collaborator named in spec.md §5/§9 still
// needs a naming scheme for sealed files and a way to order many of them
// deterministically before building a multi-file query.
//
// Filename Format: prefix_NNNNN_timestamp.journal
//
// Where:
//   - prefix: a configurable string identifying the journal stream (e.g. "journal", "system").
//   - NNNNN: a zero-padded 5-digit rotation sequence number.
//   - timestamp: a nanosecond-precision Unix timestamp for uniqueness and traceability.
//   - .journal: the fixed extension.
package journalname

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/netdata/go-journalfile/pkg/filesys"
)

// GenerateName creates a properly formatted filename for a newly rotated
// journal file.
func GenerateName(rotationID uint64, prefix string) string {
	if prefix == "" {
		return fmt.Sprintf("INVALID_PREFIX_%05d_%d.journal", rotationID, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s_%05d_%d.journal", prefix, rotationID, time.Now().UnixNano())
}

// ParseRotationID extracts the rotation sequence number from a journal
// filename generated by GenerateName.
func ParseRotationID(fullPath, prefix string) (uint64, error) {
	_, filename := filepath.Split(fullPath)

	if !strings.HasPrefix(filename, prefix) {
		return 0, fmt.Errorf("filename %s does not start with expected prefix %s", filename, prefix)
	}

	withoutPrefix := strings.TrimPrefix(filename, prefix)
	withoutExtension := strings.Split(withoutPrefix, ".")[0]
	parts := strings.Split(withoutExtension, "_")
	if len(parts) < 3 {
		return 0, fmt.Errorf("filename %s has unexpected format, expected prefix_ID_timestamp.journal", filename)
	}

	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse rotation id %q: %w", parts[1], err)
	}
	return id, nil
}

// GetLatestRotation searches directory for journal files matching prefix
// and returns the path of the one with the highest rotation id, along with
// that id. Returns ("", 0, nil) when no journal files exist yet.
func GetLatestRotation(directory, prefix string) (string, uint64, error) {
	pattern := filepath.Join(directory, prefix+"*.journal")

	matches, err := filesys.ReadDir(pattern)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read journal directory with pattern %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", 0, nil
	}

	// Zero-padded rotation ids and monotonically increasing timestamps make
	// lexicographic order equal to rotation order.
	slices.Sort(matches)
	latest := matches[len(matches)-1]

	id, err := ParseRotationID(latest, prefix)
	if err != nil {
		return "", 0, err
	}
	return latest, id, nil
}

// FileIdentity carries the two fields SortJournalFiles needs from a
// journal file's header to establish a deterministic cross-file order:
// its seqnum id (shared by every file written by one writer lineage) and
// the sequence number of its first entry.
type FileIdentity struct {
	Path            string
	SeqnumID        [16]byte
	HeadEntrySeqnum uint64
}

// SortJournalFiles orders a set of journal files chronologically by
// (seqnum_id, head_entry_seqnum), supplementing spec.md §4.11's "file order
// in input" tie-break rule with a concrete helper for callers that don't
// already have a stable file order. Grounded in
// appgate-journaldreader's SortJournalFiles, which performs the same
// comparison directly against an opened reader; here the caller supplies
// already-resolved identities so this package has no dependency on the
// journal container format.
func SortJournalFiles(files []FileIdentity) []FileIdentity {
	sorted := make([]FileIdentity, len(files))
	copy(sorted, files)

	slices.SortFunc(sorted, func(a, b FileIdentity) int {
		if d := bytes.Compare(a.SeqnumID[:], b.SeqnumID[:]); d != 0 {
			return d
		}
		switch {
		case a.HeadEntrySeqnum < b.HeadEntrySeqnum:
			return -1
		case a.HeadEntrySeqnum > b.HeadEntrySeqnum:
			return 1
		default:
			return 0
		}
	})

	return sorted
}
