package goslink

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// noSeqToken marks "never delivered" (SeqNum == -1) in the state file. It
// cannot collide with a real sequence number, which is always rendered as
// 6 hex digits.
const noSeqToken = "-"

// SaveState writes one ASCII line per stream entry to path: "net sta
// hex_seq timestamp". The file is replaced atomically by writing to
// "<path>.tmp" and renaming over path. logger may be nil, in which case the
// process-wide fallback tagged "persist" is used.
func SaveState(path string, s *StreamList, logger Logger) error {
	if logger == nil {
		logger = DefaultLogger("persist")
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for _, e := range s.Entries() {
		hex := noSeqToken
		if e.SeqNum >= 0 {
			hex = fmt.Sprintf("%06X", e.SeqNum)
		}
		if _, err := fmt.Fprintf(w, "%s %s %s %s\n", e.Net, e.Sta, hex, e.Timestamp); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	logger.Log("saved state for %d stream(s) to %s", s.Len(), path)
	return nil
}

// RecoverState parses a file written by SaveState and, for every stream
// entry already subscribed (matched exactly by net/sta), replaces its
// seqnum and timestamp with the file's values. Unmatched lines are
// ignored. A missing file is not an error. logger may be nil, in which case
// the process-wide fallback tagged "persist" is used.
func RecoverState(path string, s *StreamList, logger Logger) error {
	if logger == nil {
		logger = DefaultLogger("persist")
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Diag("state file %s does not exist, nothing to recover", path)
			return nil
		}
		return err
	}
	defer f.Close()

	byKey := make(map[string]*Stream, len(s.Entries()))
	for _, e := range s.Entries() {
		byKey[e.Net+"."+e.Sta] = e
	}

	recovered := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, " ", 4)
		if len(fields) < 3 {
			continue
		}
		net, sta, hexSeq := fields[0], fields[1], fields[2]
		timestamp := ""
		if len(fields) == 4 {
			timestamp = fields[3]
		}

		entry, ok := byKey[net+"."+sta]
		if !ok {
			logger.Diag("no subscription for %s.%s in state file, skipping", net, sta)
			continue
		}

		if hexSeq == noSeqToken {
			entry.SeqNum = -1
			entry.Timestamp = timestamp
			recovered++
			continue
		}

		seq, err := strconv.ParseUint(hexSeq, 16, 32)
		if err != nil || seq > 0xFFFFFF {
			logger.Diag("invalid sequence %q for %s.%s in state file, skipping", hexSeq, net, sta)
			continue
		}
		entry.SeqNum = int32(seq)
		entry.Timestamp = timestamp
		recovered++
	}
	if err := sc.Err(); err != nil {
		return err
	}
	logger.Log("recovered state for %d stream(s) from %s", recovered, path)
	return nil
}
