package goslink

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ImportStreamList parses the plain-text initial-subscription file format
// (distinct from the resumption state file): one "NET STA [selector
// [selector...]]" line per subscription, "#"-prefixed comments and blank
// lines skipped. Entries start with seqnum -1 ("from next") since this
// format carries no resume point. Recovered from the original client's
// stream-list file reader (sl_read_streamlist/sl_parse_streamlist).
func ImportStreamList(r io.Reader) (*StreamList, error) {
	list := NewStreamList()
	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("goslink: stream list line %d: expected at least NET STA", lineNum)
		}
		net, sta := fields[0], fields[1]
		selectors := strings.Join(fields[2:], " ")
		if err := list.Add(net, sta, selectors, -1, ""); err != nil {
			return nil, fmt.Errorf("goslink: stream list line %d: %w", lineNum, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// ExportStreamList writes list in the same NET STA [selectors...] format
// ImportStreamList reads, the converse of that reader. Entries with no
// selectors are written as bare "NET STA" lines.
func ExportStreamList(w io.Writer, list *StreamList) error {
	bw := bufio.NewWriter(w)
	for _, e := range list.Entries() {
		line := e.Net + " " + e.Sta
		if e.Selectors != "" {
			line += " " + e.Selectors
		}
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
