package crawler

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/edsrzf/mmap-go"
)

// trimCutset matches the whitespace stripped from each input line.
const trimCutset = " \n\r\t"

// loadURLs reads the input file into the queue, one URL per line with
// surrounding whitespace trimmed. Blank lines are kept; they fail at the
// parse gate like any other invalid URL. An empty file yields no URLs and is
// never mapped (empty files cannot be mapped on all platforms). Otherwise the
// file is memory-mapped and scanned in one pass, falling back to a buffered
// scanner when mapping fails.
func loadURLs(path string, q *Queue, out io.Writer) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	fmt.Fprintf(out, "Opened %s with size %d\n", path, info.Size())
	if info.Size() == 0 {
		return 0, nil
	}

	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return scanURLs(f, q)
	}
	defer mapped.Unmap()

	count := 0
	for data := []byte(mapped); len(data) > 0; {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line = data[:i]
			data = data[i+1:]
		} else {
			data = nil
		}
		q.Push(strings.Trim(string(line), trimCutset))
		count++
	}
	return count, nil
}

// scanURLs is the non-mmap path over an already-open file.
func scanURLs(f *os.File, q *Queue) (int, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind input: %w", err)
	}
	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		q.Push(strings.Trim(scanner.Text(), trimCutset))
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("scan input: %w", err)
	}
	return count, nil
}
