// Package adif reads and writes Amateur Data Interchange Format files in the
// tagged .adi form: <NAME:LENGTH[:TYPE]>DATA, records terminated by <EOR>, an
// optional header terminated by <EOH>.
package adif

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
)

// Extension is the file extension of tagged ADIF files.
const Extension = ".adi"

// Version is the ADIF specification version written into headers.
const Version = "3.1.4"

// ProgramID identifies the writer in exported headers.
const ProgramID = "qsolog"

// Record maps upper-case field names to values.
type Record map[string]string

// Read parses the ADIF file at path.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return records, nil
}

// Parse reads every record from r. Fields after the last <EOR> are dropped.
func Parse(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = skipHeader(data)

	var (
		out     []Record
		current = Record{}
		pos     = 0
	)
	for {
		open := bytes.IndexByte(data[pos:], '<')
		if open < 0 {
			break
		}
		start := pos + open
		end := bytes.IndexByte(data[start:], '>')
		if end < 0 {
			return nil, errors.Errorf("unterminated tag at offset %d", start)
		}
		tag := string(data[start+1 : start+end])
		pos = start + end + 1

		name, length, err := parseTag(tag)
		if err != nil {
			return nil, errors.Wrapf(err, "offset %d", start)
		}
		switch {
		case name == "EOR":
			if len(current) > 0 {
				out = append(out, current)
			}
			current = Record{}
			continue
		case length < 0:
			// valueless tags other than EOR (a stray EOH) carry nothing
			continue
		}
		if length > len(data)-pos {
			return nil, errors.Errorf("field %s at offset %d: length %d exceeds input", name, start, length)
		}
		current[name] = string(data[pos : pos+length])
		pos += length
	}
	return out, nil
}

// skipHeader returns data positioned after <EOH>. A file whose first
// character is '<' has no header.
func skipHeader(data []byte) []byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return data
	}
	i := bytes.Index(bytes.ToUpper(data), []byte("<EOH>"))
	if i < 0 {
		return data
	}
	return data[i+len("<EOH>"):]
}

// parseTag splits "NAME:LEN[:TYPE]". Length is -1 for valueless tags.
func parseTag(tag string) (string, int, error) {
	parts := strings.Split(tag, ":")
	name := strings.ToUpper(strings.TrimSpace(parts[0]))
	if name == "" {
		return "", 0, errors.New("empty tag name")
	}
	if len(parts) == 1 {
		return name, -1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || n < 0 {
		return "", 0, errors.Errorf("field %s: bad length %q", name, parts[1])
	}
	return name, n, nil
}

// Encode writes a header followed by records. Only the given fields are
// written, in order, and empty values are skipped. A nil fields slice writes
// every field of each record in name order.
func Encode(w io.Writer, records []Record, fields []string, now time.Time) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Exported by %s on %s\n", ProgramID, now.UTC().Format(time.RFC1123))
	writeField(bw, "ADIF_VER", Version)
	writeField(bw, "PROGRAMID", ProgramID)
	writeField(bw, "CREATED_TIMESTAMP", now.UTC().Format("20060102 150405"))
	bw.WriteString("\n<EOH>\n\n")

	for _, rec := range records {
		names := fields
		if names == nil {
			names = make([]string, 0, len(rec))
			for k := range rec {
				names = append(names, k)
			}
			sort.Strings(names)
		}
		for _, name := range names {
			if v := rec[name]; v != "" {
				writeField(bw, name, v)
			}
		}
		bw.WriteString("\n<EOR>\n\n")
	}
	return bw.Flush()
}

func writeField(w *bufio.Writer, name, value string) {
	fmt.Fprintf(w, "<%s:%d>%s ", strings.ToUpper(name), len(value), value)
}

// WriteFile encodes records to path, replacing any existing file atomically.
func WriteFile(path string, records []Record, fields []string) error {
	var buf bytes.Buffer
	if err := Encode(&buf, records, fields, time.Now()); err != nil {
		return errors.Wrap(err, "encode adif")
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
