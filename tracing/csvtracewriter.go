package tracing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVTracer is a tracer that writes events to a CSV stream.
type CSVTracer struct {
	w          *csv.Writer
	closer     io.Closer
	events     []Event
	bufferSize int
}

// NewCSVTracer creates a tracer that writes to w.
func NewCSVTracer(w io.Writer) *CSVTracer {
	t := &CSVTracer{
		w:          csv.NewWriter(w),
		bufferSize: 1000,
	}

	t.writeRow([]string{"Time", "Where", "Kind", "What"})

	return t
}

// NewCSVFileTracer creates the <path>.csv file and a tracer that writes to
// it. The file is flushed and closed at exit. An empty path picks a unique
// name.
func NewCSVFileTracer(path string) *CSVTracer {
	if path == "" {
		path = "tvss_trace_" + xid.New().String()
	}

	filename := path + ".csv"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}

	t := NewCSVTracer(file)
	t.closer = file

	atexit.Register(func() {
		t.Flush()

		err := t.closer.Close()
		if err != nil {
			panic(err)
		}
	})

	return t
}

// Record buffers the event.
func (t *CSVTracer) Record(e Event) {
	t.events = append(t.events, e)
	if len(t.events) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered events.
func (t *CSVTracer) Flush() {
	for _, e := range t.events {
		t.writeRow([]string{
			strconv.FormatUint(uint64(e.Time), 10),
			e.Where,
			e.Kind,
			e.What,
		})
	}

	t.events = nil
	t.w.Flush()

	if err := t.w.Error(); err != nil {
		panic(err)
	}
}

func (t *CSVTracer) writeRow(row []string) {
	if err := t.w.Write(row); err != nil {
		panic(err)
	}
}
