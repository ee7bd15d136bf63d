package frontend

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/radpro/doselog/datalog"
	"github.com/radpro/doselog/executor"
	"github.com/radpro/doselog/metrics"
	"github.com/radpro/doselog/utils/log"
)

const (
	maxSentPerCycle = 2
	maxReadPerCycle = 1000

	releaseTimeout = 5 * time.Second
)

// dump is one GET datalog response in progress. It yields back to the
// main loop after a few records so that a long dump never stalls logging
// or other commands.
type dump struct {
	reader *datalog.Reader
	filter datalog.Filter
	sent   uint32
}

// cycle appends the next records to b. It returns false once the response
// is complete, after closing the reader.
func (d *dump) cycle(b []byte) ([]byte, bool) {
	sent := 0
	for read := 0; sent < maxSentPerCycle && read < maxReadPerCycle; read++ {
		rec, ok := d.reader.Next()
		if !ok || d.filter.Exhausted(d.sent) {
			d.reader.Close()
			metrics.DatalogDumpRecordsTotal.Add(float64(d.sent))
			return append(b, lineEnd...), false
		}
		if !d.filter.Accept(rec, d.sent) {
			continue
		}
		b = appendRecord(b, rec)
		sent++
		d.sent++
	}
	return b, true
}

func appendRecord(b []byte, rec datalog.Record) []byte {
	if rec.SessionStart {
		b = append(b, ';')
	}
	b = append(b, ';')
	b = strconv.AppendUint(b, uint64(rec.Time), 10)
	b = append(b, ',')
	return strconv.AppendUint(b, uint64(rec.PulseCount), 10)
}

// dumpDatalog streams the log to w. It returns false when the dump was
// refused and answered with ERROR.
func (s *CommService) dumpDatalog(ctx context.Context, args []string, w io.Writer) (bool, error) {
	var (
		reader *datalog.Reader
		ok     bool
	)
	if err := s.exec.Do(ctx, func(h executor.Handle) { reader, ok = h.Engine.OpenRead() }); err != nil {
		return false, err
	}
	if !ok {
		return false, writeResponse(w, "", DatalogBusyError("GET datalog"))
	}

	d := &dump{reader: reader, filter: datalog.ParseFilter(args)}
	buf := []byte(responseOK + " time,tubePulseCount")
	for {
		more := false
		if err := s.exec.Do(ctx, func(executor.Handle) { buf, more = d.cycle(buf) }); err != nil {
			s.release(reader)
			return true, err
		}
		if len(buf) > 0 {
			if _, err := w.Write(buf); err != nil {
				s.release(reader)
				return true, err
			}
			buf = buf[:0]
		}
		if !more {
			return true, nil
		}
	}
}

// release closes an abandoned dump so that the engine logs again.
func (s *CommService) release(reader *datalog.Reader) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := s.exec.Do(ctx, func(executor.Handle) { reader.Close() }); err != nil {
		log.Warn("failed to close abandoned datalog dump: %v", err)
	}
}
