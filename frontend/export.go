package frontend

import (
	"context"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/radpro/doselog/datalog"
	"github.com/radpro/doselog/executor"
)

const (
	FormatCSV     = "csv"
	FormatMsgpack = "msgpack"
)

// DatalogRecord is the exported form of a logged sample.
type DatalogRecord struct {
	Time           uint32 `csv:"time" msgpack:"time"`
	TubePulseCount uint32 `csv:"tubePulseCount" msgpack:"tubePulseCount"`
	SessionStart   bool   `csv:"sessionStart" msgpack:"sessionStart"`
}

func NewDatalogRecord(rec datalog.Record) *DatalogRecord {
	return &DatalogRecord{
		Time:           rec.Time,
		TubePulseCount: rec.PulseCount,
		SessionStart:   rec.SessionStart,
	}
}

// CollectDatalog reads the records selected by f, decoding at most
// maxReadPerCycle entries per loop cycle.
func CollectDatalog(ctx context.Context, exec Executor, f datalog.Filter) ([]*DatalogRecord, error) {
	var (
		reader *datalog.Reader
		ok     bool
	)
	if err := exec.Do(ctx, func(h executor.Handle) { reader, ok = h.Engine.OpenRead() }); err != nil {
		return nil, err
	}
	if !ok {
		return nil, DatalogBusyError("export")
	}
	return ReadDatalog(ctx, exec, reader, f)
}

// ReadDatalog drains reader on the loop and closes it.
func ReadDatalog(ctx context.Context, exec Executor, reader *datalog.Reader, f datalog.Filter,
) ([]*DatalogRecord, error) {
	var (
		recs []*DatalogRecord
		sent uint32
	)
	more := true
	for more {
		err := exec.Do(ctx, func(executor.Handle) {
			for read := 0; read < maxReadPerCycle; read++ {
				rec, ok := reader.Next()
				if !ok || f.Exhausted(sent) {
					reader.Close()
					more = false
					return
				}
				if f.Accept(rec, sent) {
					recs = append(recs, NewDatalogRecord(rec))
					sent++
				}
			}
		})
		if err != nil {
			_ = exec.Do(context.Background(), func(executor.Handle) { reader.Close() })
			return nil, err
		}
	}
	return recs, nil
}

// WriteDatalog encodes recs in the given format.
func WriteDatalog(w io.Writer, format string, recs []*DatalogRecord) error {
	switch format {
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(recs)
	case FormatCSV, "":
		if len(recs) == 0 {
			_, err := io.WriteString(w, "time,tubePulseCount,sessionStart\n")
			return err
		}
		return gocsv.Marshal(recs, w)
	default:
		return InvalidArgumentError(format)
	}
}
