package frontend

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/radpro/doselog/datalog/codec"
	"github.com/radpro/doselog/executor"
	"github.com/radpro/doselog/metrics"
	"github.com/radpro/doselog/utils"
)

const (
	responseOK    = "OK"
	responseError = "ERROR"
	lineEnd       = "\r\n"

	commID = "Rad Pro simulator;doselog"
)

// Executor runs functions on the device main loop.
type Executor interface {
	Do(ctx context.Context, fn func(h executor.Handle)) error
}

// handler serves one command on the main loop and returns the response
// payload following "OK".
type handler func(h executor.Handle, arg string) (string, error)

// CommService implements the line oriented command interface. It is safe
// for concurrent use by several connections: every command runs on the
// main loop.
type CommService struct {
	exec     Executor
	handlers map[string]handler
}

func NewCommService(exec Executor) *CommService {
	s := &CommService{exec: exec}
	s.handlers = map[string]handler{
		"GET deviceId":        getDeviceID,
		"GET deviceTime":      getDeviceTime,
		"SET deviceTime":      setDeviceTime,
		"GET tubeTime":        getTubeTime,
		"SET tubeTime":        setTubeTime,
		"GET tubePulseCount":  getTubePulseCount,
		"SET tubePulseCount":  setTubePulseCount,
		"GET tubeRate":        getTubeRate,
		"GET datalogInterval": getDatalogInterval,
		"SET datalogInterval": setDatalogInterval,
		"RESET datalog":       resetDatalog,
	}
	return s
}

// Execute serves one request line and writes the complete response to w.
// The returned error reports a failure to talk to the loop or to write the
// response; command failures are answered with ERROR.
func (s *CommService) Execute(ctx context.Context, line string, w io.Writer) error {
	start := time.Now()
	command, args := splitCommand(line)

	var (
		resp   string
		cmdErr error
		err    error
	)
	switch {
	case command == "GET datalog":
		var served bool
		if served, err = s.dumpDatalog(ctx, args, w); !served {
			cmdErr = DatalogBusyError(command)
		}
	case s.handlers[command] != nil:
		fn := s.handlers[command]
		arg := ""
		if len(args) > 0 {
			arg = args[0]
		}
		err = s.exec.Do(ctx, func(h executor.Handle) { resp, cmdErr = fn(h, arg) })
		if err == nil {
			err = writeResponse(w, resp, cmdErr)
		}
	default:
		command = "unknown"
		cmdErr = UnknownCommandError(strings.TrimSpace(line))
		err = writeResponse(w, "", cmdErr)
	}

	result := "ok"
	if cmdErr != nil || err != nil {
		result = "error"
	}
	metrics.CommandRequestsTotal.WithLabelValues(command, result).Inc()
	metrics.CommandRequestDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
	return err
}

// splitCommand returns the verb and property, which name the command,
// and the remaining arguments.
func splitCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return strings.Join(fields, " "), nil
	}
	return fields[0] + " " + fields[1], fields[2:]
}

func writeResponse(w io.Writer, payload string, cmdErr error) error {
	resp := responseOK
	switch {
	case cmdErr != nil:
		resp = responseError
	case payload != "":
		resp += " " + payload
	}
	_, err := io.WriteString(w, resp+lineEnd)
	return err
}

func parseUint32(arg string) (uint32, error) {
	v, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, InvalidArgumentError(arg)
	}
	return uint32(v), nil
}

func getDeviceID(h executor.Handle, _ string) (string, error) {
	return fmt.Sprintf("%s %s;%s", commID, utils.Tag, h.Device.ID()), nil
}

func getDeviceTime(h executor.Handle, _ string) (string, error) {
	return strconv.FormatUint(uint64(h.Device.DeviceTime()), 10), nil
}

// setDeviceTime moves the clock and anchors the log to the new time.
func setDeviceTime(h executor.Handle, arg string) (string, error) {
	t, err := parseUint32(arg)
	if err != nil {
		return "", err
	}
	h.Device.SetDeviceTime(t)
	return "", h.Engine.TimeChanged()
}

func getTubeTime(h executor.Handle, _ string) (string, error) {
	return strconv.FormatUint(uint64(h.Device.Tube().TubeTime()), 10), nil
}

func setTubeTime(h executor.Handle, arg string) (string, error) {
	v, err := parseUint32(arg)
	if err != nil {
		return "", err
	}
	h.Device.Tube().SetTubeTime(v)
	return "", nil
}

func getTubePulseCount(h executor.Handle, _ string) (string, error) {
	return strconv.FormatUint(uint64(h.Device.Tube().PulseCount()), 10), nil
}

func setTubePulseCount(h executor.Handle, arg string) (string, error) {
	v, err := parseUint32(arg)
	if err != nil {
		return "", err
	}
	h.Device.Tube().SetPulseCount(v)
	return "", nil
}

// getTubeRate answers in counts per minute.
func getTubeRate(h executor.Handle, _ string) (string, error) {
	return strconv.FormatFloat(60*h.Device.Rate(), 'f', 3, 64), nil
}

func getDatalogInterval(h executor.Handle, _ string) (string, error) {
	return strconv.Itoa(int(h.Engine.Interval())), nil
}

func setDatalogInterval(h executor.Handle, arg string) (string, error) {
	v, err := parseUint32(arg)
	if err != nil {
		return "", err
	}
	if v >= uint32(codec.IntervalCount) {
		return "", InvalidArgumentError(arg)
	}
	return "", h.Engine.SetInterval(codec.Interval(v))
}

func resetDatalog(h executor.Handle, _ string) (string, error) {
	return "", h.Engine.ResetLog()
}
