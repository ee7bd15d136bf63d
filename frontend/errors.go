package frontend

import (
	"fmt"

	"github.com/radpro/doselog/utils/log"
)

type UnknownCommandError string

func (msg UnknownCommandError) Error() string {
	return errReport("%s: unknown command", string(msg))
}

type InvalidArgumentError string

func (msg InvalidArgumentError) Error() string {
	return errReport("%s: invalid argument", string(msg))
}

type DatalogBusyError string

func (msg DatalogBusyError) Error() string {
	return errReport("%s: datalog is busy", string(msg))
}

func errReport(base, msg string) string {
	s := fmt.Sprintf(base, msg)
	log.Debug(s)
	return s
}
