package session

import (
	"fmt"
	"strings"
)

// functionHelp prints helpful information about specific commands.
func (c *Client) functionHelp(line string) {
	args := strings.Split(line, " ")
	args = args[1:] // chop off the first word which should be "help"
	helpKey := "help"
	if len(args) > 0 {
		helpKey = args[0]
	}
	switch helpKey {
	case "datalog":
		fmt.Fprintln(c.out, `
		Syntax:

			>> GET datalog [<start time> [<end time> [<max records>]]]
			>> RESET datalog

		Times are unix seconds and both bounds are inclusive. Records are
		printed as time,tubePulseCount; a leading ";" marks the first record
		of a logging session.

		- Example: records of the last day, at most 100:

			>> GET datalog 1700000000 1700086400 100`)
	case "interval":
		fmt.Fprintln(c.out, `
		Syntax:

			>> GET datalogInterval
			>> SET datalogInterval <index>

		Index: 0 = off, 1 = 1H, 2 = 30Min, 3 = 10Min, 4 = 5Min, 5 = 1Min`)
	default:
		fmt.Fprintln(c.out, `
		Requests are sent to the device as typed:

			GET deviceId | deviceTime | tubeTime | tubePulseCount | tubeRate
			GET datalogInterval | datalog
			SET deviceTime | tubeTime | tubePulseCount | datalogInterval <value>
			RESET datalog

		Client commands:

			\help [datalog|interval]   this help
			\o [file]                  append output to file, or back to the terminal
			\timing                    toggle printing the elapsed time
			\q                         quit`)
	}
}
