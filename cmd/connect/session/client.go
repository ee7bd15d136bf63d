// Package session
// This file is the hub of the `session` package. The `Client` struct defined here
// manages the device connection and has the responsibility of interpreting user
// inputs.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/radpro/doselog/utils/log"
)

func NewClient(ac APIClient) *Client {
	return &Client{
		apiClient: ac,
		out:       os.Stdout,
	}
}

type Client struct {
	apiClient APIClient
	out       io.Writer
	// output target - if empty, output to terminal, filename to output to file
	target string
	// timing flag determines to print query execution time.
	timing bool
}

type APIClient interface {
	// PrintConnectInfo prints connection information to stdout.
	PrintConnectInfo()
	// Query sends one request line and returns the response line.
	Query(line string) (string, error)
}

// Read kicks off the buffer reading process.
func (c *Client) Read() error {
	// Build reader.
	r, err := newReader()
	if err != nil {
		return err
	}
	defer r.Close()

	// Print connection information.
	c.apiClient.PrintConnectInfo()
	fmt.Fprintf(os.Stderr, "Type `\\help` to see command options\n")

	// User input evaluation loop.
	for {
		line, err := r.Readline()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			continue
		}
		if !c.Eval(strings.TrimSpace(line)) {
			return nil
		}
	}
}

// Eval runs one input line and returns false when the user quits.
func (c *Client) Eval(line string) bool {
	switch {
	case strings.HasPrefix(line, `\o`):
		args := strings.Split(line, " ")
		if len(args) > 1 {
			c.target = args[1]
		} else {
			c.target = ""
		}
	case strings.HasPrefix(line, `\timing`):
		c.timing = !c.timing
	case strings.HasPrefix(line, `\help`) || strings.HasPrefix(line, `\?`) || line == "help":
		c.functionHelp(line)
	case line == `\stop`, line == `\quit`, line == `\q`, line == `exit`:
		return false
	case line == "":
	default:
		c.query(line)
	}
	return true
}

func (c *Client) query(line string) {
	start := time.Now()
	resp, err := c.apiClient.Query(line)
	if err != nil {
		log.Error("%v", err)
		return
	}

	out := c.out
	if c.target != "" {
		fp, err := os.OpenFile(c.target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Error("failed to open output file %s: %v", c.target, err)
			return
		}
		defer fp.Close()
		out = fp
	}
	printResponse(out, resp)

	if c.timing {
		fmt.Fprintf(os.Stderr, "Elapsed query time: %v\n", time.Since(start))
	}
}

// printResponse prints datalog dumps one record per line. Records that
// start a logging session are marked with an asterisk.
func printResponse(w io.Writer, resp string) {
	header, records, found := strings.Cut(resp, ";")
	if !found || !strings.HasPrefix(header, "OK ") {
		fmt.Fprintln(w, resp)
		return
	}
	fmt.Fprintln(w, strings.TrimPrefix(header, "OK "))
	sessionStart := false
	for _, rec := range strings.Split(records, ";") {
		if rec == "" {
			sessionStart = true
			continue
		}
		if sessionStart {
			rec += " *"
		}
		fmt.Fprintln(w, rec)
		sessionStart = false
	}
}

func newReader() (*readline.Instance, error) {
	// Determine history file path.
	usr, err := user.Current()
	if err != nil {
		return nil, errors.New("unable to obtain home directory")
	}
	history := filepath.Join(usr.HomeDir, ".doselogReaderHistory")

	// Register commands with autocompletion.
	autoComplete := readline.NewPrefixCompleter(
		readline.PcItem("GET",
			readline.PcItem("deviceId"),
			readline.PcItem("deviceTime"),
			readline.PcItem("tubeTime"),
			readline.PcItem("tubePulseCount"),
			readline.PcItem("tubeRate"),
			readline.PcItem("datalogInterval"),
			readline.PcItem("datalog"),
		),
		readline.PcItem("SET",
			readline.PcItem("deviceTime"),
			readline.PcItem("tubeTime"),
			readline.PcItem("tubePulseCount"),
			readline.PcItem("datalogInterval"),
		),
		readline.PcItem("RESET",
			readline.PcItem("datalog"),
		),
		readline.PcItem(`\help`),
		readline.PcItem(`\timing`),
		readline.PcItem(`\o`),
		readline.PcItem(`\quit`),
		readline.PcItem(`\q`),
		readline.PcItem(`\?`),
	)

	// Build config.
	config := &readline.Config{
		Prompt:          "\033[31m»\033[0m ",
		HistoryFile:     history,
		AutoComplete:    autoComplete,
		InterruptPrompt: "\nInterrupt, Press Ctrl+D to exit",
		EOFPrompt:       "exit",
	}

	// return reader.
	return readline.NewEx(config)
}
