package connect

import (
	"github.com/spf13/cobra"

	"github.com/radpro/doselog/cmd/connect/session"
	"github.com/radpro/doselog/utils/log"
)

const (
	// Command
	// -------------.
	usage   = "connect"
	short   = "Open an interactive session with a running doselog device"
	long    = "This command opens an interactive session with the command interface of a running doselog device"
	example = "doselog connect --url <address>"

	// Flags.
	// -------------
	// Network Address.
	urlFlag    = "url"
	defaultURL = "localhost:5845"
	urlDesc    = "network address of the command interface at \"hostname:port\""
)

var (
	// Cmd is the connect command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		SuggestFor: []string{"open", "conn"},
		Example:    example,
		RunE:       executeConnect,
	}

	// url set via flag for the device address.
	url string
)

func init() {
	Cmd.Flags().StringVarP(&url, urlFlag, "u", defaultURL, urlDesc)
}

// executeConnect implements the connect command.
func executeConnect(cmd *cobra.Command, _ []string) error {
	conn, err := session.NewRemoteAPIClient(url)
	if err != nil {
		return err
	}
	defer conn.Close()
	cmd.SilenceUsage = true

	// Enter command loop
	if err = session.NewClient(conn).Read(); err != nil {
		return err
	}

	log.Info("closed connection")
	return nil
}
