package session

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const dialTimeout = 5 * time.Second

// NewRemoteAPIClient connects to the command interface at url.
func NewRemoteAPIClient(url string) (*RemoteAPIClient, error) {
	conn, err := net.DialTimeout("tcp", url, dialTimeout)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", url)
	}
	return &RemoteAPIClient{url: url, conn: conn, r: bufio.NewReader(conn)}, nil
}

// RemoteAPIClient sends request lines to a running device and reads its
// CRLF terminated responses.
type RemoteAPIClient struct {
	url  string
	conn net.Conn
	r    *bufio.Reader
}

func (rc *RemoteAPIClient) PrintConnectInfo() {
	fmt.Fprintf(os.Stderr, "Connected to remote instance at: %v\n", rc.url)
}

func (rc *RemoteAPIClient) Query(line string) (string, error) {
	if _, err := rc.conn.Write([]byte(line + "\r\n")); err != nil {
		return "", errors.Wrap(err, "failed to send request")
	}
	resp, err := rc.r.ReadString('\n')
	if err != nil {
		return "", errors.Wrap(err, "failed to read response")
	}
	return strings.TrimRight(resp, "\r\n"), nil
}

func (rc *RemoteAPIClient) Close() error {
	return rc.conn.Close()
}
