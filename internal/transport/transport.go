// Package transport opens remote file sessions over FTP or SFTP.
//
// A Dialer maps the configured connection type to a concrete Client. Unknown
// types are rejected with ErrInvalidConnectionType before any network I/O.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidConnectionType is returned when the configured connection type is
// not one of the supported kinds.
var ErrInvalidConnectionType = errors.New("invalid connection type")

// Kind identifies a transport protocol.
type Kind string

const (
	KindFTP  Kind = "ftp"
	KindSFTP Kind = "sftp"
)

// ParseKind validates a configured connection type.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindFTP, KindSFTP:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidConnectionType, s)
	}
}

// DefaultPort returns the well-known port for the protocol.
func (k Kind) DefaultPort() int {
	if k == KindSFTP {
		return 22
	}
	return 21
}

// EntryType classifies a directory listing entry.
type EntryType int

const (
	EntryOther EntryType = iota
	EntryFile
	EntryDirectory
)

func (t EntryType) String() string {
	switch t {
	case EntryFile:
		return "file"
	case EntryDirectory:
		return "directory"
	default:
		return "other"
	}
}

// Entry is one item of a remote directory listing.
type Entry struct {
	Name string
	Size int64
	Type EntryType
}

// Credentials identify the remote host and account.
type Credentials struct {
	Host     string
	Port     string // optional; appended to Host when set
	Username string
	Password string
}

// Address returns host:port. An explicit Port wins, then a port already embedded
// in Host, then defaultPort.
func (c Credentials) Address(defaultPort int) string {
	host := strings.TrimSpace(c.Host)
	if port := strings.TrimSpace(c.Port); port != "" {
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		return net.JoinHostPort(host, port)
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(defaultPort))
}

// Client is one remote session. It is opened once per run, used for listing
// and all downloads, then closed. A Client must not be reused after Close.
type Client interface {
	Open(ctx context.Context, creds Credentials) error
	ChangeDir(ctx context.Context, dir string) error
	List(ctx context.Context) ([]Entry, error)
	Download(ctx context.Context, name string, w io.Writer) (int64, error)
	Close() error
}

// Factory creates a fresh, unopened Client.
type Factory func() Client

// Dialer selects a Client implementation by connection type.
type Dialer struct {
	factories map[Kind]Factory
}

// NewDialer builds a Dialer from an explicit lookup table.
func NewDialer(factories map[Kind]Factory) *Dialer {
	m := make(map[Kind]Factory, len(factories))
	for k, f := range factories {
		m[k] = f
	}
	return &Dialer{factories: m}
}

// DefaultDialer wires the FTP and SFTP clients.
func DefaultDialer() *Dialer {
	return NewDialer(map[Kind]Factory{
		KindFTP:  func() Client { return NewFTPClient() },
		KindSFTP: func() Client { return NewSFTPClient() },
	})
}

// Client returns a new unopened client for the configured connection type.
func (d *Dialer) Client(connectionType string) (Client, Kind, error) {
	kind, err := ParseKind(connectionType)
	if err != nil {
		return nil, "", err
	}
	f, ok := d.factories[kind]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q has no client", ErrInvalidConnectionType, connectionType)
	}
	return f(), kind, nil
}

// Kinds lists the connection types this dialer can serve.
func (d *Dialer) Kinds() []Kind {
	kinds := make([]Kind, 0, len(d.factories))
	for k := range d.factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
