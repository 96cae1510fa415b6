package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"path"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTPClient is a Client backed by github.com/pkg/sftp over golang.org/x/crypto/ssh.
// The working directory is tracked locally since the SFTP protocol has none.
type SFTPClient struct {
	// HostKeyCallback verifies the server key. Defaults to accepting any key.
	HostKeyCallback ssh.HostKeyCallback

	ssh  *ssh.Client
	sftp *sftp.Client
	cwd  string
}

// NewSFTPClient returns an unopened SFTP client.
func NewSFTPClient() *SFTPClient {
	return &SFTPClient{}
}

// Open dials, performs the SSH handshake with password auth and starts the
// sftp subsystem. ctx bounds the whole sequence.
func (c *SFTPClient) Open(ctx context.Context, creds Credentials) error {
	addr := creds.Address(KindSFTP.DefaultPort())

	hostKey := c.HostKeyCallback
	if hostKey == nil {
		hostKey = ssh.InsecureIgnoreHostKey()
	}
	cfg := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(creds.Password)},
		HostKeyCallback: hostKey,
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("sftp dial: %w", err)
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("ssh handshake: %w", err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	sc, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("sftp session: %w", err)
	}

	cwd, err := sc.Getwd()
	if err != nil {
		cwd = "."
	}

	c.ssh, c.sftp, c.cwd = client, sc, cwd
	return nil
}

// ChangeDir resolves dir against the working directory and checks that it is
// an existing directory.
func (c *SFTPClient) ChangeDir(ctx context.Context, dir string) error {
	if c.sftp == nil {
		return errNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	target := c.resolve(dir)
	fi, err := c.sftp.Stat(target)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", target)
	}
	c.cwd = target
	return nil
}

// List returns the entries of the working directory.
func (c *SFTPClient) List(ctx context.Context) ([]Entry, error) {
	if c.sftp == nil {
		return nil, errNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := c.sftp.ReadDir(c.cwd)
	if err != nil {
		return nil, fmt.Errorf("sftp readdir: %w", err)
	}
	entries := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		e := Entry{Name: fi.Name(), Size: fi.Size(), Type: EntryOther}
		switch {
		case fi.Mode().IsRegular():
			e.Type = EntryFile
		case fi.IsDir():
			e.Type = EntryDirectory
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Download streams the named file from the working directory into w.
func (c *SFTPClient) Download(ctx context.Context, name string, w io.Writer) (int64, error) {
	if c.sftp == nil {
		return 0, errNotOpen
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, err := c.sftp.Open(c.resolve(name))
	if err != nil {
		return 0, fmt.Errorf("sftp open %s: %w", name, err)
	}
	defer f.Close()

	stop := context.AfterFunc(ctx, func() { _ = f.Close() })
	defer stop()

	n, err := f.WriteTo(w)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return n, fmt.Errorf("sftp read %s: %w", name, ctxErr)
		}
		return n, fmt.Errorf("sftp read %s: %w", name, err)
	}
	return n, nil
}

// Close ends the sftp subsystem and the SSH connection.
func (c *SFTPClient) Close() error {
	if c.sftp == nil {
		return nil
	}
	err := c.sftp.Close()
	if cerr := c.ssh.Close(); err == nil {
		err = cerr
	}
	c.sftp, c.ssh = nil, nil
	return err
}

func (c *SFTPClient) resolve(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(c.cwd, p)
}
