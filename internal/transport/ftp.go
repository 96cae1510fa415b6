package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jlaffaye/ftp"
)

var errNotOpen = errors.New("session not open")

// FTPClient is a Client backed by github.com/jlaffaye/ftp.
type FTPClient struct {
	conn *ftp.ServerConn
}

// NewFTPClient returns an unopened FTP client.
func NewFTPClient() *FTPClient {
	return &FTPClient{}
}

// Open dials and logs in. ctx bounds the dial and the login exchange.
func (c *FTPClient) Open(ctx context.Context, creds Credentials) error {
	conn, err := ftp.Dial(creds.Address(KindFTP.DefaultPort()), ftp.DialWithContext(ctx))
	if err != nil {
		return fmt.Errorf("ftp dial: %w", err)
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Quit() })
	defer stop()

	if err := conn.Login(creds.Username, creds.Password); err != nil {
		_ = conn.Quit()
		return fmt.Errorf("ftp login: %w", err)
	}
	c.conn = conn
	return nil
}

// ChangeDir changes the working directory.
func (c *FTPClient) ChangeDir(ctx context.Context, dir string) error {
	if c.conn == nil {
		return errNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.conn.ChangeDir(dir)
}

// List returns the entries of the working directory in server order.
func (c *FTPClient) List(ctx context.Context) ([]Entry, error) {
	if c.conn == nil {
		return nil, errNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := c.conn.List(".")
	if err != nil {
		return nil, fmt.Errorf("ftp list: %w", err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, ftpEntry(e))
	}
	return entries, nil
}

func ftpEntry(e *ftp.Entry) Entry {
	out := Entry{Name: e.Name, Size: int64(e.Size)}
	switch e.Type {
	case ftp.EntryTypeFile:
		out.Type = EntryFile
	case ftp.EntryTypeFolder:
		out.Type = EntryDirectory
	default:
		out.Type = EntryOther
	}
	return out
}

// Download streams the named file from the working directory into w.
// Cancelling ctx aborts the transfer.
func (c *FTPClient) Download(ctx context.Context, name string, w io.Writer) (int64, error) {
	if c.conn == nil {
		return 0, errNotOpen
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	resp, err := c.conn.Retr(name)
	if err != nil {
		return 0, fmt.Errorf("ftp retr %s: %w", name, err)
	}

	stop := context.AfterFunc(ctx, func() { _ = resp.SetDeadline(time.Now()) })
	n, copyErr := io.Copy(w, resp)
	stop()

	closeErr := resp.Close()
	if copyErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return n, fmt.Errorf("ftp retr %s: %w", name, ctxErr)
		}
		return n, fmt.Errorf("ftp retr %s: %w", name, copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("ftp retr %s: %w", name, closeErr)
	}
	return n, nil
}

// Close ends the session. Closing an unopened client is a no-op.
func (c *FTPClient) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Quit()
	c.conn = nil
	return err
}
