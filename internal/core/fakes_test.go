package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/JonMunkholm/logistic/internal/config"
	"github.com/JonMunkholm/logistic/internal/transport"
)

// remoteFile is one entry served by fakeClient.
type remoteFile struct {
	name    string
	typ     transport.EntryType
	content string
	failErr error // Download returns this error after writing content
}

// fakeClient is an in-memory transport.Client.
type fakeClient struct {
	mu sync.Mutex

	dirs    map[string][]remoteFile
	openErr error

	opened     bool
	closed     int
	cwd        string
	downloads  []string
	openedWith transport.Credentials
}

func newFakeClient(dir string, files ...remoteFile) *fakeClient {
	return &fakeClient{dirs: map[string][]remoteFile{dir: files}}
}

func (c *fakeClient) Open(_ context.Context, creds transport.Credentials) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.opened = true
	c.openedWith = creds
	return nil
}

func (c *fakeClient) ChangeDir(_ context.Context, dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.dirs[dir]; !ok {
		return errors.New("550 no such directory")
	}
	c.cwd = dir
	return nil
}

func (c *fakeClient) List(context.Context) ([]transport.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []transport.Entry
	for _, f := range c.dirs[c.cwd] {
		out = append(out, transport.Entry{Name: f.name, Size: int64(len(f.content)), Type: f.typ})
	}
	return out, nil
}

func (c *fakeClient) Download(_ context.Context, name string, w io.Writer) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.downloads = append(c.downloads, name)
	for _, f := range c.dirs[c.cwd] {
		if f.name != name {
			continue
		}
		n, err := io.Copy(w, strings.NewReader(f.content))
		if err != nil {
			return n, err
		}
		return n, f.failErr
	}
	return 0, errors.New("550 file not found")
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

// fakeDialer serves the same client for both protocols.
func fakeDialer(c *fakeClient) *transport.Dialer {
	f := func() transport.Client { return c }
	return transport.NewDialer(map[transport.Kind]transport.Factory{
		transport.KindFTP:  f,
		transport.KindSFTP: f,
	})
}

// fakeImporter records batches and answers per file name.
type fakeImporter struct {
	mu      sync.Mutex
	batches []ImportBatch
	invalid map[string]string // file -> trace
	faults  map[string]error  // file -> fault
}

func (i *fakeImporter) Import(_ context.Context, b ImportBatch) (ImportResult, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.batches = append(i.batches, b)
	if err, ok := i.faults[b.FileName]; ok {
		return ImportResult{}, err
	}
	if trace, ok := i.invalid[b.FileName]; ok {
		return ImportResult{Valid: false, Trace: trace}, nil
	}
	return ImportResult{Valid: true, Imported: len(b.Records)}, nil
}

// memLogStore keeps saved reports in memory.
type memLogStore struct {
	mu      sync.Mutex
	reports []*RunReport
	err     error
}

func (s *memLogStore) Save(_ context.Context, r *RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.reports = append(s.reports, r)
	return nil
}

// fakeArchiver records archived files.
type fakeArchiver struct {
	mu    sync.Mutex
	files []string
	err   error
}

func (a *fakeArchiver) Archive(_ context.Context, kind string, f StagedFile) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files = append(a.files, kind+"/"+f.Name)
	return a.err
}

// testSettings returns a scoped provider for kind code "stock" on /in.
func testSettings(connType string) config.MapScoped {
	return config.MapScoped{}.
		Set("connection", "type", connType).
		Set("connection", "host", "ftp.example.com").
		Set("connection", "port", "2121").
		Set("connection", "username", "importer").
		Set("connection", "password", "secret").
		Set("import", "stock_path", "/in").
		Set("import", "stock_file_pattern", `/^stock_.*\.csv$/i`).
		Set("general", "field_separator", ";").
		Set("general", "field_enclosure", `"`)
}
