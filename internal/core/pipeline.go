package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/logistic/internal/config"
	"github.com/JonMunkholm/logistic/internal/logging"
	"github.com/JonMunkholm/logistic/internal/transport"
	"github.com/google/uuid"
)

// Importer accepts one batch of records. A non-nil error is a fault; an
// invalid result is a validation failure reported through Trace.
type Importer interface {
	Import(ctx context.Context, batch ImportBatch) (ImportResult, error)
}

// ImporterFunc adapts a function to Importer.
type ImporterFunc func(ctx context.Context, batch ImportBatch) (ImportResult, error)

// Import implements Importer.
func (f ImporterFunc) Import(ctx context.Context, batch ImportBatch) (ImportResult, error) {
	return f(ctx, batch)
}

// Archiver copies a successfully imported staged file somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, kind string, file StagedFile) error
}

// State is a run's position in the pipeline.
type State int

const (
	StateIdle State = iota
	StateListing
	StateFetching
	StateImporting
	StateReporting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListing:
		return "listing"
	case StateFetching:
		return "fetching"
	case StateImporting:
		return "importing"
	case StateReporting:
		return "reporting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a Pipeline. Dialer, Settings, Importer and LogStore are required.
type Options struct {
	Dialer   *transport.Dialer
	Settings config.Scoped
	Importer Importer
	LogStore LogStore
	Archiver Archiver // optional
	Logger   *slog.Logger

	// VarDir is the application var directory holding logistic/<code>/ staging dirs.
	VarDir string

	ConnectTimeout  time.Duration
	DownloadTimeout time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Pipeline runs imports: list, fetch, parse, enrich, submit, report.
// One Pipeline may serve many runs; per-run state lives in a runContext.
type Pipeline struct {
	dialer   *transport.Dialer
	settings config.Scoped
	importer Importer
	archiver Archiver
	reporter *Reporter
	fetcher  Fetcher
	logger   *slog.Logger

	varDir         string
	connectTimeout time.Duration
	now            func() time.Time

	locks sync.Map // kind code -> *sync.Mutex
}

// NewPipeline validates opts and builds a Pipeline.
func NewPipeline(opts Options) (*Pipeline, error) {
	switch {
	case opts.Dialer == nil:
		return nil, errors.New("pipeline: dialer is required")
	case opts.Settings == nil:
		return nil, errors.New("pipeline: settings provider is required")
	case opts.Importer == nil:
		return nil, errors.New("pipeline: importer is required")
	case opts.LogStore == nil:
		return nil, errors.New("pipeline: log store is required")
	}

	p := &Pipeline{
		dialer:         opts.Dialer,
		settings:       opts.Settings,
		importer:       opts.Importer,
		archiver:       opts.Archiver,
		reporter:       NewReporter(opts.LogStore),
		fetcher:        Fetcher{DownloadTimeout: opts.DownloadTimeout},
		logger:         opts.Logger,
		varDir:         opts.VarDir,
		connectTimeout: opts.ConnectTimeout,
		now:            opts.Now,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.varDir == "" {
		p.varDir = "var"
	}
	return p, nil
}

// runContext carries the mutable state of one run through each stage.
type runContext struct {
	id       string
	kind     *ImportKind
	state    State
	messages []string
	hasError bool

	dialect Dialect
	staged  []StagedFile

	started time.Time
	now     func() time.Time
	logger  *slog.Logger
	metrics *KindMetrics
}

func (rc *runContext) transition(to State) {
	rc.logger.Debug("import state", "from", rc.state.String(), "to", to.String())
	rc.state = to
}

func (rc *runContext) addMessage(msg string) {
	rc.messages = append(rc.messages, msg)
}

func (rc *runContext) addError(msg string) {
	rc.hasError = true
	rc.messages = append(rc.messages, msg)
}

// RunCode runs the registered kind with the given code.
func (p *Pipeline) RunCode(ctx context.Context, code string) (*RunReport, error) {
	kind, err := Lookup(code)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, kind)
}

// Run executes one full import for kind and returns its persisted report.
//
// Per-file failures never abort the run; they are recorded as messages and set
// the report status to error. Fatal failures before any import (settings,
// connection type, remote path, staging writes) still persist an error report
// carrying the failure text, then are returned. A concurrent run of the same
// kind in this process is refused with ErrRunInProgress and reports nothing.
func (p *Pipeline) Run(ctx context.Context, kind *ImportKind) (*RunReport, error) {
	unlock, ok := p.tryLock(kind.Code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, kind.Code)
	}
	defer unlock()

	rc := p.newRun(kind)
	ctx = logging.ContextWithRunID(ctx, rc.id)
	rc.logger.Info("import run started")

	if err := p.retrieve(ctx, rc); err != nil {
		rc.transition(StateFailed)
		rc.addError(err.Error())
		rc.logger.Error("import run aborted", "error", err)

		report, saveErr := p.reporter.Report(ctx, rc)
		p.finish(rc)
		if saveErr != nil {
			return report, errors.Join(err, saveErr)
		}
		return report, err
	}

	rc.transition(StateImporting)
	p.importFiles(ctx, rc)

	rc.transition(StateReporting)
	report, err := p.reporter.Report(ctx, rc)
	if err != nil {
		rc.transition(StateFailed)
		p.finish(rc)
		return report, err
	}

	rc.transition(StateDone)
	p.finish(rc)
	return report, nil
}

func (p *Pipeline) newRun(kind *ImportKind) *runContext {
	id := uuid.NewString()
	return &runContext{
		id:      id,
		kind:    kind,
		state:   StateIdle,
		started: p.now(),
		now:     p.now,
		logger:  p.logger.With("run_id", id, "kind", kind.Code),
		metrics: NewKindMetrics(kind.Code),
	}
}

func (p *Pipeline) finish(rc *runContext) {
	status := StatusSuccess
	if rc.hasError {
		status = StatusError
	}
	elapsed := rc.now().Sub(rc.started)
	rc.metrics.RecordRun(status, elapsed)
	rc.logger.Info("import run finished",
		"status", string(status),
		"files", len(rc.staged),
		"duration_ms", elapsed.Milliseconds(),
	)
}

func (p *Pipeline) tryLock(code string) (func(), bool) {
	v, _ := p.locks.LoadOrStore(code, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	if !mu.TryLock() {
		return nil, false
	}
	return mu.Unlock, true
}

// retrieve resolves settings, then lists and fetches over a single session.
func (p *Pipeline) retrieve(ctx context.Context, rc *runContext) error {
	cc, err := LoadConnectionConfig(ctx, p.settings, rc.kind.Code)
	if err != nil {
		return err
	}
	rc.dialect, err = LoadDialect(ctx, p.settings)
	if err != nil {
		return err
	}
	re, err := CompilePattern(cc.FilePattern)
	if err != nil {
		return fmt.Errorf("import %s file pattern: %w", rc.kind.Code, err)
	}

	client, _, err := p.dialer.Client(cc.Type)
	if err != nil {
		return err
	}

	rc.transition(StateListing)
	rc.logger.Debug("opening remote session", "connection", cc.String())
	if err := p.open(ctx, client, cc.Credentials); err != nil {
		return err
	}
	closed := false
	closeSession := func() {
		if closed {
			return
		}
		closed = true
		if err := client.Close(); err != nil {
			rc.logger.Warn("close remote session", "error", err)
		}
	}
	defer closeSession()

	files, err := ListFiles(ctx, client, cc.Path, re)
	if err != nil {
		return fmt.Errorf("import %s: %w", rc.kind.Code, err)
	}
	rc.logger.Info("remote files matched", "path", cc.Path, "count", len(files))

	rc.transition(StateFetching)
	dir, err := StagingDir(p.varDir, rc.kind.Code)
	if err != nil {
		return &FetchError{Path: p.varDir, Err: err}
	}
	rc.staged, err = p.fetcher.Fetch(ctx, client, dir, files)
	if err != nil {
		return err
	}
	closeSession()

	rc.metrics.RecordFetch(rc.staged)
	return nil
}

func (p *Pipeline) open(ctx context.Context, client transport.Client, creds transport.Credentials) error {
	if p.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.connectTimeout)
		defer cancel()
	}
	if err := client.Open(ctx, creds); err != nil {
		return fmt.Errorf("open remote session: %w", err)
	}
	return nil
}

func (p *Pipeline) importFiles(ctx context.Context, rc *runContext) {
	if len(rc.staged) == 0 {
		rc.addMessage("No file found")
		return
	}

	parser := Parser{Kind: rc.kind, Dialect: rc.dialect}
	for _, file := range rc.staged {
		p.importFile(ctx, rc, parser, file)
	}
}

// importFile parses, enriches and submits one staged file. Outcomes become
// messages; nothing is returned.
func (p *Pipeline) importFile(ctx context.Context, rc *runContext, parser Parser, file StagedFile) {
	start := rc.now()
	log := rc.logger.With("file", file.Name)

	records, err := parser.ParseFile(file.Path)
	if err != nil {
		rc.addError(fmt.Sprintf("%s: %v", file.Name, err))
		rc.metrics.RecordFileError("parse", rc.now().Sub(start))
		log.Warn("parse failed", "error", err)
		return
	}
	if len(records) == 0 {
		log.Debug("no data rows, skipping")
		return
	}

	batch := ImportBatch{
		RunID:    rc.id,
		Kind:     rc.kind.Code,
		FileName: file.Name,
		Records:  rc.kind.PrepareBatch(records),
		Required: rc.kind.Required,
	}

	result, err := p.importer.Import(ctx, batch)
	elapsed := rc.now().Sub(start)

	switch {
	case err != nil:
		rc.addError(fmt.Sprintf("%s: %s", file.Name, err.Error()))
		rc.metrics.RecordFileError("fault", elapsed)
		log.Error("import fault", "error", err)
	case !result.Valid:
		rc.addError(fmt.Sprintf("%s: ERROR: %s", file.Name, result.Trace))
		rc.metrics.RecordFileError("invalid", elapsed)
		log.Warn("import rejected", "trace", result.Trace)
	default:
		rc.addMessage(fmt.Sprintf("%s: %d lines imported in %.3f seconds",
			file.Name, len(batch.Records), elapsed.Seconds()))
		rc.metrics.RecordImport(len(batch.Records), elapsed)
		log.Info("file imported", "records", len(batch.Records), "duration_ms", elapsed.Milliseconds())
		p.archive(ctx, rc, file)
	}
}

// archive copies an imported file to the archiver. Failures are logged only.
func (p *Pipeline) archive(ctx context.Context, rc *runContext, file StagedFile) {
	if p.archiver == nil {
		return
	}
	if err := p.archiver.Archive(ctx, rc.kind.Code, file); err != nil {
		rc.logger.Warn("archive failed", "file", file.Name, "error", err)
	}
}
