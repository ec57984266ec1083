// drivebridge.go — the public entrypoint of spec.md §1: wires the driver
// locator/launcher, the framed transport, the RPC engine, and the object
// graph's factory into one Playwright root, and the symmetric websocket
// path for connecting to an already-running driver.
//
// Grounded on cmd/dev-console/main.go's top-level wiring (construct
// dependencies, hand them to a long-lived struct, expose one Close).
package drivebridge

import (
	"io"
	"time"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
	"github.com/corvid-labs/drivebridge/internal/config"
	"github.com/corvid-labs/drivebridge/internal/driverproc"
	"github.com/corvid-labs/drivebridge/internal/errs"
	"github.com/corvid-labs/drivebridge/internal/objects"
	"github.com/corvid-labs/drivebridge/internal/rpc"
	"github.com/corvid-labs/drivebridge/internal/telemetry"
	"github.com/corvid-labs/drivebridge/internal/transport"
	"github.com/corvid-labs/drivebridge/internal/wsconn"
)

// SDKLanguageTag identifies this binding to the driver during the
// initialize handshake (spec §4.3).
const SDKLanguageTag = "go"

// RunOptions configures a locally-launched driver session.
type RunOptions struct {
	// ProjectDriverDir, CI, and ShutdownTimeout are forwarded to
	// driverproc.Launch; see its LaunchOptions for semantics.
	ProjectDriverDir string
	CI               bool
	ShutdownTimeout  time.Duration

	// ClientVersion is reported to the driver as the display version; a
	// consumer binary normally sets this to its own build version.
	ClientVersion string

	// SDKLanguage overrides SDKLanguageTag in the initialize handshake.
	// Left empty, Run uses SDKLanguageTag; only a wrapper binding presenting
	// itself under another language tag needs to set this.
	SDKLanguage string

	// LogWriter receives structured lifecycle logs; os.Stderr if nil.
	LogWriter io.Writer
}

// Session is a running binding session: a driver connection plus the
// resolved Playwright root object.
type Session struct {
	Playwright *objects.Playwright
	conn       *rpc.Connection
	handle     *driverproc.Handle
}

// Run launches a local driver subprocess, completes the initialize
// handshake, and returns the ready-to-use Session (spec §4.1/§4.3 end to
// end).
func Run(opts RunOptions) (*Session, error) {
	sink := telemetry.New(opts.LogWriter)

	handle, err := driverproc.Launch(driverproc.LaunchOptions{
		ProjectDriverDir: opts.ProjectDriverDir,
		SDKLanguage:      SDKLanguageTag,
		ClientVersion:    opts.ClientVersion,
		CI:               opts.CI,
		ShutdownTimeout:  opts.ShutdownTimeout,
		Sink:             sink,
	})
	if err != nil {
		return nil, err
	}

	t := transport.New(handle.Stdin(), handle.Stdout(), func(error) {})
	t.Start()

	conn := rpc.New(t, sink, channelowner.DefaultFactory())
	conn.Start()

	sdkLanguage := opts.SDKLanguage
	if sdkLanguage == "" {
		sdkLanguage = SDKLanguageTag
	}
	pw, err := completeHandshake(conn, sdkLanguage)
	if err != nil {
		_ = handle.Shutdown()
		return nil, err
	}

	session := &Session{Playwright: pw, conn: conn, handle: handle}
	pw.SetCloser(func() { _ = session.Close() })
	return session, nil
}

// RunFromEnv builds RunOptions from the process environment (spec §4.1/§6
// environment overrides, internal/config) and launches a local driver.
// logWriter may be nil for the default stderr sink.
func RunFromEnv(logWriter io.Writer) (*Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidArgument, "load environment configuration", err)
	}
	return Run(RunOptions{
		ProjectDriverDir: cfg.DriverDir,
		CI:               cfg.CI,
		ShutdownTimeout:  time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second,
		ClientVersion:    cfg.ClientVersion,
		SDKLanguage:      cfg.SDKLanguage,
		LogWriter:        logWriter,
	})
}

// ConnectOptions configures a websocket connection to an already-running
// driver (spec §4.4's BrowserType.connect, backed by §6's websocket
// transport variant).
type ConnectOptions struct {
	wsconn.DialOptions
	LogWriter io.Writer

	// SDKLanguage overrides SDKLanguageTag in the initialize handshake, as
	// in RunOptions.
	SDKLanguage string
}

// Connect dials url as a websocket-carried driver session and completes the
// same initialize handshake Run uses over stdio, since the object graph and
// RPC engine are transport-agnostic (spec §6: "all other components are
// agnostic to the transport choice").
func Connect(url string, opts ConnectOptions) (*Session, error) {
	sink := telemetry.New(opts.LogWriter)

	wt, err := wsconn.Dial(url, opts.DialOptions, func(error) {})
	if err != nil {
		return nil, err
	}
	wt.Start()

	conn := rpc.New(wt, sink, channelowner.DefaultFactory())
	conn.Start()

	sdkLanguage := opts.SDKLanguage
	if sdkLanguage == "" {
		sdkLanguage = SDKLanguageTag
	}
	pw, err := completeHandshake(conn, sdkLanguage)
	if err != nil {
		wt.Close()
		return nil, err
	}

	session := &Session{Playwright: pw, conn: conn}
	pw.SetCloser(func() { _ = session.Close() })
	return session, nil
}

func completeHandshake(conn *rpc.Connection, sdkLanguage string) (*objects.Playwright, error) {
	owner, err := conn.Initialize(sdkLanguage)
	if err != nil {
		return nil, err
	}
	pw, ok := owner.(*objects.Playwright)
	if !ok {
		return nil, errs.New(errs.KindProtocolError, "initialize resolved a non-Playwright root object")
	}
	pw.AttachBrowserTypes()
	return pw, nil
}

// Registry exposes the connection's guid->Owner registry, needed by
// callers resolving the guid a response names (e.g. a freshly launched
// Browser or Page) into its concrete object.
func (s *Session) Registry() *channelowner.Registry {
	return s.conn.Registry()
}

// Close ends the session: closes the RPC connection (which fails any
// pending requests with TargetClosed) and, for a locally-launched driver,
// shuts down the subprocess.
func (s *Session) Close() error {
	s.conn.Close()
	if s.handle != nil {
		return s.handle.Shutdown()
	}
	return nil
}
