// launcher.go — spawns and supervises the driver subprocess (spec.md §4.1).
//
// Grounded on the teacher's cmd/dev-console/bridge.go daemon-spawn path
// (exec.Command, cmd.Stdout/Stderr/Stdin wiring, util.SafeGo for the
// supervising goroutine) and internal/util/proc_unix.go /
// proc_windows.go for platform-specific process-group detachment.
package driverproc

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/corvid-labs/drivebridge/internal/errs"
	"github.com/corvid-labs/drivebridge/internal/telemetry"
	"github.com/corvid-labs/drivebridge/internal/util"
	"github.com/google/uuid"
)

// ciStabilityArgs are the additional browser-stability flags forwarded to
// the driver on CI hosts (spec §4.1, §9's "typed allowlist, not raw
// passthrough" note: we do not forward arbitrary CI environment content,
// only this fixed, known-safe set).
var ciStabilityArgs = []string{
	"--disable-dev-shm-usage",
	"--no-sandbox",
}

// LaunchOptions configures one driver subprocess launch.
type LaunchOptions struct {
	// ProjectDriverDir is a build-time-deposited driver directory inside the
	// consumer project, checked first (spec §4.1 step a). May be empty.
	ProjectDriverDir string

	// SDKLanguage is sent to the driver as PW_LANG_NAME.
	SDKLanguage string

	// ClientVersion is sent to the driver as PW_CLI_DISPLAY_VERSION.
	ClientVersion string

	// CI forwards ciStabilityArgs to the driver when true.
	CI bool

	// ShutdownTimeout bounds the graceful-exit wait before the process is
	// killed.
	ShutdownTimeout time.Duration

	// Sink receives lifecycle and error logs. A nil Sink is replaced with a
	// stderr-writing default.
	Sink *telemetry.Sink
}

// Handle is a launched driver subprocess: its stdin/stdout pipes and the
// bookkeeping needed to shut it down cleanly. Corresponds to spec §2's
// Driver Handle.
type Handle struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	shutdownTimeout time.Duration
	sink            *telemetry.Sink

	closeOnce sync.Once
}

// Stdin returns the child's stdin, the transport's write half.
func (h *Handle) Stdin() io.WriteCloser { return h.stdin }

// Stdout returns the child's stdout, the transport's read half.
func (h *Handle) Stdout() io.ReadCloser { return h.stdout }

// Launch resolves a driver install and starts it as a subprocess. The
// launcher does not wait for any driver output — per spec §4.1, the first
// evidence of liveness is the initialize handshake response, which is the
// caller's responsibility (the Connection, §4.3).
func Launch(opts LaunchOptions) (*Handle, error) {
	sink := opts.Sink
	if sink == nil {
		sink = telemetry.New(os.Stderr)
	}

	loc, err := Locate(opts.ProjectDriverDir, os.Getenv(DriverDirEnv))
	if err != nil {
		return nil, err
	}

	attemptID := uuid.NewString()
	sink.Lifecycle("driver.launch.attempt", map[string]any{
		"attempt_id": attemptID,
		"driver_dir": loc.Dir,
		"node_path":  loc.NodePath,
	})

	args := []string{loc.ScriptPath, "run-driver"}
	if opts.CI {
		args = append(args, ciStabilityArgs...)
	}

	cmd := exec.Command(loc.NodePath, args...)
	cmd.Env = append(os.Environ(),
		"PW_LANG_NAME="+opts.SDKLanguage,
		"PW_LANG_NAME_VERSION="+runtime.Version(),
		"PW_CLI_DISPLAY_VERSION="+opts.ClientVersion,
	)
	cmd.Stderr = os.Stderr
	util.SetDetachedProcess(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errs.Wrap(errs.KindLaunchFailed, "open driver stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errs.Wrap(errs.KindLaunchFailed, "open driver stdout pipe", err)
	}

	if err := cmd.Start(); err != nil {
		diagnostics := fmt.Sprintf("node=%s script=%s driver_dir=%s", loc.NodePath, loc.ScriptPath, loc.Dir)
		sink.Error("driver.launch.failed", err, map[string]any{
			"attempt_id":  attemptID,
			"diagnostics": diagnostics,
		})
		return nil, errs.Wrap(errs.KindLaunchFailed, "start driver subprocess: "+diagnostics, err)
	}

	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}

	sink.Lifecycle("driver.launch.started", map[string]any{
		"attempt_id": attemptID,
		"pid":        cmd.Process.Pid,
	})

	return &Handle{
		cmd:             cmd,
		stdin:           stdin,
		stdout:          stdout,
		shutdownTimeout: shutdownTimeout,
		sink:            sink,
	}, nil
}

// Shutdown implements spec §4.1's shutdown contract: close stdin (the
// signal the driver watches for to exit cleanly), wait up to
// shutdownTimeout for the process to exit, then kill it. Safe to call more
// than once; only the first call acts.
func (h *Handle) Shutdown() error {
	var shutdownErr error
	h.closeOnce.Do(func() {
		// Drop the stdin half explicitly before joining: some platforms do
		// not close child stdio handles implicitly on scope exit (spec §5).
		_ = h.stdin.Close()

		waitDone := make(chan error, 1)
		util.SafeGo(func() {
			waitDone <- h.cmd.Wait()
		})

		select {
		case err := <-waitDone:
			if err != nil {
				h.sink.Lifecycle("driver.shutdown.exited", map[string]any{"error": err.Error()})
			}
		case <-time.After(h.shutdownTimeout):
			h.sink.Warn("driver.shutdown.timeout", "driver did not exit before timeout, killing", map[string]any{
				"timeout": h.shutdownTimeout.String(),
			})
			if err := util.KillProcessGroup(h.cmd.Process.Pid); err != nil {
				shutdownErr = errs.Wrap(errs.KindLaunchFailed, "kill unresponsive driver process", err)
			}
			<-waitDone
		}
	})
	return shutdownErr
}
