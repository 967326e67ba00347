// Package process runs a live editing backend as a child process that
// exchanges newline-delimited JSON over stdin and stdout.
package process

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/protocol"
)

const (
	maxLineSize  = 4 * 1024 * 1024
	closeTimeout = 2 * time.Second
)

var (
	ErrBackendClosed = errors.New("process backend closed")
	ErrMissingID     = errors.New("request id is required")
)

// Factory launches the configured binary.
type Factory struct {
	command string
	args    []string
	dir     string
	env     []string
	logger  *slog.Logger
}

type FactoryOption func(*Factory)

// WithDir sets the working directory of the child process.
func WithDir(dir string) FactoryOption {
	return func(f *Factory) {
		f.dir = dir
	}
}

// WithEnv appends variables to the inherited environment.
func WithEnv(env ...string) FactoryOption {
	return func(f *Factory) {
		f.env = append(f.env, env...)
	}
}

func WithLogger(logger *slog.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

func NewFactory(command string, args []string, opts ...FactoryOption) *Factory {
	f := &Factory{
		command: command,
		args:    args,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	f.logger = f.logger.With("module", "process_backend")

	return f
}

func (f *Factory) Name() string {
	return "process:" + filepath.Base(f.command)
}

// Launch starts the child process. Readiness is signalled once it prints
// {"ready":true}.
//
// nolint:ireturn // factories hand out the Backend interface
func (f *Factory) Launch(_ context.Context) (protocol.Backend, error) {
	path, err := exec.LookPath(f.command)
	if err != nil {
		return nil, fmt.Errorf("backend binary %q not found: %w", f.command, err)
	}

	cmd := exec.Command(path, f.args...)
	cmd.Dir = f.dir
	cmd.Env = append(os.Environ(), f.env...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start backend %q: %w", f.command, err)
	}

	b := &Backend{
		cmd:     cmd,
		stdin:   stdin,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
		pending: make(map[string]chan models.CommandResponse),
		logger:  f.logger.With("pid", cmd.Process.Pid),
	}

	go b.logStderr(stderr)
	go func() {
		b.readLoop(stdout)

		if err := cmd.Wait(); err != nil {
			b.logger.Debug("Backend exited", "error", err)
		}

		close(b.exited)
	}()

	return b, nil
}

// Backend is a running child process.
type Backend struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	writeMu sync.Mutex

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	doneOnce  sync.Once
	exited    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	pending map[string]chan models.CommandResponse

	logger *slog.Logger
}

// wireMessage is any line the child writes: a readiness line or a response.
type wireMessage struct {
	Ready *bool `json:"ready,omitempty"`
	models.CommandResponse
}

func (b *Backend) Ready() <-chan struct{} {
	return b.ready
}

// Done is closed once the child's stdout ends or Close is called.
func (b *Backend) Done() <-chan struct{} {
	return b.done
}

// Call writes one request line and waits for the response carrying the same id.
func (b *Backend) Call(ctx context.Context, req models.CommandRequest) (models.CommandResponse, error) {
	if req.ID == "" {
		return models.CommandResponse{}, ErrMissingID
	}

	line, err := json.Marshal(req)
	if err != nil {
		return models.CommandResponse{}, fmt.Errorf("failed to encode request: %w", err)
	}

	reply := make(chan models.CommandResponse, 1)

	b.mu.Lock()
	select {
	case <-b.done:
		b.mu.Unlock()

		return models.CommandResponse{}, ErrBackendClosed
	default:
	}

	b.pending[req.ID] = reply
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, req.ID)
		b.mu.Unlock()
	}()

	b.writeMu.Lock()
	_, err = b.stdin.Write(append(line, '\n'))
	b.writeMu.Unlock()

	if err != nil {
		return models.CommandResponse{}, fmt.Errorf("failed to write request: %w", err)
	}

	select {
	case resp := <-reply:
		return resp, nil
	case <-b.done:
		return models.CommandResponse{}, ErrBackendClosed
	case <-ctx.Done():
		return models.CommandResponse{}, ctx.Err()
	}
}

func (b *Backend) readLoop(stdout io.Reader) {
	defer b.shutdown()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		var msg wireMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			b.logger.Warn("Ignoring malformed line from backend", "error", err)

			continue
		}

		if msg.Ready != nil {
			if *msg.Ready {
				b.readyOnce.Do(func() { close(b.ready) })
			}

			continue
		}

		b.mu.Lock()
		reply, ok := b.pending[msg.ID]
		b.mu.Unlock()

		if !ok {
			b.logger.Warn("Dropping response with unknown id", "id", msg.ID)

			continue
		}

		select {
		case reply <- msg.CommandResponse:
		default:
			b.logger.Warn("Dropping duplicate response", "id", msg.ID)
		}
	}

	if err := scanner.Err(); err != nil {
		b.logger.Warn("Backend stdout closed with error", "error", err)
	}
}

func (b *Backend) logStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		b.logger.Debug("backend stderr", "line", scanner.Text())
	}
}

func (b *Backend) shutdown() {
	b.doneOnce.Do(func() { close(b.done) })
}

// Close ends stdin and waits briefly for the child to exit before killing it.
func (b *Backend) Close() error {
	var err error

	b.closeOnce.Do(func() {
		b.shutdown()
		_ = b.stdin.Close()

		select {
		case <-b.exited:
		case <-time.After(closeTimeout):
			b.logger.Warn("Backend did not exit, killing it")

			if killErr := b.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
				err = fmt.Errorf("failed to kill backend: %w", killErr)
			}

			<-b.exited
		}
	})

	return err
}
