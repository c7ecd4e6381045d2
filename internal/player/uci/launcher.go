// Package uci launches engine executables that speak the Universal Chess
// Interface and drives them over their standard input and output.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/seantiz/quinttest/internal/board"
	"github.com/seantiz/quinttest/internal/clock"
	"github.com/seantiz/quinttest/internal/player"
)

const (
	// DefaultStartupTimeout bounds the uci/isready handshake.
	DefaultStartupTimeout = 10 * time.Second
	// DefaultCloseTimeout is how long an engine may take to exit after quit.
	DefaultCloseTimeout = 2 * time.Second

	// lineBufferSize is the number of stdout lines buffered ahead of the reader.
	lineBufferSize = 64
)

// Compile-time interface satisfaction checks.
var (
	_ player.Launcher = (*Launcher)(nil)
	_ player.Process  = (*Process)(nil)
)

// Option configures a Launcher.
type Option func(*Launcher)

// WithStartupTimeout sets how long the handshake may take.
func WithStartupTimeout(d time.Duration) Option {
	return func(l *Launcher) { l.startupTimeout = d }
}

// WithCloseTimeout sets how long Close waits before killing the engine.
func WithCloseTimeout(d time.Duration) Option {
	return func(l *Launcher) { l.closeTimeout = d }
}

// Launcher starts UCI engine processes.
type Launcher struct {
	logger         *slog.Logger
	startupTimeout time.Duration
	closeTimeout   time.Duration
}

// NewLauncher creates a launcher that logs engine stderr at debug level.
func NewLauncher(logger *slog.Logger, opts ...Option) *Launcher {
	l := &Launcher{
		logger:         logger,
		startupTimeout: DefaultStartupTimeout,
		closeTimeout:   DefaultCloseTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch starts p, completes the UCI handshake and prepares a new game.
func (l *Launcher) Launch(ctx context.Context, p player.Player) (player.Process, error) {
	proc, err := l.start(p)
	if err != nil {
		processLaunchesTotal.WithLabelValues(launchFailed).Inc()
		return nil, fmt.Errorf("start engine %s: %w", p.FullName(), err)
	}

	hsCtx, cancel := context.WithTimeout(ctx, l.startupTimeout)
	defer cancel()

	if err := proc.handshake(hsCtx); err != nil {
		proc.Close()
		processLaunchesTotal.WithLabelValues(launchFailed).Inc()
		return nil, fmt.Errorf("handshake with engine %s: %w", p.FullName(), err)
	}

	processLaunchesTotal.WithLabelValues(launchStarted).Inc()
	return proc, nil
}

func (l *Launcher) start(p player.Player) (*Process, error) {
	cmd := exec.Command(p.Command(), p.Args()...)
	setProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	activeProcesses.Inc()

	proc := &Process{
		name:         p.FullName(),
		cmd:          cmd,
		stdin:        stdin,
		lines:        make(chan string, lineBufferSize),
		quit:         make(chan struct{}),
		waitDone:     make(chan struct{}),
		logger:       l.logger,
		closeTimeout: l.closeTimeout,
	}

	var readers sync.WaitGroup
	readers.Go(func() { proc.readLoop(stdout) })
	readers.Go(func() { proc.logStderr(stderr) })

	go func() {
		// Wait must not run before the pipes are drained.
		readers.Wait()
		proc.waitErr = cmd.Wait()
		close(proc.waitDone)
	}()

	return proc, nil
}

// Process is one running UCI engine. RequestMove must not be called
// concurrently; Close may be called from any goroutine.
type Process struct {
	name         string
	cmd          *exec.Cmd
	stdin        io.WriteCloser
	lines        chan string
	quit         chan struct{}
	waitDone     chan struct{}
	waitErr      error
	logger       *slog.Logger
	closeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Name returns the full name of the engine.
func (p *Process) Name() string {
	return p.name
}

func (p *Process) handshake(ctx context.Context) error {
	if err := p.send("uci"); err != nil {
		return err
	}
	if _, err := p.waitFor(ctx, "uciok"); err != nil {
		return err
	}
	if err := p.send("ucinewgame"); err != nil {
		return err
	}
	return p.sync(ctx)
}

// sync sends isready and waits for readyok.
func (p *Process) sync(ctx context.Context) error {
	if err := p.send("isready"); err != nil {
		return err
	}
	_, err := p.waitFor(ctx, "readyok")
	return err
}

// RequestMove sends the position and search limit and waits for bestmove.
func (p *Process) RequestMove(ctx context.Context, b board.Board, limit clock.Limit) (string, error) {
	start := time.Now()

	if err := p.send(positionCommand(b.Moves())); err != nil {
		return "", err
	}
	if err := p.send(goCommand(limit)); err != nil {
		return "", err
	}

	line, err := p.waitFor(ctx, "bestmove")
	if err != nil {
		// Best effort: the process is usually closed right after.
		_ = p.send("stop")
		return "", err
	}
	moveDuration.Observe(time.Since(start).Seconds())

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", fmt.Errorf("malformed reply %q", line)
	}
	return fields[1], nil
}

// Close asks the engine to quit and kills it if it has not exited within
// the close timeout.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		defer activeProcesses.Dec()

		_ = p.send("quit")
		p.writeMu.Lock()
		_ = p.stdin.Close()
		p.writeMu.Unlock()
		close(p.quit)

		timer := time.NewTimer(p.closeTimeout)
		defer timer.Stop()

		select {
		case <-p.waitDone:
			return
		case <-timer.C:
		}

		forcedKillsTotal.Inc()
		p.logger.Debug("engine ignored quit, killing", "engine", p.name)
		if err := killProcess(p.cmd); err != nil {
			p.closeErr = fmt.Errorf("kill engine %s: %w", p.name, err)
		}
		<-p.waitDone
	})
	return p.closeErr
}

func (p *Process) send(cmd string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if _, err := io.WriteString(p.stdin, cmd+"\n"); err != nil {
		return fmt.Errorf("send %q: %w", cmd, err)
	}
	return nil
}

// waitFor returns the first stdout line whose first word is token, skipping
// informational output.
func (p *Process) waitFor(ctx context.Context, token string) (string, error) {
	for {
		select {
		case line, ok := <-p.lines:
			if !ok {
				return "", fmt.Errorf("engine exited while waiting for %s", token)
			}
			if first, _, _ := strings.Cut(line, " "); first == token {
				return line, nil
			}
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for %s: %w", token, ctx.Err())
		}
	}
}

// readLoop forwards stdout lines until EOF. After Close it keeps draining so
// the engine never blocks on a full pipe.
func (p *Process) readLoop(r io.Reader) {
	defer close(p.lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		select {
		case p.lines <- line:
		case <-p.quit:
		}
	}
}

func (p *Process) logStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.logger.Debug("engine stderr", "engine", p.name, "line", scanner.Text())
	}
}

func positionCommand(moves []string) string {
	if len(moves) == 0 {
		return "position startpos"
	}
	return "position startpos moves " + strings.Join(moves, " ")
}

func goCommand(limit clock.Limit) string {
	if limit.MoveTime > 0 {
		return fmt.Sprintf("go movetime %d", limit.MoveTime.Milliseconds())
	}
	return fmt.Sprintf("go wtime %d btime %d winc %d binc %d",
		max(limit.WhiteTime.Milliseconds(), 0),
		max(limit.BlackTime.Milliseconds(), 0),
		limit.Increment.Milliseconds(),
		limit.Increment.Milliseconds(),
	)
}
