package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const (
	startupTimeout = 10 * time.Second
	pollInterval   = 50 * time.Millisecond
)

// lockedBuffer is a thread-safe wrapper around bytes.Buffer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (lb *lockedBuffer) Write(p []byte) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.Write(p)
}

func (lb *lockedBuffer) String() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.String()
}

// binaries holds the paths of the commands built for the tests. The engines
// directory contains the random engine.
type binaries struct {
	quinttest  string
	quinttestd string
	enginesDir string
}

var (
	built     binaries
	buildOnce sync.Once
	buildErr  error
)

func getBinaries(t *testing.T) binaries {
	t.Helper()
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "quinttest-e2e-*")
		if err != nil {
			buildErr = err
			return
		}
		root := findRepoRoot(t)
		engines := filepath.Join(dir, "engines")
		targets := map[string]string{
			"./cmd/quinttest":    filepath.Join(dir, "quinttest"),
			"./cmd/quinttestd":   filepath.Join(dir, "quinttestd"),
			"./cmd/randomengine": filepath.Join(engines, "randomengine"),
		}
		for pkg, out := range targets {
			cmd := exec.Command("go", "build", "-o", out, pkg)
			cmd.Dir = root
			if b, err := cmd.CombinedOutput(); err != nil {
				buildErr = fmt.Errorf("go build %s failed: %w\n%s", pkg, err, b)
				return
			}
		}
		built = binaries{
			quinttest:  targets["./cmd/quinttest"],
			quinttestd: targets["./cmd/quinttestd"],
			enginesDir: engines,
		}
	})
	if buildErr != nil {
		t.Fatal(buildErr)
	}
	return built
}

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root")
		}
		dir = parent
	}
}

// runCLI runs quinttest in dir and returns its exit code and output.
func runCLI(t *testing.T, b binaries, dir string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(b.quinttest, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("run quinttest: %v", err)
	}
	return code, stdout.String(), stderr.String()
}

// serverProc holds the running server subprocess and its output.
type serverProc struct {
	cmd    *exec.Cmd
	output *lockedBuffer
	url    string
}

func startServer(t *testing.T, b binaries) *serverProc {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	output := &lockedBuffer{}
	cmd := exec.Command(b.quinttestd)
	cmd.Env = append(os.Environ(),
		"QUINTTEST_LISTEN_ADDR="+addr,
		"QUINTTEST_DB_PATH="+filepath.Join(t.TempDir(), "test.db"),
		"QUINTTEST_ENGINES_DIR="+b.enginesDir,
		"QUINTTEST_MAX_CONCURRENCY=2",
		"QUINTTEST_LOG_LEVEL=info",
	)
	cmd.Stdout = output
	cmd.Stderr = output

	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	sp := &serverProc{cmd: cmd, output: output, url: "http://" + addr}

	t.Cleanup(func() {
		cmd.Process.Kill()
		cmd.Wait()
	})

	deadline := time.Now().Add(startupTimeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(sp.url + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return sp
			}
		}
		time.Sleep(pollInterval)
	}
	t.Fatalf("server did not become ready within %v\noutput:\n%s", startupTimeout, output.String())
	return nil
}

func (sp *serverProc) getJSON(t *testing.T, path string, v any) int {
	t.Helper()
	resp, err := http.Get(sp.url + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	sp.decode(t, resp, v)
	return resp.StatusCode
}

func (sp *serverProc) decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", resp.Request.URL.Path, err)
	}
}
