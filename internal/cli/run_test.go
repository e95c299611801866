package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the concurrent writes of a
// watch run.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// workspace copies the pets model into a temporary directory and
// returns a config generating it into that directory.
func workspace(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	buf, err := os.ReadFile(filepath.Join("..", "..", "compiler", "load", "testdata", "pets.yaml"))
	require.NoError(t, err)
	model := filepath.Join(dir, "pets.yaml")
	require.NoError(t, os.WriteFile(model, buf, 0o644))

	c := DefaultConfig()
	c.Model = model
	c.Target = filepath.Join(dir, "src", "domain", "pets")
	c.Module = "domain::pets"
	c.Rustfmt.Disabled = true
	c.LogLevel = "debug"
	return c
}

func runCommand(t *testing.T, name string, c *Config) (string, error) {
	t.Helper()
	out, _, err := runLogged(t, name, c)
	return out, err
}

// runLogged executes the command and also returns its log output.
func runLogged(t *testing.T, name string, c *Config) (string, string, error) {
	t.Helper()
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	err := Execute(context.Background(), &Command{Name: name, Config: c}, out, logs, BuildInfo{Version: "test"})
	return out.String(), logs.String(), err
}

func TestRunVersion(t *testing.T) {
	out := &bytes.Buffer{}
	err := Execute(context.Background(), &Command{Name: CmdVersion}, out, out, BuildInfo{Version: "v0.3.0"})
	require.NoError(t, err)
	assert.Equal(t, "grace v0.3.0 (built unknown)\n", out.String())

	out.Reset()
	built := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	err = Execute(context.Background(), &Command{Name: CmdVersion}, out, out, BuildInfo{Version: "v0.3.0", Time: built})
	require.NoError(t, err)
	assert.Equal(t, "grace v0.3.0 (built 2024-05-06T07:08:09Z)\n", out.String())
}

func TestRunConvert(t *testing.T) {
	c := workspace(t)
	dst := filepath.Join(filepath.Dir(c.Model), "out", "pets.msgpack")
	err := Execute(context.Background(), &Command{Name: CmdConvert, Args: []string{c.Model, dst}}, &bytes.Buffer{}, &bytes.Buffer{}, BuildInfo{})
	require.NoError(t, err)
	assert.FileExists(t, dst)

	c.Model = dst
	_, err = runCommand(t, CmdGenerate, c)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(c.Target, "types", "dog.rs"))
}

func TestRunGenerate(t *testing.T) {
	c := workspace(t)
	c.Persist = true
	_, err := runCommand(t, CmdGenerate, c)
	require.NoError(t, err)

	for _, f := range []string{"mod.rs", "types.rs", "store.rs", "types/dog.rs", "types/visit.rs"} {
		assert.FileExists(t, filepath.Join(c.Target, f))
	}
	mod, err := os.ReadFile(filepath.Join(c.Target, "mod.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(mod), "pub const UUID_NS: Uuid")
	store, err := os.ReadFile(filepath.Join(c.Target, "store.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(store), "pub fn inter_dog(")
	assert.Contains(t, string(store), "pub fn persist<P: AsRef<Path>>(")
}

func TestRunGenerateErrors(t *testing.T) {
	c := workspace(t)
	c.Model = filepath.Join(filepath.Dir(c.Model), "missing.yaml")
	_, err := runCommand(t, CmdGenerate, c)
	assert.ErrorContains(t, err, "load")

	c = workspace(t)
	c.Ledger.DSN = "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"
	c.Ledger.Dialect = "postgres"
	_, err = runCommand(t, CmdGenerate, c)
	assert.ErrorContains(t, err, "open ledger")
}

func TestRunLedger(t *testing.T) {
	c := workspace(t)
	dir := filepath.Dir(c.Model)
	c.Ledger.DSN = filepath.Join(dir, ".grace", "ledger.db")
	c.Metrics = filepath.Join(dir, "grace.prom")
	c.Ledger.SlowThreshold = time.Hour

	_, logs, err := runLogged(t, CmdGenerate, c)
	require.NoError(t, err)
	assert.FileExists(t, c.Ledger.DSN)
	assert.Contains(t, logs, "ledger statements")
	assert.NotContains(t, logs, "slow ledger statement")

	// Nothing changed, so the second run skips every type file.
	_, err = runCommand(t, CmdGenerate, c)
	require.NoError(t, err)
	metrics, err := os.ReadFile(c.Metrics)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `grace_files_total{kind="type",result="skipped"}`)
	assert.NotContains(t, string(metrics), `result="failed"`)

	out, err := runCommand(t, CmdForget, c)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "forgot "), out)
	assert.NotEqual(t, "forgot 0 objects of pets\n", out)
	assert.True(t, strings.HasSuffix(out, " objects of pets\n"), out)

	out, err = runCommand(t, CmdForget, c)
	require.NoError(t, err)
	assert.Equal(t, "forgot 0 objects of pets\n", out)

	c.Ledger.DSN = ""
	_, err = runCommand(t, CmdForget, c)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "forget needs a ledger")
}

func TestRunDiff(t *testing.T) {
	c := workspace(t)
	c.Diff = true
	out, err := runCommand(t, CmdGenerate, c)
	require.NoError(t, err)
	assert.Contains(t, out, "+++ b/mod.rs")
	assert.Contains(t, out, "+++ b/types/dog.rs")
	assert.Contains(t, out, "+pub const UUID_NS: Uuid")
	assert.NoFileExists(t, filepath.Join(c.Target, "mod.rs"))

	c.Diff = false
	_, err = runCommand(t, CmdGenerate, c)
	require.NoError(t, err)
	c.Diff = true
	out, err = runCommand(t, CmdGenerate, c)
	require.NoError(t, err)
	assert.NotContains(t, out, "+++ b/mod.rs", "up to date files have no diff")
}

func TestRunWatch(t *testing.T) {
	c := workspace(t)
	c.Debounce = 50 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, err := newRunner(ctx, c, &bytes.Buffer{}, &syncBuffer{}, BuildInfo{})
	require.NoError(t, err)
	defer r.close()
	runs := make(chan error, 8)
	r.afterRun = func(err error) { runs <- err }

	done := make(chan error, 1)
	go func() { done <- r.watch(ctx) }()

	wait := func() error {
		t.Helper()
		select {
		case err := <-runs:
			return err
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for a watch run")
			return nil
		}
	}
	require.NoError(t, wait())
	dog := filepath.Join(c.Target, "types", "dog.rs")
	before, err := os.ReadFile(dog)
	require.NoError(t, err)
	assert.NotContains(t, string(before), "weight")

	model, err := os.ReadFile(c.Model)
	require.NoError(t, err)
	changed := strings.Replace(string(model),
		"      - {name: age, type: int, comment: Age in years.}\n",
		"      - {name: age, type: int, comment: Age in years.}\n      - {name: weight, type: f64}\n", 1)
	require.NotEqual(t, string(model), changed)
	require.NoError(t, os.WriteFile(c.Model, []byte(changed), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(c.Model, later, later))

	require.NoError(t, wait())
	after, err := os.ReadFile(dog)
	require.NoError(t, err)
	assert.Contains(t, string(after), "weight")

	// A broken model is logged and the loop keeps running.
	require.NoError(t, os.WriteFile(c.Model, []byte("objects: [\n"), 0o644))
	assert.Error(t, wait())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop")
	}
}
