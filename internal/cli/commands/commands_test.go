package commands

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/ormbind/internal/config"
	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
	"github.com/conduit-lang/ormbind/internal/orm/report"
)

const zooYAML = `
classes:
  - name: com.acme.Animal
    annotations:
      - kind: Entity
    members:
      - name: id
        type: long
        annotations:
          - kind: Id
      - name: name
        type: java.lang.String
  - name: com.acme.Dog
    super: com.acme.Animal
    annotations:
      - kind: Entity
    members:
      - name: breed
        type: java.lang.String
`

const brokenYAML = `
classes:
  - name: com.acme.Animal
    annotations:
      - kind: Entity
    members:
      - name: id
        type: long
        annotations:
          - kind: Id
      - name: nickname
        type: java.lang.String
        annotations:
          - kind: Column
            attrs: {table: AUX}
`

type fixture struct {
	dir    string
	config string
	zoo    string
}

func newFixture(t *testing.T, extraConfig string) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:    dir,
		config: filepath.Join(dir, "ormbind.yaml"),
		zoo:    filepath.Join(dir, "zoo.yaml"),
	}
	cfg := "logging:\n  level: error\n" + extraConfig
	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(f.zoo, []byte(zooYAML), 0o644))
	return f
}

func (f *fixture) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return f.runContext(t, context.Background(), args...)
}

func (f *fixture) runContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", f.config, "--no-color"}, args...))
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "ormbind", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"version", "bind", "inspect", "check", "serve", "init"} {
		assert.Contains(t, names, expected)
	}
}

func TestVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	GitCommit = "abc123"
	defer func() { Version, GitCommit = "dev", "unknown" }()

	stdout, _, err := newFixture(t, "").run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1.0.0-test")
	assert.Contains(t, stdout, "abc123")
}

func TestBindCommand_Text(t *testing.T) {
	f := newFixture(t, "")
	stdout, _, err := f.run(t, "bind", f.zoo)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Hierarchies")
	assert.Contains(t, stdout, "com.acme.Dog")
	assert.Contains(t, stdout, "discriminated_subclass")
	assert.Contains(t, stdout, "DTYPE")
	assert.Contains(t, stdout, "bound 2 entities in 1 hierarchies")
}

func TestBindCommand_JSON(t *testing.T) {
	f := newFixture(t, "naming:\n  physical: snake_case\n")
	stdout, _, err := f.run(t, "bind", f.zoo, "--format", "json")
	require.NoError(t, err)

	r, err := report.Parse([]byte(stdout))
	require.NoError(t, err)
	require.Len(t, r.Hierarchies, 1)
	assert.Equal(t, "com.acme.Animal", r.Hierarchies[0].Root)

	dog, ok := r.Entity("Dog")
	require.True(t, ok)
	assert.Equal(t, "discriminated_subclass", dog.Kind)
	assert.Equal(t, "com.acme.Animal", dog.Super)
	assert.Equal(t, "Dog", dog.DiscriminatorValue)
}

func TestBindCommand_Errors(t *testing.T) {
	f := newFixture(t, "")

	t.Run("bind error", func(t *testing.T) {
		broken := filepath.Join(f.dir, "broken.yaml")
		require.NoError(t, os.WriteFile(broken, []byte(brokenYAML), 0o644))

		_, stderr, err := f.run(t, "bind", broken)
		require.Error(t, err)
		assert.True(t, binderrors.HasCode(err, binderrors.ErrUnknownTable))
		assert.Contains(t, stderr, "BND103")
		assert.Contains(t, stderr, "attribute: nickname")
	})

	t.Run("missing file", func(t *testing.T) {
		_, stderr, err := f.run(t, "bind", filepath.Join(f.dir, "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, stderr, "BIND FAILED")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := f.run(t, "bind", f.zoo, "--format", "xml")
		assert.ErrorContains(t, err, "unknown format")
	})

	t.Run("no files", func(t *testing.T) {
		_, _, err := f.run(t, "bind")
		assert.Error(t, err)
	})
}

func TestBindCommand_InvalidConfig(t *testing.T) {
	f := newFixture(t, "naming:\n  physical: kebab\n")
	_, stderr, err := f.run(t, "bind", f.zoo)
	require.Error(t, err)
	assert.Contains(t, stderr, "CONFIGURATION ERROR")
}

func TestBindCommand_StoreInMemory(t *testing.T) {
	f := newFixture(t, "")
	_, stderr, err := f.run(t, "bind", f.zoo, "--store")
	require.NoError(t, err)
	assert.Contains(t, stderr, "MEMORY STORE")
	assert.Contains(t, stderr, "stored report")
}

func TestBindThenInspect_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	f := newFixture(t, "redis:\n  addr: "+mr.Addr()+"\n")

	_, stderr, err := f.run(t, "bind", f.zoo, "--store")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "MEMORY STORE")
	assert.True(t, mr.Exists("ormbind:report:latest"))

	stdout, _, err := f.run(t, "inspect")
	require.NoError(t, err)
	assert.Contains(t, stdout, "com.acme.Animal")
	assert.Contains(t, stdout, "com.acme.Dog")

	stdout, _, err = f.run(t, "inspect", "com.acme.Dog")
	require.NoError(t, err)
	assert.Contains(t, stdout, "breed")
}

func TestInspect_EmptyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	f := newFixture(t, "redis:\n  addr: "+mr.Addr()+"\n")

	_, stderr, err := f.run(t, "inspect")
	require.Error(t, err)
	assert.Contains(t, stderr, "NO STORED REPORT")
}

func TestInspect_ReportFile(t *testing.T) {
	f := newFixture(t, "")
	stdout, _, err := f.run(t, "bind", f.zoo, "--format", "json")
	require.NoError(t, err)
	path := filepath.Join(f.dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte(stdout), 0o644))

	t.Run("entity", func(t *testing.T) {
		stdout, _, err := f.run(t, "inspect", "Dog", "--report", path)
		require.NoError(t, err)
		assert.Contains(t, stdout, "com.acme.Dog")
		assert.Contains(t, stdout, "breed")
		assert.Contains(t, stdout, "Discriminator:")
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, stderr, err := f.run(t, "inspect", "Dgo", "--report", path)
		require.Error(t, err)
		assert.Contains(t, stderr, "ENTITY NOT FOUND")
		assert.Contains(t, stderr, "Did you mean: Dog?")
	})

	t.Run("table", func(t *testing.T) {
		stdout, _, err := f.run(t, "inspect", "--table", "Animal", "--report", path)
		require.NoError(t, err)
		assert.Contains(t, stdout, "DTYPE")
		assert.Contains(t, stdout, "breed")
	})

	t.Run("unknown table", func(t *testing.T) {
		_, stderr, err := f.run(t, "inspect", "--table", "Animl", "--report", path)
		require.Error(t, err)
		assert.Contains(t, stderr, "Did you mean: Animal?")
	})
}

func TestCheckCommand_SQLite(t *testing.T) {
	f := newFixture(t, "")
	dbPath := filepath.Join(f.dir, "zoo.db")

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE Animal (id INTEGER PRIMARY KEY, DTYPE TEXT, name TEXT)`)
	require.NoError(t, err)

	stdout, _, err := f.run(t, "check", f.zoo, "--driver", "sqlite3", "--database-url", dbPath)
	require.Error(t, err)
	assert.Contains(t, stdout, "column breed")
	assert.Contains(t, stdout, "SCHEMA MISMATCH")

	_, err = db.Exec(`ALTER TABLE Animal ADD COLUMN breed TEXT`)
	require.NoError(t, err)

	stdout, _, err = f.run(t, "check", f.zoo, "--driver", "sqlite3", "--database-url", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "all 1 tables match the database")
}

func TestCheckCommand_NoDatabase(t *testing.T) {
	f := newFixture(t, "")
	_, stderr, err := f.run(t, "check", f.zoo)
	require.Error(t, err)
	assert.Contains(t, stderr, "database.url is not set")
}

func TestServeCommand_StopsWithContext(t *testing.T) {
	f := newFixture(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := f.runContext(t, ctx, "serve", f.zoo, "--addr", "127.0.0.1:0")
	assert.NoError(t, err)
}

func TestInitCommand_Defaults(t *testing.T) {
	f := newFixture(t, "")
	path := filepath.Join(f.dir, "generated.yaml")

	stdout, _, err := f.run(t, "init", "--defaults", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "jpa", cfg.Naming.Implicit)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.False(t, cfg.UsesRedis())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "shared_cache_mode: unspecified"))

	_, _, err = f.run(t, "init", "--defaults", "--output", path)
	assert.ErrorContains(t, err, "already exists")

	_, _, err = f.run(t, "init", "--defaults", "--output", path, "--force")
	assert.NoError(t, err)
}
