package gen

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTarget(t *testing.T) {
	t.Run("sets target", func(t *testing.T) {
		c := &Config{}
		require.NoError(t, WithTarget("src/domain/pets")(c))
		assert.Equal(t, "src/domain/pets", c.Target)
	})

	t.Run("empty target", func(t *testing.T) {
		err := WithTarget("")(&Config{})
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}

func TestWithModule(t *testing.T) {
	tests := []struct {
		module  string
		want    string
		wantErr bool
	}{
		{"domain::pets", "domain::pets", false},
		{"::domain::pets::", "domain::pets", false},
		{"pets", "pets", false},
		{"", "", true},
		{"domain::Pets", "", true},
		{"domain::::pets", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			c := &Config{}
			err := WithModule(tt.module)(c)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Module)
		})
	}
}

func TestWithFromDomain(t *testing.T) {
	t.Run("both set", func(t *testing.T) {
		c := &Config{}
		require.NoError(t, WithFromDomain("domain::old", "models/old.json")(c))
		assert.Equal(t, "domain::old", c.FromModule)
		assert.Equal(t, "models/old.json", c.FromPath)
	})

	t.Run("only one set", func(t *testing.T) {
		err := WithFromDomain("domain::old", "")(&Config{})
		assert.True(t, IsConfigError(err))
	})
}

func TestWithDerive(t *testing.T) {
	c := &Config{}
	require.NoError(t, WithDerive("Clone", "Debug")(c))
	require.NoError(t, WithDerive("Hash")(c))
	assert.Equal(t, []string{"Clone", "Debug", "Hash"}, c.Derive)

	for _, bad := range []string{"", "Clone, Debug", "derive(Clone)"} {
		err := WithDerive(bad)(&Config{})
		assert.True(t, IsConfigError(err), bad)
	}
}

func TestFlagOptions(t *testing.T) {
	c := &Config{}
	require.NoError(t, c.Apply(
		WithPersist(true),
		WithSarzak(),
		WithMetaModel(),
		WithDocTest(),
		WithAlwaysProcess(),
		WithUsePaths("crate::a", "crate::b"),
		WithImportedDomains("models/sarzak.json"),
		WithNamed("Dog"),
	))
	assert.True(t, c.Persist)
	assert.True(t, c.PersistTimestamps)
	assert.True(t, c.IsSarzak)
	assert.True(t, c.IsMetaModel)
	assert.True(t, c.DocTest)
	assert.True(t, c.AlwaysProcess)
	assert.Equal(t, []string{"crate::a", "crate::b"}, c.UsePaths)
	assert.Equal(t, []string{"models/sarzak.json"}, c.ImportedDomains)
	assert.Equal(t, []string{"Dog"}, c.Named)
}

func TestWithUberStore(t *testing.T) {
	for _, u := range UberStores() {
		t.Run(u.String(), func(t *testing.T) {
			c := &Config{}
			require.NoError(t, WithUberStore(u)(c))
			assert.Equal(t, u, c.UberStore)

			c = &Config{}
			require.NoError(t, WithUberStoreName(u.String())(c))
			assert.Equal(t, u, c.UberStore)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		assert.True(t, IsConfigError(WithUberStore(endUber)(&Config{})))
		assert.True(t, IsConfigError(WithUberStoreName("Spinlock")(&Config{})))
	})

	t.Run("name ignores case", func(t *testing.T) {
		c := &Config{}
		require.NoError(t, WithUberStoreName("stdrwlock")(c))
		assert.Equal(t, UberStdRwLock, c.UberStore)
	})
}

func TestWithWorkers(t *testing.T) {
	c := &Config{}
	require.NoError(t, WithWorkers(3)(c))
	assert.Equal(t, 3, c.Workers)
	assert.True(t, IsConfigError(WithWorkers(0)(&Config{})))
}

func TestWithBuildTimeAndLogger(t *testing.T) {
	c := &Config{}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, c.Apply(WithBuildTime(at), WithLogger(l)))
	assert.Equal(t, at, c.BuildTime)
	assert.Same(t, l, c.logger())
	assert.True(t, IsConfigError(WithLogger(nil)(&Config{})))
}

func TestApply(t *testing.T) {
	t.Run("stops at first error", func(t *testing.T) {
		c := &Config{}
		err := c.Apply(WithTarget(""), WithModule("pets"))
		require.Error(t, err)
		assert.Empty(t, c.Module)
	})

	t.Run("ApplyAll collects errors", func(t *testing.T) {
		c := &Config{}
		err := c.ApplyAll(WithTarget(""), WithModule("pets"), WithWorkers(-1))
		require.Error(t, err)
		assert.Equal(t, "pets", c.Module)
		assert.Contains(t, err.Error(), "Target")
		assert.Contains(t, err.Error(), "Workers")
	})
}

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, "domain", c.Module)
		assert.Positive(t, c.Workers)
		assert.Equal(t, UberDisabled, c.UberStore)
		assert.Equal(t, StorageHashMap, c.Storage)
	})

	t.Run("vec storage needs an uber store", func(t *testing.T) {
		_, err := NewConfig(WithStorage(StorageVec))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))

		c, err := NewConfig(WithStorage(StorageVec), WithUberStore(UberSingle))
		require.NoError(t, err)
		assert.Equal(t, StorageVec, c.Storage)
	})

	t.Run("timestamps need persistence", func(t *testing.T) {
		err := (&Config{PersistTimestamps: true}).Validate()
		assert.True(t, IsConfigError(err))
	})

	t.Run("MustNewConfig panics", func(t *testing.T) {
		assert.Panics(t, func() { MustNewConfig(WithWorkers(0)) })
	})
}

func TestParseStorage(t *testing.T) {
	for in, want := range map[string]Storage{
		"":        StorageHashMap,
		"hashmap": StorageHashMap,
		"Map":     StorageHashMap,
		"vec":     StorageVec,
		"VECTOR":  StorageVec,
	} {
		got, err := ParseStorage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStorage("btree")
	assert.True(t, IsConfigError(err))

	var s Storage
	require.NoError(t, s.UnmarshalText([]byte("vec")))
	assert.Equal(t, StorageVec, s)
	text, err := s.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "vec", string(text))
	assert.Equal(t, "usize", StorageVec.IDType())
	assert.Equal(t, "Uuid", StorageHashMap.IDType())
}
