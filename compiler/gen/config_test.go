package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/grace/schema"
	"github.com/syssam/grace/schema/field"
)

func TestParseDescription(t *testing.T) {
	t.Run("without marker", func(t *testing.T) {
		text, cfg, err := ParseDescription("Just a dog.")
		require.NoError(t, err)
		assert.Equal(t, "Just a dog.", text)
		assert.Nil(t, cfg)
	})

	t.Run("with configuration", func(t *testing.T) {
		text, cfg, err := ParseDescription(`A dog. 🐶 {"derive":["Copy","Debug"],"named":false}`)
		require.NoError(t, err)
		assert.Equal(t, "A dog.", text)
		require.NotNil(t, cfg)
		assert.Equal(t, []string{"Copy", "Debug"}, cfg.Derive)
		require.NotNil(t, cfg.Named)
		assert.False(t, *cfg.Named)
	})

	t.Run("empty tag", func(t *testing.T) {
		text, cfg, err := ParseDescription("A dog. 🐶")
		require.NoError(t, err)
		assert.Equal(t, "A dog.", text)
		assert.NotNil(t, cfg)
	})

	t.Run("malformed tag", func(t *testing.T) {
		_, _, err := ParseDescription(`A dog. 🐶 {"derive":`)
		require.Error(t, err)
	})
}

func configDomain(t *testing.T, descs map[string]string) *schema.Domain {
	t.Helper()
	b := schema.NewBuilder("config")
	for _, name := range []string{"Object", "Dog", "Cat"} {
		b.Object(name, field.String("name")).Describe(descs[name])
	}
	b.Object("Rock", field.Int("weight")).Describe(descs["Rock"])
	d, err := b.Build()
	require.NoError(t, err)
	return d
}

func TestGraceConfig(t *testing.T) {
	t.Run("derive falls back to the global list", func(t *testing.T) {
		d := configDomain(t, map[string]string{
			"Dog": `🐶 {"derive":["Serialize","Clone","Clone"]}`,
		})
		gc, err := NewGraceConfig(&Config{}, d)
		require.NoError(t, err)
		assert.Equal(t, []string{"Clone", "Serialize"}, gc.Derive(object(t, d, "Dog").ID))
		assert.Equal(t, []string{"Clone", "Debug", "Deserialize", "PartialEq", "Serialize"}, gc.Derive(object(t, d, "Cat").ID))
	})

	t.Run("use paths", func(t *testing.T) {
		d := configDomain(t, map[string]string{
			"Dog": `🐶 {"use_paths":["crate::util::Bark"]}`,
		})
		gc, err := NewGraceConfig(&Config{UsePaths: []string{"crate::util::*"}}, d)
		require.NoError(t, err)
		assert.Equal(t, []string{"crate::util::Bark"}, gc.UsePaths(object(t, d, "Dog").ID))
		assert.Equal(t, []string{"crate::util::*"}, gc.UsePaths(object(t, d, "Cat").ID))
	})

	t.Run("description strips the tag", func(t *testing.T) {
		d := configDomain(t, map[string]string{"Dog": `Barks. 🐶 {}`})
		gc, err := NewGraceConfig(&Config{}, d)
		require.NoError(t, err)
		assert.Equal(t, "Barks.", gc.Description(object(t, d, "Dog")))
	})

	t.Run("named", func(t *testing.T) {
		d := configDomain(t, map[string]string{
			"Cat":  `🐶 {"named":true}`,
			"Rock": `🐶 {"named":true}`,
		})
		gc, err := NewGraceConfig(&Config{Named: []string{"Dog"}}, d)
		require.NoError(t, err)
		assert.True(t, gc.Named(object(t, d, "Object")), "default set")
		assert.True(t, gc.Named(object(t, d, "Dog")), "configured")
		assert.True(t, gc.Named(object(t, d, "Cat")), "object override")
		assert.False(t, gc.Named(object(t, d, "Rock")), "no name attribute")
	})

	t.Run("object override disables the default set", func(t *testing.T) {
		d := configDomain(t, map[string]string{"Object": `🐶 {"named":false}`})
		gc, err := NewGraceConfig(&Config{}, d)
		require.NoError(t, err)
		assert.False(t, gc.Named(object(t, d, "Object")))
	})

	t.Run("imported and external", func(t *testing.T) {
		d := configDomain(t, map[string]string{
			"Dog": `🐶 {"imported_object":{"domain":"domain::zoo"}}`,
			"Cat": `🐶 {"external_entity":{"name":"Felis","path":"felis::Felis"}}`,
		})
		gc, err := NewGraceConfig(&Config{}, d)
		require.NoError(t, err)
		imp, ok := gc.Imported(object(t, d, "Dog").ID)
		require.True(t, ok)
		assert.Equal(t, "domain::zoo", imp.Domain)
		ext, ok := gc.External(object(t, d, "Cat").ID)
		require.True(t, ok)
		assert.Equal(t, "felis::Felis", ext.Path)
		_, ok = gc.External(object(t, d, "Dog").ID)
		assert.False(t, ok)
	})

	for name, desc := range map[string]string{
		"malformed":               `🐶 {`,
		"imported and external":   `🐶 {"imported_object":{"domain":"d"},"external_entity":{"name":"A","path":"a::A"}}`,
		"external without path":   `🐶 {"external_entity":{"name":"A"}}`,
		"imported without domain": `🐶 {"imported_object":{}}`,
	} {
		t.Run("rejects "+name, func(t *testing.T) {
			d := configDomain(t, map[string]string{"Dog": desc})
			_, err := NewGraceConfig(&Config{}, d)
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestConfigLogger(t *testing.T) {
	var c *Config
	assert.NotNil(t, c.logger())
	assert.NotNil(t, (&Config{}).logger())
}
