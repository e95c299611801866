package load

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/grace/schema"
	"github.com/syssam/grace/schema/field"
)

var modelTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFormat(t *testing.T) {
	tests := []struct {
		path string
		want string
		err  bool
	}{
		{path: "pets.json", want: FormatJSON},
		{path: "dir/pets.YAML", want: FormatYAML},
		{path: "pets.yml", want: FormatYAML},
		{path: "pets.msgpack", want: FormatMsgpack},
		{path: "pets.mp", want: FormatMsgpack},
		{path: "pets.toml", err: true},
		{path: "pets", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Format(tt.path)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// summary flattens a domain into comparable strings.
func summary(d *schema.Domain) []string {
	var out []string
	for _, o := range d.Objects() {
		s := o.Name + ":"
		for _, a := range o.Attributes {
			s += " " + a.Name + "=" + a.Type.String()
		}
		out = append(out, s)
	}
	for _, r := range d.Relationships() {
		switch r := r.(type) {
		case *schema.Binary:
			out = append(out, "binary "+r.Referrer.Object.Name+"."+r.Referrer.ReferentialAttribute+" -> "+r.Referent.Object.Name)
		case *schema.Isa:
			s := "isa " + r.Supertype.Name + " >"
			for _, sub := range r.Subtypes {
				s += " " + sub.Name
			}
			out = append(out, s)
		case *schema.Associative:
			s := "associative " + r.Referrer.Object.Name + " >"
			for _, ref := range r.Referents {
				s += " " + ref.ReferentialAttribute + ":" + ref.Object.Name
			}
			out = append(out, s)
		}
	}
	return out
}

var petsSummary = []string{
	"Person: id=Uuid name=String",
	"Dog: id=Uuid name=String age=i64 born=SystemTime",
	"Ownership: id=Uuid",
	"Owned: id=Uuid",
	"Borrowed: id=Uuid",
	"Animal: id=Uuid tame=bool",
	"Cat: id=Uuid lives=i64",
	"Bird: id=Uuid wingspan=f64",
	"Visit: id=Uuid minutes=i64",
	"isa Ownership > Owned Borrowed",
	"isa Animal > Cat Bird",
	"binary Dog.owner -> Person",
	"associative Visit > guest:Dog host:Person",
}

func TestFile(t *testing.T) {
	for _, name := range []string{"pets.json", "pets.yaml"} {
		t.Run(name, func(t *testing.T) {
			d, err := File(filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.Equal(t, "pets", d.Name())
			assert.Equal(t, "Pets and their owners.", d.Description())
			if diff := cmp.Diff(petsSummary, summary(d)); diff != "" {
				t.Errorf("domain mismatch (-want +got):\n%s", diff)
			}

			dog, ok := d.ObjectByName("Dog")
			require.True(t, ok)
			assert.True(t, modelTime.Equal(dog.Modified))
			assert.Len(t, d.States(dog), 2)
			assert.Len(t, d.Events(dog), 1)
			born := dog.Attributes[3]
			assert.Equal(t, field.TypeExternal, born.Type.Type)
			assert.Equal(t, "std::time::SystemTime", born.Type.Path)
			assert.Equal(t, "Age in years.", dog.Attributes[2].Comment)

			r1 := d.BinariesAsReferrer(dog)
			require.Len(t, r1, 1)
			assert.Equal(t, schema.Many, r1[0].Referrer.Cardinality)
			assert.Equal(t, schema.Conditional, r1[0].Referrer.Conditionality)
			assert.Equal(t, schema.One, r1[0].Referent.Cardinality)

			person, _ := d.ObjectByName("Person")
			assert.Equal(t, "P", person.KeyLetters)
			owned, _ := d.ObjectByName("Owned")
			assert.Equal(t, uuid.NewSHA1(schema.Namespace("pets"), []byte("object:Owned")), owned.ID)
		})
	}
}

func TestFileErrors(t *testing.T) {
	_, err := File(filepath.Join("testdata", "missing.json"))
	assert.Error(t, err)

	_, err = File(filepath.Join("testdata", "broken.yaml"))
	assert.ErrorContains(t, err, `unknown attribute type "wagging"`)

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = File(path)
	assert.ErrorContains(t, err, "decode")
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		model *Model
		err   string
	}{
		{
			name:  "no domain",
			model: &Model{},
			err:   "model without domain name",
		},
		{
			name: "bad id",
			model: &Model{Domain: "d", Objects: []*Object{
				{Name: "A", ID: "not-a-uuid"},
			}},
			err: `object "A"`,
		},
		{
			name: "object attribute",
			model: &Model{Domain: "d", Objects: []*Object{
				{Name: "A", Attributes: []*Attribute{{Name: "b", Type: "object"}}},
			}},
			err: "not allowed on attributes",
		},
		{
			name: "unknown kind",
			model: &Model{Domain: "d", Relationships: []*Relationship{
				{Kind: "composition", Number: 3},
			}},
			err: `R3: unknown relationship kind "composition"`,
		},
		{
			name: "binary without ends",
			model: &Model{Domain: "d", Relationships: []*Relationship{
				{Kind: KindBinary, Number: 1, Referrer: &End{Object: "A"}},
			}},
			err: "needs a referrer and a referent",
		},
		{
			name: "bad cardinality",
			model: &Model{Domain: "d", Objects: []*Object{{Name: "A"}, {Name: "B"}}, Relationships: []*Relationship{
				{Kind: KindBinary, Number: 1, Referrer: &End{Object: "A", Attribute: "b", Cardinality: "some"}, Referent: &End{Object: "B"}},
			}},
			err: `unknown cardinality "some"`,
		},
		{
			name: "associative without object",
			model: &Model{Domain: "d", Relationships: []*Relationship{
				{Kind: KindAssociative, Number: 2},
			}},
			err: "needs an associative object",
		},
		{
			name: "unknown object",
			model: &Model{Domain: "d", Objects: []*Object{{Name: "A"}}, Relationships: []*Relationship{
				{Kind: KindIsa, Number: 9, Supertype: "A", Subtypes: []string{"Ghost"}},
			}},
			err: `R9 references unknown object "Ghost"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.model.Build()
			assert.ErrorContains(t, err, tt.err)
		})
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	for _, dst := range []string{"pets.msgpack", "pets.json", "out/pets.yml"} {
		t.Run(dst, func(t *testing.T) {
			path := filepath.Join(dir, dst)
			require.NoError(t, Convert(filepath.Join("testdata", "pets.yaml"), path))
			d, err := File(path)
			require.NoError(t, err)
			if diff := cmp.Diff(petsSummary, summary(d)); diff != "" {
				t.Errorf("converted domain mismatch (-want +got):\n%s", diff)
			}
			dog, _ := d.ObjectByName("Dog")
			assert.True(t, modelTime.Equal(dog.Modified))
		})
	}
	assert.Error(t, Convert(filepath.Join("testdata", "pets.yaml"), filepath.Join(dir, "pets.xml")))
}

func TestReadFileModTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"domain":"tiny","objects":[{"name":"A"}]}`), 0o644))
	mtime := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	m, err := ReadFile(path)
	require.NoError(t, err)
	assert.True(t, mtime.Equal(m.Modified))
	d, err := m.Build()
	require.NoError(t, err)
	a, _ := d.ObjectByName("A")
	assert.True(t, mtime.Equal(a.Modified), "objects inherit the file time")
}

func TestLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pets.json")
	buf, err := os.ReadFile(filepath.Join("testdata", "pets.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	l, err := NewLoader(0)
	require.NoError(t, err)
	d1, err := l.Load(path)
	require.NoError(t, err)
	d2, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, d1, d2, "unchanged files are served from the cache")
	assert.Equal(t, 1, l.Len())

	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	d3, err := l.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, d1, d3, "touched files are reloaded")

	l.Purge()
	assert.Equal(t, 0, l.Len())

	_, err = l.Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestLoaderEviction(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("testdata", "pets.json"))
	require.NoError(t, err)
	l, err := NewLoader(2)
	require.NoError(t, err)
	for _, name := range []string{"a.json", "b.json", "c.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, src, 0o644))
		_, err := l.Load(path)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, l.Len())
}

func TestLoaderConcurrent(t *testing.T) {
	l, err := NewLoader(4)
	require.NoError(t, err)
	path := filepath.Join("testdata", "pets.yaml")
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Load(path)
			if assert.NoError(t, err) {
				assert.Equal(t, "pets", d.Name())
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, l.Len())
}
