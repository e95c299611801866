package gen

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/grace/schema"
)

func param(name string, t GraceType) *VariableRef {
	return &VariableRef{Var: &Variable{Name: name, Type: t}}
}

func TestCasing(t *testing.T) {
	tests := []struct {
		input string
		typ   string
		ident string
		cnst  string
	}{
		{"Object Store", "ObjectStore", "object_store", "OBJECT_STORE"},
		{"object_store", "ObjectStore", "object_store", "OBJECT_STORE"},
		{"ObjectStore", "ObjectStore", "object_store", "OBJECT_STORE"},
		{"dog", "Dog", "dog", "DOG"},
		{"HTTPCode", "HttpCode", "http_code", "HTTP_CODE"},
		{"Type", "Type", "x_type", "TYPE"},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.typ, TypeName(tt.input))
			assert.Equal(t, tt.ident, Ident(tt.input))
			assert.Equal(t, tt.cnst, ConstName(tt.input))
		})
	}
}

func TestTypesEqual(t *testing.T) {
	d := petsDomain(t)
	dog, person := ObjectType(object(t, d, "Dog")), ObjectType(object(t, d, "Person"))

	assert.True(t, TypesEqual(KeyType, UuidType, true))
	assert.False(t, TypesEqual(KeyType, UuidType, false))
	assert.True(t, TypesEqual(dog, ObjectType(object(t, d, "Dog")), false))
	assert.False(t, TypesEqual(dog, person, false))
	assert.True(t, TypesEqual(RefTo(dog), RefTo(dog), false))
	assert.False(t, TypesEqual(RefTo(dog), &Reference{Target: dog, Mutable: true}, false))
	assert.True(t, TypesEqual(OptionOf(KeyType), OptionOf(UuidType), true))
	assert.True(t, TypesEqual(ExternalType("SystemTime"), ExternalType("SystemTime"), false))
	assert.False(t, TypesEqual(ExternalType("SystemTime"), StringType, false))
	assert.True(t, TypesEqual(
		&Function{Params: []GraceType{StringType}, Return: dog},
		&Function{Params: []GraceType{StringType}, Return: dog}, false))
	assert.False(t, TypesEqual(&Function{}, &Function{Return: dog}, false))
}

func TestCoerce(t *testing.T) {
	d := petsDomain(t)
	person := object(t, d, "Person")
	ownership := object(t, d, "Ownership")
	owned := object(t, d, "Owned")

	tests := []struct {
		name   string
		opts   []Option
		target GraceType
		source Expression
		want   string
	}{
		{"reference to id", nil, KeyType, param("owner", RefTo(ObjectType(person))), "owner.id"},
		{"reference to uuid", nil, UuidType, param("owner", RefTo(ObjectType(person))), "owner.id"},
		{"same type", nil, StringType, param("name", StringType), "name"},
		{"key is uuid", nil, UuidType, param("id", KeyType), "id"},
		{"value as reference", nil, RefTo(ObjectType(person)), param("owner", ObjectType(person)), "owner"},
		{"reference as reference", nil, RefTo(ObjectType(person)), param("owner", RefTo(ObjectType(person))), "owner"},
		{"optional reference", nil, OptionOf(KeyType), param("owner", OptionOf(RefTo(ObjectType(person)))), "owner.map(|x| x.id)"},
		{"enum id", nil, KeyType, param("ownership", RefTo(ObjectType(ownership))), "ownership.id()"},
		{"const id", nil, UuidType, param("owned", RefTo(ObjectType(owned))), "owned.id()"},
		{"external", nil, ExternalType("SystemTime"), param("at", ExternalType("SystemTime")), "at"},
		{"literal", nil, IntType, &Literal{Value: "42", Type: IntType}, "42"},
		{
			"locked reference",
			[]Option{WithUberStore(UberStdRwLock)},
			KeyType, param("owner", RefTo(ObjectType(person))),
			"owner.read().unwrap().id",
		},
		{
			"locked optional reference",
			[]Option{WithUberStore(UberParkingLotMutex)},
			OptionOf(KeyType), param("owner", OptionOf(RefTo(ObjectType(person)))),
			"owner.map(|x| x.lock().id)",
		},
		{
			"async optional reference",
			[]Option{WithUberStore(UberAsyncRwLock)},
			OptionOf(KeyType), param("owner", OptionOf(RefTo(ObjectType(person)))),
			"futures::future::OptionFuture::from(owner.map(|x| async move { x.read().await.id })).await",
		},
		{
			"vec enum is a struct",
			[]Option{WithUberStore(UberSingle), WithStorage(StorageVec)},
			KeyType, param("ownership", RefTo(ObjectType(ownership))),
			"ownership.borrow().id",
		},
		{
			"const is never wrapped",
			[]Option{WithUberStore(UberStdRwLock)},
			UuidType, param("owned", RefTo(ObjectType(owned))),
			"owned.id()",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGraph(t, d, tt.opts...)
			got, err := g.Coerce(tt.target, tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, g.TypeCheck(tt.target, tt.source))
		})
	}
}

func TestCoerceErrors(t *testing.T) {
	d := petsDomain(t)
	g := newTestGraph(t, d)
	person := object(t, d, "Person")
	dog := object(t, d, "Dog")

	t.Run("mismatch", func(t *testing.T) {
		err := g.TypeCheck(StringType, param("age", IntType))
		require.Error(t, err)
		assert.True(t, IsTypeMismatch(err))
		assert.Contains(t, err.Error(), "age")
	})

	t.Run("wrong object", func(t *testing.T) {
		_, err := g.Coerce(RefTo(ObjectType(dog)), param("owner", RefTo(ObjectType(person))))
		assert.True(t, IsTypeMismatch(err))
	})

	t.Run("key is not uuid under vec", func(t *testing.T) {
		g := newTestGraph(t, d, WithUberStore(UberSingle), WithStorage(StorageVec))
		_, err := g.Coerce(UuidType, param("id", KeyType))
		assert.True(t, IsTypeMismatch(err))
	})

	t.Run("function types", func(t *testing.T) {
		_, err := g.Coerce(&Function{}, param("f", &Function{}))
		assert.True(t, IsUnsupported(err))
	})

	t.Run("untyped", func(t *testing.T) {
		_, err := g.Coerce(nil, param("x", IntType))
		assert.True(t, IsUnsupported(err))
		_, err = g.Coerce(IntType, &Literal{Value: "1"})
		assert.True(t, IsUnsupported(err))
	})

	t.Run("missing variable", func(t *testing.T) {
		var err error
		assert.NotPanics(t, func() { _, err = g.Coerce(IntType, &VariableRef{}) })
		assert.True(t, IsModelInconsistency(err))
		assert.True(t, IsModelInconsistency(g.TypeCheck(OptionOf(UuidType), &VariableRef{})))
		assert.Nil(t, (&VariableRef{}).ExprType())
	})
}

func TestEmit(t *testing.T) {
	g := newTestGraph(t, petsDomain(t))

	s, err := g.Emit(&Call{
		Func: "Uuid::new_v5",
		Args: []Expression{&Literal{Value: "&UUID_NS", Type: UuidType}, param("bytes", StringType)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Uuid::new_v5(&UUID_NS, bytes)", s)

	_, err = g.Emit(&Literal{Type: IntType})
	assert.True(t, IsUnsupported(err))
	_, err = g.Emit(&VariableRef{Var: &Variable{}})
	assert.True(t, IsModelInconsistency(err))
}

func TestFunc(t *testing.T) {
	f := &Func{Name: "new", Params: []*Variable{{Name: "name", Type: StringType}}, Return: IntType}

	p, err := f.Param("name")
	require.NoError(t, err)
	assert.Equal(t, "name", p.Name)
	_, err = f.Param("age")
	assert.True(t, IsModelInconsistency(err))

	v := f.Let("x", &Literal{Value: "1", Type: IntType})
	f.Do(&Literal{Value: "store.inter_x(x)"})
	require.Len(t, f.Body, 2)
	assert.Same(t, v, f.Body[0].(*Let).Var)
	assert.Equal(t, IntType, v.Type)
	assert.Equal(t, "fn(String) -> i64", f.Type().String())
}

func TestRustType(t *testing.T) {
	d := petsDomain(t)
	dog := ObjectType(object(t, d, "Dog"))

	for _, tt := range []struct {
		name string
		opts []Option
		ty   GraceType
		wrap bool
		want string
	}{
		{"key", nil, KeyType, true, "Uuid"},
		{"vec key", []Option{WithUberStore(UberSingle), WithStorage(StorageVec)}, KeyType, true, "usize"},
		{"store", nil, &Reference{Target: StoreType, Mutable: true}, true, "&mut ObjectStore"},
		{"object", nil, RefTo(dog), true, "&Dog"},
		{"wrapped", []Option{WithUberStore(UberStdRwLock)}, RefTo(dog), true, "&Arc<RwLock<Dog>>"},
		{"not wrapped", []Option{WithUberStore(UberStdRwLock)}, RefTo(dog), false, "&Dog"},
		{"option", nil, OptionOf(RefTo(dog)), true, "Option<&Dog>"},
		{"scalar", nil, FloatType, true, "f64"},
		{"external", nil, ExternalType("SystemTime"), true, "SystemTime"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGraph(t, d, tt.opts...)
			got, err := g.RustType(tt.ty, tt.wrap)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := newTestGraph(t, d).RustType(&Function{}, true)
	assert.True(t, IsUnsupported(err))
}

func dogCtor(t testing.TB, d *schema.Domain) (*Func, []*FieldExpression) {
	dog, person := object(t, d, "Dog"), object(t, d, "Person")
	f := &Func{
		Name: "new",
		Params: []*Variable{
			{Name: "name", Type: StringType},
			{Name: "age", Type: IntType},
			{Name: "owner", Type: OptionOf(RefTo(ObjectType(person)))},
			{Name: "store", Type: &Reference{Target: StoreType, Mutable: true}},
		},
		Return: ObjectType(dog),
	}
	fields := []*FieldExpression{
		{Name: "id", Value: param("id", KeyType), Target: KeyType},
		{Name: "name", Value: &VariableRef{Var: f.Params[0]}, Target: StringType},
		{Name: "age", Value: &VariableRef{Var: f.Params[1]}, Target: IntType},
		{Name: "owner", Value: &VariableRef{Var: f.Params[2]}, Target: OptionOf(KeyType)},
	}
	return f, fields
}

func TestMethodSignature(t *testing.T) {
	d := petsDomain(t)

	g := newTestGraph(t, d)
	f, _ := dogCtor(t, d)
	sig, err := g.MethodSignature(f)
	require.NoError(t, err)
	assert.Equal(t, "pub fn new(name: String, age: i64, owner: Option<&Person>, store: &mut ObjectStore) -> Dog {", sig)

	g = newTestGraph(t, d, WithUberStore(UberAsyncRwLock))
	sig, err = g.MethodSignature(f)
	require.NoError(t, err)
	assert.Equal(t, "pub async fn new(name: String, age: i64, owner: Option<&Arc<RwLock<Person>>>, store: &mut ObjectStore) -> Arc<RwLock<Dog>> {", sig)

	_, err = g.MethodSignature(&Func{})
	assert.True(t, IsModelInconsistency(err))
}

func TestUUIDSynthesis(t *testing.T) {
	d := petsDomain(t)
	g := newTestGraph(t, d)
	f, fields := dogCtor(t, d)

	s, err := g.UUIDSynthesis(f, fields)
	require.NoError(t, err)
	assert.Equal(t, `let id = Uuid::new_v5(&UUID_NS, format!("{:?}:{:?}:{:?}", name, age, owner.map(|x| x.id)).as_bytes());`, s)

	_, err = g.UUIDSynthesis(f, fields[:1])
	assert.True(t, IsModelInconsistency(err))
}

func TestStructLiteral(t *testing.T) {
	d := petsDomain(t)
	f, fields := dogCtor(t, d)
	lit := &StructExpression{Object: f.Return.(*Ty).Object, Fields: fields}

	s, err := newTestGraph(t, d).StructLiteral(lit)
	require.NoError(t, err)
	assert.Equal(t, "Dog { id, name, age, owner: owner.map(|x| x.id) }", s)

	s, err = newTestGraph(t, d, WithUberStore(UberSingle)).StructLiteral(lit)
	require.NoError(t, err)
	assert.Equal(t, "Rc::new(RefCell::new(Dog { id, name, age, owner: owner.map(|x| x.borrow().id) }))", s)

	t.Run("variant", func(t *testing.T) {
		animal, cat := object(t, d, "Animal"), object(t, d, "Cat")
		lit := &StructExpression{Object: animal, Fields: []*FieldExpression{
			{Name: "subtype", Value: param("cat", RefTo(ObjectType(cat))), Target: KeyType, Variant: "AnimalEnum::Cat"},
			{Name: "id", Value: param("id", KeyType)},
			{Name: "tame", Value: param("tame", BoolType)},
		}}
		s, err := newTestGraph(t, d).StructLiteral(lit)
		require.NoError(t, err)
		assert.Equal(t, "Animal { subtype: AnimalEnum::Cat(cat.id), id, tame }", s)
	})

	t.Run("field without value", func(t *testing.T) {
		_, err := newTestGraph(t, d).StructLiteral(&StructExpression{Object: lit.Object, Fields: []*FieldExpression{{Name: "id"}}})
		assert.True(t, IsModelInconsistency(err))
	})
}

func TestDocComment(t *testing.T) {
	t.Run("wraps at width", func(t *testing.T) {
		text := strings.TrimSpace(strings.Repeat("word ", 22))
		lines := DocComment(text, "/// ", "", DocWidth)
		require.Len(t, lines, 3)
		for _, l := range lines {
			assert.LessOrEqual(t, utf8.RuneCountInString(l), DocWidth)
		}
		assert.True(t, strings.HasPrefix(lines[0], "/// word"))
		assert.Equal(t, "///", lines[2])
	})

	t.Run("sentence onto a second line", func(t *testing.T) {
		text := "This is a sentence that is intentionally long enough to require wrapping onto a second output line for testing."
		want := []string{
			"/// This is a sentence that is intentionally long enough to require wrapping onto a second",
			"/// output line for testing.",
			"///",
		}
		lines := DocComment(text, "/// ", "", DocWidth)
		assert.Equal(t, want, lines)
		assert.Len(t, lines[0], DocWidth)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, DocComment("  ", "/// ", "", DocWidth))
	})

	t.Run("long word stays whole", func(t *testing.T) {
		long := strings.Repeat("x", 120)
		lines := DocComment(long, "//! ", "", DocWidth)
		assert.Equal(t, []string{"//! " + long, "//!"}, lines)
	})

	t.Run("suffix", func(t *testing.T) {
		lines := DocComment("hello", "/* ", " */", DocWidth)
		assert.Equal(t, []string{"/* hello */", "/* */"}, lines)
	})
}

func TestObjectDoc(t *testing.T) {
	d := petsDomain(t)
	g := newTestGraph(t, d)
	assert.Equal(t, []string{"/// A person that may own a dog.", "///"}, g.ObjectDoc(object(t, d, "Person"), "/// "))
	assert.Nil(t, g.ObjectDoc(object(t, d, "Dog"), "/// "))
}
