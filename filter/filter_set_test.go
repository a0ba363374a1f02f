package filter

import (
	"net/url"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letterbox/mailbox-data-api/types"
)

func TestFilterSet(t *testing.T) {
	letter := letterEntity(t)
	compiler := &Compiler{}

	first, err := compiler.Compile(letter, []Binding{
		{Spec: FieldSpec{Key: "sender", Type: types.TypeString, Operator: "eq"}, Value: "a@b.c"},
	})
	require.NoError(t, err)
	second, err := compiler.Compile(letter, []Binding{
		{Spec: FieldSpec{Key: "user", Type: types.TypeInteger, Operator: "eq"}, Value: "1"},
	})
	require.NoError(t, err)

	combined := first.With(second)
	assert.Equal(t, 2, combined.Len())
	assert.Equal(t, 1, first.Len())

	query, args, err := sq.Select("*").From("letter").Where(combined.Sqlizer()).ToSql()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM letter WHERE ("sender" = ? AND "user" = ?)`, query)
	assert.Equal(t, []interface{}{"a@b.c", int64(1)}, args)

	list := combined.List()
	list[0] = list[1]
	assert.Equal(t, []string{"sender"}, combined.List()[0].Columns())
}

func TestEmptyFilterSet(t *testing.T) {
	var nilSet *FilterSet
	assert.True(t, nilSet.Empty())
	assert.Nil(t, nilSet.List())

	empty := NewFilterSet()
	assert.True(t, empty.Empty())

	query, args, err := empty.Sqlizer().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "", query)
	assert.Empty(t, args)
}

func TestFromValues(t *testing.T) {
	values := url.Values{"sender": {"a@b.c"}, "t": {"x", "y"}}
	assert.Equal(t, types.Query{
		"sender": []string{"a@b.c"},
		"t":      []string{"x", "y"},
	}, FromValues(values))
}

func TestSplitList(t *testing.T) {
	items := []struct {
		value    string
		expected []string
	}{
		{"a", []string{"a"}},
		{"a,b", []string{"a", "b"}},
		{`"a,b",c`, []string{"a,b", "c"}},
		{"a,,b", []string{"a", "b"}},
	}
	for _, item := range items {
		parts, err := splitList(item.value)
		require.NoError(t, err)
		assert.Equal(t, item.expected, parts)
	}
}
