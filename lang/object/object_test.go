package object

import "testing"

import "github.com/stretchr/testify/require"

func TestTruthy(t *testing.T) {
	require.False(t, Truthy(Nil{}))
	require.False(t, Truthy(Bool(false)))
	require.True(t, Truthy(Bool(true)))
	require.True(t, Truthy(Int(0)))
	require.True(t, Truthy(&String{Val: ""}))
}

func TestEqual(t *testing.T) {
	require.True(t, Equal(Int(1), Int(1)))
	require.False(t, Equal(Int(1), &Real{Val: 1}))
	require.True(t, Equal(&Real{Val: 1.5}, &Real{Val: 1.5}))
	require.True(t, Equal(Nil{}, Nil{}))

	s1 := &String{Val: "a"}
	s2 := &String{Val: "a"}
	require.False(t, Equal(s1, s2), "distinct *String pointers are not equal even with the same Val")
	require.True(t, Equal(s1, s1))
}

func TestKindName(t *testing.T) {
	require.Equal(t, "int", KindName(Int(1)))
	require.Equal(t, "string", KindName(&String{Val: "x"}))
	require.Equal(t, "list", KindName(&List{}))
	require.Equal(t, "nil", KindName(Nil{}))
}

func TestClassAndInstance(t *testing.T) {
	cls := NewClass("Point")
	cls.Methods.Put("dist", &Closure{})
	m, ok := cls.Methods.Get("dist")
	require.True(t, ok)
	require.NotNil(t, m)

	inst := NewInstance(cls)
	inst.Fields.Put("x", Int(1))
	v, ok := inst.Fields.Get("x")
	require.True(t, ok)
	require.Equal(t, Int(1), v)

	_, ok = inst.Fields.Get("y")
	require.False(t, ok)
}

func TestIteratorNext(t *testing.T) {
	it := &Iterator{Keys: []string{"a", "b"}, Cursor: -1}
	require.True(t, it.Next())
	require.Equal(t, "a", it.Key())
	require.True(t, it.Next())
	require.Equal(t, "b", it.Key())
	require.False(t, it.Next())
}
