package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMintsDistinctIDs(t *testing.T) {
	a := New("db")
	b := New("db")

	// Same description, different identities.
	assert.NotSame(t, a, b)
	assert.NotEqual(t, a.String(), b.String())
	assert.Equal(t, "db", a.Description())
}

func TestIDsAsMapKeys(t *testing.T) {
	a := New("svc")
	b := New("svc")
	m := map[*ID]int{a: 1, b: 2}

	assert.Equal(t, 1, m[a])
	assert.Equal(t, 2, m[b])
}

func TestString(t *testing.T) {
	id := New("cache")
	s := id.String()
	assert.Contains(t, s, "cache(")
	assert.Len(t, s, len("cache(")+8+1)

	var nilID *ID
	assert.Equal(t, "<nil id>", nilID.String())
}
