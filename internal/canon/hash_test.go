package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommitHashDeterminism(t *testing.T) {
	snap := []byte(`{"parts":[{"id":"motor-1"}]}`)

	h1 := CommitHash("", "initial", snap)
	h2 := CommitHash("", "initial", snap)

	assert.Equal(t, h1, h2, "CommitHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestCommitHashChangesWithInput(t *testing.T) {
	snap := []byte(`{"parts":[]}`)

	h1 := CommitHash("", "msg", snap)
	h2 := CommitHash("parent", "msg", snap)
	h3 := CommitHash("", "other", snap)
	h4 := CommitHash("", "msg", []byte(`{"parts":[{"id":"x"}]}`))

	assert.NotEqual(t, h1, h2, "different parent should change hash")
	assert.NotEqual(t, h1, h3, "different message should change hash")
	assert.NotEqual(t, h1, h4, "different snapshot should change hash")
}

func TestCommitHashBoundarySeparation(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not collide thanks to null separators.
	h1 := CommitHash("ab", "c", nil)
	h2 := CommitHash("a", "bc", nil)
	assert.NotEqual(t, h1, h2)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte("same bytes")
	assert.NotEqual(t, hashWithDomain(DomainCommit, data), hashWithDomain(DomainSnapshot, data))
}

func TestFingerprintMatchesContent(t *testing.T) {
	a := Fingerprint([]byte(`{"id":"x"}`))
	b := Fingerprint([]byte(`{"id":"x"}`))
	c := Fingerprint([]byte(`{"id":"y"}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
