package limit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCancelReachesSubtree(t *testing.T) {
	root := New()
	child := root.Child()
	grandchild := child.Child()

	assert.False(t, grandchild.Cancelled())

	root.Cancel()
	assert.True(t, child.Cancelled())
	assert.True(t, grandchild.Cancelled())
}

func TestChildCancelIsContained(t *testing.T) {
	root := New()
	a := root.Child()
	b := root.Child()

	a.Cancel()
	assert.True(t, a.Cancelled())
	assert.False(t, root.Cancelled())
	assert.False(t, b.Cancelled())
}

func TestDoneUnblocksOnCancel(t *testing.T) {
	root := New()
	child := root.Child()

	select {
	case <-child.Done():
		t.Fatal("child done before cancellation")
	default:
	}

	root.Cancel()
	select {
	case <-child.Done():
	default:
		t.Fatal("child not done after root cancellation")
	}
}
