package fat32_test

import (
	"testing"

	"github.com/dmitri-k/fatshell/fat32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func TestAccessorChainFromSingleCluster(t *testing.T) {
	raw, geo := newFixture(8)
	image := bytesextra.NewReadWriteSeeker(raw)

	acc, err := fat32.NewAccessor(image, geo)
	require.NoError(t, err)

	chain, err := acc.ChainFrom(2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, chain)
}

func TestAccessorAllocateMarksClusterUsed(t *testing.T) {
	raw, geo := newFixture(8)
	image := bytesextra.NewReadWriteSeeker(raw)

	acc, err := fat32.NewAccessor(image, geo)
	require.NoError(t, err)

	cluster, err := acc.Allocate()
	require.NoError(t, err)
	assert.True(t, acc.IsValid(cluster))
	assert.NotEqual(t, uint32(2), cluster, "root cluster should already be in use")

	next, err := acc.NextOf(cluster)
	require.NoError(t, err)
	assert.True(t, acc.IsEndOfChain(next))

	// Allocating again must not return the same cluster.
	second, err := acc.Allocate()
	require.NoError(t, err)
	assert.NotEqual(t, cluster, second)
}

func TestAccessorAllocateExhaustion(t *testing.T) {
	raw, geo := newFixture(2) // only cluster 2 exists, and it's root
	image := bytesextra.NewReadWriteSeeker(raw)

	acc, err := fat32.NewAccessor(image, geo)
	require.NoError(t, err)

	_, err = acc.Allocate()
	assert.Error(t, err)
}

func TestAccessorSetNextExtendsChain(t *testing.T) {
	raw, geo := newFixture(8)
	image := bytesextra.NewReadWriteSeeker(raw)

	acc, err := fat32.NewAccessor(image, geo)
	require.NoError(t, err)

	second, err := acc.Allocate()
	require.NoError(t, err)
	require.NoError(t, acc.SetNext(2, second))

	chain, err := acc.ChainFrom(2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, second}, chain)
}

func TestAccessorFreeChainReleasesAllClusters(t *testing.T) {
	raw, geo := newFixture(8)
	image := bytesextra.NewReadWriteSeeker(raw)

	acc, err := fat32.NewAccessor(image, geo)
	require.NoError(t, err)

	second, err := acc.Allocate()
	require.NoError(t, err)
	require.NoError(t, acc.SetNext(second, fat32.ClusterEOC))

	third, err := acc.Allocate()
	require.NoError(t, err)
	require.NoError(t, acc.SetNext(second, third))

	require.NoError(t, acc.FreeChain(second))

	// Both clusters should now be free and reusable.
	reused, err := acc.Allocate()
	require.NoError(t, err)
	assert.Equal(t, second, reused)

	reusedAgain, err := acc.Allocate()
	require.NoError(t, err)
	assert.Equal(t, third, reusedAgain)
}

func TestAccessorIsEndOfChainBoundary(t *testing.T) {
	raw, geo := newFixture(8)
	image := bytesextra.NewReadWriteSeeker(raw)
	acc, err := fat32.NewAccessor(image, geo)
	require.NoError(t, err)

	assert.False(t, acc.IsEndOfChain(0x0FFFFFF7))
	assert.True(t, acc.IsEndOfChain(0x0FFFFFF8))
	assert.True(t, acc.IsEndOfChain(0x0FFFFFFF))
}
