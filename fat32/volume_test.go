package fat32_test

import (
	"testing"

	"github.com/dmitri-k/fatshell/fat32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func mountFixture(t *testing.T, totalClusters uint32) *fat32.Volume {
	raw, _ := newFixture(totalClusters)
	image := bytesextra.NewReadWriteSeeker(raw)

	vol, err := fat32.Mount(image)
	require.NoError(t, err)
	require.NoError(t, vol.Dirs.InitializeDirectory(vol.RootCluster(), vol.RootCluster()))
	return vol
}

func TestVolumeResolveNestedPath(t *testing.T) {
	vol := mountFixture(t, 16)

	require.NoError(t, vol.Lifecycle.CreateDirectory(vol.RootCluster(), "a"))
	aEntry, err := vol.Dirs.Lookup(vol.RootCluster(), "a")
	require.NoError(t, err)

	require.NoError(t, vol.Lifecycle.CreateDirectory(aEntry.FirstCluster, "b"))

	resolved, err := vol.Resolve(vol.RootCluster(), "a/b")
	require.NoError(t, err)

	bEntry, err := vol.Dirs.Lookup(aEntry.FirstCluster, "b")
	require.NoError(t, err)
	assert.Equal(t, bEntry.FirstCluster, resolved)
}

func TestVolumeResolveEmptyPathIsNoop(t *testing.T) {
	vol := mountFixture(t, 8)
	resolved, err := vol.Resolve(vol.RootCluster(), "")
	require.NoError(t, err)
	assert.Equal(t, vol.RootCluster(), resolved)
}

func TestVolumeResolveThroughFileFails(t *testing.T) {
	vol := mountFixture(t, 8)
	require.NoError(t, vol.Lifecycle.CreateFile(vol.RootCluster(), "a.txt"))

	_, err := vol.Resolve(vol.RootCluster(), "a.txt/b")
	assert.Error(t, err)
}

func TestVolumeValidateHealthyImage(t *testing.T) {
	vol := mountFixture(t, 16)
	require.NoError(t, vol.Lifecycle.CreateDirectory(vol.RootCluster(), "a"))
	require.NoError(t, vol.Lifecycle.CreateFile(vol.RootCluster(), "b.txt"))

	assert.NoError(t, vol.Validate())
}

func TestVolumeValidateDetectsBadFirstCluster(t *testing.T) {
	vol := mountFixture(t, 8)
	// Write a directory entry whose first cluster is out of range, without
	// going through Lifecycle so the invariant violation survives.
	require.NoError(t, vol.Dirs.AddEntry(vol.RootCluster(), "bad", fat32.AttrDirectory, 999, 0))

	err := vol.Validate()
	assert.Error(t, err)
}
