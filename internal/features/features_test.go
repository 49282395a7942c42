package features_test

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazeroc/wazeroc/internal/features"
)

func init() {
	os.Setenv(features.EnvVarName, "hugepages,vmem-memory,nope")
	features.EnableFromEnvironment()
}

func TestList(t *testing.T) {
	require.ElementsMatch(t, []string{"hugepages", "vmem-memory"}, features.List())
}

func TestHave(t *testing.T) {
	require.True(t, features.Have("hugepages"))
	require.True(t, features.Have("vmem-memory"))
	require.False(t, features.Have("nope"))
}

func TestAllocsHave(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("accessing features allocates memory on windows")
	}
	require.Equal(t, 0.0, testing.AllocsPerRun(100, func() {
		features.Have("vmem-memory")
	}))
}

func TestAllocsHaveDisabled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("accessing features allocates memory on windows")
	}
	require.Equal(t, 0.0, testing.AllocsPerRun(100, func() {
		features.Have("nope")
	}))
}
