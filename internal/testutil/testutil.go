// Package testutil holds shared helpers for package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weft-hdl/weft/internal/ir"
	"github.com/weft-hdl/weft/internal/irtext"
	"github.com/weft-hdl/weft/internal/passes"
)

// MustParsePackage parses IR text, failing the test on any error.
func MustParsePackage(t *testing.T, src string) *ir.Package {
	t.Helper()
	pkg, err := irtext.ParsePackage(src)
	require.NoError(t, err, "IR text must parse")
	return pkg
}

// MustParseFile parses an IR file from testdata, failing the test on error.
func MustParseFile(t *testing.T, path string) *ir.Package {
	t.Helper()
	src, err := os.ReadFile(filepath.Clean(path))
	require.NoError(t, err)
	pkg, err := irtext.ParsePackage(string(src))
	require.NoError(t, err, "IR file %s must parse", path)
	return pkg
}

// MustLegalize runs channel legalization, failing the test on any error.
func MustLegalize(t *testing.T, pkg *ir.Package) {
	t.Helper()
	pipeline := passes.NewPipeline(passes.ChannelLegalization{})
	_, err := pipeline.Run(pkg)
	require.NoError(t, err, "legalization must succeed")
}
