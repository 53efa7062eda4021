package resolver_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/shellexec/builtin"
	"github.com/opal-lang/shellexec/resolver"
)

func newRegistry() *builtin.Registry {
	reg := builtin.NewRegistry()
	reg.Register("true", builtin.Func(func(ctx builtin.Ctx) builtin.Result {
		return builtin.Continue(0)
	}))
	return reg
}

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func TestResolveFindsBuiltinFirst(t *testing.T) {
	table := resolver.NewTable(newRegistry())
	target, err := resolver.Resolve(table, "true", "/tmp", nil)
	require.NoError(t, err)
	assert.Equal(t, resolver.KindBuiltin, target.Kind)
}

func TestResolveFindsAliasBeforePath(t *testing.T) {
	table := resolver.NewTable(newRegistry())
	table.DefineAlias("ll", "ls -l")

	target, err := resolver.Resolve(table, "ll", "/tmp", nil)
	require.NoError(t, err)
	assert.Equal(t, resolver.KindAlias, target.Kind)
	assert.Equal(t, "ls -l", target.Alias)
}

func TestResolveFindsExternalOnPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exec-bit semantics differ on windows")
	}
	dir := t.TempDir()
	writeExecutable(t, dir, "mytool")

	table := resolver.NewTable(newRegistry())
	target, err := resolver.Resolve(table, "mytool", "/anywhere", map[string]string{"PATH": dir})
	require.NoError(t, err)
	assert.Equal(t, resolver.KindExternal, target.Kind)
	assert.Equal(t, filepath.Join(dir, "mytool"), target.Path)
}

func TestResolvePathSearchUsesSuppliedCwdNotHostCwd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exec-bit semantics differ on windows")
	}
	dir := t.TempDir()
	writeExecutable(t, dir, "relTool")

	table := resolver.NewTable(newRegistry())
	// A relative PATH entry ("." ) must resolve against the supplied cwd,
	// not whatever directory the test binary happens to run from.
	target, err := resolver.Resolve(table, "relTool", dir, map[string]string{"PATH": "."})
	require.NoError(t, err)
	assert.Equal(t, resolver.KindExternal, target.Kind)
	assert.Equal(t, filepath.Join(dir, "relTool"), target.Path)
}

func TestResolveUnknownNameReturnsPathResolutionError(t *testing.T) {
	table := resolver.NewTable(newRegistry())
	_, err := resolver.Resolve(table, "nonexistent-binary-xyz", "/tmp", map[string]string{"PATH": "/nonexistent-dir"})
	require.Error(t, err)
	var pathErr *resolver.PathResolutionError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "nonexistent-binary-xyz", pathErr.Name)
}

func TestResolveAllReturnsEveryPathMatch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exec-bit semantics differ on windows")
	}
	dirA, dirB := t.TempDir(), t.TempDir()
	writeExecutable(t, dirA, "tool")
	writeExecutable(t, dirB, "tool")

	table := resolver.NewTable(newRegistry())
	pathEnv := dirA + string(os.PathListSeparator) + dirB
	targets, err := resolver.ResolveAll(table, "tool", "/anywhere", map[string]string{"PATH": pathEnv})
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, filepath.Join(dirA, "tool"), targets[0].Path)
	assert.Equal(t, filepath.Join(dirB, "tool"), targets[1].Path)
}

func TestResolveAllStopsAtBuiltinWithoutSearchingPath(t *testing.T) {
	table := resolver.NewTable(newRegistry())
	targets, err := resolver.ResolveAll(table, "true", "/tmp", nil)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, resolver.KindBuiltin, targets[0].Kind)
}

func TestResolveUnknownNameSuggestsClosestBuiltin(t *testing.T) {
	table := resolver.NewTable(newRegistry())
	_, err := resolver.Resolve(table, "tru", "/tmp", map[string]string{"PATH": "/nonexistent-dir"})
	require.Error(t, err)
	var pathErr *resolver.PathResolutionError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "true", pathErr.Suggestion)
	assert.Contains(t, pathErr.Error(), "did you mean true")
}

func TestAdapterResolveAllMapsKindsToWhichStrings(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exec-bit semantics differ on windows")
	}
	dir := t.TempDir()
	writeExecutable(t, dir, "tool")

	table := resolver.NewTable(newRegistry())
	adapter := &resolver.Adapter{Table: table}

	kind, paths, err := adapter.ResolveAll("tool", "/anywhere", map[string]string{"PATH": dir})
	require.NoError(t, err)
	assert.Equal(t, "external", kind)
	assert.Equal(t, []string{filepath.Join(dir, "tool")}, paths)

	kind, _, err = adapter.ResolveAll("true", "/tmp", nil)
	require.NoError(t, err)
	assert.Equal(t, "builtin", kind)
}

func TestAdapterResolveMapsKindsToWhichStrings(t *testing.T) {
	table := resolver.NewTable(newRegistry())
	table.DefineAlias("ll", "ls -l")
	adapter := &resolver.Adapter{Table: table}

	kind, _, err := adapter.Resolve("true", "/tmp", nil)
	require.NoError(t, err)
	assert.Equal(t, "builtin", kind)

	kind, path, err := adapter.Resolve("ll", "/tmp", nil)
	require.NoError(t, err)
	assert.Equal(t, "alias", kind)
	assert.Equal(t, "ls -l", path)
}
