package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/modtool/pkg/codec"
	"github.com/ssargent/modtool/pkg/config"
	"github.com/ssargent/modtool/pkg/di"
)

// resetFlags restores every flag to its default so commands can be run
// repeatedly against the shared rootCmd.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	SetContainer(di.NewContainer())
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))

	err := rootCmd.Execute()
	return out.String(), err
}

func writeStream(t *testing.T, path string, records ...*codec.Record) []byte {
	t.Helper()
	data, err := codec.NewRecordCodec().EncodeStream(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return data
}

func TestDumpCommand(t *testing.T) {
	tmpDir := t.TempDir()
	modPath := filepath.Join(tmpDir, "misc-changes")
	writeStream(t, modPath,
		codec.NewRecord(0x10, []byte{0xAB, 0xCD}),
		codec.NewRecord(0x2, nil),
	)

	t.Run("to stdout", func(t *testing.T) {
		out, err := executeCommand(t, "dump", modPath)
		require.NoError(t, err)
		assert.Equal(t, "0x10, 0x2: ['0xab', '0xcd']\n0x2, 0x0: []\n", out)
	})

	t.Run("to file", func(t *testing.T) {
		textPath := filepath.Join(tmpDir, "misc-changes.txt")
		out, err := executeCommand(t, "dump", modPath, "--out", textPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Wrote 2 records")

		text, err := os.ReadFile(textPath)
		require.NoError(t, err)
		assert.Equal(t, "0x10, 0x2: ['0xab', '0xcd']\n0x2, 0x0: []\n", string(text))
	})

	t.Run("truncated input fails", func(t *testing.T) {
		badPath := filepath.Join(tmpDir, "bad")
		require.NoError(t, os.WriteFile(badPath, []byte{0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x09}, 0644))

		_, err := executeCommand(t, "dump", badPath)
		assert.ErrorIs(t, err, codec.ErrTruncated)
	})

	t.Run("missing input fails", func(t *testing.T) {
		_, err := executeCommand(t, "dump", filepath.Join(tmpDir, "nope"))
		assert.Error(t, err)
	})
}

func TestSplitCommand(t *testing.T) {
	tmpDir := t.TempDir()
	modPath := filepath.Join(tmpDir, "misc-changes")
	writeStream(t, modPath,
		codec.NewRecord(0x10, []byte{0x01}),
		codec.NewRecord(0x20, []byte{0x02}),
	)

	t.Run("default prefix from input name", func(t *testing.T) {
		outDir := filepath.Join(tmpDir, "mods")
		out, err := executeCommand(t, "split", modPath, "--dir", outDir)
		require.NoError(t, err)
		assert.Contains(t, out, "Wrote 2 files")
		assert.FileExists(t, filepath.Join(outDir, "misc-changes-1"))
		assert.FileExists(t, filepath.Join(outDir, "misc-changes-2"))
	})

	t.Run("explicit prefix and atomic", func(t *testing.T) {
		outDir := filepath.Join(tmpDir, "atomic")
		_, err := executeCommand(t, "split", modPath, "--dir", outDir, "--prefix", "misc", "--atomic")
		require.NoError(t, err)

		content, err := os.ReadFile(filepath.Join(outDir, "misc-2"))
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 0, 0, 0x20, 0, 0, 0, 1, 0x02, 0xFF}, content)
	})

	t.Run("directory from config", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "modtool.yaml")
		cfg := config.DefaultConfig()
		cfg.ModsDir = filepath.Join(tmpDir, "configured")
		require.NoError(t, config.SaveConfig(cfg, configPath))

		_, err := executeCommand(t, "split", modPath, "--config", configPath)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(cfg.ModsDir, "misc-changes-1"))
	})
}

func TestJoinCommand(t *testing.T) {
	tmpDir := t.TempDir()
	first := filepath.Join(tmpDir, "a")
	second := filepath.Join(tmpDir, "b")
	writeStream(t, first, codec.NewRecord(1, []byte{1}))
	writeStream(t, second, codec.NewRecord(2, []byte{2}))

	joined := filepath.Join(tmpDir, "joined")
	_, err := executeCommand(t, "join", first, second, "--out", joined)
	require.NoError(t, err)

	data, err := os.ReadFile(joined)
	require.NoError(t, err)
	records, err := codec.NewRecordCodec().DecodeAll(data)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint32(1), records[0].Address)
	assert.Equal(t, uint32(2), records[1].Address)

	_, err = executeCommand(t, "join", first)
	assert.Error(t, err, "--out is required")
}

func TestApplyCommand(t *testing.T) {
	tmpDir := t.TempDir()
	modPath := filepath.Join(tmpDir, "fix-music")
	imagePath := filepath.Join(tmpDir, "rom.z64")
	outPath := filepath.Join(tmpDir, "patched.z64")

	writeStream(t, modPath, codec.NewRecord(0x1001, []byte{0xAA}))
	require.NoError(t, os.WriteFile(imagePath, make([]byte, 4), 0644))

	out, err := executeCommand(t, "apply", modPath, "--image", imagePath, "--out", outPath, "--base", "0x1000")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 1 records")

	patched, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0xAA, 0, 0}, patched)

	_, err = executeCommand(t, "apply", modPath, "--image", imagePath, "--out", outPath, "--base", "nope")
	assert.Error(t, err)
}

func TestCatalogCommands(t *testing.T) {
	tmpDir := t.TempDir()
	db := filepath.Join(tmpDir, "catalog")
	first := filepath.Join(tmpDir, "fix-music")
	second := filepath.Join(tmpDir, "quick-text")
	writeStream(t, first, codec.NewRecord(0x100, make([]byte, 8)))
	writeStream(t, second, codec.NewRecord(0x104, make([]byte, 8)), codec.NewRecord(0x200, []byte{1}))

	out, err := executeCommand(t, "catalog", "add", first, second, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, first+": 1 records")
	assert.Contains(t, out, second+": 2 records")

	out, err = executeCommand(t, "catalog", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "ADDRESS")
	assert.Contains(t, out, first)
	assert.Contains(t, out, "0x200")

	out, err = executeCommand(t, "catalog", "list", "--db", db, "--format", "json")
	require.NoError(t, err)
	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 3)
	assert.Equal(t, "0x100", listed[0]["address"])
	assert.Equal(t, second, listed[2]["source"])
	assert.Equal(t, float64(2), listed[2]["index"])

	_, err = executeCommand(t, "catalog", "list", "--db", db, "--format", "xml")
	assert.Error(t, err)

	out, err = executeCommand(t, "catalog", "overlaps", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, first+"#1 [0x100, 0x108) overlaps "+second+"#1 [0x104, 0x10c)")
	assert.Contains(t, out, "1 overlaps")
}

func TestRunCommand(t *testing.T) {
	tmpDir := t.TempDir()
	modPath := filepath.Join(tmpDir, "misc-changes")
	writeStream(t, modPath,
		codec.NewRecord(0x10, []byte{0x01}),
		codec.NewRecord(0x20, []byte{0x02}),
	)

	cfg := config.DefaultConfig()
	cfg.ModsDir = filepath.Join(tmpDir, "mods")
	cfg.Jobs = []config.Job{
		{Name: "split", Mode: config.ModeSplit, Input: modPath, Prefix: "misc-changes"},
		{Name: "dump", Mode: config.ModeDump, Input: modPath, Output: filepath.Join(tmpDir, "misc.txt")},
		{Name: "join", Mode: config.ModeJoin, Inputs: []string{
			filepath.Join(cfg.ModsDir, "misc-changes-2"),
			filepath.Join(cfg.ModsDir, "misc-changes-1"),
		}, Output: filepath.Join(tmpDir, "out", "reversed")},
	}
	configPath := filepath.Join(tmpDir, "modtool.yaml")
	require.NoError(t, config.SaveConfig(cfg, configPath))

	t.Run("all jobs", func(t *testing.T) {
		out, err := executeCommand(t, "run", "--config", configPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Completed 3 jobs")

		assert.FileExists(t, filepath.Join(cfg.ModsDir, "misc-changes-1"))
		assert.FileExists(t, filepath.Join(tmpDir, "misc.txt"))

		reversed, err := os.ReadFile(filepath.Join(tmpDir, "out", "reversed"))
		require.NoError(t, err)
		records, err := codec.NewRecordCodec().DecodeAll(reversed)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, uint32(0x20), records[0].Address)
	})

	t.Run("selected job", func(t *testing.T) {
		out, err := executeCommand(t, "run", "dump", "--config", configPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Completed 1 jobs")
	})

	t.Run("unknown job", func(t *testing.T) {
		_, err := executeCommand(t, "run", "missing", "--config", configPath)
		assert.Error(t, err)
	})

	t.Run("no jobs", func(t *testing.T) {
		out, err := executeCommand(t, "run")
		require.NoError(t, err)
		assert.Contains(t, out, "No jobs configured")
	})
}

func TestInitCommand(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "conf", "modtool.yaml")

	out, err := executeCommand(t, "init", "--config", configPath, "--mods-dir", "./patches")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote config")

	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "./patches", cfg.ModsDir)

	out, err = executeCommand(t, "init", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = executeCommand(t, "init", "--config", configPath, "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote config")

	cfg, err = config.LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "./mods", cfg.ModsDir)
}

func TestParseAddress(t *testing.T) {
	v, err := parseAddress("0x80000000")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x80000000), v)

	v, err = parseAddress("4096")
	require.NoError(t, err)
	assert.Equal(t, uint32(4096), v)

	_, err = parseAddress("0x100000000")
	assert.Error(t, err)
}
