package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gffstream/internal/export"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGFF = "##gff-version 3\n" +
	"ctg1\t.\tgene\t100\t900\t.\t+\t.\tID=g1\n" +
	"ctg1\t.\tmRNA\t100\t900\t.\t+\t.\tID=t1;Parent=g1\n" +
	"ctg1\t.\texon\t100\t300\t.\t+\t.\tParent=t1\n" +
	"###\n" +
	"ctg2\t.\tregion\t1\t500\t.\t.\t.\tName=ctg2\n"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "error"}, args...))
	err := run(context.Background())
	return out.String(), err
}

func TestCLI(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "sample.gff3")
	require.NoError(t, os.WriteFile(input, []byte(sampleGFF), 0o644))
	db := filepath.Join(dir, "test.db")
	snap := filepath.Join(dir, "graph.json")

	t.Run("parse", func(t *testing.T) {
		out, err := execute(t, "parse", "--validate", input)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		for _, l := range lines {
			assert.NoError(t, export.ValidateJSON([]byte(l)))
		}
		assert.Contains(t, lines[1], `"id":"g1"`)
	})

	t.Run("check", func(t *testing.T) {
		out, err := execute(t, "check", input)
		require.NoError(t, err)
		assert.Contains(t, out, "top-level features\t2\n")
		assert.Contains(t, out, "type exon\t1\n")
		assert.Contains(t, out, "edges\t2\n")
	})

	var runID string
	t.Run("load", func(t *testing.T) {
		out, err := execute(t, "load", "--db", db, "--snapshot", snap, input)
		require.NoError(t, err)
		runID = strings.TrimSpace(out)
		assert.Len(t, runID, 36)
	})

	t.Run("tree", func(t *testing.T) {
		out, err := execute(t, "tree", "--db", db, "g1")
		require.NoError(t, err)
		assert.Equal(t, "g1\tgene\tctg1:100-900\n  t1\tmRNA\tctg1:100-900\n    _anon1\texon\tctg1:100-300\n", out)

		fromSnap, err := execute(t, "tree", "--snapshot", snap, "g1")
		require.NoError(t, err)
		assert.Equal(t, out, fromSnap)

		_, err = execute(t, "tree", "--db", db, "--snapshot", "", "--run", runID, "missing")
		assert.Error(t, err)
	})

	t.Run("runs and seq", func(t *testing.T) {
		out, err := execute(t, "runs", "--db", db)
		require.NoError(t, err)
		assert.Contains(t, out, runID)
		assert.Contains(t, out, "complete")

		out, err = execute(t, "seq", "--db", db, "ctg2")
		require.NoError(t, err)
		assert.Equal(t, "_anon2\tregion\t1 lines\n", out)
	})

	t.Run("overlap", func(t *testing.T) {
		out, err := execute(t, "overlap", "--db", db, "ctg1", "400", "500")
		require.NoError(t, err)
		assert.Equal(t, "overlap\tg1\tgene\noverlap\tt1\tmRNA\n", out)

		_, err = execute(t, "overlap", "--db", db, "ctg1", "x", "500")
		assert.Error(t, err)
	})

	t.Run("malformed input fails", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.gff3")
		require.NoError(t, os.WriteFile(bad, []byte("ctg1\tbroken\n"), 0o644))
		_, err := execute(t, "check", bad)
		assert.Error(t, err)
	})

	// Last: the persistent --metrics-file flag stays set on rootCmd.
	t.Run("metrics file", func(t *testing.T) {
		prom := filepath.Join(dir, "gffstream.prom")
		_, err := execute(t, "check", "--metrics-file", prom, input)
		require.NoError(t, err)
		raw, err := os.ReadFile(prom)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `gffstream_items_delivered_total{kind="feature"} 2`)
		assert.Contains(t, string(raw), `gffstream_command_duration_seconds_count{command="check"} 1`)

		bad := filepath.Join(dir, "bad.gff3")
		_, err = execute(t, "check", "--metrics-file", prom, bad)
		require.Error(t, err)
		raw, err = os.ReadFile(prom)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `gffstream_errors_total{class="malformed_line"} 1`)
		assert.Contains(t, string(raw), `gffstream_items_delivered_total{kind="feature"} 0`, "fresh collectors per run")
	})
}
