//go:build linux

package shmio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frameSchema = `
name: frame
elements: 100
dtype: float32
keywords:
  - {name: EXPT, type: float, value: 0.5, comment: exposure time}
  - {name: GAIN, type: int, value: 1, comment: sensor gain}
  - {name: MODE, type: string, value: fast, comment: readout mode}
`

func TestParseSchema(t *testing.T) {
	s, err := ParseSchema([]byte(frameSchema))
	require.NoError(t, err)

	assert.Equal(t, "frame", s.Name)
	assert.Equal(t, 100, s.Elements)

	dt, err := s.ElementType()
	require.NoError(t, err)
	assert.Equal(t, Float32, dt)

	kws, err := s.KeywordTable()
	require.NoError(t, err)
	require.Len(t, kws, 3)
	assert.True(t, kws[0].Equal(FloatKeyword("EXPT", 0.5, "exposure time")))
	assert.True(t, kws[1].Equal(IntKeyword("GAIN", 1, "sensor gain")))
	assert.True(t, kws[2].Equal(StringKeyword("MODE", "fast", "readout mode")))
}

func TestParseSchemaIntegralFloat(t *testing.T) {
	s, err := ParseSchema([]byte(`
name: f
elements: 1
dtype: uint8
keywords:
  - {name: EXPT, type: float, value: 2, comment: whole seconds}
`))
	require.NoError(t, err)
	kws, err := s.KeywordTable()
	require.NoError(t, err)
	assert.Equal(t, 2.0, kws[0].Float)
}

func TestParseSchemaRejects(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"bad yaml", `{`},
		{"empty name", "name: ''\nelements: 1\ndtype: uint8"},
		{"bad dtype", "name: f\nelements: 1\ndtype: float33"},
		{"negative elements", "name: f\nelements: -2\ndtype: uint8"},
		{"bad keyword type", "name: f\nelements: 1\ndtype: uint8\nkeywords:\n  - {name: A, type: bool, value: true}"},
		{"string for int", "name: f\nelements: 1\ndtype: uint8\nkeywords:\n  - {name: A, type: int, value: oops}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSchema([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestSchemaCreateOrAttach(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.yaml")
	require.NoError(t, os.WriteFile(path, []byte(frameSchema), 0o600))

	s, err := LoadSchema(path)
	require.NoError(t, err)

	opts := &Options{Namespace: NamespaceAt(dir)}
	ch, err := s.CreateOrAttach(opts)
	require.NoError(t, err)
	defer ch.Release()

	assert.Equal(t, 100, ch.ElementCount())
	assert.Equal(t, Float32, ch.DataType())
	expt, ok := ch.FindKeyword("EXPT")
	require.True(t, ok)
	assert.Equal(t, 0.5, expt.Float)
}

func TestLoadSchemaMissingFile(t *testing.T) {
	_, err := LoadSchema(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
