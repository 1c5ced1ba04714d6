package jitapi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
)

func writeOptions(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOptions(t *testing.T) {
	for _, tc := range []struct {
		name, file, content string
		exp                 func() *Options
	}{
		{
			name: "yaml",
			file: "opts.yaml",
			content: `word_size: 4
use_compressed_oops: false
use_compressed_class_pointers: false
barrier_set: card-table
locking_mode: legacy
floating_divisions: false
`,
			exp: func() *Options {
				o := NewOptions()
				o.WordSize = 4
				o.UseCompressedOops, o.UseCompressedClassPointers = false, false
				o.BarrierSet, o.LockingMode = BarrierSetCardTable, LockingLegacy
				o.FloatingDivisions = false
				return o
			},
		},
		{
			name:    "yml keeps defaults",
			file:    "opts.yml",
			content: "always_inline_vtable_stubs: true\n",
			exp: func() *Options {
				o := NewOptions()
				o.AlwaysInlineVTableStubs = true
				return o
			},
		},
		{
			name:    "empty yaml",
			file:    "empty.yaml",
			content: "",
			exp:     NewOptions,
		},
		{
			name: "toml",
			file: "opts.toml",
			content: `word_size = 8
barrier_set = "none"
jvms_compliant_division = true
omit_hot_exception_stacktrace = true
max_canonicalizer_iterations = 500
`,
			exp: func() *Options {
				o := NewOptions()
				o.BarrierSet = BarrierSetNone
				o.JVMSCompliantDivision = true
				o.OmitHotExceptionStacktrace = true
				o.MaxCanonicalizerIterations = 500
				return o
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts, err := LoadOptions(writeOptions(t, tc.file, tc.content))
			require.NoError(t, err)
			require.Equal(t, tc.exp(), opts)
		})
	}
}

func TestLoadOptions_errors(t *testing.T) {
	for _, tc := range []struct {
		name, file, content, expErr string
	}{
		{name: "extension", file: "opts.json", content: "{}", expErr: `unsupported options file extension ".json"`},
		{name: "unknown yaml key", file: "opts.yaml", content: "word_bits: 64\n", expErr: "parsing options file"},
		{name: "unknown toml key", file: "opts.toml", content: "word_bits = 64\n", expErr: "parsing options file"},
		{name: "bad word size", file: "opts.toml", content: "word_size = 2\n", expErr: "word_size must be 4 or 8 but got 2"},
		{name: "barrier set", file: "opts.yaml", content: "barrier_set: shenandoah\n", expErr: `unknown barrier_set "shenandoah"`},
		{name: "locking mode", file: "opts.yaml", content: "locking_mode: biased\n", expErr: `unknown locking_mode "biased"`},
		{name: "compressed on 32 bit", file: "opts.yaml", content: "word_size: 4\n", expErr: "compressed pointers need 8 byte words"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadOptions(writeOptions(t, tc.file, tc.content))
			require.ErrorContains(t, err, tc.expErr)
		})
	}

	_, err := LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewOffsetData(t *testing.T) {
	for _, tc := range []struct {
		name                string
		opts                func(o *Options)
		hub, length         Offset
		intBase, longBase   Offset
		objectBase, vtable3 Offset
		osrSlot             Offset
	}{
		{
			name: "compressed", opts: func(*Options) {},
			hub: 8, length: 12, intBase: 16, longBase: 16, objectBase: 16, vtable3: 56*8 + 3*8, osrSlot: 8,
		},
		{
			name: "uncompressed", opts: func(o *Options) { o.UseCompressedOops, o.UseCompressedClassPointers = false, false },
			hub: 8, length: 16, intBase: 20, longBase: 24, objectBase: 24, vtable3: 56*8 + 3*8, osrSlot: 8,
		},
		{
			name: "32 bit", opts: func(o *Options) {
				o.WordSize = 4
				o.UseCompressedOops, o.UseCompressedClassPointers = false, false
			},
			hub: 4, length: 8, intBase: 12, longBase: 16, objectBase: 12, vtable3: 56*4 + 3*4, osrSlot: 4,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o := NewOptions()
			tc.opts(o)
			require.NoError(t, o.Validate())
			d := NewOffsetData(o)
			require.Equal(t, tc.hub, d.HubOffset)
			require.Equal(t, tc.length, d.ArrayLengthOffset)
			require.Equal(t, tc.intBase, d.ArrayBaseOffset(ir.KindInt))
			require.Equal(t, tc.longBase, d.ArrayBaseOffset(ir.KindLong))
			require.Equal(t, tc.objectBase, d.ArrayBaseOffset(ir.KindObject))
			require.Equal(t, tc.vtable3, d.VTableEntryOffset(3))
			require.Equal(t, tc.osrSlot, d.OSRSlotSize)
		})
	}
}

func TestOffsetData_BoxValueOffset(t *testing.T) {
	compressed := NewOffsetData(NewOptions())
	require.Equal(t, Offset(12), compressed.BoxValueOffset(ir.KindInt))
	require.Equal(t, Offset(16), compressed.BoxValueOffset(ir.KindLong))
	require.Equal(t, Offset(12), compressed.BoxValueOffset(ir.KindChar))

	o := NewOptions()
	o.UseCompressedOops, o.UseCompressedClassPointers = false, false
	plain := NewOffsetData(o)
	require.Equal(t, Offset(16), plain.BoxValueOffset(ir.KindInt))
	require.Equal(t, Offset(16), plain.BoxValueOffset(ir.KindLong))
}
