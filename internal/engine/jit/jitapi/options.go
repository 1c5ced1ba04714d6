// Package jitapi holds what the lowering and canonicalization code needs to know
// about the VM and the compiler configuration: layout offsets, options and
// runtime call descriptors.
package jitapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// BarrierSet selects the GC barriers memory accesses are classified for.
type BarrierSet string

const (
	BarrierSetNone      BarrierSet = "none"
	BarrierSetCardTable BarrierSet = "card-table"
	BarrierSetG1        BarrierSet = "g1"
)

// LockingMode selects how monitors are represented while held.
type LockingMode string

const (
	// LockingLegacy displaces the mark word into a stack lock record.
	LockingLegacy LockingMode = "legacy"
	// LockingLightweight keeps the mark word in place and tracks owners on a lock stack.
	LockingLightweight LockingMode = "lightweight"
)

// Options is the compiler configuration. The zero value is not usable; start
// from NewOptions.
type Options struct {
	// WordSize is the size of a machine word in bytes, 4 or 8.
	WordSize int `yaml:"word_size" toml:"word_size"`

	UseCompressedOops          bool `yaml:"use_compressed_oops" toml:"use_compressed_oops"`
	UseCompressedClassPointers bool `yaml:"use_compressed_class_pointers" toml:"use_compressed_class_pointers"`

	// InlineVTableStubs enables dispatching polymorphic virtual calls through an
	// inline vtable load.
	InlineVTableStubs bool `yaml:"inline_vtable_stubs" toml:"inline_vtable_stubs"`
	// AlwaysInlineVTableStubs uses the inline vtable load for monomorphic call sites too.
	AlwaysInlineVTableStubs bool `yaml:"always_inline_vtable_stubs" toml:"always_inline_vtable_stubs"`

	// FloatingDivisions allows signed divisions to become floating nodes
	// behind an explicit zero check.
	FloatingDivisions bool `yaml:"floating_divisions" toml:"floating_divisions"`
	// JVMSCompliantDivision means the target produces MIN for MIN / -1 instead of trapping.
	JVMSCompliantDivision bool `yaml:"jvms_compliant_division" toml:"jvms_compliant_division"`
	// OmitHotExceptionStacktrace throws preallocated exceptions for implicit checks.
	OmitHotExceptionStacktrace bool `yaml:"omit_hot_exception_stacktrace" toml:"omit_hot_exception_stacktrace"`

	BarrierSet  BarrierSet  `yaml:"barrier_set" toml:"barrier_set"`
	LockingMode LockingMode `yaml:"locking_mode" toml:"locking_mode"`

	// MaxCanonicalizerIterations bounds the canonicalizer worklist; 0 means
	// a bound derived from the graph size.
	MaxCanonicalizerIterations int `yaml:"max_canonicalizer_iterations" toml:"max_canonicalizer_iterations"`
}

// NewOptions returns the default configuration of a 64-bit VM.
func NewOptions() *Options {
	return &Options{
		WordSize:                   8,
		UseCompressedOops:          true,
		UseCompressedClassPointers: true,
		InlineVTableStubs:          true,
		FloatingDivisions:          true,
		BarrierSet:                 BarrierSetG1,
		LockingMode:                LockingLightweight,
	}
}

// WordBits returns the width of a machine word.
func (o *Options) WordBits() int { return o.WordSize * 8 }

// ReferenceSize returns the size of a reference field in bytes.
func (o *Options) ReferenceSize() int {
	if o.UseCompressedOops {
		return 4
	}
	return o.WordSize
}

// Validate returns an error describing the first invalid setting.
func (o *Options) Validate() error {
	if o.WordSize != 4 && o.WordSize != 8 {
		return fmt.Errorf("word_size must be 4 or 8 but got %d", o.WordSize)
	}
	if o.WordSize == 4 && (o.UseCompressedOops || o.UseCompressedClassPointers) {
		return fmt.Errorf("compressed pointers need 8 byte words")
	}
	switch o.BarrierSet {
	case BarrierSetNone, BarrierSetCardTable, BarrierSetG1:
	default:
		return fmt.Errorf("unknown barrier_set %q", o.BarrierSet)
	}
	switch o.LockingMode {
	case LockingLegacy, LockingLightweight:
	default:
		return fmt.Errorf("unknown locking_mode %q", o.LockingMode)
	}
	if o.MaxCanonicalizerIterations < 0 {
		return fmt.Errorf("max_canonicalizer_iterations must not be negative")
	}
	return nil
}

// LoadOptions reads an options file over the defaults of NewOptions. The format
// is chosen by extension: .yaml or .yml for YAML, .toml for TOML. Unknown keys
// are errors.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options file: %w", err)
	}

	opts := NewOptions()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(opts); errors.Is(err, io.EOF) {
			err = nil
		}
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).Strict(true).Decode(opts)
	default:
		return nil, fmt.Errorf("unsupported options file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing options file %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options file %s: %w", path, err)
	}
	return opts, nil
}
