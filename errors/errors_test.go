package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseLoad,
				Kind:    KindMisaligned,
				Path:    []string{"fonts", "glyphs"},
				Region:  "irom",
				Addr:    0x40200002,
				HasAddr: true,
				GoType:  "uint32",
				Detail:  "not word aligned",
			},
			contains: []string{"[load]", "misaligned", "fonts.glyphs", "irom@0x40200002", "uint32", "not word aligned"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseRead,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[read]", "out_of_bounds"},
		},
		{
			name: "address without region name",
			err: &Error{
				Phase:   PhaseResolve,
				Kind:    KindOutOfRegion,
				Addr:    0x3ffe8000,
				HasAddr: true,
			},
			contains: []string{"[resolve]", "region@0x3ffe8000"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseDevice,
				Kind:   KindIO,
				Detail: "pread failed",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[device]", "io", "pread failed", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseResolve,
		Kind:  KindOutOfRegion,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseResolve, Kind: KindOutOfRegion}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseLoad, Kind: KindOutOfRegion}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseResolve, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseResolve, Kind: KindOutOfRegion}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseBuild, KindOverflow).
		Path("tables", "sine").
		Region("irom", 0x40200000).
		GoType("int16").
		Value(42).
		Cause(cause).
		Detail("expected %d bytes, got %d", 4, 2).
		Build()

	if err.Phase != PhaseBuild {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseBuild)
	}
	if err.Kind != KindOverflow {
		t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
	}
	if len(err.Path) != 2 || err.Path[0] != "tables" || err.Path[1] != "sine" {
		t.Errorf("Path = %v, want [tables sine]", err.Path)
	}
	if err.Region != "irom" || err.Addr != 0x40200000 || !err.HasAddr {
		t.Errorf("Region = %v@%x (%v)", err.Region, err.Addr, err.HasAddr)
	}
	if err.GoType != "int16" {
		t.Errorf("GoType = %v, want 'int16'", err.GoType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected 4 bytes, got 2" {
		t.Errorf("Detail = %v, want 'expected 4 bytes, got 2'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseLoad, []string{"toc"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("OutOfRegion", func(t *testing.T) {
		err := OutOfRegion(PhaseResolve, "ram", 0x3ffe8000, 12)
		if err.Kind != KindOutOfRegion {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfRegion)
		}
		if !strings.Contains(err.Error(), "ram@0x3ffe8000") {
			t.Errorf("Error() = %q, should contain region and address", err.Error())
		}
	})

	t.Run("Misaligned", func(t *testing.T) {
		err := Misaligned(PhaseLoad, "irom", 0x40200001, 4)
		if err.Kind != KindMisaligned {
			t.Errorf("Kind = %v, want %v", err.Kind, KindMisaligned)
		}
		if !strings.Contains(err.Detail, "4-byte") {
			t.Errorf("Detail = %v, should contain alignment", err.Detail)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseBuild, []string{"blob"}, uint64(1)<<33, "31-bit length")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseParse, "element type c128")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		err := Duplicate(PhaseBuild, "entry", "logo")
		if err.Kind != KindDuplicate {
			t.Errorf("Kind = %v, want %v", err.Kind, KindDuplicate)
		}
		if !strings.Contains(err.Detail, `"logo"`) {
			t.Errorf("Detail = %v, should quote the name", err.Detail)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseLoad, "entry", "missing")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
	})

	t.Run("DigestMismatch", func(t *testing.T) {
		err := DigestMismatch("index.html", "1220aa", "1220bb")
		if err.Phase != PhaseVerify || err.Kind != KindDigestMismatch {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
	})

	t.Run("IO", func(t *testing.T) {
		cause := errors.New("EIO")
		err := IO(PhaseDevice, "pread", cause)
		if !errors.Is(err, cause) {
			t.Error("IO error should unwrap to its cause")
		}
	})

	t.Run("ParseFailed", func(t *testing.T) {
		err := ParseFailed("base address", errors.New("bad digit"))
		if err.Phase != PhaseParse {
			t.Errorf("Phase = %v, want %v", err.Phase, PhaseParse)
		}
	})
}
