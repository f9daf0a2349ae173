package flashstring

import (
	"bytes"
	"testing"

	"github.com/wippyai/flashstring/errors"
)

func TestHandle_Empty(t *testing.T) {
	handles := map[string]*Handle{
		"zero value":   {},
		"nil":          nil,
		"singleton":    Empty(),
		"zero length":  staticHandle(t, nil),
		"copy of zero": func() *Handle { c := (&Handle{}).Copy(); return &c }(),
	}

	for name, h := range handles {
		t.Run(name, func(t *testing.T) {
			if h.Len() != 0 {
				t.Errorf("Len() = %d, want 0", h.Len())
			}
			if h.Data() != Empty().Data() {
				t.Errorf("Data() = %#x, want %#x", h.Data(), Empty().Data())
			}
			for _, n := range []int{0, 1, 4, 100} {
				if got := h.Read(0, make([]byte, n)); got != 0 {
					t.Errorf("Read(0, %d) = %d, want 0", n, got)
				}
				if got := h.ReadFlash(0, make([]byte, n)); got != 0 {
					t.Errorf("ReadFlash(0, %d) = %d, want 0", n, got)
				}
			}
			if h.String() != "" {
				t.Errorf("String() = %q, want empty", h.String())
			}
		})
	}
}

func TestHandle_ReadRoundTrip(t *testing.T) {
	want := []byte("the quick brown fox")
	h := staticHandle(t, want)

	if h.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", h.Len(), len(want))
	}
	if h.IsCopy() {
		t.Error("canonical handle reports IsCopy")
	}

	buf := make([]byte, h.Len())
	if n := h.Read(0, buf); n != len(want) {
		t.Fatalf("Read = %d, want %d", n, len(want))
	}
	if !bytes.Equal(buf, want) {
		t.Errorf("Read data = %q, want %q", buf, want)
	}
	if h.Data() != testBase+LengthSize {
		t.Errorf("Data() = %#x, want %#x", h.Data(), testBase+LengthSize)
	}
	if h.String() != string(want) {
		t.Errorf("String() = %q", h.String())
	}
}

func TestHandle_ReadClamp(t *testing.T) {
	h := staticHandle(t, []byte("0123456789"))

	tests := []struct {
		name   string
		offset int
		count  int
		want   string
	}{
		{"whole", 0, 10, "0123456789"},
		{"prefix", 0, 4, "0123"},
		{"middle", 3, 4, "3456"},
		{"past end", 7, 10, "789"},
		{"last byte", 9, 5, "9"},
		{"at end", 10, 5, ""},
		{"beyond end", 50, 5, ""},
		{"negative offset", -1, 5, ""},
		{"zero count", 2, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, read := range []func(int, []byte) int{h.Read, h.ReadFlash} {
				buf := make([]byte, tt.count)
				n := read(tt.offset, buf)
				if n != len(tt.want) {
					t.Fatalf("copied %d bytes, want %d", n, len(tt.want))
				}
				if string(buf[:n]) != tt.want {
					t.Errorf("data = %q, want %q", buf[:n], tt.want)
				}
			}
		})
	}
}

func TestHandle_Copy(t *testing.T) {
	h := staticHandle(t, []byte("canonical data"))

	c := h.Copy()
	if !c.IsCopy() {
		t.Error("copy does not report IsCopy")
	}
	if h.IsCopy() {
		t.Error("source handle reports IsCopy after copying")
	}
	if c.Len() != h.Len() {
		t.Errorf("copy Len() = %d, want %d", c.Len(), h.Len())
	}
	if c.Data() != h.Data() {
		t.Errorf("copy Data() = %#x, want %#x", c.Data(), h.Data())
	}
	if !bytes.Equal(c.Bytes(), h.Bytes()) {
		t.Errorf("copy content %q, want %q", c.Bytes(), h.Bytes())
	}

	c2 := c.Copy()
	if f, ok := c2.v.(forwarding); !ok || f.target != h {
		t.Error("copy of a copy must forward to the canonical handle")
	}

	// A by-value copy of the struct still forwards.
	byValue := c
	if byValue.Len() != h.Len() || byValue.Data() != h.Data() {
		t.Error("struct copy of a forwarding handle lost its target")
	}
}

func TestHandle_Alias(t *testing.T) {
	buf, addrs := layout(testBase, []byte("target"), []byte("other"))
	buf, alias := appendAlias(buf, testBase, addrs[0])
	buf, aliasOfAlias := appendAlias(buf, testBase, alias)
	r := NewStatic("irom", testBase, buf)

	for name, addr := range map[string]uint32{"alias": alias, "alias of alias": aliasOfAlias} {
		t.Run(name, func(t *testing.T) {
			h := Open(r, addr)
			if !h.IsCopy() {
				t.Error("alias word should open as a forwarding handle")
			}
			if h.String() != "target" {
				t.Errorf("String() = %q, want %q", h.String(), "target")
			}
			if h.Data() != addrs[0]+LengthSize {
				t.Errorf("Data() = %#x, want %#x", h.Data(), addrs[0]+LengthSize)
			}
		})
	}
}

func TestHandle_AliasCycle(t *testing.T) {
	buf, _ := layout(testBase, []byte("pad"))
	self := testBase + uint32(len(buf))
	buf, _ = appendAlias(buf, testBase, self)
	r := NewStatic("irom", testBase, buf)

	h := Open(r, self)
	if h.Len() != 0 {
		t.Errorf("cyclic alias Len() = %d, want 0", h.Len())
	}
}

func TestHandle_OpenOutside(t *testing.T) {
	buf, _ := layout(testBase, []byte("abc"))
	r := NewStatic("irom", testBase, buf)

	for _, addr := range []uint32{0, testBase - 4, testBase + uint32(len(buf)), 0xfffffffe} {
		if h := Open(r, addr); h != Empty() {
			t.Errorf("Open(%#x) should return the empty handle", addr)
		}
	}
	if h := Open(nil, testBase); h != Empty() {
		t.Error("Open(nil region) should return the empty handle")
	}
}

func TestHandle_VerifyPolicy(t *testing.T) {
	buf, addrs := layout(0x3ffe8000, []byte("in working memory"))
	working := NewWorking("dram", 0x3ffe8000, buf)

	t.Run("degrade", func(t *testing.T) {
		withPolicy(t, VerifyDegrade)
		h := Open(working, addrs[0])
		if h.Len() != 0 {
			t.Errorf("Len() = %d, want 0", h.Len())
		}
		if h.Data() != Empty().Data() {
			t.Error("Data() should be the empty handle's")
		}
	})

	t.Run("trust", func(t *testing.T) {
		withPolicy(t, VerifyTrust)
		h := Open(working, addrs[0])
		if h.String() != "in working memory" {
			t.Errorf("String() = %q", h.String())
		}
	})

	t.Run("failfast", func(t *testing.T) {
		withPolicy(t, VerifyFailFast)
		h := Open(working, addrs[0])
		defer func() {
			r := recover()
			err, ok := r.(*errors.Error)
			if !ok {
				t.Fatalf("panic value = %v, want *errors.Error", r)
			}
			if err.Kind != errors.KindOutOfRegion || err.Phase != errors.PhaseResolve {
				t.Errorf("got %v/%v", err.Phase, err.Kind)
			}
		}()
		h.Len()
		t.Fatal("expected panic")
	})

	t.Run("copy of unverifiable handle", func(t *testing.T) {
		withPolicy(t, VerifyDegrade)
		c := Open(working, addrs[0]).Copy()
		if c.Len() != 0 {
			t.Errorf("Len() = %d, want 0", c.Len())
		}
	})

	t.Run("length past region end", func(t *testing.T) {
		withPolicy(t, VerifyDegrade)
		r := NewStatic("irom", testBase, u32s(1000, 0x41414141))
		h := Open(r, testBase)
		if h.Len() != 0 {
			t.Errorf("Len() = %d, want 0", h.Len())
		}
	})

	t.Run("read-only passes", func(t *testing.T) {
		withPolicy(t, VerifyFailFast)
		h := staticHandle(t, []byte("fine"))
		if h.Len() != 4 {
			t.Errorf("Len() = %d, want 4", h.Len())
		}
	})
}

func TestHandle_ReadFlashUsesDevice(t *testing.T) {
	buf, addrs := layout(testBase, []byte("device data"))
	mem := NewStaticMemory(testBase, buf)
	dev := &countingDevice{mem: mem}
	r := &Region{Name: "irom", Base: testBase, Size: uint32(len(buf)), Mem: mem, Dev: dev, ReadOnly: true}
	h := Open(r, addrs[0])

	out := make([]byte, 6)
	if n := h.ReadFlash(7, out); n != 4 || string(out[:n]) != "data" {
		t.Errorf("ReadFlash = %d %q", n, out[:n])
	}
	if dev.reads != 1 {
		t.Errorf("device reads = %d, want 1", dev.reads)
	}
	h.Read(0, out)
	if dev.reads != 1 {
		t.Error("Read must not go through the device")
	}
}

func TestHandle_ReadFlashWithoutDevice(t *testing.T) {
	buf, addrs := layout(testBase, []byte("cached only"))
	r := &Region{Name: "irom", Base: testBase, Size: uint32(len(buf)), Mem: NewStaticMemory(testBase, buf), ReadOnly: true}
	h := Open(r, addrs[0])

	out := make([]byte, 32)
	if n := h.ReadFlash(0, out); string(out[:n]) != "cached only" {
		t.Errorf("ReadFlash = %q", out[:n])
	}
}

func TestHandle_Size(t *testing.T) {
	tests := []struct {
		data string
		size int
	}{
		{"", 4},
		{"a", 8},
		{"abcd", 8},
		{"abcde", 12},
	}
	for _, tt := range tests {
		h := staticHandle(t, []byte(tt.data))
		if h.Size() != tt.size {
			t.Errorf("Size(%q) = %d, want %d", tt.data, h.Size(), tt.size)
		}
	}
}
