package flashstring

import (
	"encoding/binary"
	"testing"
)

const testBase = 0x40200000

// layout places objects back to back the way an image does and returns the
// bytes plus the address of each length word.
func layout(base uint32, objs ...[]byte) ([]byte, []uint32) {
	var buf []byte
	addrs := make([]uint32, 0, len(objs))
	for _, o := range objs {
		addrs = append(addrs, base+uint32(len(buf)))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(o)))
		buf = append(buf, o...)
		for len(buf)%Alignment != 0 {
			buf = append(buf, 0)
		}
	}
	return buf, addrs
}

// appendAlias appends an alias word naming target and returns its address.
func appendAlias(buf []byte, base, target uint32) ([]byte, uint32) {
	addr := base + uint32(len(buf))
	return binary.LittleEndian.AppendUint32(buf, target|CopyBit), addr
}

func u32s(vs ...uint32) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return b
}

func staticHandle(t *testing.T, data []byte) *Handle {
	t.Helper()
	buf, addrs := layout(testBase, data)
	return Open(NewStatic("irom", testBase, buf), addrs[0])
}

func withPolicy(t *testing.T, p VerifyPolicy) {
	t.Helper()
	prev := SetVerifyPolicy(p)
	t.Cleanup(func() { SetVerifyPolicy(prev) })
}

// countingDevice records device reads and forwards them to a StaticMemory.
type countingDevice struct {
	mem   *StaticMemory
	reads int
}

func (d *countingDevice) TranslateAddress(addr uint32) (uint32, bool) {
	return d.mem.TranslateAddress(addr)
}

func (d *countingDevice) ReadDevice(buf []byte, devAddr uint32) (int, error) {
	d.reads++
	return d.mem.ReadDevice(buf, devAddr)
}
