package flashstring

// Memory is the cached access path to a read-only region.
// Addresses are absolute. The method set matches wazero's api.Memory, so a
// wasm linear memory can back a Region without an adapter.
type Memory interface {
	ReadByte(addr uint32) (byte, bool)
	ReadUint16Le(addr uint32) (uint16, bool)
	ReadUint32Le(addr uint32) (uint32, bool)
	ReadUint64Le(addr uint32) (uint64, bool)
	Read(addr, byteCount uint32) ([]byte, bool)
}

// Device reads a region bypassing any cache.
type Device interface {
	// TranslateAddress maps a cache-mapped address to a device address.
	TranslateAddress(addr uint32) (uint32, bool)
	// ReadDevice copies len(buf) bytes starting at a device address.
	ReadDevice(buf []byte, devAddr uint32) (int, error)
}
