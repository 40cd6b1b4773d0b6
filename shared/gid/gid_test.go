package gid

import (
	"errors"
	"testing"
)

func TestDecodeFlippedHorizontally(t *testing.T) {
	c := Decode(0x80000005)
	if c.TileID != 4 {
		t.Fatalf("TileID = %d, want 4", c.TileID)
	}
	if !c.FlippedHorizontally || c.FlippedVertically || c.FlippedDiagonally {
		t.Fatalf("flags = %+v, want only horizontal", c)
	}
}

func TestDecodeEmpty(t *testing.T) {
	if c := Decode(0); !c.IsEmpty() || c.TileID != EmptyTileID {
		t.Fatalf("Decode(0) = %+v, want empty", c)
	}
	if got := Encode(EmptyCell); got != 0 {
		t.Fatalf("Encode(EmptyCell) = %#x, want 0", got)
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	values := []uint32{
		0, 1, 2, 5, 1073741829, 0x80000005, 0xE0000001, 0xFFFFFFFF,
		0x1FFFFFFF, 0x20000000, 0x40000000, 0x80000000, 0xA0000010,
	}
	for _, v := range values {
		if got := Encode(Decode(v)); got != v {
			t.Errorf("Encode(Decode(%#x)) = %#x", v, got)
		}
	}

	// Sweep the flag combinations over a spread of ids.
	for id := uint32(0); id < 1<<29; id += 1<<29/97 + 1 {
		for flags := uint32(0); flags < 8; flags++ {
			v := id | flags<<29
			if got := Encode(Decode(v)); got != v {
				t.Fatalf("Encode(Decode(%#x)) = %#x", v, got)
			}
		}
	}
}

func TestDecodeVerticalFlipFromTiledExport(t *testing.T) {
	// 1073741829 is gid 5 flipped vertically, as written by Tiled.
	c := Decode(1073741829)
	want := Cell{TileID: 4, FlippedVertically: true}
	if c != want {
		t.Fatalf("Decode = %+v, want %+v", c, want)
	}
}

func TestPackUnpack(t *testing.T) {
	tests := []struct {
		id      uint32
		h, v, d bool
		want    uint32
	}{
		{id: 7, want: 7},
		{id: 7, h: true, want: 0x80000007},
		{id: 7, v: true, want: 0x40000007},
		{id: 7, d: true, want: 0x20000007},
		{id: 0, h: true, v: true, d: true, want: 0xE0000000},
	}
	for _, tt := range tests {
		got := Pack(tt.id, tt.h, tt.v, tt.d)
		if got != tt.want {
			t.Errorf("Pack(%d, %v, %v, %v) = %#x, want %#x", tt.id, tt.h, tt.v, tt.d, got, tt.want)
		}
		id, h, v, d := Unpack(got)
		if id != tt.id || h != tt.h || v != tt.v || d != tt.d {
			t.Errorf("Unpack(%#x) = %d %v %v %v", got, id, h, v, d)
		}
	}
}

func TestDecodeLayerBuffer(t *testing.T) {
	cells := []uint32{1, 2, 0, 3, 0x80000005}
	for _, compression := range []string{"", "zlib", "gzip"} {
		data, err := EncodeLayerBuffer(compression, cells)
		if err != nil {
			t.Fatalf("EncodeLayerBuffer(%q): %v", compression, err)
		}
		got, err := DecodeLayerBuffer("base64", compression, data)
		if err != nil {
			t.Fatalf("DecodeLayerBuffer(%q): %v", compression, err)
		}
		if len(got) != len(cells) {
			t.Fatalf("%q: got %d cells, want %d", compression, len(got), len(cells))
		}
		for i := range cells {
			if got[i] != cells[i] {
				t.Errorf("%q: cell %d = %#x, want %#x", compression, i, got[i], cells[i])
			}
		}
	}
}

func TestDecodeLayerBufferLittleEndian(t *testing.T) {
	// 01 00 00 00 | 05 00 00 80
	got, err := DecodeLayerBuffer("base64", "", "AQAAAAUAAIA=")
	if err != nil {
		t.Fatalf("DecodeLayerBuffer: %v", err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 0x80000005 {
		t.Fatalf("got %#x", got)
	}
}

func TestDecodeLayerBufferToleratesWhitespace(t *testing.T) {
	got, err := DecodeLayerBuffer("base64", "", "\n   AQAA\n   AAUAAIA=\n")
	if err != nil {
		t.Fatalf("DecodeLayerBuffer: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d cells, want 2", len(got))
	}
}

func TestDecodeLayerBufferErrors(t *testing.T) {
	tests := []struct {
		name        string
		encoding    string
		compression string
		data        string
		want        error
	}{
		{name: "csv encoding", encoding: "csv", data: "1,2", want: ErrUnsupportedEncoding},
		{name: "unknown compression", encoding: "base64", compression: "lzma", data: "AAAAAA==", want: ErrUnsupportedCompression},
		{name: "truncated", encoding: "base64", data: "AQAA", want: ErrTruncatedData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLayerBuffer(tt.encoding, tt.compression, tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := DecodeLayerBuffer("base64", "", "not base64!"); err == nil {
		t.Fatal("expected an error for invalid base64")
	}
	// Valid base64, but not a zlib stream.
	if _, err := DecodeLayerBuffer("base64", "zlib", "AQAAAAIAAAA="); err == nil {
		t.Fatal("expected an error for a corrupt zlib payload")
	}
}
