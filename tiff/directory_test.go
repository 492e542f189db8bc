package tiff

import (
	"slices"
	"testing"
)

func TestSetUintPicksNarrowestType(t *testing.T) {
	tests := []struct {
		values []uint64
		want   FieldType
	}{
		{[]uint64{1, 65535}, TypeShort},
		{[]uint64{1, 65536}, TypeLong},
		{[]uint64{1 << 32}, TypeLong8},
	}
	d := NewDirectory()
	for _, tt := range tests {
		d.SetUint(TagTileOffsets, tt.values...)
		f, ok := d.Field(TagTileOffsets)
		if !ok || f.Type != tt.want || f.Count != uint64(len(tt.values)) {
			t.Errorf("SetUint(%v) stored %v count %d, want %v", tt.values, f.Type, f.Count, tt.want)
		}
	}
}

func TestDirectoryAccessors(t *testing.T) {
	d := NewDirectory()
	d.SetASCII(TagPageName, "Full image")
	d.SetShort(TagBitsPerSample, 8, 8, 8)
	d.SetLong(TagNewSubfileType, SubfileReducedImage)
	d.SetRational(TagXResolution, 72)

	if s, ok := d.ASCII(TagPageName); !ok || s != "Full image" {
		t.Errorf("ASCII(PageName) = %q, %v", s, ok)
	}
	if f, _ := d.Field(TagPageName); f.Count != 11 {
		t.Errorf("PageName count = %d, want 11", f.Count)
	}
	if got := d.Uints(TagBitsPerSample); !slices.Equal(got, []uint64{8, 8, 8}) {
		t.Errorf("Uints(BitsPerSample) = %v", got)
	}
	if got := d.UintOr(TagCompression, 1); got != 1 {
		t.Errorf("UintOr(missing) = %d, want 1", got)
	}
	if _, ok := d.ASCII(TagBitsPerSample); ok {
		t.Error("ASCII() of a SHORT field reported ok")
	}
	if !d.IsReduced() {
		t.Error("IsReduced() = false")
	}
	if d.IsTiled() {
		t.Error("IsTiled() = true without tile fields")
	}
	if got := d.Floats(TagXResolution); len(got) != 1 || got[0] != 72 {
		t.Errorf("Floats(XResolution) = %v", got)
	}

	want := []Tag{TagBitsPerSample, TagNewSubfileType, TagXResolution, TagPageName}
	slices.Sort(want)
	if got := d.Tags(); !slices.Equal(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}

	d.Delete(TagPageName)
	if d.Has(TagPageName) {
		t.Error("Has(PageName) after Delete")
	}
}

func TestTagString(t *testing.T) {
	if got := TagSubIFDs.String(); got != "SubIFDs" {
		t.Errorf("TagSubIFDs.String() = %q", got)
	}
	if got := Tag(65000).String(); got != "Tag(65000)" {
		t.Errorf("Tag(65000).String() = %q", got)
	}
}

func TestInfoBlockGrid(t *testing.T) {
	d := NewDirectory()
	d.SetUint(TagImageWidth, 500)
	d.SetUint(TagImageLength, 300)
	d.SetUint(TagTileWidth, 256)
	d.SetUint(TagTileLength, 128)
	d.SetShort(TagBitsPerSample, 16)

	info, err := d.Info()
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if !info.Tiled || info.Type != Uint16 || info.Channels != 1 {
		t.Errorf("Info() = %+v", info)
	}
	if info.BlocksAcross() != 2 || info.BlocksDown() != 3 || info.BlocksPerPlane() != 6 {
		t.Errorf("grid = %dx%d (%d)", info.BlocksAcross(), info.BlocksDown(), info.BlocksPerPlane())
	}

	d.SetShort(TagBitsPerSample, 8, 16)
	d.SetShort(TagSamplesPerPixel, 2)
	if _, err := d.Info(); err == nil {
		t.Error("Info() accepted mixed BitsPerSample")
	}
}
