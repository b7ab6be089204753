// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package runtime

import "testing"

func TestBytesPerPixelMatchesCanRender(t *testing.T) {
	for f := ARGB32; f <= RGBAF32Premultiplied; f++ {
		if f.CanRender() && f.BytesPerPixel() == 0 {
			t.Fatalf("%s: CanRender true but BytesPerPixel 0", f)
		}
		if !f.CanRender() && f.BytesPerPixel() != 0 {
			t.Fatalf("%s: CanRender false but BytesPerPixel %d", f, f.BytesPerPixel())
		}
	}
}

func TestRenderFuncNameFormat(t *testing.T) {
	got := RGBA32.RenderFuncName()
	want := "render_FIRTREE_FORMAT_RGBA32"
	if got != want {
		t.Fatalf("RenderFuncName() = %q, want %q", got, want)
	}
}

func TestPackStraightFormatsRoundTripChannelOrder(t *testing.T) {
	c := [4]float32{0.2, 0.4, 0.6, 1.0}
	cases := []struct {
		f    Format
		want [4]byte
	}{
		{ARGB32, [4]byte{clampByte(1.0), clampByte(0.2), clampByte(0.4), clampByte(0.6)}},
		{RGBA32, [4]byte{clampByte(0.2), clampByte(0.4), clampByte(0.6), clampByte(1.0)}},
		{ABGR32, [4]byte{clampByte(1.0), clampByte(0.6), clampByte(0.4), clampByte(0.2)}},
		{BGRA32, [4]byte{clampByte(0.6), clampByte(0.4), clampByte(0.2), clampByte(1.0)}},
	}
	for _, tc := range cases {
		dst := make([]byte, 4)
		if err := Pack(tc.f, c, dst); err != nil {
			t.Fatalf("Pack(%s): %v", tc.f, err)
		}
		for i, b := range dst {
			if b != tc.want[i] {
				t.Fatalf("Pack(%s) byte %d = %d, want %d (dst=%v)", tc.f, i, b, tc.want[i], dst)
			}
		}
	}
}

func TestPackPremultipliesAlpha(t *testing.T) {
	c := [4]float32{1, 1, 1, 0.5}
	dst := make([]byte, 4)
	if err := Pack(ARGB32Premultiplied, c, dst); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	// premultiplied: r=g=b=0.5, a=0.5 -> ARGB byte order a,r,g,b
	want := clampByte(0.5)
	for i, b := range dst {
		if b != want {
			t.Fatalf("byte %d = %d, want %d", i, b, want)
		}
	}
}

func TestPackRejectsSampleSourceOnlyFormats(t *testing.T) {
	dst := make([]byte, 4)
	if err := Pack(L8, [4]float32{0, 0, 0, 0}, dst); err == nil {
		t.Fatalf("Pack(L8) succeeded, want error (sample-source-only format)")
	}
}

func TestPackRGB24OmitsAlphaByte(t *testing.T) {
	dst := make([]byte, 3)
	if err := Pack(RGB24, [4]float32{1, 0.5, 0, 1}, dst); err != nil {
		t.Fatalf("Pack(RGB24): %v", err)
	}
	want := []byte{clampByte(1), clampByte(0.5), clampByte(0)}
	for i, b := range dst {
		if b != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, b, want[i])
		}
	}
}
