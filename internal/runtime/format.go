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

import (
	"fmt"
	"math"
)

// Format is one of the supported pixel formats, in the stable order
// the render dispatch table requires.
type Format int

const (
	ARGB32 Format = iota
	ARGB32Premultiplied
	XRGB32
	RGBA32
	RGBA32Premultiplied
	ABGR32
	ABGR32Premultiplied
	XBGR32
	BGRA32
	BGRA32Premultiplied
	RGB24
	BGR24
	RGBX32
	BGRX32
	L8
	I420Fourcc
	YV12Fourcc
	RGBAF32Premultiplied
)

var formatNames = [...]string{
	"ARGB32", "ARGB32_PREMULTIPLIED", "XRGB32",
	"RGBA32", "RGBA32_PREMULTIPLIED",
	"ABGR32", "ABGR32_PREMULTIPLIED", "XBGR32",
	"BGRA32", "BGRA32_PREMULTIPLIED",
	"RGB24", "BGR24",
	"RGBX32", "BGRX32",
	"L8", "I420_FOURCC", "YV12_FOURCC",
	"RGBA_F32_PREMULTIPLIED",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "?"
	}
	return formatNames[f]
}

// RenderFuncName is the C-ABI render entry point name,
// render_FIRTREE_FORMAT_<NAME>.
func (f Format) RenderFuncName() string { return "render_FIRTREE_FORMAT_" + f.String() }

// CanRender reports whether f is a supported render target. L8,
// I420_FOURCC and YV12_FOURCC are sample-source-only.
func (f Format) CanRender() bool {
	switch f {
	case L8, I420Fourcc, YV12Fourcc:
		return false
	}
	return true
}

// BytesPerPixel returns the packed pixel size for a render-target
// format, or 0 for the sample-source-only formats, which are never
// packed.
func (f Format) BytesPerPixel() int {
	switch f {
	case RGB24, BGR24:
		return 3
	case RGBAF32Premultiplied:
		return 16
	case L8, I420Fourcc, YV12Fourcc:
		return 0
	default:
		return 4
	}
}

func clampByte(x float32) byte {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 255
	}
	return byte(x*255 + 0.5)
}

func premultiply(c [4]float32) [4]float32 {
	return [4]float32{c[0] * c[3], c[1] * c[3], c[2] * c[3], c[3]}
}

// Pack writes one pixel of colour rgba (straight, unpremultiplied
// alpha) in format f into dst[0:f.BytesPerPixel()]. It is the packing
// step inside each render_FIRTREE_FORMAT_* function's pixel loop.
func Pack(f Format, rgba [4]float32, dst []byte) error {
	if !f.CanRender() {
		return fmt.Errorf("runtime: format %s is sample-source-only, not a render target", f)
	}
	r, g, b, a := clampByte(rgba[0]), clampByte(rgba[1]), clampByte(rgba[2]), clampByte(rgba[3])
	switch f {
	case ARGB32:
		dst[0], dst[1], dst[2], dst[3] = a, r, g, b
	case ARGB32Premultiplied:
		p := premultiply(rgba)
		dst[0], dst[1], dst[2], dst[3] = clampByte(p[3]), clampByte(p[0]), clampByte(p[1]), clampByte(p[2])
	case XRGB32:
		dst[0], dst[1], dst[2], dst[3] = 0xff, r, g, b
	case RGBA32:
		dst[0], dst[1], dst[2], dst[3] = r, g, b, a
	case RGBA32Premultiplied:
		p := premultiply(rgba)
		dst[0], dst[1], dst[2], dst[3] = clampByte(p[0]), clampByte(p[1]), clampByte(p[2]), clampByte(p[3])
	case ABGR32:
		dst[0], dst[1], dst[2], dst[3] = a, b, g, r
	case ABGR32Premultiplied:
		p := premultiply(rgba)
		dst[0], dst[1], dst[2], dst[3] = clampByte(p[3]), clampByte(p[2]), clampByte(p[1]), clampByte(p[0])
	case XBGR32:
		dst[0], dst[1], dst[2], dst[3] = 0xff, b, g, r
	case BGRA32:
		dst[0], dst[1], dst[2], dst[3] = b, g, r, a
	case BGRA32Premultiplied:
		p := premultiply(rgba)
		dst[0], dst[1], dst[2], dst[3] = clampByte(p[2]), clampByte(p[1]), clampByte(p[0]), clampByte(p[3])
	case RGB24:
		dst[0], dst[1], dst[2] = r, g, b
	case BGR24:
		dst[0], dst[1], dst[2] = b, g, r
	case RGBX32:
		dst[0], dst[1], dst[2], dst[3] = r, g, b, 0xff
	case BGRX32:
		dst[0], dst[1], dst[2], dst[3] = b, g, r, 0xff
	case RGBAF32Premultiplied:
		p := premultiply(rgba)
		putF32(dst[0:4], p[0])
		putF32(dst[4:8], p[1])
		putF32(dst[8:12], p[2])
		putF32(dst[12:16], p[3])
	default:
		return fmt.Errorf("runtime: unsupported format %s", f)
	}
	return nil
}

func putF32(dst []byte, f float32) {
	bits := math.Float32bits(f)
	dst[0] = byte(bits)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits >> 16)
	dst[3] = byte(bits >> 24)
}
