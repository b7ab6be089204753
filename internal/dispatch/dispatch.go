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

// Package dispatch is the tile dispatcher. It partitions an output
// rectangle into fixed-height row strips and runs one job per strip
// across a golang.org/x/sync/errgroup worker pool, joining on a single
// barrier. Strips are independent and unordered; the only shared,
// concurrently-read datum inside one render is the function pointer
// itself, which this package never mutates.
package dispatch

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rjw57/firtree/internal/jit/interp"
	ftruntime "github.com/rjw57/firtree/internal/runtime"
	"github.com/rjw57/firtree/internal/sampler"
)

// StripHeight is the fixed number of rows per strip.
const StripHeight = 8

// Strip is one (row_start, n_rows) job description plus the y-extent
// slice it covers.
type Strip struct {
	RowStart int
	NumRows  int
	Y        float32
	H        float32
}

// Plan partitions height rows of extent into ceil(height/8) strips,
// each StripHeight rows tall (the last strip may be shorter). With
// dy = extent.H / height, job k starts at extent.Y + k*8*dy and spans
// n_rows*dy. Strips are pairwise disjoint along y and their union
// reconstructs the original extent exactly.
func Plan(height int, extent sampler.Extent) []Strip {
	if height <= 0 {
		return nil
	}
	dy := extent.H / float32(height)
	n := (height + StripHeight - 1) / StripHeight
	strips := make([]Strip, 0, n)
	for row := 0; row < height; row += StripHeight {
		rows := StripHeight
		if row+rows > height {
			rows = height - row
		}
		strips = append(strips, Strip{
			RowStart: row,
			NumRows:  rows,
			Y:        extent.Y + float32(row)*dy,
			H:        float32(rows) * dy,
		})
	}
	return strips
}

// RenderFunc evaluates one pixel of a render-targeted kernel graph,
// writing it into dst. It is satisfied by (*jit.CompiledFunc).RenderPixel;
// the parameter is typed structurally here so internal/dispatch does not
// import internal/jit (the dependency runs the other way: jit is linked
// and compiled before a render is dispatched).
type RenderFunc func(x, y float32, dst []byte) error

// Render drives fn over every strip of a width x height buffer with
// the given stride and extent, writing packed pixels of format into
// buf. A nil fn means nothing to do: the buffer is left untouched and
// Render returns nil. Strips run concurrently on a worker pool sized
// to GOMAXPROCS; the join here is the only blocking call in the hot
// path.
func Render(ctx context.Context, fn RenderFunc, format ftruntime.Format, buf []byte, width, height, stride int, extent sampler.Extent) error {
	if fn == nil {
		return nil
	}
	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("dispatch: format %s is not a render target", format)
	}
	dx := extent.W / float32(width)
	dy := extent.H / float32(height)
	strips := Plan(height, extent)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, strip := range strips {
		strip := strip
		g.Go(func() error {
			for r := 0; r < strip.NumRows; r++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				y := strip.Y + float32(r)*dy
				rowOff := (strip.RowStart + r) * stride
				for c := 0; c < width; c++ {
					x := extent.X + float32(c)*dx
					px := buf[rowOff+c*bpp : rowOff+(c+1)*bpp]
					if err := fn(x, y, px); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// ReduceFunc evaluates one pixel of a reduce-targeted kernel graph,
// appending anything its emit() calls produce to sink. Satisfied by
// (*jit.CompiledFunc).ReducePixel.
type ReduceFunc func(x, y float32, sink interp.Sink)

// Reduce drives fn over every strip of a width x height grid with the
// same partitioning as Render, but each job appends the values its
// emit() calls produce into the shared sink instead of writing pixels.
// A nil fn is a no-op. Strips run concurrently; Append is the set's
// only operation safe to call concurrently from the worker pool
// (internal/appendset).
func Reduce(ctx context.Context, fn ReduceFunc, sink interp.Sink, width, height int, extent sampler.Extent) error {
	if fn == nil {
		return nil
	}
	dx := extent.W / float32(width)
	dy := extent.H / float32(height)
	strips := Plan(height, extent)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, strip := range strips {
		strip := strip
		g.Go(func() error {
			for r := 0; r < strip.NumRows; r++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				y := strip.Y + float32(r)*dy
				for c := 0; c < width; c++ {
					x := extent.X + float32(c)*dx
					fn(x, y, sink)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
