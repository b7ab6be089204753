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

package sampler

// Transform is the 2x3 affine matrix every sampler carries, composed
// into the samplerTransform intrinsic during linking. Serialised
// row-major as [m11, m12, m21, m22, tx, ty].
type Transform struct {
	M11, M12, M21, M22, TX, TY float32
}

// Identity is the no-op transform.
var Identity = Transform{M11: 1, M22: 1}

// Array returns the row-major serialisation.
func (t Transform) Array() [6]float32 {
	return [6]float32{t.M11, t.M12, t.M21, t.M22, t.TX, t.TY}
}

// Apply maps (x, y) through the affine transform.
func (t Transform) Apply(x, y float32) (float32, float32) {
	return t.M11*x + t.M21*y + t.TX, t.M12*x + t.M22*y + t.TY
}
