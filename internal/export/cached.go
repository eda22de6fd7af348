/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"

	"beadloom/internal/render"
	"beadloom/internal/storage"
)

// CachedPNG returns the PNG bytes of the pattern, served from the cache when
// the same content was rendered before at the same size. A nil cache renders
// directly. The second result reports a cache hit.
func CachedPNG(ctx context.Context, c *storage.Cache, p Pattern, opt PNGOptions) ([]byte, bool, error) {
	gen := func(context.Context) ([]byte, error) {
		var buf bytes.Buffer
		if err := WritePNG(&buf, p, opt); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if c == nil {
		b, err := gen(ctx)
		return b, false, err
	}
	w, h := render.Size(p.Beads, opt.renderOptions(p))
	kind := storage.KindPNG
	if opt.RowLabels {
		kind = storage.KindPNGRows
	}
	return c.GetOrCreate(ctx, storage.Key{Digest: p.Digest(), Kind: kind, W: w, H: h}, gen)
}
