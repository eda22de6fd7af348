/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage keeps the on-disk render cache. Rendered PNG/SVG/PDF bytes
// are stored in an embedded SQLite database keyed by pattern digest, output
// kind and pixel size, and evicted least-recently-used first once the cache
// exceeds its byte budget. The cache is disposable: deleting the file only
// costs re-rendering.
package storage
