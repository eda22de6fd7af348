/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func openTestCache(t *testing.T, maxBytes int64) *Cache {
	t.Helper()
	t.Setenv(EnvMaxBytes, "")
	c, err := OpenCache(context.Background(), t.TempDir(), maxBytes)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	// deterministic, strictly increasing access stamps
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	c.now = func() time.Time { n++; return base.Add(time.Duration(n) * time.Second) }
	return c
}

func TestOpenCacheMigrates(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenCache(context.Background(), dir, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	v, err := c.SchemaVersion(context.Background())
	if err != nil || v != schemaVersion {
		t.Fatalf("schema version %d, %v", v, err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// reopening is idempotent
	c, err = OpenCache(context.Background(), dir, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()
	if v, _ := c.SchemaVersion(context.Background()); v != schemaVersion {
		t.Fatalf("schema version after reopen %d", v)
	}
	if _, err := OpenCache(context.Background(), " ", 0); err == nil {
		t.Fatalf("empty dir should fail")
	}
}

func TestPutGet(t *testing.T) {
	c := openTestCache(t, 0)
	ctx := context.Background()
	k := Key{Digest: "abc", Kind: KindPNG, W: 10, H: 20}
	if b, err := c.Get(ctx, k); err != nil || b != nil {
		t.Fatalf("miss expected: %v %v", b, err)
	}
	if err := c.Put(ctx, k, []byte("png-bytes")); err != nil {
		t.Fatalf("put: %v", err)
	}
	b, err := c.Get(ctx, k)
	if err != nil || !bytes.Equal(b, []byte("png-bytes")) {
		t.Fatalf("get: %q %v", b, err)
	}
	// other sizes are separate entries
	if b, _ := c.Get(ctx, Key{Digest: "abc", Kind: KindPNG, W: 11, H: 20}); b != nil {
		t.Fatalf("size should be part of the key")
	}
	// upsert replaces
	_ = c.Put(ctx, k, []byte("v2"))
	if b, _ := c.Get(ctx, k); string(b) != "v2" {
		t.Fatalf("upsert: %q", b)
	}
	if total, _ := c.TotalBytes(ctx); total != 2 {
		t.Fatalf("total bytes %d", total)
	}
}

func TestInvalidKey(t *testing.T) {
	c := openTestCache(t, 0)
	if err := c.Put(context.Background(), Key{Digest: "x", Kind: "gif"}, []byte("1")); err == nil {
		t.Fatalf("invalid kind accepted")
	}
	if _, err := c.Get(context.Background(), Key{Kind: KindPNG}); err == nil {
		t.Fatalf("empty digest accepted")
	}
}

func TestLRUEviction(t *testing.T) {
	c := openTestCache(t, 10)
	ctx := context.Background()
	a := Key{Digest: "a", Kind: KindPNG}
	b := Key{Digest: "b", Kind: KindPNG}
	d := Key{Digest: "d", Kind: KindPNG}
	_ = c.Put(ctx, a, []byte("aaaa"))
	_ = c.Put(ctx, b, []byte("bbbb"))
	// touch a so b becomes least recently used
	if got, _ := c.Get(ctx, a); got == nil {
		t.Fatalf("a missing")
	}
	if err := c.Put(ctx, d, []byte("dddd")); err != nil {
		t.Fatalf("put d: %v", err)
	}
	if got, _ := c.Get(ctx, b); got != nil {
		t.Fatalf("b should have been evicted")
	}
	for _, k := range []Key{a, d} {
		if got, _ := c.Get(ctx, k); got == nil {
			t.Fatalf("%s evicted unexpectedly", k.Digest)
		}
	}
	if total, _ := c.TotalBytes(ctx); total > 10 {
		t.Fatalf("total %d exceeds budget", total)
	}
}

func TestGetOrCreate(t *testing.T) {
	c := openTestCache(t, 0)
	ctx := context.Background()
	k := Key{Digest: "g", Kind: KindSVG}
	calls := 0
	gen := func(context.Context) ([]byte, error) { calls++; return []byte("<svg/>"), nil }
	if _, hit, err := c.GetOrCreate(ctx, k, gen); err != nil || hit {
		t.Fatalf("first call: hit=%v err=%v", hit, err)
	}
	if b, hit, err := c.GetOrCreate(ctx, k, gen); err != nil || !hit || string(b) != "<svg/>" {
		t.Fatalf("second call: %q hit=%v err=%v", b, hit, err)
	}
	if calls != 1 {
		t.Fatalf("generator ran %d times", calls)
	}
	boom := errors.New("boom")
	if _, _, err := c.GetOrCreate(ctx, Key{Digest: "h", Kind: KindSVG}, func(context.Context) ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("generator error not returned: %v", err)
	}
	if err := c.Purge(ctx); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if total, _ := c.TotalBytes(ctx); total != 0 {
		t.Fatalf("total after purge %d", total)
	}
}

func TestMaxBytesFromEnv(t *testing.T) {
	t.Setenv(EnvMaxBytes, "")
	if got := MaxBytesFromEnv(0); got != DefaultMaxBytes {
		t.Fatalf("default: %d", got)
	}
	if got := MaxBytesFromEnv(500); got != 500 {
		t.Fatalf("configured: %d", got)
	}
	t.Setenv(EnvMaxBytes, "1234")
	if got := MaxBytesFromEnv(500); got != 1234 {
		t.Fatalf("env override: %d", got)
	}
	t.Setenv(EnvMaxBytes, "nope")
	if got := MaxBytesFromEnv(500); got != 500 {
		t.Fatalf("bad env value: %d", got)
	}
}
