package assetstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// uniqueProbeLimit caps the numeric-suffix existence probes before falling
// back to a random token. Exhausting the fallback too is a capacity error,
// never a silent overwrite.
const uniqueProbeLimit = 16

// NormalizeKey converts backslashes to forward slashes and strips exactly
// one leading slash. Internal slashes are left untouched. Idempotent.
func NormalizeKey(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.TrimPrefix(p, "/")
}

// JoinKey joins a directory and a file name with a single separator and
// normalizes the result.
func JoinKey(dir, name string) string {
	dir = strings.TrimSuffix(dir, "/")
	name = strings.TrimPrefix(name, "/")
	if dir == "" {
		return NormalizeKey(name)
	}
	return NormalizeKey(dir + "/" + name)
}

// ExistsFunc probes the store for a key. Errors degrade to "absent" at the
// probing layer, so the func reports presence only.
type ExistsFunc func(ctx context.Context, key string) bool

// UniqueKey derives a key under dir for the requested name that does not
// collide with any existing object. Collisions are resolved with numeric
// suffixes ("photo-1.jpg", "photo-2.jpg", ...); past uniqueProbeLimit a
// random token is tried once before giving up with ErrKeySpaceExhausted.
func UniqueKey(ctx context.Context, dir, name string, exists ExistsFunc) (string, error) {
	base, ext := splitExt(name)

	key := JoinKey(dir, name)
	if !exists(ctx, key) {
		return key, nil
	}

	for i := 1; i <= uniqueProbeLimit; i++ {
		key = JoinKey(dir, fmt.Sprintf("%s-%d%s", base, i, ext))
		if !exists(ctx, key) {
			return key, nil
		}
	}

	key = JoinKey(dir, fmt.Sprintf("%s-%s%s", base, uuid.NewString(), ext))
	if !exists(ctx, key) {
		return key, nil
	}

	return "", &StorageError{Op: "unique_key", Key: JoinKey(dir, name), Err: ErrKeySpaceExhausted}
}

// splitExt splits "photo.orig.jpg" into "photo.orig" and ".jpg".
func splitExt(name string) (base, ext string) {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i], name[i:]
	}
	return name, ""
}
