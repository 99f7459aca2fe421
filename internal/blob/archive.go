package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImportPrefix is the key prefix every archived import is written under.
const ImportPrefix = "imports/"

// Metadata keys attached to archived imports.
const (
	MetaFileName = "file-name"
	MetaKind     = "kind"
)

// Archive keeps the raw text of imported files so a workspace can be rebuilt
// from its sources.
type Archive struct {
	store Store
	now   func() time.Time
}

// NewArchive wraps store. A nil store yields a nil archive.
func NewArchive(store Store) *Archive {
	if store == nil {
		return nil
	}
	return &Archive{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Store returns the backing blob store.
func (a *Archive) Store() Store { return a.store }

// Save writes text under imports/<yyyy>/<mm>/<dd>/<uuid>-<base name>.
func (a *Archive) Save(ctx context.Context, name, kind, text string) (Info, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	key := fmt.Sprintf("%s%s/%s-%s", ImportPrefix, a.now().Format("2006/01/02"), uuid.NewString(), base)
	return a.store.Put(ctx, key, strings.NewReader(text), PutOptions{
		ContentType: "text/plain; charset=utf-8",
		Metadata:    map[string]string{MetaFileName: name, MetaKind: kind},
	})
}

// List returns archived imports ordered by key, oldest day first.
func (a *Archive) List(ctx context.Context) ([]Info, error) {
	return a.store.List(ctx, ImportPrefix)
}

// Load reads an archived import back as text together with its original file name.
func (a *Archive) Load(ctx context.Context, key string) (string, string, error) {
	info, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = rc.Close() }()
	body, err := io.ReadAll(rc)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", key, err)
	}
	name := info.Metadata[MetaFileName]
	if name == "" {
		name = path.Base(key)
	}
	return string(body), name, nil
}
