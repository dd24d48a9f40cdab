package storage

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/print-order-service/pkg/util"
)

// Receiver accepts binary attachments submitted alongside an order and
// assigns them stable locators. Content is stored opaquely: no inspection,
// no transformation, and currently no size or type limit.
type Receiver struct {
	disk Disk
}

// NewReceiver constructs a receiver over the given disk.
func NewReceiver(disk Disk) *Receiver {
	return &Receiver{disk: disk}
}

// Receive stores each file part and returns locators in submission order.
// The locator doubles as the on-disk filename.
func (r *Receiver) Receive(files []*multipart.FileHeader) ([]string, error) {
	refs := make([]string, 0, len(files))
	for _, header := range files {
		locator := makeLocator(header.Filename)
		src, err := header.Open()
		if err != nil {
			return nil, apperrors.NewStorageFailure(err)
		}
		err = r.disk.Put(locator, src)
		src.Close()
		if err != nil {
			return nil, apperrors.NewStorageFailure(err)
		}
		refs = append(refs, locator)
	}
	return refs, nil
}

// Resolve maps a locator to its downloadable URL.
func (r *Receiver) Resolve(locator string) string {
	return r.disk.URL(locator)
}

// makeLocator builds a collision-resistant name: millisecond timestamp plus
// a short random component, keeping the original name for operators
// eyeballing the uploads directory.
func makeLocator(original string) string {
	name := sanitizeFilename(original)
	entropy := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), entropy, name)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "upload"
	}
	return name
}
