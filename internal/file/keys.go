package file

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// uploadKey synthesizes a collision-resistant object key of the form
// [folder/]uploads/YYYY/MM/<random-id><ext>. The extension comes from
// the client-supplied filename and may be empty.
func uploadKey(filename, folder string, now time.Time) string {
	ext := path.Ext(filename)
	key := fmt.Sprintf("uploads/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)
	if folder != "" {
		key = strings.Trim(folder, "/") + "/" + key
	}
	return key
}

// DerivedKey builds the key of a stage output next to its original:
// <path-without-extension>_<suffix>.<ext>.
func DerivedKey(objectKey, suffix, ext string) string {
	stem := strings.TrimSuffix(objectKey, path.Ext(objectKey))
	return stem + "_" + suffix + "." + strings.TrimPrefix(ext, ".")
}
