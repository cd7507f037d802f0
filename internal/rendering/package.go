package rendering

import (
	"archive/zip"
	"bytes"
	"fmt"
)

type packagePart struct {
	Name    string
	Content string
}

// writePackage zips OOXML parts in the given order. [Content_Types].xml
// must come first.
func writePackage(parts []packagePart) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.Create(p.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", p.Name, err)
		}
		if _, err := w.Write([]byte(p.Content)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", p.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish package: %w", err)
	}
	return buf.Bytes(), nil
}
