package docstore

import (
	"fmt"
	"strings"
)

// Join builds a path from alternating collection and document ids.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Split returns the parent collection and the id of a document path.
func Split(path string) (collection, id string, err error) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || len(parts)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, p := range parts {
		if p == "" {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return strings.Join(parts[:len(parts)-1], "/"), parts[len(parts)-1], nil
}

func checkCollection(collection string) error {
	parts := strings.Split(collection, "/")
	if len(parts)%2 != 1 {
		return fmt.Errorf("%w: %q is not a collection", ErrInvalidPath, collection)
	}
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("%w: %q", ErrInvalidPath, collection)
		}
	}
	return nil
}
