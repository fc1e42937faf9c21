package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const cursorSeparator = ","
const dateFormat = "2006-01-02"

// EncodeCursor creates an opaque cursor string from an event date and ID.
func EncodeCursor(date, id string) string {
	key := date + cursorSeparator + id
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor parses the opaque cursor string back into date and ID.
func DecodeCursor(encodedCursor string) (string, string, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(encodedCursor)
	if err != nil {
		return "", "", fmt.Errorf("invalid cursor encoding: %w", err)
	}

	key := string(decodedBytes)
	parts := strings.SplitN(key, cursorSeparator, 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid cursor format")
	}

	if _, err := time.Parse(dateFormat, parts[0]); err != nil {
		return "", "", fmt.Errorf("invalid date in cursor: %w", err)
	}

	return parts[0], parts[1], nil
}
