package pagination

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	// Event ids may themselves contain the separator.
	c := EncodeCursor("2024-05-21", "2024-05-21-A社,B社-300")
	date, id, err := DecodeCursor(c)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-21", date)
	assert.Equal(t, "2024-05-21-A社,B社-300", id)
}

func TestDecodeCursorErrors(t *testing.T) {
	enc := func(s string) string { return base64.URLEncoding.EncodeToString([]byte(s)) }

	for _, c := range []string{
		"%%%",
		enc("no-separator"),
		enc("2024-05-21,"),
		enc("yesterday,abc"),
	} {
		_, _, err := DecodeCursor(c)
		assert.Error(t, err, c)
	}
}
