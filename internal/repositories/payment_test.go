package repositories

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReference(t *testing.T) {
	ref := GenerateReference()
	assert.Regexp(t, `^PMT-\d+-\d+$`, ref)

	other := GenerateReference()
	assert.Regexp(t, `^PMT-\d+-\d+$`, other)
	assert.NotEqual(t, ref, other)
}

func TestEvidenceTrail(t *testing.T) {
	t.Run("entry is a timestamped JSON document", func(t *testing.T) {
		entry, err := evidenceEntry(map[string]interface{}{"status": "SUCCESSFUL"})
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(entry), &decoded))

		receivedAt, ok := decoded["received_at"].(string)
		require.True(t, ok)
		_, err = time.Parse(time.RFC3339Nano, receivedAt)
		assert.NoError(t, err)

		payload, ok := decoded["payload"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "SUCCESSFUL", payload["status"])
	})

	t.Run("append concatenates onto the stored array inside the database", func(t *testing.T) {
		// A read-modify-write from Go would let two racing writers drop
		// each other's entries; the append must stay a single expression
		// over the stored column.
		assert.Contains(t, evidenceAppendSQL, "jsonb_set")
		assert.Contains(t, evidenceAppendSQL, "COALESCE(metadata->'evidence', '[]'::jsonb) ||")
	})
}
