package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/carelens/internal/models"
)

const sample = `========== Conversation ==========
[2024-01-10 09:00] User: I had unprotected sex last week.
[2024-01-10 09:01] AI: Thank you for sharing. How are you feeling?
[2024-01-10 09:02] User: Worried, and I have a fever.

========== Conversation ==========
this block has no messages

========== Conversation ==========
[2024-01-11 14:00] User:   I feel hopeless lately.  
[2024-01-11 14:01] System: ignored role
 [2024-01-11 14:02] User: indented lines are ignored
[2024-01-11 14:03] AI: I'm here to help.
`

func TestParse(t *testing.T) {
	convs, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, convs, 2)

	first := convs[0]
	assert.Equal(t, "conv-001", first.ID)
	assert.Equal(t, 3, first.MessageCount)
	assert.Equal(t, models.Message{Timestamp: "2024-01-10 09:00", Role: models.RoleUser, Text: "I had unprotected sex last week."}, first.Messages[0])
	assert.Equal(t, models.RoleAI, first.Messages[1].Role)
	assert.Equal(t, "I had unprotected sex last week. Thank you for sharing. How are you feeling? Worried, and I have a fever.", first.FullText)
	assert.Equal(t, "I had unprotected sex last week. Worried, and I have a fever.", first.UserText)

	second := convs[1]
	assert.Equal(t, "conv-002", second.ID)
	assert.Equal(t, 2, second.MessageCount)
	assert.Equal(t, "I feel hopeless lately.", second.Messages[0].Text)
	assert.Equal(t, "I feel hopeless lately.", second.UserText)
}

func TestParseCRLF(t *testing.T) {
	in := Separator + "\r\n[t1] User: hello\r\n[t2] AI: hi there\r\n"
	convs, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "hello hi there", convs[0].FullText)
}

func TestParseWithoutSeparator(t *testing.T) {
	convs, err := Parse(strings.NewReader("[t] User: only one conversation"))
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "conv-001", convs[0].ID)
}

func TestParseEmpty(t *testing.T) {
	convs, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.txt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	convs, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, convs, 2)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
