package docstore_test

import (
	"os"
	"strings"
	"testing"

	"github.com/docugraph/docugraph/pkg/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":            "report.pdf",
		"my report (final).pdf": "myreportfinal.pdf",
		"../../etc/passwd":      "passwd",
		"何か.txt":                ".txt",
		"@#$%":                  "document",
		"a_b-c.d":               "a_b-c.d",
	}
	for in, want := range cases {
		assert.Equal(t, want, docstore.SanitizeName(in), "input %q", in)
	}
}

func TestSaveAndReadOutput(t *testing.T) {
	store, err := docstore.New(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.SaveOutput("report.txt", "extracted text"))
	got, err := store.ReadOutput("report.txt")
	require.NoError(t, err)
	assert.Equal(t, "extracted text", got)

	// The same sanitized key reads back regardless of the raw name.
	got, err = store.ReadOutput("re port!.txt")
	require.NoError(t, err)
	assert.Equal(t, "extracted text", got)
}

func TestSaveFile(t *testing.T) {
	store, err := docstore.New(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	path, err := store.SaveFile("upload (1).bin", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "upload1.bin"))
}

func TestSaveOutputKeepsUploadedOriginal(t *testing.T) {
	store, err := docstore.New(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	original := "%PDF-1.4 binary payload"
	path, err := store.SaveFile("report.pdf", strings.NewReader(original))
	require.NoError(t, err)

	require.NoError(t, store.SaveOutput("report.pdf", "extracted text"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))

	text, err := store.ReadOutput("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "extracted text", text)
}
