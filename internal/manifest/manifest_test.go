package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := `# ads
https://example.com/Ads.yaml

  https://example.com/Direct.list  
	# disabled
#https://example.com/Old.txt
https://example.com/Apps.txt
`
	sources, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/Ads.yaml",
		"https://example.com/Direct.list",
		"https://example.com/Apps.txt",
	}, sources)
}

func TestParse_Empty(t *testing.T) {
	sources, err := Parse(strings.NewReader("\n# nothing\n"))
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.txt")
	require.NoError(t, os.WriteFile(path, []byte("a.list\r\nb.yaml\r\n"), 0o644))

	sources, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.list", "b.yaml"}, sources)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
