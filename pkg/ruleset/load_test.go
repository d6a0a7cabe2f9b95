package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRuleSetXML = `<?xml version="1.0"?>
<RuleSet>
  <StructType name="Monograph" anchorClass="">
    <AllowedChild>Page</AllowedChild>
    <AllowedMetadata typeName="TitleDocMain" cardinality="1m" defaultDisplay="true"/>
    <AllowedMetadata typeName="Author" cardinality="*"/>
  </StructType>
  <StructType name="Page"/>
  <MetadataType name="TitleDocMain">
    <Label lang="en">Title</Label>
  </MetadataType>
  <MetadataType name="Author" isPerson="true"/>
</RuleSet>
`

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ruleset.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRuleSetXML), 0o644))

	rs, err := LoadFromFile(path)
	require.NoError(t, err)

	mono := rs.StructTypeByName("Monograph")
	require.NotNil(t, mono)
	assert.True(t, mono.AllowsChild("Page"))

	card, ok := rs.CardinalityOf(mono, "TitleDocMain")
	assert.True(t, ok)
	assert.Equal(t, CardMandatory, card)

	author := rs.MetadataTypeByName("Author")
	require.NotNil(t, author)
	assert.True(t, author.IsPerson)

	title := rs.MetadataTypeByName("TitleDocMain")
	assert.Equal(t, "Title", title.Label("en"))
}

func TestLoadFromFileMissingFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/ruleset.xml")
	assert.Error(t, err)
}
