package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "ENTITY", "KIND", "TABLE")
	table.AddRow("com.acme.Animal", "root", "Animal")
	table.AddRow("com.acme.Dog", "discriminated_subclass")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ENTITY           KIND"))
	assert.Contains(t, lines[1], "─")
	assert.Equal(t, "com.acme.Animal  root                    Animal", lines[2])
	assert.Equal(t, "com.acme.Dog     discriminated_subclass  ", lines[3])
	assert.Equal(t, 2, table.Len())
}

func TestTable_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, true).Render()
	assert.Empty(t, buf.String())
}

func TestDetails_Render(t *testing.T) {
	var buf bytes.Buffer
	details := NewDetails(&buf, true)
	details.Add("Entity", "com.acme.Dog")
	details.Add("Super", "")
	details.Add("Table", "Animal")
	details.Render()

	assert.Equal(t, "Entity: com.acme.Dog\nTable:  Animal\n", buf.String())
}

func TestHeading(t *testing.T) {
	var buf bytes.Buffer
	Heading(&buf, "Entities", true)
	assert.Equal(t, "Entities\n\n", buf.String())
}
