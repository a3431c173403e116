package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText_TrimsLine(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("  buy milk  \n"))
	var out bytes.Buffer

	got, err := GetSimpleText(reader, "Task title", &out)

	require.NoError(t, err)
	assert.Equal(t, "buy milk", got)
	assert.Contains(t, out.String(), "Task title")
}

func TestGetSimpleText_PartialLineAtEOF(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("no newline"))
	var out bytes.Buffer

	got, err := GetSimpleText(reader, "Prompt", &out)

	require.NoError(t, err)
	assert.Equal(t, "no newline", got)
}

func TestGetSimpleText_EOFWithoutInput(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader(""))
	var out bytes.Buffer

	_, err := GetSimpleText(reader, "Prompt", &out)
	assert.Error(t, err)
}

func TestGetPin_UsesMaskedReader(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(fd int) ([]byte, error) { return []byte("1234"), nil }

	var out bytes.Buffer
	pin, err := GetPin(&out)

	require.NoError(t, err)
	assert.Equal(t, "1234", pin)
	assert.Contains(t, out.String(), "Enter PIN")
}
