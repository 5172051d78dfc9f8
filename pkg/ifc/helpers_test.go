package ifc_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	return data
}

// exchange wraps DATA section lines into a minimal IFC4 file.
func exchange(lines ...string) []byte {
	return []byte("ISO-10303-21;\nHEADER;\nFILE_SCHEMA(('IFC4'));\nENDSEC;\nDATA;\n" +
		strings.Join(lines, "\n") +
		"\nENDSEC;\nEND-ISO-10303-21;\n")
}
