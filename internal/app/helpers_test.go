package app

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildEPUB(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("OEBPS/ch1.xhtml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<html><body><p>Hello from the tiny book.</p></body></html>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
