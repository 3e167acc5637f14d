package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transcriptTable() Dataset {
	return Dataset{
		Title:   "Academic Transcript",
		Headers: []string{"Course", "Weighted Total", "Progress %"},
		Rows: [][]string{
			{"Algorithms", "71.00", "62.50"},
			{"Databases", "88.25", "100.00"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	payload, err := NewCSVExporter().Render(transcriptTable())
	require.NoError(t, err)
	assert.Equal(t, "Course,Weighted Total,Progress %\nAlgorithms,71.00,62.50\nDatabases,88.25,100.00\n", string(payload))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	data := transcriptTable()
	data.Rows = append(data.Rows, []string{"only one cell"})

	_, err := NewCSVExporter().Render(data)
	require.Error(t, err)
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	payload, err := NewPDFExporter().Render(transcriptTable())
	require.NoError(t, err)
	require.Greater(t, len(payload), 4)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func TestColumnWidths(t *testing.T) {
	widths := columnWidths(3)
	require.Len(t, widths, 3)
	// Wide first column, the rest split evenly, totalling the printable width.
	assert.Equal(t, 57.0, widths[0])
	assert.Equal(t, 66.5, widths[1])
	assert.Equal(t, 66.5, widths[2])

	single := columnWidths(1)
	assert.Equal(t, []float64{190.0}, single)
}
