package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:    "2024-2 Calendar",
		Subtitle: "generated 2024-08-20",
		Columns:  []Column{{Header: "Due", Width: 2}, {Header: "Subject"}, {Header: "Assignment", Width: 3}},
		Rows: [][]string{
			{"2024-08-21 23:59", "Algorithms", "HW, part 1"},
			{"", "Databases", "Project"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "Due,Subject,Assignment\n2024-08-21 23:59,Algorithms,\"HW, part 1\"\n,Databases,Project\n", string(out))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	table := sampleTable()
	table.Rows = append(table.Rows, []string{"only one"})
	_, err := NewCSVExporter().Render(table)
	require.Error(t, err)
}

func TestExportersRequireColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	require.Error(t, err)
	_, err = NewPDFExporter().Render(Table{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	table := sampleTable()
	for i := 0; i < 60; i++ {
		table.Rows = append(table.Rows, []string{"", "Networks", "Lab"})
	}
	out, err := NewPDFExporter().Render(table)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestColumnWidthsFillBody(t *testing.T) {
	widths := columnWidths(sampleTable().Columns)
	assert.InDelta(t, pdfBodyWidth, widths[0]+widths[1]+widths[2], 0.0001)
	assert.InDelta(t, widths[1]*2, widths[0], 0.0001)
}
