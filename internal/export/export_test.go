package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/erazemk/locography/internal/model"
)

func TestWriteItems(t *testing.T) {
	garage := "Garage"
	value := 12.5
	items := []model.Item{
		{
			ID:             1,
			Name:           "Hammer",
			Quantity:       2,
			Currency:       "EUR",
			EstimatedValue: &value,
			LocationName:   &garage,
			Tags:           model.Tags{"tools", "steel"},
			AITags:         model.Tags{},
			UpdatedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{ID: 2, Name: "Rope", Quantity: 1, Currency: "USD"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteItems(&buf, items))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Updated", rows[0][11])

	assert.Equal(t, []string{"1", "Hammer", "", "", "Garage", "2", "", "12.5", "EUR", "tools, steel", "", "2024-01-02 03:04:05"}, rows[1])
	assert.Equal(t, "Rope", rows[2][1])
	assert.Equal(t, "", rows[2][7])
}

func TestWriteItemsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteItems(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
