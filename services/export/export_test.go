package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/cuaderno/core/planner"
)

type entries map[string]planner.ClassEntry

func (e entries) Entry(activityID, date string) (planner.ClassEntry, bool) {
	entry, ok := e[planner.EntryKey(activityID, date)]
	return entry, ok
}

func TestWeek(t *testing.T) {
	math := &planner.Activity{ID: "a1", Name: "Mates", Type: planner.TypeClass, Color: "#FFADAD"}
	duty := &planner.Activity{ID: "a2", Name: "Guardia", Type: planner.TypeGeneral, Color: "#CAFFBF"}
	wv := planner.WeekView{
		Start: "2025-10-06",
		End:   "2025-10-10",
		Days:  planner.Days,
		Dates: []string{"2025-10-06", "2025-10-07", "2025-10-08", "2025-10-09", "2025-10-10"},
		Rows: []planner.Row{{
			Slot: planner.TimeSlot{ID: "t1", Label: "08:00-09:00"},
			Cells: []planner.Cell{
				{Day: "Lunes", Date: "2025-10-06", Activity: math},
				{Day: "Martes", Date: "2025-10-07", Activity: duty},
				{Day: "Miércoles", Date: "2025-10-08", Activity: math},
				{Day: "Jueves", Date: "2025-10-09"},
				{Day: "Viernes", Date: "2025-10-10"},
			},
		}},
	}
	buf, err := Week(wv, entries{"a1_2025-10-06": {Planned: "Fracciones"}})
	require.NoError(t, err)
	assert.Equal(t, "horario-2025-10-06.xlsx", WeekFilename(wv))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	tests := []struct {
		cell string
		want string
	}{
		{"A1", "Hora"},
		{"B1", "Lunes 2025-10-06"},
		{"A2", "08:00-09:00"},
		{"B2", "Mates\nFracciones"},
		{"C2", "Guardia"},
		{"D2", "Mates"},
		{"E2", ""},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(weekSheet, tt.cell)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.cell)
	}

	// one style per color
	styleOf := func(cell string) int {
		id, err := f.GetCellStyle(weekSheet, cell)
		require.NoError(t, err)
		return id
	}
	assert.Equal(t, styleOf("B2"), styleOf("D2"))
	assert.NotEqual(t, styleOf("B2"), styleOf("C2"))
}

func TestStudent(t *testing.T) {
	sd := planner.StudentDetail{
		Student: planner.Student{ID: "s1", Name: "Ana  García", GeneralNotes: "Zurda"},
		Classes: []planner.Activity{{ID: "a1", Name: "Mates"}, {ID: "a3", Name: "Plástica"}},
		History: []planner.AnnotationItem{
			{Date: "2025-10-08", ActivityName: planner.DeletedActivityName, ActivityColor: planner.DeletedActivityColor, Annotation: "Olvidó el material"},
			{Date: "2025-10-06", ActivityName: "Mates", ActivityColor: "#FFADAD", Annotation: "Muy bien"},
		},
	}
	buf, err := Student(sd)
	require.NoError(t, err)
	assert.Equal(t, "alumno-ana-garcía.xlsx", StudentFilename(sd))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	tests := []struct {
		cell string
		want string
	}{
		{"A1", "Nombre"},
		{"B1", "Ana  García"},
		{"B2", "Zurda"},
		{"B3", "Mates, Plástica"},
		{"C5", "Anotación"},
		{"B6", planner.DeletedActivityName},
		{"C6", "Olvidó el material"},
		{"A7", "2025-10-06"},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(studentSheet, tt.cell)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.cell)
	}
}
