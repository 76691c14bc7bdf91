// Package export renders planner views as spreadsheets.
package export

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/cuaderno/core/planner"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	weekSheet    = "Horario"
	studentSheet = "Alumno"
	slotHeader   = "Hora"
)

// EntryReader returns the class entry of an activity on a date.
type EntryReader interface {
	Entry(activityID, date string) (planner.ClassEntry, bool)
}

type workbook struct {
	f      *excelize.File
	sheet  string
	styles map[string]int // fill color -> style id
}

func newWorkbook(sheet string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &workbook{f: f, sheet: sheet, styles: make(map[string]int)}, nil
}

func (wb *workbook) set(col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return wb.f.SetCellValue(wb.sheet, cell, value)
}

// style applies a wrapped, top aligned style filled with color ("" for none) to the cell.
func (wb *workbook) style(col, row int, color string, bold bool) error {
	key := color
	if bold {
		key += "|bold"
	}
	id, ok := wb.styles[key]
	if !ok {
		st := &excelize.Style{
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
			Border: []excelize.Border{
				{Type: "left", Color: "#DDDDDD", Style: 1},
				{Type: "right", Color: "#DDDDDD", Style: 1},
				{Type: "top", Color: "#DDDDDD", Style: 1},
				{Type: "bottom", Color: "#DDDDDD", Style: 1},
			},
		}
		if color != "" {
			st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
		}
		if bold {
			st.Font = &excelize.Font{Bold: true}
		}
		var err error
		if id, err = wb.f.NewStyle(st); err != nil {
			return err
		}
		wb.styles[key] = id
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return wb.f.SetCellStyle(wb.sheet, cell, cell, id)
}

func (wb *workbook) write() (*bytes.Buffer, error) {
	defer func() { _ = wb.f.Close() }()
	return wb.f.WriteToBuffer()
}

func WeekFilename(wv planner.WeekView) string {
	return "horario-" + wv.Start + ".xlsx"
}

// Week renders the timetable: one row per time slot, one column per day, cells filled with
// the activity color and holding its name and, for classes, the planned contents.
func Week(wv planner.WeekView, entries EntryReader) (*bytes.Buffer, error) {
	wb, err := newWorkbook(weekSheet)
	if err != nil {
		return nil, errors.Wrap(err, "creating workbook")
	}
	if err = wb.week(wv, entries); err != nil {
		_ = wb.f.Close()
		return nil, errors.Wrap(err, "rendering week")
	}
	return wb.write()
}

func (wb *workbook) week(wv planner.WeekView, entries EntryReader) error {
	if err := wb.set(1, 1, slotHeader); err != nil {
		return err
	}
	if err := wb.style(1, 1, "", true); err != nil {
		return err
	}
	for i, day := range wv.Days {
		if err := wb.set(i+2, 1, day+" "+wv.Dates[i]); err != nil {
			return err
		}
		if err := wb.style(i+2, 1, "", true); err != nil {
			return err
		}
	}

	for r, row := range wv.Rows {
		rowIdx := r + 2
		if err := wb.set(1, rowIdx, row.Slot.Label); err != nil {
			return err
		}
		if err := wb.style(1, rowIdx, "", true); err != nil {
			return err
		}
		for c, cell := range row.Cells {
			if cell.Activity == nil {
				continue
			}
			text := cell.Activity.Name
			if cell.Activity.IsClass() {
				if e, ok := entries.Entry(cell.Activity.ID, cell.Date); ok && strings.TrimSpace(e.Planned) != "" {
					text += "\n" + e.Planned
				}
			}
			if err := wb.set(c+2, rowIdx, text); err != nil {
				return err
			}
			if err := wb.style(c+2, rowIdx, cell.Activity.Color, false); err != nil {
				return err
			}
		}
	}
	if err := wb.f.SetColWidth(wb.sheet, "A", "A", 14); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(wv.Days) + 1)
	if err != nil {
		return err
	}
	return wb.f.SetColWidth(wb.sheet, "B", last, 28)
}

func StudentFilename(sd planner.StudentDetail) string {
	name := strings.Join(strings.Fields(strings.ToLower(sd.Student.Name)), "-")
	if name == "" {
		name = sd.Student.ID
	}
	return "alumno-" + name + ".xlsx"
}

// Student renders a student's card: name, notes, classes and annotation history.
func Student(sd planner.StudentDetail) (*bytes.Buffer, error) {
	wb, err := newWorkbook(studentSheet)
	if err != nil {
		return nil, errors.Wrap(err, "creating workbook")
	}
	if err = wb.student(sd); err != nil {
		_ = wb.f.Close()
		return nil, errors.Wrap(err, "rendering student")
	}
	return wb.write()
}

func (wb *workbook) student(sd planner.StudentDetail) error {
	classes := make([]string, 0, len(sd.Classes))
	for _, a := range sd.Classes {
		classes = append(classes, a.Name)
	}
	header := [][2]string{
		{"Nombre", sd.Student.Name},
		{"Observaciones", sd.Student.GeneralNotes},
		{"Clases", strings.Join(classes, ", ")},
	}
	for i, kv := range header {
		if err := wb.set(1, i+1, kv[0]); err != nil {
			return err
		}
		if err := wb.style(1, i+1, "", true); err != nil {
			return err
		}
		if err := wb.set(2, i+1, kv[1]); err != nil {
			return err
		}
	}

	row := len(header) + 2
	for c, title := range []string{"Fecha", "Clase", "Anotación"} {
		if err := wb.set(c+1, row, title); err != nil {
			return err
		}
		if err := wb.style(c+1, row, "", true); err != nil {
			return err
		}
	}
	for _, item := range sd.History {
		row++
		if err := wb.set(1, row, item.Date); err != nil {
			return err
		}
		if err := wb.set(2, row, item.ActivityName); err != nil {
			return err
		}
		if err := wb.style(2, row, item.ActivityColor, false); err != nil {
			return err
		}
		if err := wb.set(3, row, item.Annotation); err != nil {
			return err
		}
	}
	if err := wb.f.SetColWidth(wb.sheet, "A", "B", 18); err != nil {
		return err
	}
	return wb.f.SetColWidth(wb.sheet, "C", "C", 60)
}
