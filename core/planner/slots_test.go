package planner

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(slots []TimeSlot) []string {
	ls := make([]string, 0, len(slots))
	for _, s := range slots {
		ls = append(ls, s.Label)
	}
	return ls
}

func TestGenerateSlots(t *testing.T) {
	tests := []struct {
		name string
		in   GenerateTimeSlots
		want []string
	}{
		{
			name: "classes only",
			in:   GenerateTimeSlots{Start: "08:00", End: "10:00", ClassMinutes: 55},
			want: []string{"08:00-08:55", "08:55-09:50"},
		},
		{
			name: "exact fit",
			in:   GenerateTimeSlots{Start: "08:00", End: "10:00", ClassMinutes: 60},
			want: []string{"08:00-09:00", "09:00-10:00"},
		},
		{
			name: "break in the middle",
			in:   GenerateTimeSlots{Start: "08:00", End: "12:00", ClassMinutes: 60, BreakMinutes: 30, BreakStart: "10:00"},
			want: []string{"08:00-09:00", "09:00-10:00", "10:00-10:30", "10:30-11:30"},
		},
		{
			name: "break without start is ignored",
			in:   GenerateTimeSlots{Start: "08:00", End: "10:00", ClassMinutes: 60, BreakMinutes: 30},
			want: []string{"08:00-09:00", "09:00-10:00"},
		},
		{
			name: "break start not reached by a class boundary",
			in:   GenerateTimeSlots{Start: "08:00", End: "10:00", ClassMinutes: 45, BreakMinutes: 15, BreakStart: "09:00"},
			want: []string{"08:00-08:45", "08:45-09:30"},
		},
		{
			name: "end before start",
			in:   GenerateTimeSlots{Start: "10:00", End: "08:00", ClassMinutes: 60},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := GenerateSlots(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, labels(slots))
			for i, s := range slots {
				assert.Equal(t, i, s.Order)
				assert.NotEmpty(t, s.ID)
			}
		})
	}
}

func TestGenerateSlots_invalid(t *testing.T) {
	tests := []struct {
		name string
		in   GenerateTimeSlots
	}{
		{name: "bad start", in: GenerateTimeSlots{Start: "8h", End: "10:00", ClassMinutes: 60}},
		{name: "bad end", in: GenerateTimeSlots{Start: "08:00", End: "", ClassMinutes: 60}},
		{name: "bad break start", in: GenerateTimeSlots{Start: "08:00", End: "10:00", ClassMinutes: 60, BreakStart: "x:y"}},
		{name: "no duration", in: GenerateTimeSlots{Start: "08:00", End: "10:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateSlots(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestPickColor(t *testing.T) {
	randIntn = func(int) int { return 2 }
	defer func() { randIntn = rand.Intn }()

	assert.Equal(t, Palette[0], pickColor(nil))
	assert.Equal(t, Palette[1], pickColor([]Activity{{Color: Palette[0]}, {Color: "#000000"}}))

	all := make([]Activity, 0, len(Palette))
	for _, c := range Palette {
		all = append(all, Activity{Color: c})
	}
	assert.Equal(t, Palette[2], pickColor(all))
}
