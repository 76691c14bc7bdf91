package planner

import "math/rand"

// Palette holds the pastel colors handed out to new activities.
var Palette = []string{"#FFADAD", "#FFD6A5", "#FDFFB6", "#CAFFBF", "#9BF6FF", "#A0C4FF", "#BDB2FF", "#FFC6FF"}

var randIntn = rand.Intn // mockable

// pickColor returns the first palette color no activity uses yet, or a random one when all are taken.
func pickColor(activities []Activity) string {
	used := make(map[string]bool, len(activities))
	for _, a := range activities {
		used[a.Color] = true
	}
	for _, c := range Palette {
		if !used[c] {
			return c
		}
	}
	return Palette[randIntn(len(Palette))]
}
