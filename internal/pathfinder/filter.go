package pathfinder

import (
	"sort"

	"github.com/CLEPPathfinder/CP-Backend/internal/schools"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOption selects the ordering of a result list.
type SortOption string

const (
	SortByDistance     SortOption = "distance"
	SortByAlphabetical SortOption = "alphabetical"
)

// Selection is an exam a student has taken (or plans to take) with their
// score. A zero score means "just show schools that offer the exam".
type Selection struct {
	ExamID uint `json:"examId"`
	Score  int  `json:"score"`
}

// FilterByCourses keeps the schools that accept at least one of the selected
// exams with the supplied score. No selections means no filtering.
func FilterByCourses(list []schools.School, selections []Selection) []schools.School {
	if len(selections) == 0 {
		return list
	}

	out := make([]schools.School, 0, len(list))
	for _, school := range list {
		if acceptsAny(school, selections) {
			out = append(out, school)
		}
	}
	return out
}

func acceptsAny(school schools.School, selections []Selection) bool {
	for _, sel := range selections {
		for _, policy := range school.Policies {
			if policy.ExamID != sel.ExamID {
				continue
			}
			if sel.Score == 0 || sel.Score >= policy.MinScore {
				return true
			}
		}
	}
	return false
}

// Nearby annotates each school with its distance from the given point and
// drops anything beyond radius miles.
func Nearby(list []schools.School, center Coords, radius float64) []schools.School {
	out := make([]schools.School, 0, len(list))
	for _, school := range list {
		d := Distance(center.Lat, center.Lng, school.Latitude, school.Longitude)
		if d > radius {
			continue
		}
		dist := d
		school.Distance = &dist
		out = append(out, school)
	}
	return out
}

// Centroid returns the average position of a result set, used to center the
// map for a state search. Empty input yields the US center.
func Centroid(list []schools.School) Coords {
	if len(list) == 0 {
		return usCenter
	}
	var lat, lng float64
	for _, school := range list {
		lat += school.Latitude
		lng += school.Longitude
	}
	n := float64(len(list))
	return Coords{Lat: lat / n, Lng: lng / n}
}

// Sort orders schools by distance (unknown distances last) or by name using
// English-locale collation. The input slice is not modified.
func Sort(list []schools.School, by SortOption) []schools.School {
	out := make([]schools.School, len(list))
	copy(out, list)

	switch by {
	case SortByDistance:
		sort.SliceStable(out, func(i, j int) bool {
			di, dj := out[i].Distance, out[j].Distance
			if di == nil {
				return false
			}
			if dj == nil {
				return true
			}
			return *di < *dj
		})
	default:
		c := collate.New(language.AmericanEnglish)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Name, out[j].Name) < 0
		})
	}
	return out
}
