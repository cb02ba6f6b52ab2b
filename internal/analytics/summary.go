package analytics

import (
	"sort"

	"github.com/KaramelBytes/userdeck-cli/internal/users"
)

// emptyYoungestAge is the youngest-user age reported for an empty dataset.
// It is kept at 100 for compatibility with existing consumers even though 0
// would mirror the oldest-user sentinel.
const emptyYoungestAge = 100

// Person identifies one user by display label and age.
type Person struct {
	DisplayName string `json:"display_name"`
	Age         int    `json:"age"`
}

// GenderDistribution holds the share of users labelled "male" and "female".
// Other labels count toward the total only, so the two values need not sum to 100.
type GenderDistribution struct {
	Male   Percent `json:"male"`
	Female Percent `json:"female"`
}

// Summary is an immutable snapshot of aggregate statistics over a user list.
type Summary struct {
	TotalUsers         int                `json:"total_users"`
	AverageAge         float64            `json:"average_age"`
	MedianAge          float64            `json:"median_age"`
	OldestUser         Person             `json:"oldest_user"`
	YoungestUser       Person             `json:"youngest_user"`
	UsersByCountry     CountryCounts      `json:"users_by_country"`
	GenderDistribution GenderDistribution `json:"gender_distribution"`
}

// Empty returns the summary reported for a dataset with no users.
func Empty() Summary {
	return Summary{
		OldestUser:     Person{DisplayName: "", Age: 0},
		YoungestUser:   Person{DisplayName: "", Age: emptyYoungestAge},
		UsersByCountry: CountryCounts{},
	}
}

// Summarize computes aggregate statistics over list. It never fails, never
// modifies list and keeps no reference to it after returning.
//
// Oldest and youngest users come from a single stable sort by age descending:
// the oldest is its first element and the youngest its last. Among users tied
// for the maximum age the earliest in list wins; among users tied for the
// minimum age the latest in list wins.
func Summarize(list []users.User) Summary {
	n := len(list)
	if n == 0 {
		return Empty()
	}

	ages := make([]int, n)
	total := 0
	for i, u := range list {
		ages[i] = u.Age
		total += u.Age
	}

	byAge := make([]users.User, n)
	copy(byAge, list)
	sort.SliceStable(byAge, func(i, j int) bool { return byAge[i].Age > byAge[j].Age })
	oldest, youngest := byAge[0], byAge[n-1]

	var male, female int
	for _, u := range list {
		switch u.Gender {
		case "male":
			male++
		case "female":
			female++
		}
	}

	return Summary{
		TotalUsers:     n,
		AverageAge:     float64(total) / float64(n),
		MedianAge:      median(ages),
		OldestUser:     Person{DisplayName: oldest.DisplayName(), Age: oldest.Age},
		YoungestUser:   Person{DisplayName: youngest.DisplayName(), Age: youngest.Age},
		UsersByCountry: countByCountry(list),
		GenderDistribution: GenderDistribution{
			Male:   percentOf(male, n),
			Female: percentOf(female, n),
		},
	}
}

// SummarizeStrict validates every record before summarizing.
func SummarizeStrict(list []users.User) (Summary, error) {
	if err := Validate(list); err != nil {
		return Summary{}, err
	}
	return Summarize(list), nil
}

// median sorts vals in place and returns its middle value, or the mean of the
// two middle values for an even count.
func median(vals []int) float64 {
	if len(vals) == 0 {
		return 0
	}
	sort.Ints(vals)
	mid := len(vals) / 2
	if len(vals)%2 != 0 {
		return float64(vals[mid])
	}
	return float64(vals[mid-1]+vals[mid]) / 2
}

func countByCountry(list []users.User) CountryCounts {
	idx := make(map[string]int)
	out := CountryCounts{}
	for _, u := range list {
		if i, ok := idx[u.Country]; ok {
			out[i].Count++
			continue
		}
		idx[u.Country] = len(out)
		out = append(out, CountryCount{Country: u.Country, Count: 1})
	}
	// stable: equal counts keep first-seen order
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
