package analytics

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/userdeck-cli/internal/users"
)

func user(id, name string, age int, country, gender string) users.User {
	return users.User{ID: id, FirstName: name, Age: age, Country: country, Gender: gender}
}

func threeUsers() []users.User {
	return []users.User{
		{ID: "a", FirstName: "A", LastName: "One", Age: 25, Country: "US", Gender: "male"},
		{ID: "b", FirstName: "B", LastName: "Two", Age: 25, Country: "US", Gender: "female"},
		{ID: "c", FirstName: "C", LastName: "Three", Age: 40, Country: "CA", Gender: "male"},
	}
}

func TestSummarizeEmptyReturnsSentinel(t *testing.T) {
	want := Summary{
		TotalUsers:     0,
		AverageAge:     0,
		MedianAge:      0,
		OldestUser:     Person{DisplayName: "", Age: 0},
		YoungestUser:   Person{DisplayName: "", Age: 100},
		UsersByCountry: CountryCounts{},
	}
	assert.Equal(t, want, Summarize(nil))
	assert.Equal(t, want, Summarize([]users.User{}))
	assert.Equal(t, Percent(0), Summarize(nil).GenderDistribution.Male)
	assert.Equal(t, Percent(0), Summarize(nil).GenderDistribution.Female)
}

func TestSummarizeTiesAndDistributions(t *testing.T) {
	s := Summarize(threeUsers())

	assert.Equal(t, 3, s.TotalUsers)
	assert.Equal(t, Person{DisplayName: "C Three", Age: 40}, s.OldestUser)
	// youngest among equal ages is the last one in input order
	assert.Equal(t, Person{DisplayName: "B Two", Age: 25}, s.YoungestUser)
	assert.Equal(t, CountryCounts{{"US", 2}, {"CA", 1}}, s.UsersByCountry)
	assert.Equal(t, "66.7", s.GenderDistribution.Male.String())
	assert.Equal(t, "33.3", s.GenderDistribution.Female.String())
	assert.Equal(t, float64(25), s.MedianAge)
	assert.InDelta(t, 30.0, s.AverageAge, 1e-9)
}

func TestSummarizeOldestTieIsFirstInInput(t *testing.T) {
	list := []users.User{
		user("1", "First", 70, "X", "male"),
		user("2", "Second", 70, "X", "male"),
		user("3", "Young", 20, "X", "male"),
		user("4", "Younger", 20, "X", "male"),
	}
	s := Summarize(list)
	assert.Equal(t, "First ", s.OldestUser.DisplayName)
	assert.Equal(t, "Younger ", s.YoungestUser.DisplayName)
}

func TestMedianOddAndEven(t *testing.T) {
	mk := func(ages ...int) []users.User {
		out := make([]users.User, len(ages))
		for i, a := range ages {
			out[i] = users.User{ID: string(rune('a' + i)), Age: a}
		}
		return out
	}
	assert.Equal(t, float64(20), Summarize(mk(30, 10, 20)).MedianAge)
	assert.Equal(t, float64(25), Summarize(mk(10, 20, 30, 40)).MedianAge)
	assert.Equal(t, 25.5, Summarize(mk(26, 25)).MedianAge)
	assert.Equal(t, float64(7), Summarize(mk(7)).MedianAge)
}

func TestAverageTimesTotalEqualsSumOfAges(t *testing.T) {
	var list []users.User
	sum := 0
	for i := 0; i < 997; i++ {
		age := (i*37 + 11) % 90
		sum += age
		list = append(list, users.User{ID: string(rune(i)), Age: age})
	}
	s := Summarize(list)
	assert.Equal(t, len(list), s.TotalUsers)
	assert.InDelta(t, float64(sum), s.AverageAge*float64(s.TotalUsers), 1e-6)
}

func TestCountryTiesKeepFirstSeenOrder(t *testing.T) {
	list := []users.User{
		user("1", "a", 1, "Norway", ""),
		user("2", "b", 1, "Brazil", ""),
		user("3", "c", 1, "Chile", ""),
		user("4", "d", 1, "Chile", ""),
		user("5", "e", 1, "Brazil", ""),
		user("6", "f", 1, "Angola", ""),
	}
	got := Summarize(list).UsersByCountry
	assert.Equal(t, CountryCounts{{"Brazil", 2}, {"Chile", 2}, {"Norway", 1}, {"Angola", 1}}, got)
}

func TestCountryGroupingIsExactMatch(t *testing.T) {
	list := []users.User{
		user("1", "a", 1, "Canada", ""),
		user("2", "b", 1, "canada", ""),
		user("3", "c", 1, "Canada ", ""),
	}
	assert.Len(t, Summarize(list).UsersByCountry, 3)
}

func TestOtherGenderLabelsCountTowardTotalOnly(t *testing.T) {
	s := Summarize([]users.User{user("1", "x", 30, "US", "nonbinary")})
	assert.Equal(t, 1, s.TotalUsers)
	assert.Equal(t, Percent(0), s.GenderDistribution.Male)
	assert.Equal(t, Percent(0), s.GenderDistribution.Female)

	s = Summarize([]users.User{
		user("1", "x", 30, "US", "male"),
		user("2", "y", 30, "US", "other"),
		user("3", "z", 30, "US", "Female"),
	})
	assert.Equal(t, "33.3", s.GenderDistribution.Male.String())
	assert.Equal(t, "0.0", s.GenderDistribution.Female.String())
}

func TestPercentRounding(t *testing.T) {
	tests := []struct {
		n, total int
		want     string
	}{
		{1, 16, "6.3"},
		{2, 3, "66.7"},
		{1, 3, "33.3"},
		{23, 80, "28.7"},
		{41, 80, "51.2"},
		{51, 80, "63.7"},
		{46, 160, "28.7"},
		{5, 5, "100.0"},
		{1, 1000, "0.1"},
		{1, 2001, "0.0"},
		{3, 0, "0.0"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.n, tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, percentOf(tt.n, tt.total).String())
		})
	}
}

func TestSummarizeGenderShareFollowsFloatRounding(t *testing.T) {
	list := make([]users.User, 80)
	for i := range list {
		g := "female"
		if i < 23 {
			g = "male"
		}
		list[i] = user(fmt.Sprint(i), "u", 30, "US", g)
	}
	s := Summarize(list)
	assert.Equal(t, "28.7", s.GenderDistribution.Male.String())
	assert.Equal(t, "71.3", s.GenderDistribution.Female.String())
}

func TestPercentUnmarshalNullIsNoop(t *testing.T) {
	p := Percent(667)
	require.NoError(t, json.Unmarshal([]byte("null"), &p))
	assert.Equal(t, Percent(667), p)

	var g GenderDistribution
	require.NoError(t, json.Unmarshal([]byte(`{"male":null,"female":"12.5"}`), &g))
	assert.Equal(t, Percent(0), g.Male)
	assert.Equal(t, "12.5", g.Female.String())
}

func TestSummarizeDoesNotMutateInput(t *testing.T) {
	list := []users.User{
		user("1", "a", 50, "B", "male"),
		user("2", "b", 10, "A", "female"),
		user("3", "c", 30, "B", "male"),
	}
	snapshot := append([]users.User(nil), list...)
	_ = Summarize(list)
	assert.Equal(t, snapshot, list)
}

func TestSummarizeIsDeterministic(t *testing.T) {
	list := append(threeUsers(), user("d", "D", 33, "CA", "female"), user("e", "E", 33, "MX", "male"))
	first, err := json.Marshal(Summarize(list))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := json.Marshal(Summarize(list))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestSummarizeConcurrentCallers(t *testing.T) {
	list := threeUsers()
	want := Summarize(list)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, Summarize(list))
		}()
	}
	wg.Wait()
}

func TestSummaryJSONKeepsCountryOrder(t *testing.T) {
	list := []users.User{
		user("1", "a", 1, "Zambia", "male"),
		user("2", "b", 1, "Austria", "male"),
		user("3", "c", 1, "Austria", "male"),
	}
	b, err := json.Marshal(Summarize(list))
	require.NoError(t, err)
	body := string(b)
	assert.Contains(t, body, `"users_by_country":{"Austria":2,"Zambia":1}`)
	assert.Contains(t, body, `"gender_distribution":{"male":"100.0","female":"0.0"}`)

	var back Summary
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, Summarize(list), back)
}

func TestValidateReportsMalformedRecords(t *testing.T) {
	require.NoError(t, Validate(threeUsers()))

	_, err := SummarizeStrict([]users.User{user("1", "a", 3, "", ""), user("", "b", 4, "", "")})
	var mre *MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, 1, mre.Index)
	assert.Equal(t, "id", mre.Field)

	err = Validate([]users.User{user("x", "a", -1, "", "")})
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, "age", mre.Field)
	assert.Contains(t, err.Error(), "id=x")
}

func TestMarkdownSections(t *testing.T) {
	md := Summarize(threeUsers()).Markdown()
	for _, want := range []string{
		"[ANALYTICS SUMMARY]",
		"Total users: 3",
		"Average age: 30.0",
		"Median age: 25",
		"Oldest user: C Three (40)",
		"Youngest user: B Two (25)",
		"- US: 2",
		"- Male: 66.7%",
		"- Female: 33.3%",
	} {
		assert.Contains(t, md, want)
	}
	assert.True(t, strings.Index(md, "- US: 2") < strings.Index(md, "- CA: 1"))

	empty := Empty().Markdown()
	assert.Contains(t, empty, "(none)")
	assert.Contains(t, empty, "Youngest user: (unnamed) (100)")
}

func TestAverageNotRounded(t *testing.T) {
	s := Summarize([]users.User{user("1", "a", 1, "", ""), user("2", "b", 2, "", ""), user("3", "c", 2, "", "")})
	assert.False(t, math.Abs(s.AverageAge-1.7) < 1e-9)
	assert.InDelta(t, 5.0/3.0, s.AverageAge, 1e-12)
}
