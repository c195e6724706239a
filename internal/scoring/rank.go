package scoring

// Rank is the qualitative tier derived from a pace projection.
type Rank string

const (
	RankSS        Rank = "SS"
	RankSPlusPlus Rank = "S++"
	RankSPlus     Rank = "S+"
	RankS         Rank = "S"
	RankA         Rank = "A"
	RankB         Rank = "B"
	RankC         Rank = "C"
	RankUnranked  Rank = "unranked"
)

func (r Rank) String() string {
	return string(r)
}

type threshold struct {
	min  float64
	rank Rank
}

// highest first; the first threshold the projection reaches wins
var rankThresholds = []threshold{
	{15, RankSS},
	{13, RankSPlusPlus},
	{12, RankSPlus},
	{10, RankS},
	{7, RankA},
	{5, RankB},
	{1, RankC},
}

func RankOf(projection float64) Rank {
	for _, t := range rankThresholds {
		if projection >= t.min {
			return t.rank
		}
	}
	return RankUnranked
}
