package pipeline

import (
	"sort"

	"github.com/meenmo/curvekit/bond"
)

// minTimeToMaturity discards bonds within about a week of redemption;
// their prices carry no curve information.
const minTimeToMaturity = 0.02

// MostLiquidByBucket selects the on-the-run quote set used for
// bootstrapping: the shortest bond plus, for each whole-year
// time-to-maturity bucket, the latest-issued bond in that bucket.
func MostLiquidByBucket(quotes []bond.Quote, maxYears int) []bond.Quote {
	eligible := make([]bond.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.TimeToMaturity() > minTimeToMaturity {
			eligible = append(eligible, q)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].TimeToMaturity() < eligible[j].TimeToMaturity()
	})

	selected := []bond.Quote{eligible[0]}
	seen := map[string]bool{eligible[0].ID: true}

	for year := 0; year < maxYears; year++ {
		lower, upper := float64(year), float64(year+1)
		var pick *bond.Quote
		for i := range eligible {
			q := &eligible[i]
			ttm := q.TimeToMaturity()
			if ttm <= lower || ttm > upper {
				continue
			}
			if pick == nil || q.IssueDate.After(pick.IssueDate) {
				pick = q
			}
		}
		if pick != nil && !seen[pick.ID] {
			selected = append(selected, *pick)
			seen[pick.ID] = true
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].MaturityDate.Before(selected[j].MaturityDate)
	})
	return selected
}
