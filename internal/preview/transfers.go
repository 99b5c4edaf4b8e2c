package preview

import "fjacquet/ledger-import/internal/models"

// PairTransfers matches valid transfer legs. Two legs pair when they share a
// date and each names the other's account as its transfer target. Scanning
// is greedy in row order. It returns the pairs (the negative leg as Source
// when the signs differ) and the row numbers of legs left without a match.
func PairTransfers(rows []models.NormalizedRow) ([]models.TransferPair, []int) {
	var legs []models.NormalizedRow
	for _, r := range rows {
		if !r.HasError() && r.RowType == models.RowTypeTransfer {
			legs = append(legs, r)
		}
	}

	matched := make([]bool, len(legs))
	pairs := []models.TransferPair{}
	unpaired := []int{}

	for i := range legs {
		if matched[i] {
			continue
		}
		a := legs[i]
		for j := i + 1; j < len(legs); j++ {
			if matched[j] {
				continue
			}
			b := legs[j]
			if a.Raw.Date != b.Raw.Date || a.Raw.Account != b.Raw.Transfer || a.Raw.Transfer != b.Raw.Account {
				continue
			}
			matched[i], matched[j] = true, true
			pair := models.TransferPair{Source: a.Number, Dest: b.Number}
			if isNegative(b) && !isNegative(a) {
				pair = models.TransferPair{Source: b.Number, Dest: a.Number}
			}
			pairs = append(pairs, pair)
			break
		}
		if !matched[i] {
			unpaired = append(unpaired, a.Number)
		}
	}

	return pairs, unpaired
}

func isNegative(r models.NormalizedRow) bool {
	return r.ParsedAmount != nil && *r.ParsedAmount < 0
}
