package executor

import (
	"fjacquet/ledger-import/internal/currencyutils"
	"fjacquet/ledger-import/internal/models"
)

// Transfer failure reasons.
const (
	ReasonPairNotFound = "transfer pair not found"
	ReasonPairSameSign = "transfer pair has same sign amounts"
)

type transferPair struct {
	source *parsedRow
	dest   *parsedRow
}

func failed(r *parsedRow, reason string) models.FailedRow {
	return models.FailedRow{RowNumber: r.number, Data: r.raw(), Error: reason}
}

// pairTransfers matches transfer legs greedily in row order. Two legs pair
// when they share a date and mirror each other's account and transfer
// fields. The negative leg becomes the source.
func pairTransfers(candidates []*parsedRow) ([]transferPair, []models.FailedRow) {
	matched := make([]bool, len(candidates))
	var pairs []transferPair
	var failures []models.FailedRow

	for i, a := range candidates {
		if matched[i] {
			continue
		}
		found := false
		for j := i + 1; j < len(candidates); j++ {
			b := candidates[j]
			if matched[j] || !a.date.Equal(b.date) || a.account != b.transfer || a.transfer != b.account {
				continue
			}
			matched[i], matched[j] = true, true
			found = true

			if currencyutils.IsNegative(a.amount) == currencyutils.IsNegative(b.amount) {
				failures = append(failures, failed(a, ReasonPairSameSign), failed(b, ReasonPairSameSign))
				break
			}

			source, dest := a, b
			if currencyutils.IsNegative(b.amount) {
				source, dest = b, a
			}
			pairs = append(pairs, transferPair{source: source, dest: dest})
			break
		}
		if !found {
			failures = append(failures, failed(a, ReasonPairNotFound))
		}
	}
	return pairs, failures
}
