package engine

import "floatbt/internal/domain"

// Summarize derives the headline figures of a run from its records.
func Summarize(records []domain.DailyRecord) domain.Summary {
	s := domain.Summary{Days: len(records)}
	if len(records) == 0 {
		return s
	}

	sumReturn := 0.0
	for _, r := range records {
		s.TotalNewFloat += r.NewFloatAmount
		s.TotalPaymentsDue += r.PaymentsDueToday
		if r.ActiveFloatTotal > s.MaxActiveFloat {
			s.MaxActiveFloat = r.ActiveFloatTotal
		}
		sumReturn += r.DailyReturn
	}
	s.FinalCumulativeProfit = records[len(records)-1].CumulativeProfit
	s.MeanDailyReturn = sumReturn / float64(len(records))
	return s
}
