package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/merosman91/Agricultural-Tractor/internal/domain"
)

// List returns copies of the records matching every non-zero filter field.
// Customer matches a case-insensitive substring of the name or phone.
func (s *RecordStore) List(filter RecordFilter) []*domain.WorkRecord {
	customer := strings.ToLower(strings.TrimSpace(filter.Customer))

	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyRecords(s.records, func(r *domain.WorkRecord) bool {
		if filter.Date != "" && r.Date != filter.Date {
			return false
		}
		if customer != "" &&
			!strings.Contains(strings.ToLower(r.CustomerName), customer) &&
			!strings.Contains(strings.ToLower(r.Phone), customer) {
			return false
		}
		if filter.PaymentStatus != "" && r.PaymentStatus != filter.PaymentStatus {
			return false
		}
		if filter.WorkType != "" && !strings.EqualFold(r.WorkType, filter.WorkType) {
			return false
		}
		return true
	})
}

// Search matches query case-insensitively against name, phone, location and
// notes. A blank query returns everything.
func (s *RecordStore) Search(query string) []*domain.WorkRecord {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	if q == "" {
		return copyRecords(s.records, nil)
	}
	return copyRecords(s.records, func(r *domain.WorkRecord) bool {
		for _, field := range []string{r.CustomerName, r.Phone, r.Location, r.Notes} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	})
}

// Stats computes dashboard counters. It does not mutate the store.
func (s *RecordStore) Stats() domain.Stats {
	today := s.now().Format(domain.DateLayout)

	s.mu.RLock()
	defer s.mu.RUnlock()

	st := domain.Stats{RecordCount: len(s.records)}
	customers := make(map[string]struct{})
	workTypes := make(map[string]int)
	for _, r := range s.records {
		st.TotalHours += r.Hours
		st.TotalEarnings += r.TotalAmount
		if r.PaymentStatus != domain.PaymentPaid {
			st.UnpaidAmount += r.TotalAmount
		}
		if r.Date == today {
			st.TodayHours += r.Hours
		}
		customers[r.CustomerName] = struct{}{}
		workTypes[r.WorkTypeLabel()]++
	}
	st.TotalCustomers = len(customers)
	st.MostCommonWork = mostCommon(workTypes)
	return st
}

// mostCommon picks the highest count, breaking ties alphabetically.
func mostCommon(counts map[string]int) string {
	best, bestCount := domain.UnspecifiedWorkType, 0
	for label, n := range counts {
		if n > bestCount || (n == bestCount && label < best) {
			best, bestCount = label, n
		}
	}
	return best
}

// TopCustomers ranks customers by total billed amount. limit <= 0 means 5.
func (s *RecordStore) TopCustomers(limit int) []domain.TopCustomer {
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	byName := make(map[string]*domain.TopCustomer)
	var order []string
	for _, r := range s.records {
		tc, ok := byName[r.CustomerName]
		if !ok {
			tc = &domain.TopCustomer{Name: r.CustomerName, Phone: r.Phone, Location: r.Location, LastVisit: r.Date}
			byName[r.CustomerName] = tc
			order = append(order, r.CustomerName)
		}
		tc.TotalHours += r.Hours
		tc.TotalAmount += r.TotalAmount
		tc.Location = domain.CoalesceStr(tc.Location, r.Location)
		if r.Date > tc.LastVisit {
			tc.LastVisit = r.Date
		}
	}
	s.mu.RUnlock()

	out := make([]domain.TopCustomer, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalAmount != out[j].TotalAmount {
			return out[i].TotalAmount > out[j].TotalAmount
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Upcoming returns records dated from today through today+days, earliest
// first. days <= 0 means 7.
func (s *RecordStore) Upcoming(days int) []*domain.WorkRecord {
	if days <= 0 {
		days = 7
	}
	now := s.now()
	from := now.Format(domain.DateLayout)
	to := now.AddDate(0, 0, days).Format(domain.DateLayout)

	s.mu.RLock()
	out := copyRecords(s.records, func(r *domain.WorkRecord) bool {
		return r.Date >= from && r.Date <= to
	})
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// MonthSummary totals the records dated in the given calendar month.
func (s *RecordStore) MonthSummary(year, month int) domain.MonthSummary {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	sum := domain.MonthSummary{Year: year, Month: month}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if !strings.HasPrefix(r.Date, prefix) {
			continue
		}
		sum.RecordCount++
		sum.Hours += r.Hours
		sum.Earnings += r.TotalAmount
	}
	return sum
}
