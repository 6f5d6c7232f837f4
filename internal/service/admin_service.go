package service

import (
	"context"
	"sort"
	"time"

	"yatrinivas/internal/models"
	"yatrinivas/internal/repository"
)

const recentBookingsLimit = 5

// LodgeRevenue is the booked value of one lodge.
type LodgeRevenue struct {
	LodgeID   string  `json:"lodge_id"`
	LodgeName string  `json:"lodge_name"`
	Bookings  int     `json:"bookings"`
	Revenue   float64 `json:"revenue"`
}

// MonthRevenue is paid revenue by creation month.
type MonthRevenue struct {
	Month    string  `json:"month"`
	Bookings int     `json:"bookings"`
	Revenue  float64 `json:"revenue"`
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalRevenue      float64                      `json:"total_revenue"`
	TotalBookings     int                          `json:"total_bookings"`
	ThisMonthBookings int                          `json:"this_month_bookings"`
	ThisMonthRevenue  float64                      `json:"this_month_revenue"`
	TotalLodges       int                          `json:"total_lodges"`
	AvailableLodges   int                          `json:"available_lodges"`
	StatusCounts      map[models.BookingStatus]int `json:"status_counts"`
	LodgeRevenue      []LodgeRevenue               `json:"lodge_revenue"`
	MonthlyRevenue    []MonthRevenue               `json:"monthly_revenue"`
	RecentBookings    []*models.Booking            `json:"recent_bookings"`
}

// AdminService computes dashboard statistics.
type AdminService struct {
	lodges   LodgeRepository
	bookings BookingRepository
	now      func() time.Time
}

func NewAdminService(lodges LodgeRepository, bookings BookingRepository) *AdminService {
	return &AdminService{lodges: lodges, bookings: bookings, now: time.Now}
}

func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	lodges, err := s.lodges.List(ctx, repository.OrderCreatedDesc)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.List(ctx, repository.OrderCreatedDesc)
	if err != nil {
		return nil, err
	}
	return ComputeStats(lodges, bookings, s.now()), nil
}

// ComputeStats derives the dashboard from bookings ordered newest first.
// Revenue totals count paid bookings only; per-lodge revenue counts every booking
// referencing the lodge.
func ComputeStats(lodges []*models.Lodge, bookings []*models.Booking, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		TotalBookings:  len(bookings),
		TotalLodges:    len(lodges),
		StatusCounts:   make(map[models.BookingStatus]int),
		LodgeRevenue:   make([]LodgeRevenue, 0, len(lodges)),
		MonthlyRevenue: make([]MonthRevenue, 0),
		RecentBookings: make([]*models.Booking, 0, recentBookingsLimit),
	}

	for _, l := range lodges {
		if l.Available {
			stats.AvailableLodges++
		}
	}

	byLodge := make(map[string]*LodgeRevenue, len(lodges))
	byMonth := make(map[string]*MonthRevenue)

	for _, b := range bookings {
		stats.StatusCounts[b.Status]++

		created := b.CreatedDate.In(now.Location())
		sameMonth := created.Year() == now.Year() && created.Month() == now.Month()
		if sameMonth {
			stats.ThisMonthBookings++
		}

		if b.IsPaid() {
			stats.TotalRevenue += b.TotalPrice
			if sameMonth {
				stats.ThisMonthRevenue += b.TotalPrice
			}
			key := created.Format("2006-01")
			m, ok := byMonth[key]
			if !ok {
				m = &MonthRevenue{Month: key}
				byMonth[key] = m
			}
			m.Bookings++
			m.Revenue += b.TotalPrice
		}

		lr, ok := byLodge[b.LodgeID]
		if !ok {
			lr = &LodgeRevenue{LodgeID: b.LodgeID, LodgeName: b.LodgeName}
			byLodge[b.LodgeID] = lr
		}
		lr.Bookings++
		lr.Revenue += b.TotalPrice

		if len(stats.RecentBookings) < recentBookingsLimit {
			stats.RecentBookings = append(stats.RecentBookings, b)
		}
	}

	for _, l := range lodges {
		lr := LodgeRevenue{LodgeID: l.ID, LodgeName: l.Name}
		if got, ok := byLodge[l.ID]; ok {
			lr.Bookings, lr.Revenue = got.Bookings, got.Revenue
		}
		stats.LodgeRevenue = append(stats.LodgeRevenue, lr)
	}
	sort.SliceStable(stats.LodgeRevenue, func(i, j int) bool {
		return stats.LodgeRevenue[i].Revenue > stats.LodgeRevenue[j].Revenue
	})

	for _, m := range byMonth {
		stats.MonthlyRevenue = append(stats.MonthlyRevenue, *m)
	}
	sort.Slice(stats.MonthlyRevenue, func(i, j int) bool {
		return stats.MonthlyRevenue[i].Month < stats.MonthlyRevenue[j].Month
	})

	return stats
}
