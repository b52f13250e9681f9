package api

import (
	"net/http"
	"time"

	"alcyxob/gym-manager/internal/analytics"
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the role-shaped monthly dashboard.
type DashboardHandler struct {
	dashboardService service.DashboardService
	loc              *time.Location
}

// NewDashboardHandler creates a new DashboardHandler. loc decides the default month.
func NewDashboardHandler(dashboardService service.DashboardService, loc *time.Location) *DashboardHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardHandler{dashboardService: dashboardService, loc: loc}
}

// --- Response Structs ---
// Money is rendered as fixed two-decimal strings.

type FiguresResponse struct {
	Base               string `json:"baseRevenue"`
	OneOnOneAdjustment string `json:"oneOnOneAdjustment"`
	GroupAdjustment    string `json:"groupAdjustment"`
	Net                string `json:"netRevenue"`
	SalesCount         int    `json:"salesCount"`
}

type RosterEntryResponse struct {
	SubscriptionID string     `json:"subscriptionId"`
	ClientID       string     `json:"clientId"`
	ClientName     string     `json:"clientName"`
	PlanName       string     `json:"planName,omitempty"`
	SessionsUsed   int        `json:"sessionsUsed"`
	Units          int        `json:"units"`
	Progress       int        `json:"progressPercentage"`
	EndDate        *time.Time `json:"endDate,omitempty"`
}

type TrainerDashboardResponse struct {
	Figures FiguresResponse       `json:"figures"`
	Roster  []RosterEntryResponse `json:"roster"`
}

type TrainerSummaryResponse struct {
	TrainerID string          `json:"trainerId"`
	Name      string          `json:"name"`
	Active    int             `json:"activeClients"`
	Inactive  int             `json:"inactiveClients"`
	Total     int             `json:"totalClients"`
	Figures   FiguresResponse `json:"figures"`
}

type AdminDashboardResponse struct {
	Trainers     []TrainerSummaryResponse `json:"trainers"`
	SalesCount   int                      `json:"salesCount"`
	Revenue      string                   `json:"revenue"`
	Unattributed string                   `json:"unattributedRevenue"`
	Chart        []string                 `json:"chart"` // Jan..Dec of the year
}

type RecentSaleResponse struct {
	SubscriptionID string    `json:"subscriptionId"`
	ClientName     string    `json:"clientName"`
	PlanName       string    `json:"planName,omitempty"`
	TrainerName    string    `json:"trainerName,omitempty"`
	Date           time.Time `json:"date"`
}

type FrontDeskDashboardResponse struct {
	ActiveMembers int                  `json:"activeMembers"`
	VisitsToday   int64                `json:"visitsToday"`
	RecentSales   []RecentSaleResponse `json:"recentSales"`
}

type DashboardResponse struct {
	Role      domain.Role                 `json:"role"`
	Month     int                         `json:"month"`
	Year      int                         `json:"year"`
	Trainer   *TrainerDashboardResponse   `json:"trainer,omitempty"`
	Admin     *AdminDashboardResponse     `json:"admin,omitempty"`
	FrontDesk *FrontDeskDashboardResponse `json:"frontDesk,omitempty"`
}

func mapFigures(f analytics.TrainerFigures) FiguresResponse {
	return FiguresResponse{
		Base:               f.Base.StringFixed(2),
		OneOnOneAdjustment: f.OneOnOneAdjustment.StringFixed(2),
		GroupAdjustment:    f.GroupAdjustment.StringFixed(2),
		Net:                f.Net().StringFixed(2),
		SalesCount:         f.SalesCount,
	}
}

// MapDashboardToResponse renders whichever section the stats carry.
func MapDashboardToResponse(s *service.DashboardStats) DashboardResponse {
	resp := DashboardResponse{Role: s.Role, Month: s.Month, Year: s.Year}

	if t := s.Trainer; t != nil {
		roster := make([]RosterEntryResponse, len(t.Roster))
		for i, r := range t.Roster {
			roster[i] = RosterEntryResponse{
				SubscriptionID: r.SubscriptionID.Hex(),
				ClientID:       r.ClientID.Hex(),
				ClientName:     r.ClientName,
				PlanName:       r.PlanName,
				SessionsUsed:   r.SessionsUsed,
				Units:          r.Units,
				Progress:       r.Progress,
				EndDate:        r.EndDate,
			}
		}
		resp.Trainer = &TrainerDashboardResponse{Figures: mapFigures(t.Figures), Roster: roster}
	}

	if a := s.Admin; a != nil {
		rows := make([]TrainerSummaryResponse, len(a.Trainers))
		for i, t := range a.Trainers {
			rows[i] = TrainerSummaryResponse{
				TrainerID: t.TrainerID.Hex(),
				Name:      t.Name,
				Active:    t.Active,
				Inactive:  t.Inactive,
				Total:     t.Total,
				Figures:   mapFigures(t.Figures),
			}
		}
		chart := make([]string, len(a.Chart))
		for i, v := range a.Chart {
			chart[i] = v.StringFixed(2)
		}
		resp.Admin = &AdminDashboardResponse{
			Trainers:     rows,
			SalesCount:   a.SalesCount,
			Revenue:      a.Revenue.StringFixed(2),
			Unattributed: a.Unattributed.StringFixed(2),
			Chart:        chart,
		}
	}

	if fd := s.FrontDesk; fd != nil {
		sales := make([]RecentSaleResponse, len(fd.RecentSales))
		for i, r := range fd.RecentSales {
			sales[i] = RecentSaleResponse{
				SubscriptionID: r.SubscriptionID.Hex(),
				ClientName:     r.ClientName,
				PlanName:       r.PlanName,
				TrainerName:    r.TrainerName,
				Date:           r.Date,
			}
		}
		resp.FrontDesk = &FrontDeskDashboardResponse{ActiveMembers: fd.ActiveMembers, VisitsToday: fd.VisitsToday, RecentSales: sales}
	}
	return resp
}

// GetStats godoc
// @Summary Monthly dashboard
// @Description Trainers get their own revenue and roster, admins get every trainer plus totals, front desk gets member counts without prices.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param month query int false "Month 1-12, defaults to the current month"
// @Param year query int false "Year, defaults to the current year"
// @Success 200 {object} DashboardResponse
// @Failure 400 {object} gin.H "Invalid period"
// @Router /dashboard/stats [get]
func (h *DashboardHandler) GetStats(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	now := time.Now().In(h.loc)
	month, ok := parseIntQuery(c, "month", int(now.Month()))
	if !ok {
		return
	}
	year, ok := parseIntQuery(c, "year", now.Year())
	if !ok {
		return
	}

	stats, err := h.dashboardService.Stats(c.Request.Context(), actor, month, year)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapDashboardToResponse(stats))
}
