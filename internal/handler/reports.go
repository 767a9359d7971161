package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"absensi/internal/attendance"
)

// DailyReport returns one day's attendance, defaulting to today.
func (h *Handler) DailyReport(c *gin.Context) {
	date := c.DefaultQuery("date", time.Now().Format("2006-01-02"))
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return
	}
	report, err := h.Reports.Daily(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// WeeklyReport returns seven days starting at week_start, defaulting to the
// Monday of the current week.
func (h *Handler) WeeklyReport(c *gin.Context) {
	start := attendance.WeekStart(time.Now())
	if v := c.Query("week_start"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid week_start, want YYYY-MM-DD"})
			return
		}
		start = parsed
	}
	report, err := h.Reports.Weekly(c.Request.Context(), start)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// MonthlyReport returns per-user aggregates for a month, defaulting to the
// current one.
func (h *Handler) MonthlyReport(c *gin.Context) {
	year, month, ok := yearMonth(c)
	if !ok {
		return
	}
	report, err := h.Reports.Monthly(c.Request.Context(), year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// PhotoStats reports stored photo counts around the retention cutoff.
func (h *Handler) PhotoStats(c *gin.Context) {
	cutoff := time.Now().AddDate(0, 0, -h.Cfg.PhotoRetention).Format("2006-01-02")
	old, recent, err := h.Ledger.PhotoStats(c.Request.Context(), cutoff)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cutoff":         cutoff,
		"retention_days": h.Cfg.PhotoRetention,
		"old_photos":     old,
		"recent_photos":  recent,
	})
}
