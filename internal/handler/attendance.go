package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"absensi/internal/attendance"
)

// CheckIn handles the clock-in form: latitude, longitude and a selfie.
func (h *Handler) CheckIn(c *gin.Context) {
	h.clock(c, h.Attendance.CheckIn)
}

// CheckOut handles the clock-out form.
func (h *Handler) CheckOut(c *gin.Context) {
	h.clock(c, h.Attendance.CheckOut)
}

func (h *Handler) clock(c *gin.Context, fn func(ctx context.Context, req attendance.Request) (attendance.Result, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	lat, err1 := strconv.ParseFloat(c.PostForm("latitude"), 64)
	lon, err2 := strconv.ParseFloat(c.PostForm("longitude"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude form fields required"})
		return
	}

	req := attendance.Request{UserID: userID, Latitude: lat, Longitude: lon}
	if file, header, err := c.Request.FormFile("photo"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read photo"})
			return
		}
		req.Filename = header.Filename
		req.Photo = data
	}

	res, err := fn(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(statusFor(res.Code), res)
}

func statusFor(code attendance.Code) int {
	switch code {
	case attendance.CodeOK:
		return http.StatusOK
	case attendance.CodeAlreadyCheckedIn, attendance.CodeAlreadyCheckedOut, attendance.CodeNotCheckedIn:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// Today returns the caller's attendance record for the current day.
func (h *Handler) Today(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	date := time.Now().Format("2006-01-02")
	rec, err := h.Ledger.Get(c.Request.Context(), userID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusOK, gin.H{"date": date, "checked_in": false})
		return
	}

	resp := gin.H{
		"date":        rec.Date,
		"checked_in":  true,
		"checked_out": rec.TimeOut != nil,
		"time_in":     rec.TimeIn,
		"time_out":    rec.TimeOut,
	}
	if rec.TimeOut != nil {
		if d, err := attendance.FormatDuration(rec.TimeIn, *rec.TimeOut); err == nil {
			resp["duration"] = d
		}
	}
	c.JSON(http.StatusOK, resp)
}

// MyMonthly returns the caller's own monthly history, defaulting to the
// current month.
func (h *Handler) MyMonthly(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	year, month, ok := yearMonth(c)
	if !ok {
		return
	}
	report, err := h.Reports.UserMonthly(c.Request.Context(), userID, year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func yearMonth(c *gin.Context) (int, int, bool) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if v := c.Query("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return 0, 0, false
		}
		year = parsed
	}
	if v := c.Query("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
			return 0, 0, false
		}
		month = parsed
	}
	return year, month, true
}
