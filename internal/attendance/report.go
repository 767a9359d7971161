package attendance

import (
	"context"
	"database/sql"
	"math"
	"time"
)

// Status classifies one record within a report.
type Status string

const (
	StatusComplete   Status = "complete"   // both times set
	StatusIncomplete Status = "incomplete" // time_in only
	StatusAbsent     Status = "absent"     // no record
)

// Reporter computes attendance statistics from the ledger. It is read-only.
type Reporter struct {
	db *sql.DB
}

// NewReporter creates a reporter.
func NewReporter(db *sql.DB) *Reporter {
	return &Reporter{db: db}
}

// DailyEntry is one user's attendance on the report date.
type DailyEntry struct {
	UserID      int64   `json:"user_id"`
	Username    string  `json:"username"`
	FullName    string  `json:"full_name"`
	ClassName   string  `json:"class_name"`
	TimeIn      string  `json:"time_in"`
	TimeOut     *string `json:"time_out"`
	Status      Status  `json:"status"`
	WorkMinutes *int    `json:"work_minutes"`
	WorkHours   float64 `json:"work_hours"`
}

// DailyStats aggregates one day.
type DailyStats struct {
	Date            string  `json:"date"`
	TotalPresent    int     `json:"total_present"`
	Complete        int     `json:"complete"`
	Incomplete      int     `json:"incomplete"`
	Absent          int     `json:"absent"`
	RegisteredUsers int     `json:"total_registered_users"`
	AttendanceRate  float64 `json:"attendance_rate"`
	TotalWorkHours  float64 `json:"total_work_hours"`
	AvgWorkHours    float64 `json:"avg_work_hours"`
}

// DailyReport lists everyone present on a date plus the day's stats.
type DailyReport struct {
	Date    string       `json:"date"`
	Entries []DailyEntry `json:"attendance"`
	Stats   DailyStats   `json:"stats"`
}

// Daily reports attendance for one calendar day. Admin accounts are outside
// the user base for both the listing and the rate denominator.
func (r *Reporter) Daily(ctx context.Context, date string) (DailyReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.user_id, u.username, u.full_name, COALESCE(c.name, '-'),
		       to_char(a.time_in, 'HH24:MI:SS'),
		       to_char(a.time_out, 'HH24:MI:SS'),
		       CASE WHEN a.time_out IS NOT NULL
		            THEN FLOOR(EXTRACT(EPOCH FROM (a.time_out - a.time_in)) / 60)::INT
		       END
		FROM attendance a
		JOIN users u ON u.id = a.user_id
		LEFT JOIN classes c ON c.id = u.class_id
		WHERE a.date = $1 AND u.role <> 'admin'
		ORDER BY a.time_in ASC
	`, date)
	if err != nil {
		return DailyReport{}, err
	}
	defer rows.Close()

	report := DailyReport{Date: date, Entries: []DailyEntry{}}
	totalMinutes := 0
	for rows.Next() {
		var e DailyEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.FullName, &e.ClassName,
			&e.TimeIn, &e.TimeOut, &e.WorkMinutes); err != nil {
			return DailyReport{}, err
		}
		if e.TimeOut != nil {
			e.Status = StatusComplete
			report.Stats.Complete++
		} else {
			e.Status = StatusIncomplete
			report.Stats.Incomplete++
		}
		if e.WorkMinutes != nil {
			totalMinutes += *e.WorkMinutes
			e.WorkHours = Round1(float64(*e.WorkMinutes) / 60)
		}
		report.Entries = append(report.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return DailyReport{}, err
	}

	registered, err := r.activeUserCount(ctx)
	if err != nil {
		return DailyReport{}, err
	}

	report.Stats.Date = date
	report.Stats.TotalPresent = len(report.Entries)
	report.Stats.RegisteredUsers = registered
	if absent := registered - report.Stats.TotalPresent; absent > 0 {
		report.Stats.Absent = absent
	}
	report.Stats.AttendanceRate = Rate(report.Stats.TotalPresent, registered)
	report.Stats.TotalWorkHours = Round1(float64(totalMinutes) / 60)
	if report.Stats.Complete > 0 {
		report.Stats.AvgWorkHours = Round1(report.Stats.TotalWorkHours / float64(report.Stats.Complete))
	}
	return report, nil
}

// WeeklyDay is one day inside a weekly report.
type WeeklyDay struct {
	Date           string  `json:"date"`
	DayName        string  `json:"day_name"`
	TotalPresent   int     `json:"total_present"`
	Complete       int     `json:"complete_count"`
	Incomplete     int     `json:"incomplete_count"`
	TotalUsers     int     `json:"total_users"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// WeeklySummary averages the week.
type WeeklySummary struct {
	WeekStart          string  `json:"week_start"`
	WeekEnd            string  `json:"week_end"`
	TotalPresent       int     `json:"total_weekly_present"`
	TotalComplete      int     `json:"total_weekly_complete"`
	AvgDailyAttendance float64 `json:"avg_daily_attendance"`
	AvgAttendanceRate  float64 `json:"avg_attendance_rate"`
}

// WeeklyReport covers seven consecutive days from the week start.
type WeeklyReport struct {
	Days    []WeeklyDay   `json:"weekly_data"`
	Summary WeeklySummary `json:"summary"`
}

// Weekly reports seven days starting at weekStart.
func (r *Reporter) Weekly(ctx context.Context, weekStart time.Time) (WeeklyReport, error) {
	weekEnd := weekStart.AddDate(0, 0, 6)

	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(a.date, 'YYYY-MM-DD'),
		       COUNT(*),
		       COUNT(a.time_out)
		FROM attendance a
		JOIN users u ON u.id = a.user_id
		WHERE a.date BETWEEN $1 AND $2 AND u.role <> 'admin'
		GROUP BY a.date
	`, weekStart.Format("2006-01-02"), weekEnd.Format("2006-01-02"))
	if err != nil {
		return WeeklyReport{}, err
	}
	defer rows.Close()

	type counts struct{ present, complete int }
	perDay := make(map[string]counts)
	for rows.Next() {
		var date string
		var c counts
		if err := rows.Scan(&date, &c.present, &c.complete); err != nil {
			return WeeklyReport{}, err
		}
		perDay[date] = c
	}
	if err := rows.Err(); err != nil {
		return WeeklyReport{}, err
	}

	registered, err := r.activeUserCount(ctx)
	if err != nil {
		return WeeklyReport{}, err
	}

	report := WeeklyReport{Days: make([]WeeklyDay, 0, 7)}
	var rateSum float64
	for d := 0; d < 7; d++ {
		day := weekStart.AddDate(0, 0, d)
		key := day.Format("2006-01-02")
		c := perDay[key]
		wd := WeeklyDay{
			Date:           key,
			DayName:        day.Weekday().String(),
			TotalPresent:   c.present,
			Complete:       c.complete,
			Incomplete:     c.present - c.complete,
			TotalUsers:     registered,
			AttendanceRate: Rate(c.present, registered),
		}
		rateSum += wd.AttendanceRate
		report.Summary.TotalPresent += wd.TotalPresent
		report.Summary.TotalComplete += wd.Complete
		report.Days = append(report.Days, wd)
	}

	report.Summary.WeekStart = weekStart.Format("2006-01-02")
	report.Summary.WeekEnd = weekEnd.Format("2006-01-02")
	report.Summary.AvgDailyAttendance = Round1(float64(report.Summary.TotalPresent) / 7)
	report.Summary.AvgAttendanceRate = Round1(rateSum / 7)
	return report, nil
}

// MonthlyRow is one user's aggregate for the month.
type MonthlyRow struct {
	UserID         int64   `json:"user_id"`
	Username       string  `json:"username"`
	FullName       string  `json:"full_name"`
	ClassName      string  `json:"class_name"`
	DaysPresent    int     `json:"days_present"`
	DaysComplete   int     `json:"days_complete"`
	DaysIncomplete int     `json:"days_incomplete"`
	TotalWorkHours float64 `json:"total_work_hours"`
	AvgWorkHours   float64 `json:"avg_work_hours"`
	AttendanceRate float64 `json:"attendance_rate"`
	FirstDate      string  `json:"first_attendance"`
	LastDate       string  `json:"last_attendance"`
}

// MonthlyReport aggregates one month per user.
type MonthlyReport struct {
	Year        int          `json:"year"`
	Month       int          `json:"month"`
	DaysInMonth int          `json:"days_in_month"`
	Rows        []MonthlyRow `json:"rows"`
}

// Monthly reports per-user aggregates for a month. The attendance-rate
// denominator is calendar days in the month, matching the source system.
func (r *Reporter) Monthly(ctx context.Context, year, month int) (MonthlyReport, error) {
	first, last := MonthRange(year, month)
	days := DaysInMonth(year, month)

	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.full_name, COALESCE(c.name, '-'),
		       COUNT(a.id),
		       COUNT(a.time_out),
		       COALESCE(SUM(EXTRACT(EPOCH FROM (a.time_out - a.time_in)) / 60), 0)::INT,
		       COALESCE(to_char(MIN(a.date), 'YYYY-MM-DD'), ''),
		       COALESCE(to_char(MAX(a.date), 'YYYY-MM-DD'), '')
		FROM users u
		LEFT JOIN classes c ON c.id = u.class_id
		LEFT JOIN attendance a ON a.user_id = u.id AND a.date BETWEEN $1 AND $2
		WHERE u.active AND u.role <> 'admin'
		GROUP BY u.id, u.username, u.full_name, c.name
		ORDER BY u.full_name
	`, first, last)
	if err != nil {
		return MonthlyReport{}, err
	}
	defer rows.Close()

	report := MonthlyReport{Year: year, Month: month, DaysInMonth: days, Rows: []MonthlyRow{}}
	for rows.Next() {
		var row MonthlyRow
		var totalMinutes int
		if err := rows.Scan(&row.UserID, &row.Username, &row.FullName, &row.ClassName,
			&row.DaysPresent, &row.DaysComplete, &totalMinutes, &row.FirstDate, &row.LastDate); err != nil {
			return MonthlyReport{}, err
		}
		row.DaysIncomplete = row.DaysPresent - row.DaysComplete
		row.TotalWorkHours = Round1(float64(totalMinutes) / 60)
		if row.DaysComplete > 0 {
			row.AvgWorkHours = Round1(row.TotalWorkHours / float64(row.DaysComplete))
		}
		row.AttendanceRate = Rate(row.DaysPresent, days)
		report.Rows = append(report.Rows, row)
	}
	return report, rows.Err()
}

// UserMonthlyDay is one day in a user's own monthly history.
type UserMonthlyDay struct {
	Date        string  `json:"date"`
	TimeIn      string  `json:"time_in"`
	TimeOut     *string `json:"time_out"`
	Status      Status  `json:"status"`
	WorkMinutes *int    `json:"work_minutes"`
	WorkHours   float64 `json:"work_hours"`
}

// UserMonthlyReport is the self-service monthly view.
type UserMonthlyReport struct {
	Year           int              `json:"year"`
	Month          int              `json:"month"`
	Days           []UserMonthlyDay `json:"attendance"`
	DaysPresent    int              `json:"present_days"`
	DaysComplete   int              `json:"complete_days"`
	DaysIncomplete int              `json:"incomplete_days"`
	TotalWorkHours float64          `json:"total_work_hours"`
	AvgWorkHours   float64          `json:"avg_work_hours"`
	AttendanceRate float64          `json:"attendance_rate"`
}

// UserMonthly reports one user's records for a month.
func (r *Reporter) UserMonthly(ctx context.Context, userID int64, year, month int) (UserMonthlyReport, error) {
	first, last := MonthRange(year, month)
	days := DaysInMonth(year, month)

	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD'),
		       to_char(time_in, 'HH24:MI:SS'),
		       to_char(time_out, 'HH24:MI:SS'),
		       CASE WHEN time_out IS NOT NULL
		            THEN FLOOR(EXTRACT(EPOCH FROM (time_out - time_in)) / 60)::INT
		       END
		FROM attendance
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date DESC
	`, userID, first, last)
	if err != nil {
		return UserMonthlyReport{}, err
	}
	defer rows.Close()

	report := UserMonthlyReport{Year: year, Month: month, Days: []UserMonthlyDay{}}
	totalMinutes := 0
	for rows.Next() {
		var d UserMonthlyDay
		if err := rows.Scan(&d.Date, &d.TimeIn, &d.TimeOut, &d.WorkMinutes); err != nil {
			return UserMonthlyReport{}, err
		}
		if d.TimeOut != nil {
			d.Status = StatusComplete
			report.DaysComplete++
		} else {
			d.Status = StatusIncomplete
			report.DaysIncomplete++
		}
		if d.WorkMinutes != nil {
			totalMinutes += *d.WorkMinutes
			d.WorkHours = Round1(float64(*d.WorkMinutes) / 60)
		}
		report.Days = append(report.Days, d)
	}
	if err := rows.Err(); err != nil {
		return UserMonthlyReport{}, err
	}

	report.DaysPresent = len(report.Days)
	report.TotalWorkHours = Round1(float64(totalMinutes) / 60)
	if report.DaysComplete > 0 {
		report.AvgWorkHours = Round1(report.TotalWorkHours / float64(report.DaysComplete))
	}
	report.AttendanceRate = Rate(report.DaysPresent, days)
	return report, nil
}

func (r *Reporter) activeUserCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE active AND role <> 'admin'`,
	).Scan(&n)
	return n, err
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Rate computes present/total as a percentage with one decimal. A zero
// denominator yields 0, never NaN.
func Rate(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round1(float64(present) / float64(total) * 100)
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -offset)
}

// DaysInMonth returns the number of calendar days in the month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the first and last dates of the month as YYYY-MM-DD.
func MonthRange(year, month int) (string, string) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format("2006-01-02"), last.Format("2006-01-02")
}
