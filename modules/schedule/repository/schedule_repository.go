package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smart-schedule/core/constants"
	"smart-schedule/core/database"
	"smart-schedule/modules/schedule/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ScheduleRepository interface {
	// GetByHostID returns the host's default schedule, or nil when it has none.
	GetByHostID(ctx context.Context, hostID uuid.UUID) (*entity.Schedule, error)
}

type scheduleRepository struct {
	db database.Database
}

func NewScheduleRepository(db database.Database) ScheduleRepository {
	return &scheduleRepository{db: db}
}

type ruleRow struct {
	Days      pq.Int64Array `db:"days"`
	StartTime string        `db:"start_time"`
	EndTime   string        `db:"end_time"`
}

type overrideRow struct {
	Date      time.Time      `db:"date"`
	StartTime sql.NullString `db:"start_time"`
	EndTime   sql.NullString `db:"end_time"`
}

func (r *scheduleRepository) GetByHostID(ctx context.Context, hostID uuid.UUID) (*entity.Schedule, error) {
	query := `
		SELECT id, host_id, name, timezone, created_at, updated_at
		FROM schedules
		WHERE host_id = $1 AND is_default = true
		ORDER BY created_at DESC
		LIMIT 1
	`
	var schedule entity.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, hostID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get schedule for host %s: %w", hostID, err)
	}

	var rules []ruleRow
	rulesQuery := `
		SELECT days, start_time, end_time
		FROM schedule_rules
		WHERE schedule_id = $1
		ORDER BY position, start_time
	`
	if err := r.db.SelectContext(ctx, &rules, rulesQuery, schedule.ID); err != nil {
		return nil, fmt.Errorf("list rules of schedule %s: %w", schedule.ID, err)
	}
	for _, row := range rules {
		rule := entity.WeeklyRule{
			TimeWindow: entity.TimeWindow{Start: entity.Clock(row.StartTime), End: entity.Clock(row.EndTime)},
		}
		for _, d := range row.Days {
			rule.Days = append(rule.Days, time.Weekday(d))
		}
		schedule.Rules = append(schedule.Rules, rule)
	}

	// A row without times marks the whole date unavailable.
	var overrides []overrideRow
	overridesQuery := `
		SELECT date, start_time, end_time
		FROM schedule_overrides
		WHERE schedule_id = $1
		ORDER BY date, start_time NULLS FIRST
	`
	if err := r.db.SelectContext(ctx, &overrides, overridesQuery, schedule.ID); err != nil {
		return nil, fmt.Errorf("list overrides of schedule %s: %w", schedule.ID, err)
	}
	schedule.Overrides = groupOverrides(overrides)

	return &schedule, nil
}

func groupOverrides(rows []overrideRow) []entity.DateOverride {
	var out []entity.DateOverride
	index := make(map[string]int)
	for _, row := range rows {
		date := row.Date.Format(constants.DateLayout)
		k, ok := index[date]
		if !ok {
			out = append(out, entity.DateOverride{Date: date})
			k = len(out) - 1
			index[date] = k
		}
		if !row.StartTime.Valid || !row.EndTime.Valid {
			out[k].Unavailable = true
			out[k].Windows = nil
			continue
		}
		if out[k].Unavailable {
			continue
		}
		out[k].Windows = append(out[k].Windows, entity.TimeWindow{
			Start: entity.Clock(row.StartTime.String),
			End:   entity.Clock(row.EndTime.String),
		})
	}
	return out
}
