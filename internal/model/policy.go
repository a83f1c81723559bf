package model

import (
	"errors"
	"fmt"
	"time"
)

// Policy правила формирования меню и поиска свободных слотов
type Policy struct {
	WorkingHoursStart   int `yaml:"working_hours_start"`
	WorkingHoursEnd     int `yaml:"working_hours_end"`
	SlotIntervalMinutes int `yaml:"slot_interval_minutes"`
	DaysAhead           int `yaml:"days_ahead"`
	MenuSize            int `yaml:"menu_size"`
	GranularityMinutes  int `yaml:"granularity_minutes"`
	MaxLookahead        int `yaml:"max_lookahead"`
}

// DefaultPolicy рабочие часы 9-17, слот раз в час, неделя вперёд
func DefaultPolicy() Policy {
	return Policy{
		WorkingHoursStart:   9,
		WorkingHoursEnd:     17,
		SlotIntervalMinutes: 60,
		DaysAhead:           7,
		MenuSize:            5,
		GranularityMinutes:  15,
		MaxLookahead:        16,
	}
}

// Granularity шаг сетки слотов
func (p Policy) Granularity() time.Duration {
	return time.Duration(p.GranularityMinutes) * time.Minute
}

// SlotInterval шаг между слотами в меню
func (p Policy) SlotInterval() time.Duration {
	return time.Duration(p.SlotIntervalMinutes) * time.Minute
}

// Validate проверяет согласованность значений
func (p Policy) Validate() error {
	var errs []error

	if p.WorkingHoursStart < 0 || p.WorkingHoursStart > 23 {
		errs = append(errs, fmt.Errorf("working_hours_start must be within 0..23, got %d", p.WorkingHoursStart))
	}
	if p.WorkingHoursEnd < 1 || p.WorkingHoursEnd > 24 {
		errs = append(errs, fmt.Errorf("working_hours_end must be within 1..24, got %d", p.WorkingHoursEnd))
	}
	if p.WorkingHoursStart >= p.WorkingHoursEnd {
		errs = append(errs, fmt.Errorf("working_hours_start (%d) must be before working_hours_end (%d)", p.WorkingHoursStart, p.WorkingHoursEnd))
	}
	if p.GranularityMinutes <= 0 || 60%p.GranularityMinutes != 0 {
		errs = append(errs, fmt.Errorf("granularity_minutes must divide 60, got %d", p.GranularityMinutes))
	}
	if p.SlotIntervalMinutes <= 0 {
		errs = append(errs, fmt.Errorf("slot_interval_minutes must be positive, got %d", p.SlotIntervalMinutes))
	} else if p.GranularityMinutes > 0 && p.SlotIntervalMinutes%p.GranularityMinutes != 0 {
		errs = append(errs, fmt.Errorf("slot_interval_minutes (%d) must be a multiple of granularity_minutes (%d)", p.SlotIntervalMinutes, p.GranularityMinutes))
	}
	if p.DaysAhead <= 0 {
		errs = append(errs, fmt.Errorf("days_ahead must be positive, got %d", p.DaysAhead))
	}
	if p.MenuSize <= 0 {
		errs = append(errs, fmt.Errorf("menu_size must be positive, got %d", p.MenuSize))
	}
	if p.MaxLookahead < 0 {
		errs = append(errs, fmt.Errorf("max_lookahead must not be negative, got %d", p.MaxLookahead))
	}

	return errors.Join(errs...)
}
