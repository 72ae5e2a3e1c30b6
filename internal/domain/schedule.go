package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ScheduleEntry est l'unique créneau quotidien.
// V1: vit en mémoire uniquement, pas de store disque.
type ScheduleEntry struct {
	// TimeOfDay au format "HH:MM" (24h).
	TimeOfDay string
	Channel   string
	Quality   string
	Enabled   bool
}

var ErrInvalidTimeOfDay = errors.New("invalid time of day, expected HH:MM (24h)")

func (e ScheduleEntry) Validate() error {
	if strings.TrimSpace(e.Channel) == "" {
		return errors.New("missing channel")
	}
	if _, _, err := e.clock(); err != nil {
		return err
	}
	return nil
}

// CronExpr dérive l'expression cron quotidienne ("30 14 * * *" pour 14:30).
func (e ScheduleEntry) CronExpr() (string, error) {
	hour, minute, err := e.clock()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

func (e ScheduleEntry) clock() (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(e.TimeOfDay), ":")
	if !ok {
		return 0, 0, ErrInvalidTimeOfDay
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, ErrInvalidTimeOfDay
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, ErrInvalidTimeOfDay
	}
	return hour, minute, nil
}
