package slot

import (
	"fmt"
	"strings"
	"time"
)

// DefaultGranularity шаг сетки, на которую округляются все слоты
const DefaultGranularity = 15 * time.Minute

// Layout каноническая текстовая форма слота, например "Friday 02:00 PM"
const Layout = "Monday 03:04 PM"

const minutesPerWeek = 7 * 24 * 60

// timeLayouts допустимые форматы времени после названия дня.
// Непадированный вариант встречается в старых файлах бронирований.
var timeLayouts = []string{"03:04 PM", "3:04 PM", "03:04PM", "3:04PM", "15:04"}

// Slot день недели и время суток на сетке granularity
type Slot struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// FromTime берёт день недели и время из момента (без округления)
func FromTime(t time.Time) Slot {
	return Slot{Weekday: t.Weekday(), Hour: t.Hour(), Minute: t.Minute()}
}

// String возвращает каноническую форму слота
func (s Slot) String() string {
	// 2024-01-07 воскресенье, отсюда отсчитываем день недели
	ref := time.Date(2024, time.January, 7+int(s.Weekday), s.Hour, s.Minute, 0, 0, time.UTC)
	return ref.Format(Layout)
}

// OnBoundary проверяет что минуты лежат на границе сетки
func (s Slot) OnBoundary(granularity time.Duration) bool {
	step := int(granularity / time.Minute)
	if step <= 0 {
		return false
	}
	return s.Minute%step == 0
}

// Add сдвигает слот на d по кругу недели
func (s Slot) Add(d time.Duration) Slot {
	mow := int(s.Weekday)*24*60 + s.Hour*60 + s.Minute
	mow = ((mow+int(d/time.Minute))%minutesPerWeek + minutesPerWeek) % minutesPerWeek

	return Slot{
		Weekday: time.Weekday(mow / (24 * 60)),
		Hour:    (mow % (24 * 60)) / 60,
		Minute:  mow % 60,
	}
}

// Next возвращает ближайшее наступление слота не раньше now
func (s Slot) Next(now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, s.Minute, 0, 0, now.Location())
	days := (int(s.Weekday) - int(now.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, days)
	if candidate.Before(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// Round округляет момент до ближайшей границы сетки (половина вверх), секунды отбрасываются
func Round(t time.Time, granularity time.Duration) time.Time {
	step := int(granularity / time.Minute)
	if step <= 0 {
		step = int(DefaultGranularity / time.Minute)
	}
	minute := (t.Minute() + step/2) / step * step
	hour := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	return hour.Add(time.Duration(minute) * time.Minute)
}

// ParseCanonical разбирает строку в канонической форме ("Friday 02:00 PM").
// Свободный текст здесь не поддерживается, для него есть Parser.
func ParseCanonical(text string) (Slot, error) {
	text = strings.TrimSpace(text)
	day, rest, found := strings.Cut(text, " ")
	if !found {
		return Slot{}, fmt.Errorf("parse slot %q: missing time", text)
	}

	weekday, ok := LookupWeekday(day)
	if !ok {
		return Slot{}, fmt.Errorf("parse slot %q: unknown weekday %q", text, day)
	}

	rest = strings.ToUpper(strings.TrimSpace(rest))
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, rest)
		if err == nil {
			return Slot{Weekday: weekday, Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}

	return Slot{}, fmt.Errorf("parse slot %q: invalid time %q", text, rest)
}

// LookupWeekday распознаёт полное название дня недели или стандартное сокращение
func LookupWeekday(token string) (time.Weekday, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if len(token) < 3 {
		return 0, false
	}

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if token == name || (len(token) <= 5 && strings.HasPrefix(name, token)) {
			return wd, true
		}
	}
	return 0, false
}
