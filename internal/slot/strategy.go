package slot

import (
	"context"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Strategy одна ступень разбора. Получает нормализованный текст
// и возвращает момент времени (ещё не округлённый).
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, text string, now time.Time) (time.Time, bool)
}

// Structured разбирает день и время одним регулярным выражением
type Structured struct{}

func (Structured) Name() string { return "structured" }

func (Structured) Resolve(_ context.Context, text string, now time.Time) (time.Time, bool) {
	m := structuredRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	group := func(name string) string {
		return m[structuredRe.SubexpIndex(name)]
	}

	day := spacesRe.ReplaceAllString(group("day"), " ")

	var hour, minute int
	if special := group("special"); special != "" {
		hour = specialHour(special)
	} else {
		var ok bool
		hour, ok = resolveHour(atoi(group("hour")), group("ampm"), day == "tonight")
		if !ok {
			return time.Time{}, false
		}
		minute = atoi(group("minute"))
	}

	base := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	return advanceDay(base, day, now), true
}

// Natural общий разборщик естественного языка для случаев,
// когда день и цифры есть, но Structured не справился ("friday, 3 in the afternoon")
type Natural struct {
	w *when.Parser
}

// NewNatural создаёт разборщик с английскими и общими правилами
func NewNatural() *Natural {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Natural{w: w}
}

func (n *Natural) Name() string { return "natural" }

func (n *Natural) Resolve(_ context.Context, text string, now time.Time) (time.Time, bool) {
	if !dayTokenRe.MatchString(text) || !digitRe.MatchString(text) {
		return time.Time{}, false
	}

	// when без времени суток подставляет текущее время, поэтому
	// время берём только из явной записи в тексте
	hour, minute, ok := findBareTime(text)
	if !ok {
		return time.Time{}, false
	}

	r, err := n.w.Parse(text, now)
	if err != nil || r == nil {
		return time.Time{}, false
	}

	t := time.Date(r.Time.Year(), r.Time.Month(), r.Time.Day(), hour, minute, 0, 0, now.Location())
	if t.Before(now) {
		t = t.AddDate(0, 0, 7)
	}
	return t, true
}

// BareTime время без дня: сегодня, а если уже прошло, то завтра.
// Просто число без "at", минут или am/pm временем не считается,
// иначе ответ "2" на меню превращался бы в 14:00.
type BareTime struct{}

func (BareTime) Name() string { return "bare_time" }

func (BareTime) Resolve(_ context.Context, text string, now time.Time) (time.Time, bool) {
	if dayTokenRe.MatchString(text) {
		return time.Time{}, false
	}

	hour, minute, ok := findBareTime(text)
	if !ok {
		return time.Time{}, false
	}

	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if t.Before(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

func findBareTime(text string) (hour, minute int, ok bool) {
	if m := periodTimeRe.FindStringSubmatch(text); m != nil {
		ampm := "pm"
		if m[3] == "morning" {
			ampm = "am"
		}
		if h, valid := resolveHour(atoi(m[1]), ampm, false); valid {
			return h, atoi(m[2]), true
		}
	}

	for _, m := range bareTimeRe.FindAllStringSubmatch(text, -1) {
		at, sep, ampm := m[1], m[3], m[5]
		if at == "" && sep == "" && ampm == "" {
			continue
		}
		h, valid := resolveHour(atoi(m[2]), ampm, false)
		if !valid {
			continue
		}
		return h, atoi(m[4]), true
	}

	if word := specialRe.FindString(text); word != "" {
		return specialHour(word), 0, true
	}
	return 0, 0, false
}
