package slot

import (
	"context"
	"time"
)

// Parser переводит свободный текст в слот, перебирая стратегии по порядку
type Parser struct {
	local       []Strategy
	remote      Strategy
	granularity time.Duration
	now         func() time.Time
}

// Option настройка Parser
type Option func(*Parser)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithGranularity задаёт шаг сетки
func WithGranularity(g time.Duration) Option {
	return func(p *Parser) {
		if g > 0 {
			p.granularity = g
		}
	}
}

// WithRemote подключает внешний сервис как последнюю ступень
func WithRemote(s Strategy) Option {
	return func(p *Parser) { p.remote = s }
}

// WithStrategies заменяет локальную цепочку стратегий
func WithStrategies(s ...Strategy) Option {
	return func(p *Parser) { p.local = s }
}

// NewParser создаёт разборщик с цепочкой structured → natural → bare time
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		local:       []Strategy{Structured{}, NewNatural(), BareTime{}},
		granularity: DefaultGranularity,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Now текущее время по часам разборщика
func (p *Parser) Now() time.Time {
	return p.now()
}

// Granularity шаг сетки
func (p *Parser) Granularity() time.Duration {
	return p.granularity
}

// Parse возвращает слот или false, если в тексте нет понятного дня и времени
func (p *Parser) Parse(ctx context.Context, text string) (Slot, bool) {
	t, ok := p.Resolve(ctx, text)
	if !ok {
		return Slot{}, false
	}
	return FromTime(t), true
}

// Resolve возвращает округлённый момент ближайшего наступления
func (p *Parser) Resolve(ctx context.Context, text string) (time.Time, bool) {
	normalized := normalize(text)
	if normalized == "" {
		return time.Time{}, false
	}

	now := p.now()
	if t, ok := p.resolveLocal(ctx, normalized, now); ok {
		return t, true
	}

	if p.remote != nil {
		if t, ok := p.remote.Resolve(ctx, text, now); ok {
			return Round(t, p.granularity), true
		}
	}
	return time.Time{}, false
}

// Canonical приводит сохранённое значение к слоту: сначала точный формат,
// затем локальные стратегии. Внешний сервис здесь не вызывается.
func (p *Parser) Canonical(stored string) (Slot, bool) {
	if stored == "" {
		return Slot{}, false
	}
	if s, err := ParseCanonical(stored); err == nil {
		return s, true
	}

	t, ok := p.resolveLocal(context.Background(), normalize(stored), p.now())
	if !ok {
		return Slot{}, false
	}
	return FromTime(t), true
}

func (p *Parser) resolveLocal(ctx context.Context, normalized string, now time.Time) (time.Time, bool) {
	for _, s := range p.local {
		if t, ok := s.Resolve(ctx, normalized, now); ok {
			return Round(t, p.granularity), true
		}
	}
	return time.Time{}, false
}
