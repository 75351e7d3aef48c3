package notify

import (
	"github.com/woozymasta/vsrelay/internal/chat"
	"github.com/woozymasta/vsrelay/internal/models"
)

// Embed colors.
const (
	ColorStormWarning = 0xf1c40f
	ColorStormActive  = 0xe74c3c
	ColorStormEnded   = 0x2ecc71
	ColorSeasonOther  = 0x3498db
)

const gameTimeField = "Игровое время"

// StormPhase is the sub-state of a storm event.
type StormPhase int

// Storm phases.
const (
	StormWarning StormPhase = iota
	StormActive
	StormEnded
)

// PhaseOf derives the storm phase from an event payload. A warning wins over the active flag.
func PhaseOf(p models.Payload) StormPhase {
	switch {
	case p.IsWarning:
		return StormWarning
	case p.IsActive:
		return StormActive
	default:
		return StormEnded
	}
}

type stormStyle struct {
	pool     string
	title    string
	fallback string
	color    int
}

var stormStyles = map[StormPhase]stormStyle{
	StormWarning: {
		pool:     PoolStormWarning,
		title:    "Штормовое предупреждение",
		fallback: "⚠️ **Внимание!** Приближается шторм! ⚠️",
		color:    ColorStormWarning,
	},
	StormActive: {
		pool:     PoolStormStart,
		title:    "Штормовое предупреждение",
		fallback: "⚡ **На сервере начался шторм!** ⚡",
		color:    ColorStormActive,
	},
	StormEnded: {
		pool:     PoolStormEnd,
		title:    "Шторм закончился",
		fallback: "☀️ **Шторм на сервере закончился** ☀️",
		color:    ColorStormEnded,
	},
}

// SeasonColors maps canonical seasons to embed colors.
var SeasonColors = map[models.Season]int{
	models.Spring: 0x57f287,
	models.Summer: 0x2ecc71,
	models.Autumn: 0xe67e22,
	models.Winter: 0x3498db,
}

var seasonFallbacks = map[models.Season]string{
	models.Spring: "🌱 **Наступила весна!** Время пробуждения природы и новых начинаний.",
	models.Summer: "☀️ **Наступило лето!** Пора расцвета и изобилия.",
	models.Autumn: "🍂 **Наступила осень!** Время сбора урожая и подготовки к зиме.",
	models.Winter: "❄️ **Наступила зима!** Время холодов и долгих ночей.",
}

const seasonFallbackOther = "Наступил новый сезон!"

func (d *Dispatcher) renderStorm(p models.Payload) *chat.Embed {
	style := stormStyles[PhaseOf(p)]

	e := &chat.Embed{
		Title:       style.title,
		Description: d.choose(d.catalog.stormPool(style.pool), style.fallback),
		Color:       style.color,
	}
	if p.Time != "" {
		e.AddField(gameTimeField, p.Time, false)
	}

	return e
}

func (d *Dispatcher) renderSeason(p models.Payload) *chat.Embed {
	season, known := models.NormalizeSeason(p.Season)

	color, fallback := ColorSeasonOther, seasonFallbackOther
	var pool []string
	if known {
		color = SeasonColors[season]
		fallback = seasonFallbacks[season]
		pool = d.catalog.seasonPool(season)
	}

	e := &chat.Embed{
		Title:       "Смена сезона",
		Description: d.choose(pool, fallback),
		Color:       color,
	}
	if p.Time != "" {
		e.AddField(gameTimeField, p.Time, false)
	}

	return e
}

// choose picks a random pool entry when extended notifications are on.
func (d *Dispatcher) choose(pool []string, fallback string) string {
	if !d.extended || len(pool) == 0 {
		return fallback
	}

	return pool[d.pick(len(pool))]
}

func (c *Catalog) stormPool(key string) []string {
	if c == nil {
		return nil
	}
	return c.Storm(key)
}

func (c *Catalog) seasonPool(s models.Season) []string {
	if c == nil {
		return nil
	}
	return c.Season(s)
}
