package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/internal/board"
	"github.com/woozymasta/vsrelay/internal/maintenance"
	"github.com/woozymasta/vsrelay/internal/models"
	"github.com/woozymasta/vsrelay/internal/poller"
)

const (
	testGameTime   = "1 января 1 года, 12:00"
	historyDefault = 10
	historyMax     = 25
)

func (r *Router) status(m Message, _ string) error {
	rec := r.deps.Store.Load()
	_, err := r.deps.Sink.SendEmbed(m.ChannelID, board.Embed(rec, r.deps.ServerName, r.deps.InactiveStorm))
	return err
}

func (r *Router) maintenance(m Message, args string) error {
	var (
		rec   models.StatusRecord
		err   error
		reply string
	)

	if args == "" {
		rec, err = maintenance.Disable(r.deps.Store)
		if errors.Is(err, maintenance.ErrAlreadyDisabled) {
			r.reply(m, "❌ Режим технического обслуживания уже выключен.")
			return nil
		}
		reply = "✅ Режим технического обслуживания выключен."
	} else {
		rec, err = maintenance.Enable(r.deps.Store, args)
		reply = "✅ Режим технического обслуживания включен с причиной: " + args
	}
	if err != nil {
		return err
	}

	if err := r.deps.Sink.SetPresence(poller.PresenceFor(rec, r.deps.ServerName, r.deps.InactiveStorm)); err != nil {
		log.Warn().Err(err).Msg("Failed to update presence")
	}
	if err := r.deps.Board.Update(rec); err != nil {
		log.Warn().Err(err).Msg("Failed to update status board")
	}

	r.reply(m, reply)
	return nil
}

func (r *Router) testStorm(m Message, args string) error {
	var (
		n    models.Notification
		text string
	)

	switch strings.ToLower(args) {
	case "warning":
		n = models.StormNotification(false, true, testGameTime)
		text = "Отправляю тестовое уведомление о предупреждении шторма"
	case "end":
		n = models.StormNotification(false, false, testGameTime)
		text = "Отправляю тестовое уведомление о конце шторма"
	case "", "start":
		n = models.StormNotification(true, false, testGameTime)
		text = "Отправляю тестовое уведомление о начале шторма"
	default:
		r.reply(m, "❌ Неизвестный тип шторма. Используйте: start, warning, end")
		return nil
	}

	r.reply(m, text)
	r.reportDispatch(m, n)

	return nil
}

func (r *Router) testSeason(m Message, args string) error {
	if args == "" {
		args = string(models.Spring)
	}

	season, ok := models.NormalizeSeason(args)
	if !ok {
		r.reply(m, "❌ Неизвестный тип сезона. Используйте: spring, summer, autumn, winter")
		return nil
	}

	r.reply(m, "Отправляю тестовое уведомление о смене сезона на "+season.Localized())
	r.reportDispatch(m, models.SeasonNotification(string(season), testGameTime))

	return nil
}

func (r *Router) reportDispatch(m Message, n models.Notification) {
	if err := r.deps.Dispatcher.Process(n); err != nil {
		r.reply(m, "❌ Не удалось отправить тестовое уведомление: "+err.Error())
		return
	}
	r.reply(m, "✅ Тестовое уведомление успешно отправлено")
}

func (r *Router) reloadMessages(m Message, _ string) error {
	if r.deps.Catalog == nil {
		r.reply(m, "❌ Каталог сообщений не подключен.")
		return nil
	}

	changed, err := r.deps.Catalog.Load()
	if err != nil {
		return fmt.Errorf("reload messages: %w", err)
	}

	storm, season := r.deps.Catalog.Counts()
	state := "без изменений"
	if changed {
		state = "обновлены"
	}
	r.reply(m, fmt.Sprintf("✅ Сообщения %s: штормов %d, сезонов %d", state, storm, season))

	return nil
}

func (r *Router) history(m Message, args string) error {
	if r.deps.History == nil {
		r.reply(m, "❌ Журнал уведомлений отключен.")
		return nil
	}

	limit := historyDefault
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			r.reply(m, "❌ Укажите положительное число записей.")
			return nil
		}
		limit = min(n, historyMax)
	}

	entries, err := r.deps.History.Recent(limit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	if len(entries) == 0 {
		r.reply(m, "Журнал уведомлений пуст.")
		return nil
	}

	var b strings.Builder
	b.WriteString("**Последние уведомления**\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "`%s` %s | %s", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Kind, e.Outcome)
		if e.Title != "" {
			b.WriteString(" | " + e.Title)
		}
		b.WriteByte('\n')
	}
	r.reply(m, b.String())

	return nil
}
