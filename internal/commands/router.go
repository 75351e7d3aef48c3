// Package commands implements the prefixed text commands of the bot.
//
// Handlers run on the chat loop. Admin commands share a single role gate
// built on an injected chat.Authorizer.
package commands

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/internal/board"
	"github.com/woozymasta/vsrelay/internal/chat"
	"github.com/woozymasta/vsrelay/internal/guides"
	"github.com/woozymasta/vsrelay/internal/models"
	"github.com/woozymasta/vsrelay/internal/notify"
	"github.com/woozymasta/vsrelay/internal/state"
)

// Message is an inbound chat message.
type Message struct {
	GuildID   string
	ChannelID string
	UserID    string
	Content   string
}

// History reads recent journal entries.
type History interface {
	Recent(limit int) ([]models.JournalEntry, error)
}

// Deps are the collaborators used by command handlers.
type Deps struct {
	Sink       chat.Sink
	Auth       chat.Authorizer
	Store      *state.Store
	Dispatcher *notify.Dispatcher
	Catalog    *notify.Catalog
	History    History
	Board      *board.Board
	Guides     *guides.Store

	Prefix        string
	AdminRole     string
	ServerName    string
	InactiveStorm string
}

// Handler runs a command with the text following its name.
type Handler func(m Message, args string) error

type command struct {
	run   Handler
	name  string
	usage string
	help  string

	aliases []string
	admin   bool
}

// Router resolves prefixed messages to command handlers.
type Router struct {
	deps     Deps
	byName   map[string]*command
	commands []*command
}

// New builds a router with all commands registered.
func New(deps Deps) *Router {
	if deps.Prefix == "" {
		deps.Prefix = "!"
	}

	r := &Router{deps: deps, byName: make(map[string]*command)}

	r.register(&command{name: "status", aliases: []string{"статус"}, help: "Текущий статус сервера", run: r.status})
	r.register(&command{name: "help", aliases: []string{"помощь"}, help: "Список команд", run: r.help})
	r.register(&command{
		name: "maintenance", aliases: []string{"тех_работы"}, admin: true,
		usage: "[причина]", help: "Включить режим тех. работ с причиной или выключить без неё",
		run: r.maintenance,
	})
	r.register(&command{
		name: "test_storm", aliases: []string{"тест_шторм"}, admin: true,
		usage: "[start|warning|end]", help: "Тестовое уведомление о шторме",
		run: r.testStorm,
	})
	r.register(&command{
		name: "test_season", aliases: []string{"тест_сезон"}, admin: true,
		usage: "<сезон>", help: "Тестовое уведомление о смене сезона",
		run: r.testSeason,
	})
	r.register(&command{
		name: "reload_messages", aliases: []string{"перезагрузить_сообщения"}, admin: true,
		help: "Перечитать файлы сообщений",
		run:  r.reloadMessages,
	})
	r.register(&command{
		name: "history", aliases: []string{"история"}, admin: true,
		usage: "[n]", help: "Последние уведомления из журнала",
		run: r.history,
	})

	r.register(&command{name: "guides", aliases: []string{"гайды"}, help: "Список гайдов", run: r.listGuides})
	r.register(&command{name: "guide", aliases: []string{"гайд"}, usage: "<номер>", help: "Показать гайд", run: r.showGuide})
	r.register(&command{
		name: "add_guide", aliases: []string{"добавить_гайд"}, admin: true,
		usage: "title | description | [image_url] | [author]", help: "Добавить гайд",
		run: r.addGuide,
	})
	r.register(&command{
		name: "add_section", aliases: []string{"добавить_раздел"}, admin: true,
		usage: "<номер> title | content", help: "Добавить раздел к гайду",
		run: r.addSection,
	})
	r.register(&command{
		name: "remove_guide", aliases: []string{"удалить_гайд"}, admin: true,
		usage: "<номер>", help: "Удалить гайд",
		run: r.removeGuide,
	})

	r.register(&command{
		name: "list_messages", aliases: []string{"список_сообщений"}, admin: true,
		usage: "[storm|season]", help: "Показать пулы сообщений",
		run: r.listMessages,
	})
	r.register(&command{
		name: "add_message", aliases: []string{"добавить_сообщение"}, admin: true,
		usage: "<storm|season> <ключ> <текст>", help: "Добавить сообщение в пул",
		run: r.addMessage,
	})
	r.register(&command{
		name: "remove_message", aliases: []string{"удалить_сообщение"}, admin: true,
		usage: "<storm|season> <ключ> [индекс]", help: "Удалить сообщение по индексу (с 0) или весь ключ",
		run: r.removeMessage,
	})

	return r
}

func (r *Router) register(c *command) {
	if c.admin {
		c.run = r.requireAdmin(c.run)
	}

	r.commands = append(r.commands, c)
	r.byName[c.name] = c
	for _, a := range c.aliases {
		r.byName[a] = c
	}
}

// Handle runs the command addressed by m, if any, and reports whether one matched.
func (r *Router) Handle(m Message) bool {
	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, r.deps.Prefix) {
		return false
	}
	content = strings.TrimPrefix(content, r.deps.Prefix)

	name, args, _ := strings.Cut(content, " ")
	cmd, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return false
	}

	log.Debug().Str("command", cmd.name).Str("user", m.UserID).Str("channel", m.ChannelID).Msg("Command received")

	if err := cmd.run(m, strings.TrimSpace(args)); err != nil {
		log.Error().Err(err).Str("command", cmd.name).Msg("Command failed")
		r.reply(m, "❌ Произошла ошибка: "+err.Error())
	}

	return true
}

// requireAdmin wraps a handler with the admin role check.
func (r *Router) requireAdmin(next Handler) Handler {
	return func(m Message, args string) error {
		if r.deps.AdminRole == "" {
			r.reply(m, "❌ ID роли администратора не настроен в конфигурации.")
			return nil
		}
		if r.deps.Auth == nil || !r.deps.Auth.HasRole(m.GuildID, m.UserID, r.deps.AdminRole) {
			log.Info().Str("user", m.UserID).Msg("Admin command denied")
			r.reply(m, "❌ У вас нет доступа к этой команде. Требуется роль администратора.")
			return nil
		}

		return next(m, args)
	}
}

func (r *Router) reply(m Message, content string) {
	if err := r.deps.Sink.SendMessage(m.ChannelID, content); err != nil {
		log.Warn().Err(err).Str("channel", m.ChannelID).Msg("Failed to send reply")
	}
}

func (r *Router) help(m Message, _ string) error {
	var b strings.Builder
	b.WriteString("**Команды**\n")

	for _, c := range r.commands {
		fmt.Fprintf(&b, "`%s%s", r.deps.Prefix, c.name)
		if c.usage != "" {
			b.WriteString(" " + c.usage)
		}
		b.WriteString("` ")
		b.WriteString(c.help)
		if c.admin {
			b.WriteString(" (админ)")
		}
		b.WriteByte('\n')
	}

	return r.deps.Sink.SendMessage(m.ChannelID, b.String())
}
