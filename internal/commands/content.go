package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/woozymasta/vsrelay/internal/chat"
	"github.com/woozymasta/vsrelay/internal/guides"
	"github.com/woozymasta/vsrelay/internal/notify"
)

// Chat platform embed limits.
const (
	maxEmbedFields      = 25
	maxEmbedDescription = 4096
	maxFieldValue       = 1024
	guideSummaryLen     = 100
)

const colorInfo = 0x3498db

func (r *Router) listGuides(m Message, _ string) error {
	if r.deps.Guides == nil {
		r.reply(m, "❌ Гайды отключены.")
		return nil
	}

	list := r.deps.Guides.List()
	if len(list) == 0 {
		r.reply(m, "❌ На данный момент нет доступных гайдов.")
		return nil
	}

	e := &chat.Embed{
		Title:       "Доступные гайды",
		Description: fmt.Sprintf("Используйте команду `%sгайд [номер]` для просмотра конкретного гайда", r.deps.Prefix),
		Color:       colorInfo,
	}
	for i, g := range list {
		if i == maxEmbedFields {
			e.Footer = fmt.Sprintf("И ещё %d", len(list)-i)
			break
		}
		e.AddField(fmt.Sprintf("%d. %s", i+1, orDefault(g.Title, "Без названия")),
			chat.Truncate(orDefault(g.Summary(), "Без описания"), guideSummaryLen), false)
	}

	_, err := r.deps.Sink.SendEmbed(m.ChannelID, e)
	return err
}

func (r *Router) showGuide(m Message, args string) error {
	if r.deps.Guides == nil {
		r.reply(m, "❌ Гайды отключены.")
		return nil
	}
	if r.deps.Guides.Len() == 0 {
		r.reply(m, "❌ На данный момент нет доступных гайдов.")
		return nil
	}
	if args == "" {
		r.reply(m, fmt.Sprintf("❌ Вы не указали номер гайда. Используйте команду `%sгайды` для просмотра доступных гайдов.", r.deps.Prefix))
		return nil
	}

	n, _ := strconv.Atoi(args)
	g, err := r.deps.Guides.Get(n)
	if errors.Is(err, guides.ErrNotFound) {
		r.reply(m, r.guideNotFound(args))
		return nil
	}
	if err != nil {
		return err
	}

	e := &chat.Embed{
		Title:       orDefault(g.Title, "Без названия"),
		Description: chat.Truncate(orDefault(g.Body(), "Без содержания"), maxEmbedDescription),
		Image:       g.ImageURL,
		Color:       colorInfo,
	}
	for i, s := range g.Sections {
		if i == maxEmbedFields {
			break
		}
		e.AddField(orDefault(s.Title, "Без названия"), chat.Truncate(orDefault(s.Content, "Без содержания"), maxFieldValue), false)
	}
	if g.Author != "" {
		e.Footer = "Автор: " + g.Author
	}

	_, err = r.deps.Sink.SendEmbed(m.ChannelID, e)
	return err
}

func (r *Router) addGuide(m Message, args string) error {
	if r.deps.Guides == nil {
		r.reply(m, "❌ Гайды отключены.")
		return nil
	}

	usage := fmt.Sprintf("❌ Недостаточно параметров. Используйте команду `%sadd_guide title | description | [image_url] | [author]`", r.deps.Prefix)
	params := strings.Split(args, "|")
	if len(params) < 2 {
		r.reply(m, usage)
		return nil
	}
	for i := range params {
		params[i] = strings.TrimSpace(params[i])
	}

	g := guides.Guide{Title: params[0], Description: params[1]}
	if len(params) > 2 {
		g.ImageURL = params[2]
	}
	if len(params) > 3 {
		g.Author = params[3]
	}

	n, err := r.deps.Guides.Add(g)
	if errors.Is(err, guides.ErrEmptyTitle) {
		r.reply(m, usage)
		return nil
	}
	if err != nil {
		return err
	}

	r.reply(m, fmt.Sprintf("✅ Гайд '%s' успешно добавлен под номером %d.", g.Title, n))
	return nil
}

func (r *Router) addSection(m Message, args string) error {
	if r.deps.Guides == nil {
		r.reply(m, "❌ Гайды отключены.")
		return nil
	}

	usage := fmt.Sprintf("❌ Вы не указали номер гайда или параметры раздела. Используйте команду `%sadd_section [номер] title | content`", r.deps.Prefix)
	id, rest, _ := strings.Cut(args, " ")
	n, err := strconv.Atoi(id)
	title, content, ok := strings.Cut(rest, "|")
	if err != nil || !ok {
		r.reply(m, usage)
		return nil
	}

	sec := guides.Section{Title: strings.TrimSpace(title), Content: strings.TrimSpace(content)}
	_, err = r.deps.Guides.AddSection(n, sec)
	switch {
	case errors.Is(err, guides.ErrNotFound):
		r.reply(m, r.guideNotFound(id))
		return nil
	case errors.Is(err, guides.ErrEmptyTitle):
		r.reply(m, usage)
		return nil
	case err != nil:
		return err
	}

	r.reply(m, fmt.Sprintf("✅ Раздел '%s' успешно добавлен к гайду #%d.", sec.Title, n))
	return nil
}

func (r *Router) removeGuide(m Message, args string) error {
	if r.deps.Guides == nil {
		r.reply(m, "❌ Гайды отключены.")
		return nil
	}
	if args == "" {
		r.reply(m, fmt.Sprintf("❌ Вы не указали номер гайда. Используйте команду `%sгайды` для просмотра доступных гайдов.", r.deps.Prefix))
		return nil
	}

	n, _ := strconv.Atoi(args)
	g, err := r.deps.Guides.Remove(n)
	if errors.Is(err, guides.ErrNotFound) {
		r.reply(m, r.guideNotFound(args))
		return nil
	}
	if err != nil {
		return err
	}

	r.reply(m, fmt.Sprintf("✅ Гайд '%s' успешно удален.", orDefault(g.Title, "Без названия")))
	return nil
}

func (r *Router) guideNotFound(id string) string {
	return fmt.Sprintf("❌ Гайд с номером %s не найден. Используйте команду `%sгайды` для просмотра доступных гайдов.", id, r.deps.Prefix)
}

func (r *Router) listMessages(m Message, args string) error {
	if r.deps.Catalog == nil {
		r.reply(m, "❌ Каталог сообщений не подключен.")
		return nil
	}

	if args == "" {
		e := &chat.Embed{Title: "Типы сообщений", Description: "Доступные типы сообщений:", Color: colorInfo}
		e.AddField("🌩️ Шторм", fmt.Sprintf("Сообщения о штормах\nКоманда: `%sсписок_сообщений storm`", r.deps.Prefix), true)
		e.AddField("🌱 Сезоны", fmt.Sprintf("Сообщения о смене сезонов\nКоманда: `%sсписок_сообщений season`", r.deps.Prefix), true)
		_, err := r.deps.Sink.SendEmbed(m.ChannelID, e)
		return err
	}

	kind, ok := notify.ParsePoolKind(args)
	if !ok {
		r.reply(m, "❌ Неизвестный тип сообщений: "+args)
		return nil
	}
	pools, err := r.deps.Catalog.Pools(kind)
	if err != nil {
		return err
	}

	title := "🌩️ Сообщения о штормах"
	if kind == notify.KindSeason {
		title = "🌱 Сообщения о сезонах"
	}
	e := &chat.Embed{Title: title, Description: "Тип сообщений: " + string(kind), Color: colorInfo}

	if len(pools) == 0 {
		e.AddField("Нет сообщений", "Для этого типа нет настроенных сообщений", false)
	}
	for _, key := range pools.Keys() {
		if len(e.Fields) == maxEmbedFields {
			break
		}
		var b strings.Builder
		for i, msg := range pools[key] {
			fmt.Fprintf(&b, "`%d` %s\n", i, msg)
		}
		e.AddField(key, chat.Truncate(b.String(), maxFieldValue), false)
	}

	_, err = r.deps.Sink.SendEmbed(m.ChannelID, e)
	return err
}

func (r *Router) addMessage(m Message, args string) error {
	if r.deps.Catalog == nil {
		r.reply(m, "❌ Каталог сообщений не подключен.")
		return nil
	}

	kindArg, rest, _ := strings.Cut(args, " ")
	key, text, _ := strings.Cut(strings.TrimSpace(rest), " ")
	text = strings.TrimSpace(text)
	if kindArg == "" || key == "" || text == "" {
		r.reply(m, fmt.Sprintf("❌ Не все параметры указаны. Используйте команду `%sadd_message [тип_сообщений] [ключ] [текст_сообщения]`", r.deps.Prefix))
		return nil
	}

	kind, ok := notify.ParsePoolKind(kindArg)
	if !ok {
		r.reply(m, r.unknownKind(kindArg))
		return nil
	}

	canonical, err := r.deps.Catalog.Add(kind, key, text)
	if errors.Is(err, notify.ErrUnknownKey) {
		r.reply(m, fmt.Sprintf("❌ Неизвестный ключ '%s' для типа '%s'.", key, kind))
		return nil
	}
	if err != nil {
		return err
	}

	pools, _ := r.deps.Catalog.Pools(kind)
	r.reply(m, fmt.Sprintf("✅ Сообщение добавлено в тип '%s' с ключом '%s'. Всего сообщений: %d.", kind, canonical, len(pools[canonical])))
	return nil
}

func (r *Router) removeMessage(m Message, args string) error {
	if r.deps.Catalog == nil {
		r.reply(m, "❌ Каталог сообщений не подключен.")
		return nil
	}

	fields := strings.Fields(args)
	if len(fields) < 2 || len(fields) > 3 {
		r.reply(m, fmt.Sprintf("❌ Не все параметры указаны. Используйте команду `%sremove_message [тип_сообщений] [ключ] [индекс]`", r.deps.Prefix))
		return nil
	}

	kind, ok := notify.ParsePoolKind(fields[0])
	if !ok {
		r.reply(m, r.unknownKind(fields[0]))
		return nil
	}

	index := -1
	if len(fields) == 3 {
		n, err := strconv.Atoi(fields[2])
		if err != nil || n < 0 {
			r.reply(m, "❌ Индекс должен быть неотрицательным числом.")
			return nil
		}
		index = n
	}

	removed, err := r.deps.Catalog.Remove(kind, fields[1], index)
	switch {
	case errors.Is(err, notify.ErrUnknownKey):
		r.reply(m, fmt.Sprintf("❌ Ключ '%s' не найден в сообщениях типа '%s'.", fields[1], kind))
		return nil
	case errors.Is(err, notify.ErrIndexRange):
		r.reply(m, fmt.Sprintf("❌ Сообщение с индексом %d не найдено.", index))
		return nil
	case err != nil:
		return err
	}

	if index < 0 {
		r.reply(m, fmt.Sprintf("✅ Удалены все сообщения (%d) с ключом '%s' из типа '%s'.", removed, fields[1], kind))
		return nil
	}
	r.reply(m, fmt.Sprintf("✅ Сообщение с индексом %d успешно удалено из типа '%s' с ключом '%s'.", index, kind, fields[1]))
	return nil
}

func (r *Router) unknownKind(kind string) string {
	return fmt.Sprintf("❌ Неизвестный тип сообщений: %s. Используйте команду `%slist_messages` для просмотра доступных типов.", kind, r.deps.Prefix)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
