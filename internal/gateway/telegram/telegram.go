// Package telegram реализует шлюз закрытого канала и доставку уведомлений
// через Telegram Bot API.
//
// Шлюз выдает одноразовые ссылки-приглашения с ограниченным сроком действия
// и убирает участников из канала. Удаление выполняется парой ban/unban,
// чтобы пользователь мог вернуться по новому приглашению после повторной
// оплаты. Удаление отсутствующего участника ошибкой не считается.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Gateway struct {
	bot       *tgbotapi.BotAPI
	channelID int64
	log       *slog.Logger
}

// New авторизует бота по токену и возвращает шлюз для канала channelID.
func New(botToken string, channelID int64, log *slog.Logger) (*Gateway, error) {
	const op = "telegram.New"
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("telegram bot authorized", slog.String("username", bot.Self.UserName))
	return &Gateway{bot: bot, channelID: channelID, log: log}, nil
}

// CreateInvite выдает ссылку-приглашение в канал, действующую ttl и
// рассчитанную на maxUses вступлений, без подтверждения заявки.
func (g *Gateway) CreateInvite(_ context.Context, ttl time.Duration, maxUses int) (string, error) {
	const op = "telegram.CreateInvite"
	cfg := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig: tgbotapi.ChatConfig{
			ChatID: g.channelID,
		},
		ExpireDate:         int(time.Now().Add(ttl).Unix()),
		MemberLimit:        maxUses,
		CreatesJoinRequest: false,
	}
	resp, err := g.bot.Request(cfg)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return link.InviteLink, nil
}

// RemoveMember убирает пользователя из канала. Последующий unban снимает
// блокировку, оставляя возможность нового вступления по приглашению.
func (g *Gateway) RemoveMember(_ context.Context, userID int64) error {
	const op = "telegram.RemoveMember"
	member := tgbotapi.ChatMemberConfig{
		ChatID: g.channelID,
		UserID: userID,
	}

	if _, err := g.bot.Request(tgbotapi.BanChatMemberConfig{ChatMemberConfig: member}); err != nil {
		return fmt.Errorf("%s: ban: %w", op, err)
	}
	if _, err := g.bot.Request(tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: member,
		OnlyIfBanned:     true,
	}); err != nil {
		return fmt.Errorf("%s: unban: %w", op, err)
	}
	return nil
}

// Notify отправляет пользователю или администратору текстовое сообщение.
func (g *Gateway) Notify(_ context.Context, identity int64, text string) error {
	const op = "telegram.Notify"
	if _, err := g.bot.Send(tgbotapi.NewMessage(identity, text)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// NotifyWithAttachment отправляет сообщение вместе с вложением по его
// file_id. Сначала вложение пробуется как фото, затем как документ —
// у Telegram тип file_id заранее не известен.
func (g *Gateway) NotifyWithAttachment(_ context.Context, identity int64, text, attachmentRef string) error {
	const op = "telegram.NotifyWithAttachment"

	photo := tgbotapi.NewPhoto(identity, tgbotapi.FileID(attachmentRef))
	photo.Caption = text
	if _, err := g.bot.Send(photo); err == nil {
		return nil
	}

	doc := tgbotapi.NewDocument(identity, tgbotapi.FileID(attachmentRef))
	doc.Caption = text
	if _, err := g.bot.Send(doc); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
