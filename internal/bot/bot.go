package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-tabs/internal/flags"
	"todo-tabs/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

// sender is the part of the Telegram API the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deps are the collaborators the bot drives.
type Deps struct {
	Tasks      *service.TaskService
	Todos      *service.TaskService
	Categories *service.CategoryService
	Reminder   *service.ReminderService
	Flags      flags.Service
}

// Options restrict who may use the bot and where reports go.
type Options struct {
	AllowedUserID int64
	ReportChatID  int64
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api     *tgbotapi.BotAPI
	send    sender
	deps    Deps
	options Options

	mu            sync.Mutex
	conversations map[int64]*conversationState
	chats         map[int64]struct{}
}

func New(token string, deps Deps, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	b := newBot(api, deps, opts)
	b.api = api
	return b, nil
}

func newBot(api sender, deps Deps, opts Options) *Bot {
	if deps.Flags == nil {
		deps.Flags = flags.Static{}
	}
	return &Bot{
		send:          api,
		deps:          deps,
		options:       opts,
		conversations: make(map[int64]*conversationState),
		chats:         make(map[int64]struct{}),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if !b.allowed(update.CallbackQuery.From) {
			return
		}
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() || !b.allowed(update.Message.From) {
			return
		}
		b.rememberChat(update.Message.Chat.ID)
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("handle message: %v", err)
		}
	}
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if b.options.AllowedUserID != 0 && from.ID != b.options.AllowedUserID {
		log.Printf("[info] ignoring update from user=%d", from.ID)
		return false
	}
	return true
}

func (b *Bot) categoriesEnabled() bool {
	return b.deps.Categories != nil && b.deps.Flags.GetFlag(flags.EnableCategories)
}

// SendReports sends the summary to the configured chat and to every chat
// seen since startup.
func (b *Bot) SendReports(ctx context.Context) error {
	text := b.deps.Reminder.Summary(time.Now())
	for _, chatID := range b.reportChats() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendText(chatID, text); err != nil {
			log.Printf("send summary to %d: %v", chatID, err)
		}
	}
	return nil
}

func (b *Bot) reportChats() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ids []int64
	if b.options.ReportChatID != 0 {
		ids = append(ids, b.options.ReportChatID)
	}
	for id := range b.chats {
		if id != b.options.ReportChatID {
			ids = append(ids, id)
		}
	}
	return ids
}

func (b *Bot) rememberChat(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chats[chatID] = struct{}{}
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard(b.categoriesEnabled()))
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.send.Send(msg)
	return err
}
