package fsm

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type ConversationContext[T StateData] struct {
	Ctx    context.Context
	Bot    *bot.Bot
	Update *models.Update
	UserID int64
	Data   T
	router *Router
	step   ConversationStep
}

// SendMessage sends HTML text. Pass a nil markup for no keyboard.
func (c *ConversationContext[T]) SendMessage(text string, markup models.ReplyMarkup) error {
	params := &bot.SendMessageParams{
		ChatID:    c.UserID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	_, err := c.Bot.SendMessage(c.Ctx, params)
	return err
}

func (c *ConversationContext[T]) Step() ConversationStep {
	return c.step
}

func (c *ConversationContext[T]) Transition(nextStep ConversationStep, data StateData) {
	c.router.Transition(c.UserID, nextStep, data)
}

func (c *ConversationContext[T]) Complete(text string) error {
	c.router.Reset(c.UserID)
	if text == "" {
		return nil
	}
	return c.SendMessage(text, nil)
}
