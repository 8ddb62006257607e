package fsm

import (
	"errors"
	"strings"

	"github.com/go-telegram/bot"
)

var (
	ErrIncompatibleHandler = errors.New("incompatible handler")
	ErrStateMismatch       = errors.New("conversation data does not match step")
)

type TextHandler[T StateData] func(*ConversationContext[T], string) error

type CallbackHandler[T StateData] func(*ConversationContext[T], string) error

func Chain[T StateData](router *Router, initialStep ConversationStep) *ChainDefinition[T] {
	return &ChainDefinition[T]{
		router:  router,
		current: initialStep,
	}
}

type ChainDefinition[T StateData] struct {
	router  *Router
	current ConversationStep
}

func (c *ChainDefinition[T]) OnText(handler TextHandler[T]) *ChainDefinition[T] {
	c.router.RegisterHandler(c.current, func(ctx *ConversationContext[StateData]) error {
		if ctx.Update.Message == nil || ctx.Update.Message.Text == "" {
			return ErrIncompatibleHandler
		}
		typedCtx, err := narrow[T](ctx)
		if err != nil {
			return err
		}
		return handler(typedCtx, strings.TrimSpace(ctx.Update.Message.Text))
	})
	return c
}

func (c *ChainDefinition[T]) OnCallback(handler CallbackHandler[T]) *ChainDefinition[T] {
	c.router.RegisterHandler(c.current, func(ctx *ConversationContext[StateData]) error {
		if ctx.Update.CallbackQuery == nil {
			return ErrIncompatibleHandler
		}
		typedCtx, err := narrow[T](ctx)
		if err != nil {
			return err
		}
		_, _ = ctx.Bot.AnswerCallbackQuery(ctx.Ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: ctx.Update.CallbackQuery.ID,
		})
		return handler(typedCtx, ctx.Update.CallbackQuery.Data)
	})
	return c
}

func (c *ChainDefinition[T]) Then(nextStep ConversationStep) *ChainDefinition[T] {
	c.current = nextStep
	return c
}

func narrow[T StateData](ctx *ConversationContext[StateData]) (*ConversationContext[T], error) {
	data, ok := ctx.Data.(T)
	if !ok {
		return nil, ErrStateMismatch
	}
	return &ConversationContext[T]{
		Ctx:    ctx.Ctx,
		Bot:    ctx.Bot,
		Update: ctx.Update,
		UserID: ctx.UserID,
		Data:   data,
		router: ctx.router,
		step:   ctx.step,
	}, nil
}
