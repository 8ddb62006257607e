package fsm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type HandlerFunc func(ctx *ConversationContext[StateData]) error

type Router struct {
	fsm      *FSM
	handlers map[ConversationStep][]HandlerFunc
	bypass   []string
	mu       *sync.RWMutex
}

func NewRouter(fsm *FSM) *Router {
	return &Router{
		fsm:      fsm,
		handlers: make(map[ConversationStep][]HandlerFunc),
		mu:       &sync.RWMutex{},
	}
}

func (r *Router) RegisterHandler(step ConversationStep, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[step] = append(r.handlers[step], handler)
}

// Bypass sends callback queries whose data starts with one of prefixes
// straight to the bot handlers, whatever step the user is in.
func (r *Router) Bypass(prefixes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bypass = append(r.bypass, prefixes...)
}

func (r *Router) Middleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		var userID int64
		switch {
		case update.Message != nil && update.Message.From != nil:
			userID = update.Message.From.ID
			if strings.HasPrefix(update.Message.Text, "/") {
				r.fsm.Reset(userID)
				next(ctx, b, update)
				return
			}
		case update.CallbackQuery != nil:
			userID = update.CallbackQuery.From.ID
			if r.bypassed(update.CallbackQuery.Data) {
				next(ctx, b, update)
				return
			}
		default:
			next(ctx, b, update)
			return
		}

		state := r.fsm.Get(userID)

		r.mu.RLock()
		handlers := r.handlers[state.Step]
		r.mu.RUnlock()

		convCtx := &ConversationContext[StateData]{
			Ctx:    ctx,
			Bot:    b,
			Update: update,
			UserID: userID,
			Data:   state.Data,
			router: r,
			step:   state.Step,
		}
		for _, handler := range handlers {
			err := handler(convCtx)
			if errors.Is(err, ErrIncompatibleHandler) {
				continue
			}
			if errors.Is(err, ErrStateMismatch) {
				slog.Error("Conversation data does not match step", "userID", userID, "step", state.Step)
				r.fsm.Reset(userID)
				return
			}
			if err != nil {
				slog.Error("Conversation handler failed", "error", err, "userID", userID, "step", state.Step)
			}
			return
		}

		next(ctx, b, update)
	}
}

func (r *Router) Transition(userID int64, nextStep ConversationStep, data StateData) {
	r.fsm.Set(userID, nextStep, data)
}

func (r *Router) Reset(userID int64) {
	r.fsm.Reset(userID)
}

func (r *Router) Step(userID int64) ConversationStep {
	return r.fsm.Get(userID).Step
}

func (r *Router) bypassed(data string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, prefix := range r.bypass {
		if strings.HasPrefix(data, prefix) {
			return true
		}
	}
	return false
}
