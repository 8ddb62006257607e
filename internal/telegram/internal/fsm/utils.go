package fsm

import "github.com/go-telegram/bot/models"

// HandleCallbackWithMessage moves to nextStep and asks the next question when
// the callback data equals callback.
func HandleCallbackWithMessage[T StateData](
	callback string,
	nextStep ConversationStep,
	askMessage string,
	markup models.ReplyMarkup,
) CallbackHandler[T] {
	return func(ctx *ConversationContext[T], data string) error {
		if data != callback {
			return nil
		}
		ctx.Transition(nextStep, ctx.Data)
		return ctx.SendMessage(askMessage, markup)
	}
}
