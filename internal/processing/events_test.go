package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvents_PublishAndUnsubscribe(t *testing.T) {
	events := NewEvents()
	var first, second []Event

	unsubscribe := events.Subscribe(func(e Event) { first = append(first, e) })
	events.Subscribe(func(e Event) { second = append(second, e) })
	assert.Equal(t, 2, events.Len())

	events.Publish(WillFinishOrder{})
	unsubscribe()
	unsubscribe()
	events.Publish(Completed{OrderID: 3})

	assert.Equal(t, []Event{WillFinishOrder{}}, first)
	assert.Equal(t, []Event{WillFinishOrder{}, Completed{OrderID: 3}}, second)
	assert.Equal(t, 1, events.Len())
}

func TestError(t *testing.T) {
	err := &Error{Kind: ErrorPDF, Err: ErrNothingToUpload}

	assert.Equal(t, "pdf stage failed: order has no photos to upload", err.Error())
	assert.ErrorIs(t, err, ErrNothingToUpload)
	assert.Equal(t, "unknown", ErrorKind(42).String())
}
