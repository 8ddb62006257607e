package receipt

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"photobook-order-bot/internal/checkout"
	"photobook-order-bot/internal/delivery"
	"photobook-order-bot/internal/payment"
	"photobook-order-bot/internal/pkg/metrics"
	"photobook-order-bot/internal/processing"

	"go.uber.org/atomic"
)

var ErrClosed = errors.New("receipt is closed")

type Engine interface {
	StartProcessing()
	StartPhotobookUpload()
	FinishOrder()
	CancelProcessing(onComplete func())
	IsProcessingOrder() bool
	PendingUploads() int
	TotalUploads() int
	Subscribe(handler func(processing.Event)) (unsubscribe func())
}

type PaymentAuthorizer interface {
	AuthorizePayment(ctx context.Context, req payment.Request, delegate payment.Delegate) (payment.Authorization, error)
}

// View is the surface the receipt is drawn on.
type View interface {
	Render(vm ViewModel)
	ShowOverlay(text string)
	HideOverlay()
	ConfirmCancel(title, message string)
	ShowPaymentMethods()
	ShowError(msg payment.Message)
	Close()
}

type Checkout interface {
	Cost() (checkout.Cost, bool)
	ShippingMethodID() int
	Delivery() (delivery.Details, bool)
	OrderID() (int, bool)
	PaymentRequest() (payment.Request, error)
	SetAuthorization(auth payment.Authorization)
	Reset()
}

type Products interface {
	LoadUserPhotobook() error
	Reset()
}

type Notifier interface {
	ReceiptDidDismiss(userID int64)
}

type Deps struct {
	UserID    int64
	Engine    Engine
	Payments  PaymentAuthorizer
	View      View
	Checkout  Checkout
	Products  Products
	Notifier  Notifier
	OnDismiss func()
}

// Screen serializes engine notifications, payment results and user actions
// onto a single goroutine that owns the Machine.
type Screen struct {
	deps    Deps
	machine *Machine

	actions chan func()
	stop    chan struct{}
	done    chan struct{}
	started *atomic.Bool
	closed  *atomic.Bool
	once    sync.Once

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()

	sheet       *Join
	authorizing bool
	authCancel  context.CancelFunc
	dismissing  bool
}

func NewScreen(deps Deps) *Screen {
	return &Screen{
		deps:    deps,
		machine: NewMachine(),
		actions: make(chan func(), 32),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		started: atomic.NewBool(false),
		closed:  atomic.NewBool(false),
		sheet:   resolvedJoin(),
	}
}

func (s *Screen) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.unsubscribe = s.deps.Engine.Subscribe(s.onEngineEvent)
	metrics.ReceiptOpened()
	s.started.Store(true)
	go s.loop()
}

func (s *Screen) Done() <-chan struct{} {
	return s.done
}

func (s *Screen) Appear() error {
	return s.dispatch(func() {
		s.handle(Appeared{InFlight: s.deps.Engine.IsProcessingOrder()})
	})
}

func (s *Screen) TapPrimary() error {
	return s.dispatch(func() { s.handle(PrimaryTapped{}) })
}

func (s *Screen) TapSecondary() error {
	return s.dispatch(func() { s.handle(SecondaryTapped{}) })
}

func (s *Screen) TapDismiss() error {
	return s.dispatch(func() { s.handle(DismissTapped{}) })
}

func (s *Screen) ConfirmCancel() error {
	return s.dispatch(func() { s.handle(CancelConfirmed{}) })
}

// DeclineCancel puts the receipt back after the cancel prompt was refused.
func (s *Screen) DeclineCancel() error {
	return s.dispatch(s.render)
}

func (s *Screen) State() (State, error) {
	result := make(chan State, 1)
	if err := s.dispatch(func() { result <- s.machine.State() }); err != nil {
		return 0, err
	}
	select {
	case state := <-result:
		return state, nil
	case <-s.done:
		return 0, ErrClosed
	}
}

// Close tears the screen down without resetting the order.
func (s *Screen) Close() {
	s.shutdown()
	if s.started.Load() {
		<-s.done
	}
}

func (s *Screen) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-s.ctx.Done():
			s.shutdown()
			return
		case fn := <-s.actions:
			fn()
		}
	}
}

func (s *Screen) dispatch(fn func()) error {
	if s.closed.Load() {
		return ErrClosed
	}
	select {
	case s.actions <- fn:
		return nil
	case <-s.stop:
		return ErrClosed
	}
}

func (s *Screen) shutdown() {
	s.once.Do(func() {
		s.closed.Store(true)
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		close(s.stop)
		if s.cancel != nil {
			s.cancel()
		}
		metrics.ReceiptClosed()
	})
}

func (s *Screen) onEngineEvent(event processing.Event) {
	var ev Event
	switch e := event.(type) {
	case processing.Completed:
		ev = Completed{}
	case processing.Failed:
		ev = Failed{Kind: e.Kind}
	case processing.Aborted:
		ev = Aborted{}
	case processing.PendingUploadsUpdated:
		ev = UploadProgress{}
	case processing.WillFinishOrder:
		ev = WillFinishOrder{}
	default:
		return
	}
	if err := s.dispatch(func() { s.handle(ev) }); err != nil {
		slog.Debug("Dropped engine event for closed receipt", "userID", s.deps.UserID)
	}
}

func (s *Screen) handle(ev Event) {
	if s.dismissing {
		return
	}
	from := s.machine.State()
	effects := s.machine.Handle(ev)
	if to := s.machine.State(); to != from {
		metrics.RecordReceiptTransition(from.String(), to.String())
		slog.Info("Receipt state changed", "userID", s.deps.UserID, "from", from, "to", to)
	}
	for _, effect := range effects {
		s.apply(effect)
	}
}

func (s *Screen) apply(effect Effect) {
	switch effect {
	case EffectRender:
		s.render()
	case EffectStartProcessing:
		s.deps.Engine.StartProcessing()
	case EffectResumeProcessing:
		if err := s.deps.Products.LoadUserPhotobook(); err != nil {
			slog.Error("Failed to reload photobook", "error", err, "userID", s.deps.UserID)
		}
	case EffectRetryUpload:
		s.deps.Engine.StartPhotobookUpload()
	case EffectFinishOrder:
		s.deps.Engine.FinishOrder()
	case EffectShowPaymentMethods:
		s.deps.View.ShowPaymentMethods()
	case EffectAuthorizePayment:
		s.pay()
	case EffectShowFinishingOverlay:
		s.deps.View.ShowOverlay(FinishingOrderText)
	case EffectHideOverlay:
		s.deps.View.HideOverlay()
	case EffectConfirmCancel:
		s.deps.View.ConfirmCancel(CancelPromptTitle, CancelPromptMessage)
	case EffectDismiss:
		s.dismiss()
	}
}

func (s *Screen) render() {
	s.deps.View.Render(Render(s.machine.State(), s.renderInput()))
}

func (s *Screen) renderInput() RenderInput {
	in := RenderInput{
		PendingUploads:   s.deps.Engine.PendingUploads(),
		TotalUploads:     s.deps.Engine.TotalUploads(),
		ShippingMethodID: s.deps.Checkout.ShippingMethodID(),
	}
	if cost, ok := s.deps.Checkout.Cost(); ok {
		in.Cost = &cost
	}
	if id, ok := s.deps.Checkout.OrderID(); ok {
		in.OrderID = &id
	}
	if details, ok := s.deps.Checkout.Delivery(); ok {
		in.Delivery = &details
	}
	return in
}

func (s *Screen) pay() {
	if s.authorizing {
		return
	}
	if _, ok := s.deps.Checkout.Cost(); !ok {
		return
	}
	req, err := s.deps.Checkout.PaymentRequest()
	if err != nil {
		slog.Warn("Cannot authorize payment", "error", err, "userID", s.deps.UserID)
		return
	}

	sheet := resolvedJoin()
	if req.Method == payment.MethodPaySheet {
		sheet = NewJoin()
	}
	s.sheet = sheet
	s.authorizing = true

	ctx, cancel := context.WithCancel(s.ctx)
	s.authCancel = cancel

	s.deps.View.ShowOverlay(PreparingPaymentText)
	go func() {
		defer cancel()
		auth, err := s.deps.Payments.AuthorizePayment(ctx, req, &sheetDelegate{screen: s, join: sheet})
		sheet.Resolve()
		_ = s.dispatch(func() { s.paymentAuthorized(auth, err) })
	}()
}

func (s *Screen) paymentAuthorized(auth payment.Authorization, err error) {
	s.authorizing = false
	s.authCancel = nil
	if s.dismissing {
		return
	}
	if err != nil {
		s.deps.View.HideOverlay()
		if msg := payment.NewMessage(err); msg != nil {
			s.deps.View.ShowError(*msg)
		}
		return
	}
	s.deps.Checkout.SetAuthorization(auth)
	s.deps.Engine.FinishOrder()
}

func (s *Screen) dismiss() {
	if s.dismissing {
		return
	}
	s.dismissing = true
	if s.authCancel != nil {
		s.authCancel()
	}

	sheet := s.sheet
	s.deps.Engine.CancelProcessing(func() {
		go func() {
			<-sheet.Done()
			if err := s.dispatch(s.finishDismiss); err != nil {
				slog.Warn("Receipt closed before dismissal finished", "userID", s.deps.UserID)
			}
		}()
	})
}

func (s *Screen) finishDismiss() {
	s.deps.Products.Reset()
	s.deps.Checkout.Reset()
	if s.deps.Notifier != nil {
		s.deps.Notifier.ReceiptDidDismiss(s.deps.UserID)
	}
	s.deps.View.Close()
	if s.deps.OnDismiss != nil {
		s.deps.OnDismiss()
	}
	s.shutdown()
}

type sheetDelegate struct {
	screen *Screen
	join   *Join
}

func (d *sheetDelegate) ModalPresentationWillBegin() {
	_ = d.screen.dispatch(d.screen.deps.View.HideOverlay)
}

func (d *sheetDelegate) ModalPresentationDidFinish() {
	d.join.Resolve()
}
