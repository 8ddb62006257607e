package checkout

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"photobook-order-bot/internal/delivery"
	"photobook-order-bot/internal/file"
	"photobook-order-bot/internal/order"
	"photobook-order-bot/internal/payment"
	"photobook-order-bot/internal/processing"
)

var (
	ErrNoCost           = errors.New("order has not been priced")
	ErrNoShippingMethod = errors.New("no shipping method selected")
	ErrNoDelivery       = errors.New("no delivery details selected")
	ErrNoAssets         = errors.New("photobook has no photos")
)

// Session holds everything a user picked while checking out a single
// photobook. It is shared by the telegram handlers, the receipt and the
// processing engine, so every accessor locks.
type Session struct {
	mu sync.Mutex

	userID           int64
	title            string
	assets           []file.RequestFile
	cost             *Cost
	shippingMethodID int
	method           *payment.Method
	card             *payment.SavedCard
	auth             *payment.Authorization
	orderID          int
	delivery         *delivery.Details
	folder           string
}

func NewSession(userID int64) *Session {
	return &Session{userID: userID}
}

func (s *Session) UserID() int64 {
	return s.userID
}

func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Session) SetAssets(assets []file.RequestFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = append([]file.RequestFile(nil), assets...)
}

func (s *Session) AddAssets(assets ...file.RequestFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = append(s.assets, assets...)
}

func (s *Session) Assets() []file.RequestFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]file.RequestFile(nil), s.assets...)
}

func (s *Session) SetCost(cost Cost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cost = &cost
	if _, ok := cost.ShippingMethod(s.shippingMethodID); !ok && len(cost.ShippingMethods) > 0 {
		s.shippingMethodID = cost.ShippingMethods[0].ID
	}
}

func (s *Session) Cost() (Cost, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cost == nil {
		return Cost{}, false
	}
	return *s.cost, true
}

func (s *Session) SelectShippingMethod(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cost == nil {
		return ErrNoCost
	}
	if _, ok := s.cost.ShippingMethod(id); !ok {
		return fmt.Errorf("%w: %d", ErrNoShippingMethod, id)
	}
	s.shippingMethodID = id
	return nil
}

func (s *Session) ShippingMethodID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shippingMethodID
}

func (s *Session) SetPaymentMethod(method payment.Method) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.method = &method
}

func (s *Session) PaymentMethod() (payment.Method, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.method == nil {
		return 0, false
	}
	return *s.method, true
}

func (s *Session) SetSavedCard(card payment.SavedCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = &card
}

func (s *Session) SavedCard() (payment.SavedCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.card == nil {
		return payment.SavedCard{}, false
	}
	return *s.card, true
}

// PaymentRequest charges the total of the selected shipping method.
func (s *Session) PaymentRequest() (payment.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.method == nil {
		return payment.Request{}, payment.ErrNoPaymentMethod
	}
	if s.cost == nil {
		return payment.Request{}, ErrNoCost
	}
	shipping, ok := s.cost.ShippingMethod(s.shippingMethodID)
	if !ok {
		return payment.Request{}, ErrNoShippingMethod
	}

	req := payment.Request{
		UserID:      s.userID,
		Amount:      shipping.TotalCost,
		Currency:    s.cost.Currency,
		Description: s.description(),
		Method:      *s.method,
	}
	if *s.method == payment.MethodCard {
		if s.card == nil {
			return payment.Request{}, payment.ErrNoSavedCard
		}
		card := *s.card
		req.Card = &card
	}
	return req, nil
}

func (s *Session) SetAuthorization(auth payment.Authorization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = &auth
}

func (s *Session) Authorization() (payment.Authorization, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auth == nil {
		return payment.Authorization{}, false
	}
	return *s.auth, true
}

func (s *Session) SetOrderID(orderID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderID = orderID
}

func (s *Session) OrderID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderID, s.orderID != 0
}

func (s *Session) SetDelivery(details delivery.Details) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivery = &details
}

func (s *Session) Delivery() (delivery.Details, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delivery == nil {
		return delivery.Details{}, false
	}
	return *s.delivery, true
}

// Folder is the storage folder of the current photobook, empty until the
// first Job call.
func (s *Session) Folder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.folder
}

// Job snapshots the session for the processing engine.
func (s *Session) Job() (processing.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.assets) == 0 {
		return processing.Job{}, ErrNoAssets
	}
	if s.cost == nil {
		return processing.Job{}, ErrNoCost
	}
	shipping, ok := s.cost.ShippingMethod(s.shippingMethodID)
	if !ok {
		return processing.Job{}, ErrNoShippingMethod
	}
	if s.delivery == nil {
		return processing.Job{}, ErrNoDelivery
	}
	if s.folder == "" {
		s.folder = order.CreateFolderPath(s.userID, s.title, time.Now())
	}

	items := make([]order.LineItem, 0, len(s.cost.LineItems)+1)
	for _, item := range s.cost.LineItems {
		items = append(items, order.LineItem{Name: item.Name, Cost: item.Cost})
	}
	items = append(items, order.LineItem{Name: "Shipping: " + shipping.Name, Cost: shipping.ShippingCost})

	job := processing.Job{
		UserID:         s.userID,
		Title:          s.title,
		Folder:         s.folder,
		Assets:         append([]file.RequestFile(nil), s.assets...),
		Delivery:       *s.delivery,
		ShippingMethod: shipping.Name,
		LineItems:      items,
		Total:          shipping.TotalCost,
		Currency:       s.cost.Currency,
	}
	if s.auth != nil {
		job.Authorization = *s.auth
	}
	return job, nil
}

// Reset forgets the current photobook. The saved card survives.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.title = ""
	s.assets = nil
	s.cost = nil
	s.shippingMethodID = 0
	s.method = nil
	s.auth = nil
	s.orderID = 0
	s.delivery = nil
	s.folder = ""
}

func (s *Session) description() string {
	if s.title == "" {
		return "Photobook"
	}
	return fmt.Sprintf("Photobook \"%s\"", s.title)
}
