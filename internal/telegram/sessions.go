package telegram

import (
	"log/slog"
	"sync"

	"photobook-order-bot/internal/checkout"
	"photobook-order-bot/internal/photobook"
	"photobook-order-bot/internal/receipt"
)

type userSession struct {
	checkout *checkout.Session
	products *photobook.Products
	screen   *receipt.Screen
}

// Sessions owns one checkout per user and the receipt opened for it.
type Sessions struct {
	albums  photobook.Store
	pricing checkout.Pricing
	users   map[int64]*userSession
	mu      sync.Mutex
}

func NewSessions(albums photobook.Store, pricing checkout.Pricing) *Sessions {
	return &Sessions{
		albums:  albums,
		pricing: pricing,
		users:   make(map[int64]*userSession),
	}
}

func (s *Sessions) get(userID int64) *userSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.users[userID]
	if !ok {
		co := checkout.NewSession(userID)
		sess = &userSession{
			checkout: co,
			products: photobook.NewProducts(s.albums, userID, co, s.pricing),
		}
		s.users[userID] = sess
	}
	return sess
}

func (s *Sessions) Checkout(userID int64) *checkout.Session {
	return s.get(userID).checkout
}

func (s *Sessions) Products(userID int64) *photobook.Products {
	return s.get(userID).products
}

func (s *Sessions) Screen(userID int64) (*receipt.Screen, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.users[userID]
	if !ok || sess.screen == nil {
		return nil, false
	}
	return sess.screen, true
}

func (s *Sessions) setScreen(userID int64, screen *receipt.Screen) {
	sess := s.get(userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.screen = screen
}

func (s *Sessions) ReceiptDidDismiss(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.users[userID]; ok {
		sess.screen = nil
	}
	slog.Info("Receipt dismissed", "userID", userID)
}

// ActiveFolders lists storage folders of receipts that are still open.
func (s *Sessions) ActiveFolders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var folders []string
	for _, sess := range s.users {
		if sess.screen == nil {
			continue
		}
		if folder := sess.checkout.Folder(); folder != "" {
			folders = append(folders, folder)
		}
	}
	return folders
}

// CloseAll tears every open receipt down without touching the orders.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	var screens []*receipt.Screen
	for _, sess := range s.users {
		if sess.screen != nil {
			screens = append(screens, sess.screen)
		}
	}
	s.mu.Unlock()

	for _, screen := range screens {
		screen.Close()
	}
}
