package photobook

import (
	"context"
	"log/slog"
	"time"

	"photobook-order-bot/internal/checkout"
	"photobook-order-bot/internal/file"
)

const storeTimeout = 5 * time.Second

type Sink interface {
	SetTitle(title string)
	SetAssets(assets []file.RequestFile)
	SetCost(cost checkout.Cost)
}

// Products is the user's draft album as seen from checkout.
type Products struct {
	store   Store
	userID  int64
	sink    Sink
	pricing checkout.Pricing
}

func NewProducts(store Store, userID int64, sink Sink, pricing checkout.Pricing) *Products {
	return &Products{
		store:   store,
		userID:  userID,
		sink:    sink,
		pricing: pricing,
	}
}

func (p *Products) Album(ctx context.Context) (Album, error) {
	album, err := p.store.Load(ctx, p.userID)
	if err != nil {
		return Album{}, err
	}
	if album == nil {
		return Album{}, nil
	}
	return *album, nil
}

func (p *Products) SetTitle(ctx context.Context, title string) error {
	album, err := p.Album(ctx)
	if err != nil {
		return err
	}
	album.Title = title
	album.UpdatedAt = time.Now().UTC()
	return p.store.Save(ctx, p.userID, album)
}

// AddPhotos appends photos to the draft, skipping telegram files already in it.
func (p *Products) AddPhotos(ctx context.Context, photos ...file.RequestFile) (int, error) {
	album, err := p.Album(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(album.Photos))
	for _, photo := range album.Photos {
		seen[photo.TGFileID] = struct{}{}
	}
	for _, photo := range photos {
		if _, ok := seen[photo.TGFileID]; ok {
			continue
		}
		seen[photo.TGFileID] = struct{}{}
		album.Photos = append(album.Photos, photo)
	}
	album.UpdatedAt = time.Now().UTC()

	if err := p.store.Save(ctx, p.userID, album); err != nil {
		return 0, err
	}
	return len(album.Photos), nil
}

// LoadUserPhotobook pushes the stored draft into checkout and prices it.
func (p *Products) LoadUserPhotobook() error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	album, err := p.Album(ctx)
	if err != nil {
		return err
	}
	if len(album.Photos) == 0 {
		return ErrEmptyAlbum
	}

	p.sink.SetTitle(album.Title)
	p.sink.SetAssets(album.Photos)
	p.sink.SetCost(p.pricing.Quote(album.Title, len(album.Photos)))
	return nil
}

func (p *Products) Reset() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := p.store.Delete(ctx, p.userID); err != nil {
		slog.Error("Failed to delete photobook draft", "error", err, "userID", p.userID)
	}
}
