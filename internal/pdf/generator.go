package pdf

import (
	"errors"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var ErrNoPhotos = errors.New("photobook has no photos")

type Book struct {
	Title    string
	Subtitle string
	Photos   []string
}

type Generator interface {
	Generate(book Book) ([]byte, error)
}

// MarotoGenerator lays out a cover page followed by one photo per page.
type MarotoGenerator struct {
	photoHeight float64
}

func NewMarotoGenerator() *MarotoGenerator {
	return &MarotoGenerator{photoHeight: 240}
}

func (g *MarotoGenerator) Generate(book Book) ([]byte, error) {
	if len(book.Photos) == 0 {
		return nil, ErrNoPhotos
	}

	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(10).
		WithTopMargin(15).
		WithRightMargin(10).
		Build()

	m := maroto.New(cfg)

	title := book.Title
	if title == "" {
		title = "My Photobook"
	}
	m.AddRow(100)
	m.AddRow(20, text.NewCol(12, title, props.Text{
		Size:  28,
		Style: fontstyle.Bold,
		Align: align.Center,
	}))
	m.AddRow(4, line.NewCol(12))
	if book.Subtitle != "" {
		m.AddRow(10, text.NewCol(12, book.Subtitle, props.Text{
			Size:  12,
			Style: fontstyle.Italic,
			Align: align.Center,
		}))
	}
	m.AddRow(10, text.NewCol(12, fmt.Sprintf("%d pages", len(book.Photos)), props.Text{
		Size:  10,
		Align: align.Center,
	}))

	for _, photo := range book.Photos {
		m.AddPages(page.New().Add(
			row.New(g.photoHeight).Add(
				image.NewFromFileCol(12, photo, props.Rect{
					Center:  true,
					Percent: 95,
				}),
			),
		))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate photobook pdf: %w", err)
	}
	return doc.GetBytes(), nil
}
