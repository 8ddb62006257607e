package receipt

import (
	"fmt"

	"photobook-order-bot/internal/checkout"
	"photobook-order-bot/internal/delivery"
)

const (
	PreparingPaymentText = "Preparing Payment"
	FinishingOrderText   = "Finishing order"

	CancelPromptTitle   = "Cancel Order?"
	CancelPromptMessage = "You have not been charged yet. Please note, if you cancel your design will be lost."
)

const (
	infoDescriptionCompleted     = "We have received your photos and we will begin processing your photobook shortly"
	infoDescriptionError         = "Something happened and we can't receive your photos at this point. You can retry or cancel and be refunded"
	infoDescriptionCancelled     = "Something happened and we can't receive your photos at this point but we haven't charged you anything"
	infoDescriptionPaymentFailed = "The charge for your book was declined.\nYou can retry with another method"
)

// RenderInput is everything besides the state that the receipt shows.
type RenderInput struct {
	PendingUploads   int
	TotalUploads     int
	Cost             *checkout.Cost
	ShippingMethodID int
	OrderID          *int
	Delivery         *delivery.Details
}

type ViewModel struct {
	State     State
	Title     string
	Dismiss   DismissButton
	Progress  *Progress
	Info      *Info
	Details   *Details
	LineItems []LineItem
	Footer    *Footer
}

type DismissButton struct {
	Label   string
	Enabled bool
}

type Progress struct {
	Pending int
	Total   int
}

func (p Progress) Uploaded() int {
	if p.Pending > p.Total {
		return 0
	}
	return p.Total - p.Pending
}

type Info struct {
	Icon        string
	Title       string
	Description string
	Primary     string
	Secondary   string
}

type Details struct {
	OrderNumber       string
	OrderNumberDimmed bool
	ShippingMethod    string
	Address           []string
}

type LineItem struct {
	Name string
	Cost string
}

type Footer struct {
	Total string
}

// RowCount mirrors a sectioned list: header, progress, info, details,
// line items and footer.
func (v ViewModel) RowCount() int {
	rows := 1
	if v.Progress != nil {
		rows++
	}
	if v.Info != nil {
		rows++
	}
	if v.Details != nil {
		rows++
	}
	rows += len(v.LineItems)
	if v.Footer != nil {
		rows++
	}
	return rows
}

func Render(state State, in RenderInput) ViewModel {
	vm := ViewModel{
		State:   state,
		Title:   title(state),
		Dismiss: dismissButton(state),
	}

	if state == StateUploading {
		vm.Progress = &Progress{Pending: in.PendingUploads, Total: in.TotalUploads}
	} else {
		vm.Info = info(state)
	}

	if state == StateCancelled {
		return vm
	}

	vm.Details = details(state, in)
	vm.LineItems = lineItems(in.Cost)
	vm.Footer = footer(in)
	return vm
}

func title(state State) string {
	switch state {
	case StateUploading:
		return "Processing Order"
	case StateCompleted:
		return "Order Complete"
	case StateError:
		return "Upload Failed"
	case StateCancelled:
		return "Order Cancelled"
	case StatePaymentFailed, StatePaymentRetry:
		return "Payment Failed"
	}
	return ""
}

func dismissButton(state State) DismissButton {
	switch state {
	case StateUploading:
		return DismissButton{Enabled: false}
	case StateCompleted:
		return DismissButton{Label: "Continue", Enabled: true}
	default:
		return DismissButton{Label: "Cancel", Enabled: true}
	}
}

func info(state State) *Info {
	switch state {
	case StateCompleted:
		return &Info{Icon: "👍", Title: "READY TO PRINT", Description: infoDescriptionCompleted}
	case StateError:
		return &Info{Icon: "😰", Title: "SOMETHING WENT WRONG!", Description: infoDescriptionError, Primary: "RETRY"}
	case StateCancelled:
		return &Info{Icon: "😵", Title: "ORDER CANCELLED", Description: infoDescriptionCancelled, Primary: "OK"}
	case StatePaymentFailed:
		return &Info{Icon: "😔", Title: "YOUR PAYMENT METHOD FAILED", Description: infoDescriptionPaymentFailed, Primary: "UPDATE"}
	case StatePaymentRetry:
		return &Info{Icon: "😔", Title: "YOUR PAYMENT METHOD FAILED", Description: infoDescriptionPaymentFailed, Primary: "RETRY", Secondary: "UPDATE"}
	}
	return nil
}

func details(state State, in RenderInput) *Details {
	d := &Details{OrderNumberDimmed: true}

	switch state {
	case StateUploading:
		d.OrderNumber = "Pending"
	case StateCompleted:
		if in.OrderID != nil {
			d.OrderNumber = fmt.Sprintf("#%d", *in.OrderID)
			d.OrderNumberDimmed = false
		} else {
			d.OrderNumber = "N/A"
		}
	default:
		d.OrderNumber = "Failed"
	}

	if in.Cost != nil {
		if method, ok := in.Cost.ShippingMethod(in.ShippingMethodID); ok {
			d.ShippingMethod = method.Name
		}
	}
	if in.Delivery != nil {
		d.Address = in.Delivery.AddressLines()
	}
	return d
}

func lineItems(cost *checkout.Cost) []LineItem {
	if cost == nil {
		return nil
	}
	items := make([]LineItem, len(cost.LineItems))
	for i, item := range cost.LineItems {
		items[i] = LineItem{
			Name: item.Name,
			Cost: checkout.FormatCost(item.Cost, cost.Currency),
		}
	}
	return items
}

func footer(in RenderInput) *Footer {
	f := &Footer{}
	if in.Cost == nil {
		return f
	}
	if method, ok := in.Cost.ShippingMethod(in.ShippingMethodID); ok {
		f.Total = checkout.FormatCost(method.TotalCost, in.Cost.Currency)
	}
	return f
}
