package pdf

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	billdomain "github.com/smallbiznis/tillpoint/internal/bill/domain"
	"go.uber.org/fx"
)

// Renderer turns a settled bill into a printable receipt.
type Renderer struct {
	appName string
}

func NewRenderer() *Renderer {
	return &Renderer{appName: "TillPoint"}
}

func (r *Renderer) Render(bill *billdomain.SettledBill) ([]byte, error) {
	cfg := marotocfg.NewBuilder().
		WithLeftMargin(10).
		WithRightMargin(10).
		WithTopMargin(10).
		Build()

	m := maroto.New(cfg)

	m.AddRow(10, col.New(12).Add(
		text.New(r.appName, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Center}),
	))
	m.AddRow(6, col.New(12).Add(
		text.New(fmt.Sprintf("Bill %d  /  %s", bill.BillNo, bill.LocationCode),
			props.Text{Size: 10, Align: align.Center}),
	))
	m.AddRow(6, col.New(12).Add(
		text.New(bill.SettledAt.Format("2006-01-02 15:04:05"),
			props.Text{Size: 8, Align: align.Center}),
	))

	m.AddRow(7,
		col.New(6).Add(text.New("Item", props.Text{Size: 9, Style: fontstyle.Bold})),
		col.New(2).Add(text.New("Qty", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right})),
		col.New(2).Add(text.New("Rate", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right})),
		col.New(2).Add(text.New("Amount", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right})),
	)

	for _, item := range bill.Items {
		name := item.ItemName
		if name == "" {
			name = item.ItemCode
		}
		amount := item.Rate.Mul(intToDecimal(item.Quantity))
		m.AddRow(6,
			col.New(6).Add(text.New(name, props.Text{Size: 8})),
			col.New(2).Add(text.New(fmt.Sprintf("%d", item.Quantity), props.Text{Size: 8, Align: align.Right})),
			col.New(2).Add(text.New(item.Rate.StringFixed(2), props.Text{Size: 8, Align: align.Right})),
			col.New(2).Add(text.New(amount.StringFixed(2), props.Text{Size: 8, Align: align.Right})),
		)
	}

	m.AddRow(8,
		col.New(8).Add(text.New("Total", props.Text{Size: 10, Style: fontstyle.Bold})),
		col.New(4).Add(text.New(bill.Total.StringFixed(2),
			props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right})),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func intToDecimal(v int) decimal.Decimal {
	return decimal.NewFromInt(int64(v))
}

var Module = fx.Module("providers.pdf",
	fx.Provide(NewRenderer),
)
