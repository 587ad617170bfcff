package targets

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/productimport/internal/core"
)

// ProductKey is the registry key of the product target.
const ProductKey = "product"

// Product is one catalogue entry.
type Product struct {
	Code         string
	Name         string
	Description  string
	Discontinued pgtype.Timestamptz
	Stock        pgtype.Int4
	Cost         pgtype.Numeric

	Added   time.Time
	Updated time.Time
}

// PrePersist stamps the added and updated times.
func (p *Product) PrePersist(now time.Time) {
	if p.Added.IsZero() {
		p.Added = now
	}
	p.Updated = now
}

// CostAndStockValid is false when both cost and stock are present and the
// product is cheaper than 5 with fewer than 10 in stock.
func (p *Product) CostAndStockValid() bool {
	cost, ok := core.NumericFloat(p.Cost)
	if !ok || !p.Stock.Valid {
		return true
	}
	return !(cost < 5 && p.Stock.Int32 < 10)
}

func init() {
	registerProducts()
}

func registerProducts() {
	both := []string{core.GroupDefault, core.GroupImport}
	imp := core.GroupImport

	core.Register(core.TargetDefinition{
		Info: core.TargetInfo{
			Key:   ProductKey,
			Label: "Products",
			Table: "products",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "code", Kind: core.KindText},
			{Name: "name", Kind: core.KindText},
			{Name: "description", Kind: core.KindText},
			{Name: "stock", Kind: core.KindInteger},
			{Name: "cost", Kind: core.KindDecimal},
			{Name: "discontinued", Kind: core.KindDiscontinued, DBColumn: "discontinued_at"},
		},
		New: newProduct,
		Rules: []core.Rule{
			core.NotBlank("code", productCode, both...),
			core.MaxLength("code", 10, productCode, both...),
			core.Unique("code", "code", productCode, both...),
			core.NotBlank("name", productName, both...),
			core.MaxLength("name", 50, productName, both...),
			core.NotBlank("description", productDescription, both...),
			core.MaxLength("description", 255, productDescription, both...),
			core.NotBlank("stock", productStock, imp),
			core.GreaterOrEqual("stock", 0, productStock, both...),
			core.NotBlank("cost", productCost, imp),
			core.LessOrEqual("cost", 1000, productCost, imp),
			core.Callback("costAndStock", "Stock less than 10 and cost less than 5",
				func(obj any) bool { return obj.(*Product).CostAndStockValid() }, imp),
		},
		Columns: []string{
			"code", "name", "description", "stock", "cost",
			"discontinued_at", "added_at", "updated_at",
		},
		Row: productRow,
	})
}

func newProduct(values map[string]any) (any, error) {
	p := &Product{}
	p.Code, _ = values["code"].(string)
	p.Name, _ = values["name"].(string)
	p.Description, _ = values["description"].(string)
	p.Stock, _ = values["stock"].(pgtype.Int4)
	p.Cost, _ = values["cost"].(pgtype.Numeric)
	p.Discontinued, _ = values["discontinued"].(pgtype.Timestamptz)
	return p, nil
}

func productRow(obj any) ([]any, error) {
	p, ok := obj.(*Product)
	if !ok {
		return nil, errors.Newf("expected *Product, got %T", obj)
	}
	return []any{
		p.Code, p.Name, p.Description, p.Stock, p.Cost,
		p.Discontinued, p.Added, p.Updated,
	}, nil
}

func productCode(obj any) any        { return obj.(*Product).Code }
func productName(obj any) any        { return obj.(*Product).Name }
func productDescription(obj any) any { return obj.(*Product).Description }
func productStock(obj any) any       { return obj.(*Product).Stock }
func productCost(obj any) any        { return obj.(*Product).Cost }
