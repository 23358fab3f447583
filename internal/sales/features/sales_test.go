package features

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"pos_sales/internal/auth"
	"pos_sales/internal/catalog"
	"pos_sales/internal/sales"
	"pos_sales/internal/storage"
)

type staticCatalog []catalog.Product

func (c staticCatalog) List(context.Context) ([]catalog.Product, error) {
	return c, nil
}

type salesTestContext struct {
	products []catalog.Product
	draft    *sales.Draft
	svc      *sales.Service
	user     auth.Identity
	sale     *sales.Sale
	err      error
}

func (c *salesTestContext) reset() {
	c.products = nil
	c.draft = nil
	c.svc = nil
	c.user = auth.Identity{}
	c.sale = nil
	c.err = nil
}

func (c *salesTestContext) service() *sales.Service {
	if c.svc == nil {
		c.svc = sales.NewService(storage.NewMemoryStore(), staticCatalog(c.products), nil)
	}
	return c.svc
}

func (c *salesTestContext) aProductPricedRetailAndWholesale(id string, retail, wholesale int) error {
	c.products = append(c.products, catalog.Product{
		ID:             id,
		Name:           strings.ToUpper(id[:1]) + id[1:],
		RetailPrice:    decimal.NewFromInt(int64(retail)),
		WholesalePrice: decimal.NewFromInt(int64(wholesale)),
	})
	return nil
}

func (c *salesTestContext) anEmptyDraftSale() error {
	c.draft = sales.NewDraft(c.products, sales.DefaultWholesaleThreshold)
	return nil
}

func (c *salesTestContext) iAddALineForWithQuantity(productID string, quantity int) error {
	i := c.draft.AddLine()
	if err := c.draft.SetProduct(i, productID); err != nil {
		return err
	}
	return c.draft.SetQuantity(i, quantity)
}

func (c *salesTestContext) iSetTheQuantityOfLineTo(line, quantity int) error {
	return c.draft.SetQuantity(line-1, quantity)
}

func (c *salesTestContext) theDraftIsPricedAt(tier string) error {
	want := tier == "wholesale"
	if c.draft.Wholesale != want {
		return fmt.Errorf("expected %s pricing, got wholesale=%v", tier, c.draft.Wholesale)
	}
	return nil
}

func (c *salesTestContext) lineHasUnitPriceAndSubtotal(line, price, subtotal int) error {
	if line < 1 || line > len(c.draft.Items) {
		return fmt.Errorf("draft has no line %d", line)
	}
	it := c.draft.Items[line-1]
	if !it.UnitPrice.Equal(decimal.NewFromInt(int64(price))) {
		return fmt.Errorf("line %d: expected unit price %d, got %s", line, price, it.UnitPrice)
	}
	if !it.Subtotal.Equal(decimal.NewFromInt(int64(subtotal))) {
		return fmt.Errorf("line %d: expected subtotal %d, got %s", line, subtotal, it.Subtotal)
	}
	return nil
}

func (c *salesTestContext) theDraftTotalIs(total int) error {
	if !c.draft.Total.Equal(decimal.NewFromInt(int64(total))) {
		return fmt.Errorf("expected total %d, got %s", total, c.draft.Total)
	}
	return nil
}

func (c *salesTestContext) iAmLoggedInAsAUser(role string) error {
	r := auth.Role(role)
	if !r.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	c.user = auth.Identity{ID: role + "-1", Name: role, Role: r}
	return nil
}

func (c *salesTestContext) iSubmitASaleOf(quantity int, productID string) error {
	sale, err := c.service().Submit(context.Background(), c.user, []sales.Line{{ProductID: productID, Quantity: quantity}})
	if err != nil {
		return err
	}
	c.sale = sale
	return nil
}

func (c *salesTestContext) theAdminApprovesTheSale() error {
	if c.sale == nil {
		return errors.New("no sale submitted")
	}
	approved, err := c.service().Approve(context.Background(), c.sale.ID)
	c.err = err
	if err == nil {
		c.sale = approved
	}
	return nil
}

func (c *salesTestContext) theAdminRejectsTheSale() error {
	if c.sale == nil {
		return errors.New("no sale submitted")
	}
	c.err = c.service().Reject(context.Background(), c.sale.ID)
	return nil
}

func (c *salesTestContext) theSaleIs(status string) error {
	if c.sale == nil {
		return errors.New("no sale submitted")
	}
	if string(c.sale.Status) != status {
		return fmt.Errorf("expected status %q, got %q", status, c.sale.Status)
	}
	return nil
}

func (c *salesTestContext) thePendingCollectionHolds(n int) error {
	pending, err := c.service().ListPending(context.Background())
	if err != nil {
		return err
	}
	if len(pending) != n {
		return fmt.Errorf("expected %d pending sales, got %d", n, len(pending))
	}
	return nil
}

func (c *salesTestContext) theApprovedCollectionHolds(n int) error {
	approved, err := c.service().ListApproved(context.Background())
	if err != nil {
		return err
	}
	if len(approved) != n {
		return fmt.Errorf("expected %d approved sales, got %d", n, len(approved))
	}
	return nil
}

func (c *salesTestContext) theAdminActionFailsWith(message string) error {
	if c.err == nil {
		return errors.New("expected admin action to fail but it succeeded")
	}
	if !strings.Contains(c.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got %q", message, c.err.Error())
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &salesTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a product "([^"]*)" priced (\d+) retail and (\d+) wholesale$`, tc.aProductPricedRetailAndWholesale)
	ctx.Step(`^an empty draft sale$`, tc.anEmptyDraftSale)
	ctx.Step(`^I am logged in as a "([^"]*)" user$`, tc.iAmLoggedInAsAUser)

	// When steps
	ctx.Step(`^I add a line for "([^"]*)" with quantity (\d+)$`, tc.iAddALineForWithQuantity)
	ctx.Step(`^I set the quantity of line (\d+) to (\d+)$`, tc.iSetTheQuantityOfLineTo)
	ctx.Step(`^I submit a sale of (\d+) "([^"]*)"$`, tc.iSubmitASaleOf)
	ctx.Step(`^the admin approves the sale$`, tc.theAdminApprovesTheSale)
	ctx.Step(`^the admin rejects the sale$`, tc.theAdminRejectsTheSale)

	// Then steps
	ctx.Step(`^the draft is priced at (retail|wholesale)$`, tc.theDraftIsPricedAt)
	ctx.Step(`^line (\d+) has unit price (\d+) and subtotal (\d+)$`, tc.lineHasUnitPriceAndSubtotal)
	ctx.Step(`^the draft total is (\d+)$`, tc.theDraftTotalIs)
	ctx.Step(`^the sale is "([^"]*)"$`, tc.theSaleIs)
	ctx.Step(`^the pending collection holds (\d+) sales$`, tc.thePendingCollectionHolds)
	ctx.Step(`^the approved collection holds (\d+) sales$`, tc.theApprovedCollectionHolds)
	ctx.Step(`^the admin action fails with "([^"]*)"$`, tc.theAdminActionFailsWith)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"sales.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
