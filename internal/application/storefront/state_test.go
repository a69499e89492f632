package storefront

import (
	"errors"
	"testing"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedState(t *testing.T) State {
	s, err := Reduce(NewState(), CatalogLoaded(testCatalog(t), fixedNow))
	require.NoError(t, err)
	return s
}

func TestReduce_CartActions(t *testing.T) {
	s := loadedState(t)

	t.Run("increment stops at inventory", func(t *testing.T) {
		next := s
		for i := 0; i < 4; i++ {
			var err error
			next, err = Reduce(next, Increment("Gadget"))
			require.NoError(t, err)
		}
		assert.Equal(t, 2, next.Cart.CurrentQuantity("Gadget"))
	})

	t.Run("decrement stops at zero", func(t *testing.T) {
		next, err := Reduce(s, Decrement("Widget"))
		require.NoError(t, err)
		assert.Equal(t, 0, next.Cart.CurrentQuantity("Widget"))
	})

	t.Run("input state is not mutated", func(t *testing.T) {
		next, err := Reduce(s, Increment("Widget"))
		require.NoError(t, err)
		assert.Equal(t, 1, next.Cart.CurrentQuantity("Widget"))
		assert.Equal(t, 0, s.Cart.CurrentQuantity("Widget"))
	})

	t.Run("unknown product is a no-op", func(t *testing.T) {
		next, err := Reduce(s, Increment("Nope"))
		require.NoError(t, err)
		assert.True(t, next.Cart.IsEmpty())
	})

	t.Run("reset clears the cart", func(t *testing.T) {
		next, _ := Reduce(s, Increment("Widget"))
		next, err := Reduce(next, ResetCart())
		require.NoError(t, err)
		assert.True(t, next.Cart.IsEmpty())
		assert.Same(t, s.Catalog, next.Catalog)
	})
}

func TestReduce_CatalogLoadedReconciles(t *testing.T) {
	s := loadedState(t)
	s, _ = Reduce(s, Increment("Widget"))
	s, _ = Reduce(s, Increment("Widget"))
	s, _ = Reduce(s, Increment("Widget"))
	s, _ = Reduce(s, Increment("Gadget"))
	s.LastError = "Error loading products: boom. Check SPREADSHEET_URL."

	next := catalog.NewCatalog([]catalog.Product{
		product(t, "Widget", 1, "2.50"),
	}, fixedNow)

	after, err := Reduce(s, CatalogLoaded(next, fixedNow))
	require.NoError(t, err)

	assert.Equal(t, 1, after.Cart.CurrentQuantity("Widget"))
	assert.Equal(t, 0, after.Cart.CurrentQuantity("Gadget"))
	assert.Equal(t, []string{"Widget"}, after.LastReconcile.Clamped)
	assert.Equal(t, []string{"Gadget"}, after.LastReconcile.Removed)
	assert.Empty(t, after.LastError)
	assert.Equal(t, fixedNow, after.LastRefresh)
	assert.Same(t, next, after.Catalog)

	// previous state still sees the old quantities
	assert.Equal(t, 3, s.Cart.CurrentQuantity("Widget"))
}

func TestReduce_CatalogFailedPreservesData(t *testing.T) {
	s := loadedState(t)
	s, _ = Reduce(s, Increment("Widget"))

	after, err := Reduce(s, CatalogFailed(shared.NewFetchError("HTTP error! status: 500", nil), fixedNow))
	require.NoError(t, err)

	assert.Same(t, s.Catalog, after.Catalog)
	assert.Equal(t, 1, after.Cart.CurrentQuantity("Widget"))
	assert.Equal(t, "Error loading products: HTTP error! status: 500. Check SPREADSHEET_URL.", after.LastError)
	assert.Equal(t, s.LastRefresh, after.LastRefresh)
}

func TestReduce_UnknownAction(t *testing.T) {
	_, err := Reduce(NewState(), Action{Type: "cart.explode"})
	assert.Error(t, err)
}

func TestParseCartAction(t *testing.T) {
	a, err := ParseCartAction("increment", "Widget")
	require.NoError(t, err)
	assert.Equal(t, Increment("Widget"), a)

	a, err = ParseCartAction("cart.decrement", "Widget")
	require.NoError(t, err)
	assert.Equal(t, Decrement("Widget"), a)

	_, err = ParseCartAction("explode", "Widget")
	assert.True(t, shared.IsKind(err, shared.CodeValidation))
}

func TestMessages(t *testing.T) {
	assert.Equal(t, MsgCatalogNotConfigured, LoadErrorMessage(shared.NewConfigError("SPREADSHEET_URL is not configured")))
	assert.Equal(t, "Error loading products: timeout. Check SPREADSHEET_URL.", LoadErrorMessage(errors.New("timeout")))

	assert.Equal(t, MsgSubmitNotConfigured, SubmitErrorMessage(shared.NewConfigError("APPS_SCRIPT_URL is not configured")))
	assert.Equal(t, "Please select at least one item and provide an email.",
		SubmitErrorMessage(shared.NewValidationError("Please select at least one item and provide an email.")))
	assert.Equal(t, "Error submitting order: Apps Script error: quota exceeded",
		SubmitErrorMessage(shared.NewSubmissionError("Apps Script error: quota exceeded", nil)))
}
