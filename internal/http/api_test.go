package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_Flow(t *testing.T) {
	app, _ := newTestApp(t)

	resp := do(t, app, http.MethodPost, "/auth/register", "", `{"email":"dana@storefront.test","name":"Dana","password":"weak"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, http.MethodPost, "/auth/register", "", `{"email":"dana@storefront.test","name":"Dana","password":"Str0ng!pass"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = do(t, app, http.MethodPost, "/auth/login", "", `{"email":"dana@storefront.test","password":"nope"}`)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", errorOf(t, resp))

	resp = do(t, app, http.MethodPost, "/auth/login", "", `{"email":"dana@storefront.test","password":"Str0ng!pass"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	// cookie and bearer token are interchangeable
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: cookie.Value})
	me, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, me.StatusCode)
	var u struct {
		Email string `json:"email"`
		Role  string `json:"role"`
		Hash  string `json:"password_hash"`
	}
	decode(t, me, &u)
	assert.Equal(t, "dana@storefront.test", u.Email)
	assert.Equal(t, "USER", u.Role)
	assert.Empty(t, u.Hash)

	resp = do(t, app, http.MethodPost, "/auth/logout", cookie.Value, "")
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/users/me", cookie.Value, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProducts_DetailAndAvailability(t *testing.T) {
	app, _ := newTestApp(t)

	resp := do(t, app, http.MethodGet, "/products/radio-001", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var p struct {
		Name  string `json:"name"`
		Price string `json:"price"`
	}
	decode(t, resp, &p)
	assert.Equal(t, "Philco 1939", p.Name)
	assert.Equal(t, "349.50", p.Price)

	resp = do(t, app, http.MethodGet, "/products/ghost", "", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found", errorOf(t, resp))

	resp = do(t, app, http.MethodGet, "/products/radio-001/availability", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var a struct {
		Status string `json:"status"`
		Qty    int    `json:"qty"`
	}
	decode(t, resp, &a)
	assert.Equal(t, "LOW_STOCK", a.Status)
	assert.Equal(t, 2, a.Qty)
}

func TestProducts_SellerLifecycle(t *testing.T) {
	app, db := newTestApp(t)
	alice := login(t, app, "alice@storefront.test")
	sam := login(t, app, "sam@storefront.test")

	body := `{"name":"Atari 2600","description":"Woodgrain","category":"consoles","price":"89.99","stock_quantity":4}`
	resp := do(t, app, http.MethodPost, "/products", alice, body)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = do(t, app, http.MethodPost, "/products", sam, body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var p struct {
		ID     string `json:"id"`
		Seller string `json:"seller"`
	}
	decode(t, resp, &p)
	assert.Equal(t, "u-sam", p.Seller)

	resp = do(t, app, http.MethodPatch, "/products/"+p.ID, sam, `{"stock_quantity":9}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 9, stockOf(t, db, p.ID))

	resp = do(t, app, http.MethodDelete, "/products/"+p.ID, alice, "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = do(t, app, http.MethodDelete, "/products/"+p.ID, sam, "")
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/products/"+p.ID, "", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestOrder_SurvivesProductDeletion(t *testing.T) {
	app, _ := newTestApp(t)
	alice := login(t, app, "alice@storefront.test")
	admin := login(t, app, "admin@storefront.test")

	resp := do(t, app, http.MethodPost, "/orders", alice, `{"items":[{"id":"nes-001","quantity":1}]}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var o orderBody
	decode(t, resp, &o)

	resp = do(t, app, http.MethodDelete, "/products/nes-001", admin, "")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/orders/"+o.ID, alice, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &o)
	require.Len(t, o.Items, 1)
	assert.Nil(t, o.Items[0].Product)
	assert.Equal(t, "199.00", o.Items[0].PriceAtPurchase)
}

func TestWishlistAndReviews(t *testing.T) {
	app, _ := newTestApp(t)
	bob := login(t, app, "bob@storefront.test")

	resp := do(t, app, http.MethodPost, "/wishlist/toggle", bob, `{"productId":"gbc-001"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var tg struct {
		Saved bool `json:"saved"`
	}
	decode(t, resp, &tg)
	assert.True(t, tg.Saved)

	resp = do(t, app, http.MethodGet, "/wishlist", bob, "")
	var items []map[string]any
	decode(t, resp, &items)
	assert.Len(t, items, 1)

	resp = do(t, app, http.MethodPost, "/wishlist/toggle", bob, `{"productId":"ghost"}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	review := `{"product":"gbc-001","rating":5,"comment":"Still works"}`
	resp = do(t, app, http.MethodPost, "/reviews", bob, review)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You can only review products you have purchased.", errorOf(t, resp))

	resp = do(t, app, http.MethodPost, "/orders", bob, `{"items":[{"id":"gbc-001","quantity":1}]}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = do(t, app, http.MethodPost, "/reviews", bob, review)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = do(t, app, http.MethodPost, "/reviews", bob, review)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/products/gbc-001/reviews", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var reviews []struct {
		UserName string `json:"user_name"`
		Rating   int    `json:"rating"`
	}
	decode(t, resp, &reviews)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Bob", reviews[0].UserName)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	app, _ := newTestApp(t)
	resp := do(t, app, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, errorOf(t, resp))
}
