package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pizza-franchise-api/fulfillment"
	"pizza-franchise-api/handlers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubFactory satisfies fulfillment.Submitter without a network
type stubFactory struct {
	jwt string
	err error
}

func (s stubFactory) Submit(_ context.Context, _ fulfillment.FactoryOrder) (string, error) {
	return s.jwt, s.err
}

func useFactory(t *testing.T, f fulfillment.Submitter) {
	t.Helper()
	prev := handlers.Factory
	handlers.Factory = f
	t.Cleanup(func() { handlers.Factory = prev })
}

func addMenuItem(t *testing.T, adminToken string, price float64) map[string]interface{} {
	t.Helper()
	title := randomName()
	w := doJSON(t, http.MethodPut, "/api/order/menu", adminToken, gin.H{
		"title":       title,
		"description": "test description",
		"image":       "pizza1.png",
		"price":       price,
	})
	require.Equal(t, http.StatusOK, w.Code)
	for _, item := range decodeList(t, w) {
		if item["title"] == title {
			return item
		}
	}
	t.Fatalf("added menu item %q not in returned menu", title)
	return nil
}

// orderFixture builds a franchise, store, and menu item to order from
func orderFixture(t *testing.T) (franchiseID, storeID float64, menuItem map[string]interface{}) {
	t.Helper()
	admin, adminToken := createAdminUser(t)
	franchise := createFranchise(t, adminToken, admin.Email)
	franchiseID = franchise["id"].(float64)
	store := createStore(t, franchiseID, adminToken)
	return franchiseID, store["id"].(float64), addMenuItem(t, adminToken, 0.05)
}

func TestGetMenuPublic(t *testing.T) {
	_, adminToken := createAdminUser(t)
	item := addMenuItem(t, adminToken, 0.001)

	w := doJSON(t, http.MethodGet, "/api/order/menu", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var found map[string]interface{}
	for _, m := range decodeList(t, w) {
		if m["id"] == item["id"] {
			found = m
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, item["title"], found["title"])
	assert.Equal(t, 0.001, found["price"])
}

func TestAddMenuItemForbiddenForNonAdmin(t *testing.T) {
	_, dinerToken, _ := createDinerUser(t)
	w := doJSON(t, http.MethodPut, "/api/order/menu", dinerToken, gin.H{
		"title": randomName(), "price": 1.0,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAddMenuItemNegativePrice(t *testing.T) {
	_, adminToken := createAdminUser(t)
	w := doJSON(t, http.MethodPut, "/api/order/menu", adminToken, gin.H{
		"title": randomName(), "price": -1.0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrdersEmpty(t *testing.T) {
	user, token, _ := createDinerUser(t)

	w := doJSON(t, http.MethodGet, "/api/order", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, user["id"], body["dinerId"])
	assert.Empty(t, body["orders"])
	assert.Equal(t, float64(0), body["page"])
}

func TestCreateOrder(t *testing.T) {
	franchiseID, storeID, menuItem := orderFixture(t)
	_, dinerToken, _ := createDinerUser(t)

	var gotAuth, gotContentType string
	factory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jwt":"xxx"}`))
	}))
	defer factory.Close()
	useFactory(t, fulfillment.NewClient(factory.URL, "factory-key", zap.NewNop()))

	w := doJSON(t, http.MethodPost, "/api/order", dinerToken, gin.H{
		"franchiseId": franchiseID,
		"storeId":     storeID,
		"items":       []gin.H{{"menuId": menuItem["id"], "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "xxx", body["jwt"])

	order := body["order"].(map[string]interface{})
	assert.Equal(t, franchiseID, order["franchiseId"])
	assert.Equal(t, storeID, order["storeId"])
	assert.Equal(t, "FULFILLED", order["status"])
	assert.InDelta(t, 0.1, order["totalPrice"].(float64), 1e-9)

	items := order["items"].([]interface{})
	require.Len(t, items, 1)
	line := items[0].(map[string]interface{})
	assert.Equal(t, menuItem["id"], line["menuId"])
	assert.Equal(t, menuItem["price"], line["price"])

	assert.Equal(t, "Bearer factory-key", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
}

func TestCreateOrderIgnoresClientPrice(t *testing.T) {
	franchiseID, storeID, menuItem := orderFixture(t)
	_, dinerToken, _ := createDinerUser(t)
	useFactory(t, stubFactory{jwt: "xxx"})

	// client-sent price fields must not influence the total
	w := doJSON(t, http.MethodPost, "/api/order", dinerToken, gin.H{
		"franchiseId": franchiseID,
		"storeId":     storeID,
		"items":       []gin.H{{"menuId": menuItem["id"], "price": 0.0000001}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	order := decodeBody(t, w)["order"].(map[string]interface{})
	assert.InDelta(t, 0.05, order["totalPrice"].(float64), 1e-9)
}

func TestCreateOrderFactoryFailure(t *testing.T) {
	franchiseID, storeID, menuItem := orderFixture(t)
	diner, dinerToken, _ := createDinerUser(t)

	factory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer factory.Close()
	useFactory(t, fulfillment.NewClient(factory.URL, "factory-key", zap.NewNop()))

	w := doJSON(t, http.MethodPost, "/api/order", dinerToken, gin.H{
		"franchiseId": franchiseID,
		"storeId":     storeID,
		"items":       []gin.H{{"menuId": menuItem["id"]}},
	})
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "failed to fulfill order at factory", decodeBody(t, w)["message"])

	// the order is still recorded, as rejected, for audit
	w = doJSON(t, http.MethodGet, "/api/order", dinerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	orders := body["orders"].([]interface{})
	require.Len(t, orders, 1)
	order := orders[0].(map[string]interface{})
	assert.Equal(t, "REJECTED", order["status"])
	assert.Equal(t, diner["id"], order["dinerId"])
}

func TestCreateOrderTransportFailure(t *testing.T) {
	franchiseID, storeID, menuItem := orderFixture(t)
	_, dinerToken, _ := createDinerUser(t)
	useFactory(t, stubFactory{err: errors.New("connection refused")})

	w := doJSON(t, http.MethodPost, "/api/order", dinerToken, gin.H{
		"franchiseId": franchiseID,
		"storeId":     storeID,
		"items":       []gin.H{{"menuId": menuItem["id"]}},
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCreateOrderStoreFranchiseMismatch(t *testing.T) {
	franchiseID, _, menuItem := orderFixture(t)
	_, otherStoreID, _ := orderFixture(t)
	_, dinerToken, _ := createDinerUser(t)
	useFactory(t, stubFactory{jwt: "xxx"})

	w := doJSON(t, http.MethodPost, "/api/order", dinerToken, gin.H{
		"franchiseId": franchiseID,
		"storeId":     otherStoreID,
		"items":       []gin.H{{"menuId": menuItem["id"]}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderUnknownMenuItem(t *testing.T) {
	franchiseID, storeID, _ := orderFixture(t)
	_, dinerToken, _ := createDinerUser(t)
	useFactory(t, stubFactory{jwt: "xxx"})

	w := doJSON(t, http.MethodPost, "/api/order", dinerToken, gin.H{
		"franchiseId": franchiseID,
		"storeId":     storeID,
		"items":       []gin.H{{"menuId": 999999}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderTotalStableAgainstMenuChanges(t *testing.T) {
	franchiseID, storeID, menuItem := orderFixture(t)
	_, dinerToken, _ := createDinerUser(t)
	useFactory(t, stubFactory{jwt: "xxx"})

	w := doJSON(t, http.MethodPost, "/api/order", dinerToken, gin.H{
		"franchiseId": franchiseID,
		"storeId":     storeID,
		"items":       []gin.H{{"menuId": menuItem["id"]}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	placedTotal := decodeBody(t, w)["order"].(map[string]interface{})["totalPrice"].(float64)

	// menu churn after the fact must not touch the snapshotted total
	_, adminToken := createAdminUser(t)
	addMenuItem(t, adminToken, 99.99)

	w = doJSON(t, http.MethodGet, "/api/order", dinerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	orders := decodeBody(t, w)["orders"].([]interface{})
	require.Len(t, orders, 1)
	assert.Equal(t, placedTotal, orders[0].(map[string]interface{})["totalPrice"])
}

func TestGetOrdersForOtherDinerForbidden(t *testing.T) {
	victim, _, _ := createDinerUser(t)
	_, snoopToken, _ := createDinerUser(t)

	w := doJSON(t, http.MethodGet, "/api/order?dinerId="+idStr(victim["id"].(float64)), snoopToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetOrdersAsAdminForDiner(t *testing.T) {
	franchiseID, storeID, menuItem := orderFixture(t)
	diner, dinerToken, _ := createDinerUser(t)
	useFactory(t, stubFactory{jwt: "xxx"})

	w := doJSON(t, http.MethodPost, "/api/order", dinerToken, gin.H{
		"franchiseId": franchiseID,
		"storeId":     storeID,
		"items":       []gin.H{{"menuId": menuItem["id"]}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	_, adminToken := createAdminUser(t)
	w = doJSON(t, http.MethodGet, "/api/order?dinerId="+idStr(diner["id"].(float64)), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, diner["id"], body["dinerId"])
	assert.Len(t, body["orders"].([]interface{}), 1)
}
