package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/config"
	"pos-backend/internal/kvstore"
	"pos-backend/internal/models"
)

type client struct {
	t   *testing.T
	app *fiber.App
}

func newClient(t *testing.T) *client {
	cfg := &config.Config{
		JWTSecret:   "0123456789abcdef0123456789abcdef",
		TokenTTL:    time.Hour,
		CORSOrigins: "http://localhost:5173",
		Location:    time.UTC,
	}
	return &client{t: t, app: New(cfg, kvstore.NewMemory())}
}

// do sends a JSON request and decodes the JSON response into out when given.
func (c *client) do(method, path, token string, body any, out any) int {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		var b []byte
		switch v := body.(type) {
		case string:
			b = []byte(v)
		default:
			var err error
			b, err = json.Marshal(v)
			require.NoError(c.t, err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *client) login(email, password string) string {
	c.t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	status := c.do("POST", "/api/auth/login", "", fiber.Map{"email": email, "password": password}, &resp)
	require.Equal(c.t, fiber.StatusOK, status)
	return resp.Token
}

func (c *client) bootstrap() (manager, cashier string) {
	c.t.Helper()
	status := c.do("POST", "/api/auth/setup", "", fiber.Map{
		"name": "Manager", "email": "manager@toko.id", "password": "secret123",
	}, nil)
	require.Equal(c.t, fiber.StatusCreated, status)
	manager = c.login("manager@toko.id", "secret123")

	status = c.do("POST", "/api/auth/signup", manager, fiber.Map{
		"name": "Cashier", "email": "cashier@toko.id", "password": "secret123",
	}, nil)
	require.Equal(c.t, fiber.StatusCreated, status)
	return manager, c.login("cashier@toko.id", "secret123")
}

func (c *client) createProduct(token string, stock int) models.Product {
	c.t.Helper()
	var resp struct {
		Product models.Product `json:"product"`
	}
	status := c.do("POST", "/api/products", token, fiber.Map{
		"name": "Kue Lapis", "category": "cake", "sellingPrice": 10000, "costPrice": 6000, "stock": stock,
	}, &resp)
	require.Equal(c.t, fiber.StatusCreated, status)
	return resp.Product
}

func TestHealth(t *testing.T) {
	c := newClient(t)
	var body map[string]string
	assert.Equal(t, fiber.StatusOK, c.do("GET", "/health", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSaleFlow(t *testing.T) {
	c := newClient(t)
	manager, cashier := c.bootstrap()
	p := c.createProduct(manager, 5)

	var sale struct {
		Transaction models.Transaction `json:"transaction"`
	}
	status := c.do("POST", "/api/transactions", cashier, fiber.Map{
		"items": []fiber.Map{{"productId": p.ID, "quantity": 3}}, "discount": 0, "paymentMethod": "cash",
	}, &sale)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "30000", sale.Transaction.Total.String())
	assert.Equal(t, "12000", sale.Transaction.Profit.String())

	var failed errorBody
	status = c.do("POST", "/api/transactions", cashier, fiber.Map{
		"items": []fiber.Map{{"productId": p.ID, "quantity": 10}},
	}, &failed)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "insufficient stock for Kue Lapis. Available: 2, Requested: 10", failed.Error)

	status = c.do("POST", "/api/transactions", cashier, fiber.Map{
		"items": []fiber.Map{{"productId": "nope", "quantity": 1}},
	}, &failed)
	assert.Equal(t, fiber.StatusNotFound, status)

	var products struct {
		Products []models.Product `json:"products"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/products", cashier, nil, &products))
	require.Len(t, products.Products, 1)
	assert.Equal(t, 2, products.Products[0].Stock)

	var history struct {
		History []models.StockHistoryEntry `json:"history"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/stock/history?productId="+p.ID, cashier, nil, &history))
	require.Len(t, history.History, 2)
	assert.Equal(t, models.StockSale, history.History[0].Type)
	assert.Equal(t, models.StockRestock, history.History[1].Type)

	var list struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/transactions", cashier, nil, &list))
	assert.Len(t, list.Transactions, 1)

	var one struct {
		Transaction models.Transaction `json:"transaction"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/transactions/"+sale.Transaction.ID, cashier, nil, &one))
	assert.Equal(t, sale.Transaction.ID, one.Transaction.ID)

	var summary struct {
		Summary struct {
			TotalSales        json.Number `json:"totalSales"`
			TotalTransactions int         `json:"totalTransactions"`
			TotalItems        int         `json:"totalItems"`
		} `json:"summary"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/transactions/summary?date="+sale.Transaction.Date, cashier, nil, &summary))
	assert.Equal(t, "30000", summary.Summary.TotalSales.String())
	assert.Equal(t, 1, summary.Summary.TotalTransactions)
	assert.Equal(t, 3, summary.Summary.TotalItems)
}

func TestRoleGates(t *testing.T) {
	c := newClient(t)
	manager, cashier := c.bootstrap()
	p := c.createProduct(manager, 1)

	var e errorBody
	assert.Equal(t, fiber.StatusUnauthorized, c.do("GET", "/api/products", "", nil, &e))
	assert.Equal(t, fiber.StatusForbidden, c.do("POST", "/api/products", cashier, fiber.Map{"name": "x"}, &e))
	assert.Equal(t, fiber.StatusForbidden, c.do("PUT", "/api/stock/"+p.ID, cashier, fiber.Map{"change": 1}, &e))
	assert.Equal(t, fiber.StatusForbidden, c.do("GET", "/api/reports/sales", cashier, nil, &e))
	assert.Equal(t, fiber.StatusForbidden, c.do("GET", "/api/users", cashier, nil, &e))
	assert.Equal(t, fiber.StatusForbidden, c.do("GET", "/api/audit-logs", cashier, nil, &e))
	assert.Equal(t, fiber.StatusForbidden, c.do("GET", "/api/purchases", cashier, nil, &e))
	assert.Equal(t, "insufficient permissions", e.Error)
}

func TestStrictBodies(t *testing.T) {
	c := newClient(t)
	manager, cashier := c.bootstrap()
	p := c.createProduct(manager, 5)

	var e errorBody
	status := c.do("POST", "/api/transactions", cashier,
		`{"items":[{"productId":"`+p.ID+`","quantity":"3"}]}`, &e)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status = c.do("POST", "/api/transactions", cashier,
		`{"items":[{"productId":"`+p.ID+`","quantity":1}],"tip":500}`, &e)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status = c.do("POST", "/api/products", manager, `{"name":"Roti","stock":1,"supplier":"x"}`, &e)
	assert.Equal(t, fiber.StatusBadRequest, status)

	t.Run("money sent as strings", func(t *testing.T) {
		bodies := []struct {
			method, path, body string
		}{
			{"POST", "/api/transactions", `{"items":[{"productId":"` + p.ID + `","quantity":1}],"discount":"1000"}`},
			{"POST", "/api/products", `{"name":"Roti","sellingPrice":"10000","costPrice":6000,"stock":5}`},
			{"PUT", "/api/products/" + p.ID, `{"costPrice":"4000"}`},
			{"POST", "/api/purchases", `{"purchaseDate":"2024-01-05","supplier":"Pasar","fundingSource":"company",` +
				`"items":[{"itemName":"Tepung","quantity":"2","purchasePrice":15000}]}`},
			{"POST", "/api/purchases", `{"purchaseDate":"2024-01-05","supplier":"Pasar","fundingSource":"company",` +
				`"items":[{"itemName":"Tepung","quantity":2,"purchasePrice":"15000"}]}`},
		}
		for _, tc := range bodies {
			var e errorBody
			assert.Equal(t, fiber.StatusBadRequest, c.do(tc.method, tc.path, manager, tc.body, &e), tc.body)
		}
	})

	t.Run("trailing data", func(t *testing.T) {
		var e errorBody
		status := c.do("POST", "/api/transactions", cashier,
			`{"items":[{"productId":"`+p.ID+`","quantity":1}]}{"items":[]}`, &e)
		assert.Equal(t, fiber.StatusBadRequest, status)
		status = c.do("POST", "/api/transactions", cashier,
			`{"items":[{"productId":"`+p.ID+`","quantity":1}]} x`, &e)
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	// Nothing above reached the ledger.
	var got struct {
		Product models.Product `json:"product"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/products/"+p.ID, cashier, nil, &got))
	assert.Equal(t, 5, got.Product.Stock)
	assert.True(t, got.Product.CostPrice.Equal(decimal.NewFromInt(6000)))

	var txns struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/transactions", manager, nil, &txns))
	assert.Empty(t, txns.Transactions)

	var products struct {
		Products []models.Product `json:"products"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/products", cashier, nil, &products))
	assert.Len(t, products.Products, 1)

	// A numeric body with surrounding whitespace is fine.
	status = c.do("POST", "/api/transactions", cashier,
		"\n "+`{"items":[{"productId":"`+p.ID+`","quantity":1}],"discount":1000}`+" \n", nil)
	assert.Equal(t, fiber.StatusCreated, status)
}

func TestQueryBounds(t *testing.T) {
	c := newClient(t)
	manager, _ := c.bootstrap()

	paths := []string{
		"/api/transactions?limit=0",
		"/api/transactions?limit=abc",
		"/api/transactions?limit=1001",
		"/api/stock/history?limit=abc",
		"/api/stock/history?limit=0",
		"/api/audit-logs?limit=-1",
		"/api/dashboard/cash-chart?count=0",
		"/api/dashboard/cash-chart?count=abc",
		"/api/dashboard/cash-chart?period=weekly&count=367",
	}
	for _, path := range paths {
		var e errorBody
		assert.Equal(t, fiber.StatusBadRequest, c.do("GET", path, manager, nil, &e), path)
		assert.NotEmpty(t, e.Error, path)
	}

	for _, path := range []string{
		"/api/transactions?limit=1000",
		"/api/stock/history",
		"/api/dashboard/cash-chart?period=monthly&count=366",
	} {
		assert.Equal(t, fiber.StatusOK, c.do("GET", path, manager, nil, nil), path)
	}
}

func TestStockAdjustment(t *testing.T) {
	c := newClient(t)
	manager, _ := c.bootstrap()
	p := c.createProduct(manager, 3)

	var resp struct {
		Product models.Product           `json:"product"`
		Entry   models.StockHistoryEntry `json:"entry"`
	}
	status := c.do("PUT", "/api/stock/"+p.ID, manager, fiber.Map{"change": -2, "type": "damage", "reason": "dropped"}, &resp)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, resp.Product.Stock)
	assert.Equal(t, 3, resp.Entry.OldStock)
	assert.Equal(t, 1, resp.Entry.NewStock)

	var e errorBody
	assert.Equal(t, fiber.StatusBadRequest, c.do("PUT", "/api/stock/"+p.ID, manager, fiber.Map{"change": -2, "type": "damage"}, &e))
	assert.Equal(t, fiber.StatusBadRequest, c.do("PUT", "/api/stock/"+p.ID, manager, fiber.Map{"change": 0}, &e))
	assert.Equal(t, fiber.StatusBadRequest, c.do("PUT", "/api/stock/"+p.ID, manager, fiber.Map{"change": 1, "type": "sale"}, &e))
	assert.Equal(t, fiber.StatusNotFound, c.do("PUT", "/api/stock/missing", manager, fiber.Map{"change": 1}, &e))
	assert.Equal(t, fiber.StatusBadRequest, c.do("GET", "/api/stock/history?limit=5000", manager, nil, &e))
}

func TestOrderFlow(t *testing.T) {
	c := newClient(t)
	manager, cashier := c.bootstrap()
	p := c.createProduct(manager, 5)

	var created struct {
		Order models.Order `json:"order"`
	}
	status := c.do("POST", "/api/orders", cashier, fiber.Map{
		"customerName": "Ibu Ratna",
		"items":        []fiber.Map{{"productId": p.ID, "quantity": 2}},
		"deliveryDate": time.Now().UTC().Format(models.DateLayout),
		"deliveryTime": "09:00",
	}, &created)
	require.Equal(t, fiber.StatusCreated, status)
	id := created.Order.ID

	var upcoming struct {
		Orders []models.Order `json:"orders"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/orders/upcoming", cashier, nil, &upcoming))
	require.Len(t, upcoming.Orders, 1)

	var updated struct {
		Order models.Order `json:"order"`
	}
	for i := 0; i < 2; i++ {
		require.Equal(t, fiber.StatusOK, c.do("PUT", "/api/orders/"+id, cashier, fiber.Map{"status": "shipped"}, &updated))
		assert.True(t, updated.Order.StockReduced)
	}

	var product struct {
		Product models.Product `json:"product"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/products/"+p.ID, cashier, nil, &product))
	assert.Equal(t, 3, product.Product.Stock)

	var e errorBody
	assert.Equal(t, fiber.StatusBadRequest, c.do("PUT", "/api/orders/"+id, cashier, fiber.Map{"status": "pending"}, &e))
	assert.Equal(t, fiber.StatusForbidden, c.do("DELETE", "/api/orders/"+id, cashier, nil, &e))

	var ok map[string]bool
	require.Equal(t, fiber.StatusOK, c.do("DELETE", "/api/orders/"+id, manager, nil, &ok))
	assert.True(t, ok["success"])
	assert.Equal(t, fiber.StatusNotFound, c.do("GET", "/api/orders/"+id, cashier, nil, &e))

	var logs struct {
		Logs []models.AuditLog `json:"logs"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/audit-logs?entityType=order", manager, nil, &logs))
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, id, logs.Logs[0].EntityID)
}

func TestReportsAndPurchases(t *testing.T) {
	c := newClient(t)
	manager, cashier := c.bootstrap()
	p := c.createProduct(manager, 10)

	for _, qty := range []int{1, 2} {
		require.Equal(t, fiber.StatusCreated, c.do("POST", "/api/transactions", cashier, fiber.Map{
			"items": []fiber.Map{{"productId": p.ID, "quantity": qty}},
		}, nil))
	}

	var sales struct {
		Report []struct {
			Period           string      `json:"period"`
			TotalSales       json.Number `json:"totalSales"`
			TransactionCount int         `json:"transactionCount"`
		} `json:"report"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/reports/sales?groupBy=month", manager, nil, &sales))
	require.Len(t, sales.Report, 1)
	assert.Equal(t, "30000", sales.Report[0].TotalSales.String())
	assert.Equal(t, 2, sales.Report[0].TransactionCount)

	var e errorBody
	assert.Equal(t, fiber.StatusBadRequest, c.do("GET", "/api/reports/sales?groupBy=year", manager, nil, &e))

	var chart struct {
		Period      string `json:"period"`
		GrandTotals struct {
			Total json.Number `json:"total"`
		} `json:"grandTotals"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/dashboard/cash-chart", manager, nil, &chart))
	assert.Equal(t, "daily", chart.Period)
	assert.Equal(t, "30000", chart.GrandTotals.Total.String())

	var categories struct {
		Categories []struct {
			Name         string `json:"name"`
			ProductCount int    `json:"productCount"`
		} `json:"categories"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/products/categories", cashier, nil, &categories))
	require.Len(t, categories.Categories, 1)
	assert.Equal(t, "cake", categories.Categories[0].Name)

	var byProduct struct {
		Report []struct {
			ProductID    string `json:"productId"`
			QuantitySold int    `json:"quantitySold"`
		} `json:"report"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/reports/products", manager, nil, &byProduct))
	require.Len(t, byProduct.Report, 1)
	assert.Equal(t, 3, byProduct.Report[0].QuantitySold)

	var created struct {
		Purchase models.Purchase `json:"purchase"`
	}
	require.Equal(t, fiber.StatusCreated, c.do("POST", "/api/purchases", manager, fiber.Map{
		"purchaseDate":  "2024-01-05",
		"supplier":      "Pasar Baru",
		"fundingSource": "personal",
		"fundingOwner":  "Manager",
		"items":         []fiber.Map{{"itemName": "Gula", "quantity": 2, "purchasePrice": 15000}},
	}, &created))
	assert.Equal(t, "30000", created.Purchase.TotalAmount.String())

	assert.Equal(t, fiber.StatusBadRequest, c.do("POST", "/api/purchases", manager, fiber.Map{
		"purchaseDate":  "2024-01-05",
		"supplier":      "Pasar Baru",
		"fundingSource": "personal",
		"items":         []fiber.Map{{"itemName": "Gula", "quantity": 2, "purchasePrice": 15000}},
	}, &e))

	var product struct {
		Product models.Product `json:"product"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/products/"+p.ID, manager, nil, &product))
	assert.Equal(t, 7, product.Product.Stock)

	var summary struct {
		Summary struct {
			Count int `json:"count"`
		} `json:"summary"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/purchases/summary", manager, nil, &summary))
	assert.Equal(t, 1, summary.Summary.Count)

	var ok map[string]bool
	require.Equal(t, fiber.StatusOK, c.do("DELETE", "/api/purchases/"+created.Purchase.ID, manager, nil, &ok))
	assert.Equal(t, fiber.StatusNotFound, c.do("GET", "/api/purchases/"+created.Purchase.ID, manager, nil, &e))
}

func TestUserManagement(t *testing.T) {
	c := newClient(t)
	manager, cashier := c.bootstrap()

	var users struct {
		Users []models.User `json:"users"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/users", manager, nil, &users))
	require.Len(t, users.Users, 2)
	assert.Equal(t, "Cashier", users.Users[0].Name)

	var me struct {
		User models.User `json:"user"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/auth/me", cashier, nil, &me))

	var updated struct {
		User models.User `json:"user"`
	}
	require.Equal(t, fiber.StatusOK, c.do("PUT", "/api/users/"+me.User.ID, manager, fiber.Map{"role": "admin"}, &updated))
	assert.Equal(t, models.RoleAdmin, updated.User.Role)

	// The promotion applies to the existing token since roles are read per request.
	var e errorBody
	assert.Equal(t, fiber.StatusBadRequest, c.do("POST", "/api/products", cashier, fiber.Map{"name": ""}, &e))

	var self struct {
		User models.User `json:"user"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/auth/me", manager, nil, &self))
	assert.Equal(t, fiber.StatusBadRequest, c.do("PUT", "/api/users/"+self.User.ID, manager, fiber.Map{"role": "cashier"}, &e))
	assert.Equal(t, fiber.StatusNotFound, c.do("PUT", "/api/users/missing", manager, fiber.Map{"name": "x"}, &e))

	var logs struct {
		Logs []models.AuditLog `json:"logs"`
	}
	require.Equal(t, fiber.StatusOK, c.do("GET", "/api/audit-logs?entityType=user", manager, nil, &logs))
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, models.AuditActionUpdate, logs.Logs[0].Action)
}
